package location

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nightchill/checkin-service/pkg/apperr"
	"github.com/nightchill/checkin-service/pkg/geo"
	"github.com/nightchill/checkin-service/pkg/service"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRadiusKm = 5.0
	DefaultLimit    = 20
	maxLimit        = 100

	defaultReviewLimit = 10
	maxReviewLimit     = 50
	maxReviewLength    = 2000
	maxTitleLength     = 120
)

// NearbyQuery filters a nearby search. Zero RadiusKm and Limit use the defaults.
type NearbyQuery struct {
	Latitude         float64
	Longitude        float64
	RadiusKm         float64
	Type             string
	AnxietyLevel     string
	BeginnerFriendly bool
	Limit            int
}

// NearbyLocation is a location annotated with its distance from the query point
type NearbyLocation struct {
	*service.Location
	Distance float64 `json:"distance"`
}

// ReviewPage is a page of reviews for a location
type ReviewPage struct {
	Reviews    []*service.Review  `json:"reviews"`
	Pagination service.Pagination `json:"pagination"`
}

// Service answers location queries and manages reviews.
type Service struct {
	store     service.LocationStore
	ugc       *bluemonday.Policy
	plainText *bluemonday.Policy
	now       func() time.Time
}

// NewService creates a location service. A nil clock uses time.Now.
func NewService(store service.LocationStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     store,
		ugc:       bluemonday.UGCPolicy(),
		plainText: bluemonday.StrictPolicy(),
		now:       now,
	}
}

// Nearby returns locations inside the radius, closest first
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) ([]NearbyLocation, error) {
	if !geo.ValidCoordinates(q.Latitude, q.Longitude) {
		return nil, apperr.Validation("latitude and longitude are out of range")
	}
	if q.RadiusKm < 0 {
		return nil, apperr.Validation("radius must not be negative")
	}
	if q.RadiusKm == 0 {
		q.RadiusKm = DefaultRadiusKm
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	all, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]NearbyLocation, 0, len(all))
	for _, loc := range all {
		if q.Type != "" && loc.Type != q.Type {
			continue
		}
		if q.AnxietyLevel != "" && loc.AnxietyLevel != q.AnxietyLevel {
			continue
		}
		if q.BeginnerFriendly && !loc.IsBeginnerFriendly {
			continue
		}

		distance := geo.RoundTenth(geo.DistanceKm(q.Latitude, q.Longitude, loc.Latitude, loc.Longitude))
		if distance > q.RadiusKm {
			continue
		}
		results = append(results, NearbyLocation{Location: loc, Distance: distance})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// Get returns a single location
func (s *Service) Get(ctx context.Context, locationID string) (*service.Location, error) {
	loc, err := s.store.GetLocation(ctx, locationID)
	if service.IsNotFound(err) {
		return nil, apperr.NotFound("location not found")
	}
	return loc, err
}

// AddReview validates and stores a review, returning it with the updated location
func (s *Service) AddReview(ctx context.Context, userID, locationID string, rating int, title, content string) (*service.Review, *service.Location, error) {
	if rating < 1 || rating > 5 {
		return nil, nil, apperr.Validation("rating must be between 1 and 5")
	}

	title = strings.TrimSpace(s.plainText.Sanitize(title))
	content = strings.TrimSpace(s.ugc.Sanitize(content))
	if len([]rune(title)) > maxTitleLength {
		return nil, nil, apperr.Validation("title must be at most %d characters", maxTitleLength)
	}
	if content == "" {
		return nil, nil, apperr.Validation("review content is required")
	}
	if len([]rune(content)) > maxReviewLength {
		return nil, nil, apperr.Validation("review must be at most %d characters", maxReviewLength)
	}

	if _, err := s.Get(ctx, locationID); err != nil {
		return nil, nil, err
	}

	review := &service.Review{
		ID:         uuid.NewString(),
		UserID:     userID,
		LocationID: locationID,
		Rating:     rating,
		Title:      title,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}

	loc, err := s.store.AddReview(ctx, review)
	if err != nil {
		return nil, nil, err
	}

	logrus.Infof("user %s reviewed location %s (rating=%d)", userID, locationID, rating)
	return review, loc, nil
}

// Reviews returns a page of a location's reviews, newest first
func (s *Service) Reviews(ctx context.Context, locationID string, page, limit int) (*ReviewPage, error) {
	if _, err := s.Get(ctx, locationID); err != nil {
		return nil, err
	}

	p := service.NewPagination(page, limit, 0, defaultReviewLimit, maxReviewLimit)
	reviews, total, err := s.store.ListReviews(ctx, locationID, p.Offset(), p.Limit)
	if err != nil {
		return nil, err
	}

	return &ReviewPage{
		Reviews:    reviews,
		Pagination: service.NewPagination(p.Page, p.Limit, total, defaultReviewLimit, maxReviewLimit),
	}, nil
}

type seedFile struct {
	Locations []*service.Location `yaml:"locations"`
}

// LoadSeed reads locations from a YAML file
func LoadSeed(path string) ([]*service.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read location seed: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse location seed: %w", err)
	}

	for i, loc := range seed.Locations {
		if loc.ID == "" || loc.Name == "" {
			return nil, fmt.Errorf("location %d: id and name are required", i)
		}
		if !geo.ValidCoordinates(loc.Latitude, loc.Longitude) {
			return nil, fmt.Errorf("location %s: invalid coordinates", loc.ID)
		}
	}
	return seed.Locations, nil
}

// Seed stores the given locations. Existing counters are preserved.
func (s *Service) Seed(ctx context.Context, locations []*service.Location) error {
	for _, loc := range locations {
		if err := s.store.SaveLocation(ctx, loc); err != nil {
			return err
		}
	}
	logrus.Infof("seeded %d locations", len(locations))
	return nil
}
