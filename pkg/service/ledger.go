package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckInRecord is the ledger row for a check-in
type CheckInRecord struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	UserID       string    `gorm:"index;type:varchar(128);not null"`
	LocationID   string    `gorm:"type:varchar(128)"`
	LocationType string    `gorm:"type:varchar(32)"`
	Mood         string    `gorm:"type:varchar(16)"`
	PointsEarned int       `gorm:"not null"`
	StreakDay    int       `gorm:"not null"`
	Verified     bool      `gorm:"not null"`
	CheckedInAt  time.Time `gorm:"index;not null"`
}

func (CheckInRecord) TableName() string { return "checkin_ledger" }

// RedemptionRecord is the ledger row for a redeemed voucher
type RedemptionRecord struct {
	RewardID   string    `gorm:"primaryKey;type:varchar(64)"`
	UserID     string    `gorm:"index;type:varchar(128);not null"`
	SponsorID  string    `gorm:"type:varchar(128)"`
	Type       string    `gorm:"type:varchar(32);not null"`
	Value      float64   `gorm:"not null"`
	LocationID string    `gorm:"type:varchar(128)"`
	RedeemedAt time.Time `gorm:"index;not null"`
}

func (RedemptionRecord) TableName() string { return "redemption_ledger" }

// PostgresLedger appends check-ins and redemptions to Postgres via GORM.
type PostgresLedger struct {
	db *gorm.DB
}

// ConnectPostgres opens and validates a GORM connection pool
func ConnectPostgres(ctx context.Context, databaseURL string, maxConns int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logrus.Info("postgres ledger connected")
	return db, nil
}

// NewPostgresLedger migrates the ledger tables and returns the ledger
func NewPostgresLedger(ctx context.Context, db *gorm.DB) (*PostgresLedger, error) {
	if err := db.WithContext(ctx).AutoMigrate(&CheckInRecord{}, &RedemptionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &PostgresLedger{db: db}, nil
}

// RecordCheckIn appends a check-in row; replays are ignored
func (l *PostgresLedger) RecordCheckIn(ctx context.Context, event *CheckInEvent) error {
	rec := CheckInRecord{
		ID:           event.ID,
		UserID:       event.UserID,
		LocationID:   event.LocationID,
		LocationType: event.LocationType,
		Mood:         event.Mood,
		PointsEarned: event.PointsEarned,
		StreakDay:    event.StreakDay,
		Verified:     event.Verified,
		CheckedInAt:  event.Timestamp,
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("record check-in %s: %w", event.ID, err)
	}
	return nil
}

// RecordRedemption appends a redemption row; replays are ignored
func (l *PostgresLedger) RecordRedemption(ctx context.Context, reward *Reward) error {
	if reward.RedeemedAt == nil {
		return fmt.Errorf("record redemption %s: reward is not redeemed", reward.ID)
	}
	rec := RedemptionRecord{
		RewardID:   reward.ID,
		UserID:     reward.UserID,
		SponsorID:  reward.SponsorID,
		Type:       reward.Type,
		Value:      reward.Value,
		LocationID: reward.RedeemedLocationID,
		RedeemedAt: *reward.RedeemedAt,
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("record redemption %s: %w", reward.ID, err)
	}
	return nil
}
