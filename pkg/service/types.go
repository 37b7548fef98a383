package service

import (
	"context"
	"time"
)

// IssueRequest describes a reward to issue
type IssueRequest struct {
	UserID      string
	Type        string
	Title       string
	Description string
	Value       float64
	SponsorID   string
	Anonymous   bool
	Message     string
	// Expiry overrides the default voucher lifetime; zero keeps the default
	Expiry time.Duration
}

// VoucherIssuer issues vouchers on behalf of pipeline actions
type VoucherIssuer interface {
	Issue(ctx context.Context, req IssueRequest) (*Reward, error)
	// Revoke marks an active voucher expired
	Revoke(ctx context.Context, rewardID string) error
}

// Dependencies holds all external service dependencies that rules/actions can use.
// Components receive this struct and can access only the services they need.
type Dependencies struct {
	Vouchers  VoucherIssuer
	Publisher EventPublisher
	Ledger    Ledger
}

// NewDependencies creates a new dependencies container.
// Services can be nil if not needed - components should handle nil gracefully.
func NewDependencies() *Dependencies {
	return &Dependencies{}
}

// WithVoucherIssuer sets the voucher issuer
func (d *Dependencies) WithVoucherIssuer(issuer VoucherIssuer) *Dependencies {
	d.Vouchers = issuer
	return d
}

// WithPublisher sets the event publisher
func (d *Dependencies) WithPublisher(publisher EventPublisher) *Dependencies {
	d.Publisher = publisher
	return d
}

// WithLedger sets the audit ledger
func (d *Dependencies) WithLedger(ledger Ledger) *Dependencies {
	d.Ledger = ledger
	return d
}

// Pagination describes a page of a list response
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination normalises page and limit and computes the page count.
// A non-positive limit falls back to defaultLimit; limits above maxLimit are capped.
func NewPagination(page, limit, total, defaultLimit, maxLimit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
}

// Offset returns the index of the first item on the page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
