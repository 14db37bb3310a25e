package repository

import (
	"context"
	"time"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

// Filter narrows assessment listings. Zero values mean "no constraint".
type Filter struct {
	SiteID       string
	ThreatType   *models.ThreatType
	Since        *time.Time
	MinMagnitude *int
	MinPriority  *models.Priority // at or above this level on the priority scale
	Limit        int
	Offset       int
}

// SiteRepository stores heritage sites. GetSite returns (nil, nil) when the
// site does not exist.
type SiteRepository interface {
	PutSite(ctx context.Context, s *models.Site) error
	GetSite(ctx context.Context, id string) (*models.Site, error)
	ListSites(ctx context.Context) ([]models.Site, error)
}

// AssessmentRepository stores ABC assessments. PutAssessment inserts or
// replaces by ID; DeleteAssessment reports whether a row was removed.
// Listings are ordered by assessment date ascending so analysis consumers
// receive time-ordered series.
type AssessmentRepository interface {
	PutAssessment(ctx context.Context, a *models.Assessment) error
	GetAssessment(ctx context.Context, id string) (*models.Assessment, error)
	DeleteAssessment(ctx context.Context, id string) (bool, error)
	ListAssessments(ctx context.Context, opts Filter) ([]models.Assessment, error)
}

// Repository is the full persistence contract consumed by the engine.
type Repository interface {
	SiteRepository
	AssessmentRepository
}
