// Package engine is the derived-state manager: it keeps each site's risk
// profile consistent with its assessments, caching derivations behind an
// explicit TTL cache that every mutation invalidates synchronously.
package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/atlasheritage/heritage-risk/internal/alerts"
	"github.com/atlasheritage/heritage-risk/internal/analysis"
	"github.com/atlasheritage/heritage-risk/internal/models"
	"github.com/atlasheritage/heritage-risk/internal/repository"
	"github.com/atlasheritage/heritage-risk/internal/scoring"
)

// recencyYears is the rolling window for a profile's active threats. Older
// assessments still drive overall risk and last-updated, but a threat not
// seen within the window is no longer active.
const recencyYears = 2

var (
	ErrInvalidThreatType  = errors.New("engine: invalid threat type")
	ErrInvalidUncertainty = errors.New("engine: invalid uncertainty level")
)

type Engine struct {
	repo        repository.Repository
	cache       *ProfileCache
	broadcaster *alerts.Broadcaster
	now         func() time.Time
}

func New(repo repository.Repository, cache *ProfileCache, broadcaster *alerts.Broadcaster) *Engine {
	return &Engine{
		repo:        repo,
		cache:       cache,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// GetSites returns all sites with freshly derived risk profiles. Profiles
// younger than the cache TTL are served from cache; anything stale or absent
// is re-derived from the full assessment set and cached.
func (e *Engine) GetSites(ctx context.Context) ([]models.Site, error) {
	sites, err := e.repo.ListSites(ctx)
	if err != nil {
		return nil, &RepositoryError{Op: "list sites", Err: err}
	}

	now := e.now()
	for i := range sites {
		if profile, last, ok := e.cache.Get(sites[i].ID, now); ok {
			sites[i].RiskProfile = profile
			sites[i].LastAssessment = last
			continue
		}

		profile, last, err := e.deriveProfile(ctx, sites[i].ID)
		if err != nil {
			return nil, err
		}
		e.cache.Put(sites[i].ID, profile, last, now)
		sites[i].RiskProfile = profile
		sites[i].LastAssessment = last
	}
	return sites, nil
}

// ListAssessments exposes repository listings to the presentation layer.
func (e *Engine) ListAssessments(ctx context.Context, opts repository.Filter) ([]models.Assessment, error) {
	assessments, err := e.repo.ListAssessments(ctx, opts)
	if err != nil {
		return nil, &RepositoryError{Op: "list assessments", Err: err}
	}
	return assessments, nil
}

// GetAssessment fetches one assessment, nil when absent.
func (e *Engine) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	a, err := e.repo.GetAssessment(ctx, id)
	if err != nil {
		return nil, &RepositoryError{Op: "get assessment", Err: err}
	}
	return a, nil
}

// AddAssessment scores and persists a new assessment, then recomputes the
// affected site's profile from the entire current assessment set and
// invalidates its cache entry. The input's Magnitude and Priority are
// overwritten with derived values; they are never taken from the caller.
func (e *Engine) AddAssessment(ctx context.Context, a *models.Assessment) error {
	score, err := e.validateAndScore(a)
	if err != nil {
		return err
	}

	site, err := e.requireSite(ctx, a.SiteID)
	if err != nil {
		return err
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := e.now()
	if a.AssessmentDate.IsZero() {
		a.AssessmentDate = now
	}
	a.CreatedAt = now
	a.Magnitude = score.Magnitude
	a.Priority = score.Priority

	if err := e.repo.PutAssessment(ctx, a); err != nil {
		return &RepositoryError{Op: "put assessment", Err: err}
	}

	if err := e.refreshSite(ctx, site); err != nil {
		return err
	}

	if e.broadcaster != nil && score.Adjusted.Rank() >= models.PriorityVeryHigh.Rank() {
		e.broadcaster.Broadcast(a)
	}
	return nil
}

// UpdateAssessment replaces an existing assessment record. The record is
// rescored from its components; if the update moves the assessment to a
// different site, both sites' profiles are recomputed.
func (e *Engine) UpdateAssessment(ctx context.Context, a *models.Assessment) error {
	existing, err := e.repo.GetAssessment(ctx, a.ID)
	if err != nil {
		return &RepositoryError{Op: "get assessment", Err: err}
	}
	if existing == nil {
		return &NotFoundError{AssessmentID: a.ID}
	}

	score, err := e.validateAndScore(a)
	if err != nil {
		return err
	}

	site, err := e.requireSite(ctx, a.SiteID)
	if err != nil {
		return err
	}

	if a.AssessmentDate.IsZero() {
		a.AssessmentDate = existing.AssessmentDate
	}
	a.CreatedAt = existing.CreatedAt
	a.Magnitude = score.Magnitude
	a.Priority = score.Priority

	if err := e.repo.PutAssessment(ctx, a); err != nil {
		return &RepositoryError{Op: "put assessment", Err: err}
	}

	if err := e.refreshSite(ctx, site); err != nil {
		return err
	}
	if existing.SiteID != a.SiteID {
		oldSite, err := e.requireSite(ctx, existing.SiteID)
		if err == nil {
			if err := e.refreshSite(ctx, oldSite); err != nil {
				return err
			}
		}
	}

	if e.broadcaster != nil && score.Adjusted.Rank() >= models.PriorityVeryHigh.Rank() {
		e.broadcaster.Broadcast(a)
	}
	return nil
}

// DeleteAssessment removes an assessment and recomputes its site's profile.
func (e *Engine) DeleteAssessment(ctx context.Context, id string) error {
	existing, err := e.repo.GetAssessment(ctx, id)
	if err != nil {
		return &RepositoryError{Op: "get assessment", Err: err}
	}
	if existing == nil {
		return &NotFoundError{AssessmentID: id}
	}

	site, err := e.requireSite(ctx, existing.SiteID)
	if err != nil {
		return err
	}

	deleted, err := e.repo.DeleteAssessment(ctx, id)
	if err != nil {
		return &RepositoryError{Op: "delete assessment", Err: err}
	}
	if !deleted {
		return &NotFoundError{AssessmentID: id}
	}

	return e.refreshSite(ctx, site)
}

// SiteTrend fits the magnitude trend across every assessment of one site.
func (e *Engine) SiteTrend(ctx context.Context, siteID string) (*analysis.TrendReport, error) {
	assessments, err := e.repo.ListAssessments(ctx, repository.Filter{SiteID: siteID})
	if err != nil {
		return nil, &RepositoryError{Op: "list assessments", Err: err}
	}
	return analysis.AnalyzeTrend(analysis.MetricMagnitude, siteID, analysis.SeriesFromAssessments(assessments))
}

// CompareSites builds per-site magnitude series for the whole fleet and runs
// the comparative analysis over them.
func (e *Engine) CompareSites(ctx context.Context) (*analysis.ComparativeReport, error) {
	sites, err := e.repo.ListSites(ctx)
	if err != nil {
		return nil, &RepositoryError{Op: "list sites", Err: err}
	}

	series := make(map[string][]analysis.TimeSeriesPoint, len(sites))
	for _, site := range sites {
		assessments, err := e.repo.ListAssessments(ctx, repository.Filter{SiteID: site.ID})
		if err != nil {
			return nil, &RepositoryError{Op: "list assessments", Err: err}
		}
		points := analysis.SeriesFromAssessments(assessments)
		for i := range points {
			points[i].SiteName = site.Name
		}
		series[site.ID] = points
	}
	return analysis.Compare(analysis.MetricMagnitude, series), nil
}

// ThreatEvolution analyzes the timeline of a single threat at a single site.
func (e *Engine) ThreatEvolution(ctx context.Context, siteID string, threat models.ThreatType) (*analysis.ThreatEvolutionReport, error) {
	if !threat.Valid() {
		return nil, ErrInvalidThreatType
	}
	assessments, err := e.repo.ListAssessments(ctx, repository.Filter{SiteID: siteID, ThreatType: &threat})
	if err != nil {
		return nil, &RepositoryError{Op: "list assessments", Err: err}
	}
	return analysis.AnalyzeEvolution(siteID, threat, assessments)
}

func (e *Engine) validateAndScore(a *models.Assessment) (scoring.Score, error) {
	if !a.ThreatType.Valid() {
		return scoring.Score{}, ErrInvalidThreatType
	}
	if a.Uncertainty == "" {
		a.Uncertainty = models.UncertaintyLow
	}
	if !a.Uncertainty.Valid() {
		return scoring.Score{}, ErrInvalidUncertainty
	}
	return scoring.Calculate(a.Probability, a.LossOfValue, a.FractionAffected, a.Uncertainty)
}

func (e *Engine) requireSite(ctx context.Context, siteID string) (*models.Site, error) {
	site, err := e.repo.GetSite(ctx, siteID)
	if err != nil {
		return nil, &RepositoryError{Op: "get site", Err: err}
	}
	if site == nil {
		return nil, &ReferentialIntegrityError{SiteID: siteID}
	}
	return site, nil
}

// refreshSite re-derives one site's profile, persists it, and only then
// invalidates the cache. A failed persist leaves the cache untouched so
// reads keep serving the last successfully persisted state.
func (e *Engine) refreshSite(ctx context.Context, site *models.Site) error {
	profile, last, err := e.deriveProfile(ctx, site.ID)
	if err != nil {
		return err
	}

	site.RiskProfile = profile
	site.LastAssessment = last
	if err := e.repo.PutSite(ctx, site); err != nil {
		return &RepositoryError{Op: "put site", Err: err}
	}

	e.cache.Invalidate(site.ID)
	return nil
}

// deriveProfile computes a site's aggregate risk from its entire assessment
// set. Overall risk is the maximum uncertainty-adjusted priority; active
// threats are the distinct types seen within the recency window; last
// updated is the newest assessment date on record. A site with no
// assessments derives {low, [], now}.
func (e *Engine) deriveProfile(ctx context.Context, siteID string) (models.RiskProfile, time.Time, error) {
	assessments, err := e.repo.ListAssessments(ctx, repository.Filter{SiteID: siteID})
	if err != nil {
		return models.RiskProfile{}, time.Time{}, &RepositoryError{Op: "list assessments", Err: err}
	}

	now := e.now()
	if len(assessments) == 0 {
		return models.RiskProfile{
			OverallRisk:   models.PriorityLow,
			LastUpdated:   now,
			ActiveThreats: []models.ThreatType{},
		}, time.Time{}, nil
	}

	cutoff := now.AddDate(-recencyYears, 0, 0)
	overall := models.PriorityLow
	var lastUpdated time.Time
	active := make(map[models.ThreatType]struct{})

	for _, a := range assessments {
		adjusted := scoring.AdjustPriority(a.Priority, a.Uncertainty)
		overall = models.MaxPriority(overall, adjusted)
		if a.AssessmentDate.After(lastUpdated) {
			lastUpdated = a.AssessmentDate
		}
		if !a.AssessmentDate.Before(cutoff) {
			active[a.ThreatType] = struct{}{}
		}
	}

	threats := make([]models.ThreatType, 0, len(active))
	for t := range active {
		threats = append(threats, t)
	}
	sort.Slice(threats, func(i, j int) bool { return threats[i] < threats[j] })

	return models.RiskProfile{
		OverallRisk:   overall,
		LastUpdated:   lastUpdated,
		ActiveThreats: threats,
	}, lastUpdated, nil
}
