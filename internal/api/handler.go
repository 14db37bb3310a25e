package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atlasheritage/heritage-risk/internal/analysis"
	"github.com/atlasheritage/heritage-risk/internal/batch"
	"github.com/atlasheritage/heritage-risk/internal/engine"
	"github.com/atlasheritage/heritage-risk/internal/models"
	"github.com/atlasheritage/heritage-risk/internal/repository"
	"github.com/atlasheritage/heritage-risk/internal/scoring"
)

type Handler struct {
	eng     *engine.Engine
	batcher *batch.Manager
}

func NewHandler(eng *engine.Engine, batcher *batch.Manager) *Handler {
	return &Handler{
		eng:     eng,
		batcher: batcher,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	r.GET("/api/sites", h.getSites)
	r.GET("/api/sites/:id/assessments", h.getSiteAssessments)

	r.POST("/api/assessments", h.createAssessment)
	r.PUT("/api/assessments/:id", h.updateAssessment)
	r.DELETE("/api/assessments/:id", h.deleteAssessment)
	r.POST("/api/assessments/batch", h.batchAssessments)

	r.GET("/api/analysis/trend", h.getTrend)
	r.GET("/api/analysis/comparative", h.getComparative)
	r.GET("/api/analysis/evolution", h.getEvolution)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getSites(c *gin.Context) {
	sites, err := h.eng.GetSites(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

func (h *Handler) getSiteAssessments(c *gin.Context) {
	filter := repository.Filter{
		SiteID: c.Param("id"),
		Limit:  100, // Default page size if limit param not supplied
	}

	if t := c.Query("threat"); t != "" {
		tt := models.ThreatType(t)
		if !tt.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threat type"})
			return
		}
		filter.ThreatType = &tt
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}
	if m := c.Query("min_magnitude"); m != "" {
		if mag, err := strconv.Atoi(m); err == nil {
			filter.MinMagnitude = &mag
		}
	}
	if p := c.Query("min_priority"); p != "" {
		pr := models.Priority(p)
		if pr.Valid() {
			filter.MinPriority = &pr
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	assessments, err := h.eng.ListAssessments(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": assessments})
}

func (h *Handler) createAssessment(c *gin.Context) {
	var a models.Assessment
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assessment payload"})
		return
	}

	if err := h.eng.AddAssessment(c.Request.Context(), &a); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) updateAssessment(c *gin.Context) {
	var a models.Assessment
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assessment payload"})
		return
	}
	a.ID = c.Param("id")

	if err := h.eng.UpdateAssessment(c.Request.Context(), &a); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) deleteAssessment(c *gin.Context) {
	if err := h.eng.DeleteAssessment(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) batchAssessments(c *gin.Context) {
	if h.batcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "batch import disabled"})
		return
	}

	var req struct {
		Assessments []models.Assessment `json:"assessments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch payload"})
		return
	}

	for i := range req.Assessments {
		h.batcher.Submit(&req.Assessments[i])
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": len(req.Assessments)})
}

func (h *Handler) getTrend(c *gin.Context) {
	siteID := c.Query("site_id")
	if siteID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id is required"})
		return
	}

	report, err := h.eng.SiteTrend(c.Request.Context(), siteID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) getComparative(c *gin.Context) {
	report, err := h.eng.CompareSites(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) getEvolution(c *gin.Context) {
	siteID := c.Query("site_id")
	threat := models.ThreatType(c.Query("threat"))
	if siteID == "" || threat == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id and threat are required"})
		return
	}

	report, err := h.eng.ThreatEvolution(c.Request.Context(), siteID, threat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// writeError maps the engine/analysis error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		invalidComponent *scoring.InvalidComponentError
		refIntegrity     *engine.ReferentialIntegrityError
		notFound         *engine.NotFoundError
		insufficient     *analysis.InsufficientDataError
		noData           *analysis.NoDataError
		repoErr          *engine.RepositoryError
	)

	switch {
	case errors.As(err, &invalidComponent),
		errors.Is(err, engine.ErrInvalidThreatType),
		errors.Is(err, engine.ErrInvalidUncertainty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &refIntegrity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient), errors.As(err, &noData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &repoErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
