// Package batch accepts bulk assessment submissions and fans them through
// the worker pool into the engine, so a large survey import does not block
// the request that delivered it.
package batch

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/atlasheritage/heritage-risk/internal/config"
	"github.com/atlasheritage/heritage-risk/internal/engine"
	"github.com/atlasheritage/heritage-risk/internal/models"
	"github.com/atlasheritage/heritage-risk/internal/worker"
)

type Manager struct {
	cfg  *config.Config
	eng  *engine.Engine
	pool *worker.Pool

	accepted atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

func NewManager(cfg *config.Config, eng *engine.Engine) *Manager {
	return &Manager{
		cfg: cfg,
		eng: eng,
	}
}

func (m *Manager) Start(ctx context.Context) {
	processor := func(ctx context.Context, a *models.Assessment) error {
		if a.ID != "" {
			existing, err := m.eng.GetAssessment(ctx, a.ID)
			if err != nil {
				m.failed.Add(1)
				slog.Error("error checking existence", "id", a.ID, "error", err)
				return err
			}
			if existing != nil {
				m.skipped.Add(1)
				return nil
			}
		}

		if err := m.eng.AddAssessment(ctx, a); err != nil {
			m.failed.Add(1)
			slog.Error("error adding assessment", "id", a.ID, "site", a.SiteID, "error", err)
			return err
		}

		m.accepted.Add(1)
		slog.Info("added assessment", "id", a.ID, "site", a.SiteID, "threat", a.ThreatType)
		return nil
	}

	m.pool = worker.NewPool(m.cfg.Worker.Count, m.cfg.Worker.BufferSize, processor)
	m.pool.Start(ctx)
}

// Submit enqueues one assessment record for background processing.
func (m *Manager) Submit(a *models.Assessment) {
	m.pool.Submit(a)
}

// Stats reports lifetime counters for accepted, skipped and failed records.
func (m *Manager) Stats() (accepted, skipped, failed int64) {
	return m.accepted.Load(), m.skipped.Load(), m.failed.Load()
}

func (m *Manager) Stop() {
	m.pool.Stop()
	slog.Info("batch manager stopped")
}
