// Package scoring implements the per-domain risk scoring engine.
//
// The engine is a registry mapping a risk domain to a Scorer. Each scorer is
// a pure function over a measurement window: no I/O, no shared state, safe to
// run in parallel across users and domains. Unknown domains fall back to the
// general scorer rather than erroring.
package scoring

import (
	"log/slog"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/google/uuid"
)

// Scorer computes a bounded risk contribution and its supporting factors
// from a measurement window.
type Scorer interface {
	Score(w *models.MeasurementWindow, now time.Time) (risk float64, factors map[string]any)
}

// Engine dispatches scoring requests to registered domain scorers.
type Engine struct {
	registry map[models.RiskDomain]Scorer
	fallback Scorer
	now      func() time.Time
}

// NewEngine creates an engine with the default domain scorers registered.
func NewEngine() *Engine {
	e := &Engine{
		registry: make(map[models.RiskDomain]Scorer),
		fallback: &GeneralScorer{},
		now:      time.Now,
	}
	e.Register(models.DomainDiabetes, &MetabolicScorer{})
	e.Register(models.DomainHeartDisease, &CardiovascularScorer{})
	e.Register(models.DomainGeneral, &GeneralScorer{})
	return e
}

// Register associates a risk domain with a Scorer implementation.
// New domains can be added without touching the dispatch path.
func (e *Engine) Register(domain models.RiskDomain, s Scorer) {
	e.registry[domain] = s
}

// Score runs the scorer for the given domain over the window and wraps the
// result in a RiskAssessment. The returned score is clamped to [0,100] and
// confidence is the configured constant; the assessment expires after the
// standard validity horizon.
func (e *Engine) Score(domain models.RiskDomain, w *models.MeasurementWindow) models.RiskAssessment {
	scorer, ok := e.registry[domain]
	if !ok {
		slog.Debug("Engine.Score: unknown domain, using general scorer", "domain", domain)
		scorer = e.fallback
		domain = models.DomainGeneral
	}

	now := e.now()
	risk, factors := scorer.Score(w, now)

	a := models.RiskAssessment{
		ID:         uuid.NewString(),
		UserID:     w.UserID,
		Domain:     domain,
		RiskScore:  clamp(risk, 0, 100),
		Confidence: models.DefaultConfidence,
		Factors:    factors,
		CreatedAt:  now,
		ExpiresAt:  now.Add(models.AssessmentValidity),
	}
	slog.Debug("Engine.Score: assessment computed", "userID", w.UserID, "domain", domain, "riskScore", a.RiskScore)
	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
