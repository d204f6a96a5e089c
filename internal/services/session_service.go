package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"campaign-editor/backend/internal/editor"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("editing session not found")

const meterName = "campaign-editor/backend/internal/services"

type sessionEntry struct {
	session  *editor.Session
	lastUsed time.Time
}

// SessionService owns the open campaign editing sessions.
type SessionService struct {
	deps        editor.Dependencies
	logger      editor.Logger
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	opened metric.Int64Counter
	closed metric.Int64Counter
	saves  metric.Int64Counter
}

// NewSessionService creates a new SessionService. Sessions unused for longer
// than idleTimeout are dropped by Sweep; zero disables expiry.
func NewSessionService(deps editor.Dependencies, idleTimeout time.Duration, logger editor.Logger) (*SessionService, error) {
	meter := otel.Meter(meterName)
	opened, err := meter.Int64Counter("campaign_editor.sessions.opened",
		metric.WithDescription("Editing sessions opened"))
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	closed, err := meter.Int64Counter("campaign_editor.sessions.closed",
		metric.WithDescription("Editing sessions closed, by reason"))
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}
	saves, err := meter.Int64Counter("campaign_editor.campaigns.saved",
		metric.WithDescription("Campaign submits, by result"))
	if err != nil {
		return nil, fmt.Errorf("create counter: %w", err)
	}

	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &SessionService{
		deps:        deps,
		logger:      logger,
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*sessionEntry),
		opened:      opened,
		closed:      closed,
		saves:       saves,
	}, nil
}

// Open starts a session editing campaignID, or a new campaign when nil.
func (s *SessionService) Open(ctx context.Context, campaignID *int64) (string, editor.View, error) {
	session, err := editor.NewSession(s.deps)
	if err != nil {
		return "", editor.View{}, err
	}
	if err := session.Open(ctx, campaignID); err != nil {
		return "", session.Snapshot(), err
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = &sessionEntry{session: session, lastUsed: s.now()}
	s.mu.Unlock()

	s.opened.Add(ctx, 1, metric.WithAttributes(attribute.Bool("existing", campaignID != nil)))
	fields := []any{"session_id", id}
	if campaignID != nil {
		fields = append(fields, "campaign_id", *campaignID)
	}
	s.logger.Info("editing session opened", fields...)
	return id, session.Snapshot(), nil
}

// Session returns an open session and marks it as used.
func (s *SessionService) Session(id string) (*editor.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	entry.lastUsed = s.now()
	return entry.session, nil
}

// Submit saves the campaign of a session. A successful save ends the session.
func (s *SessionService) Submit(ctx context.Context, id string) (*editor.SaveOutcome, error) {
	session, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	outcome, err := session.Submit(ctx)
	if err != nil {
		result := "failed"
		var verr *editor.ValidationError
		if errors.As(err, &verr) {
			result = "invalid"
		}
		s.saves.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
		return nil, err
	}

	s.saves.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", "saved"),
		attribute.Bool("linkage_failed", outcome.LinkageErr != nil),
	))
	s.remove(ctx, id, "saved")
	return outcome, nil
}

// Discard ends a session without saving and returns where to navigate.
func (s *SessionService) Discard(ctx context.Context, id string) (string, error) {
	session, err := s.Session(id)
	if err != nil {
		return "", err
	}
	redirect := session.Discard()
	s.remove(ctx, id, "discarded")
	return redirect, nil
}

// Sweep drops sessions idle for longer than the idle timeout and returns
// how many were dropped.
func (s *SessionService) Sweep(ctx context.Context) int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.Lock()
	var expired []string
	for id, entry := range s.sessions {
		if entry.lastUsed.Before(cutoff) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.closed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "expired")))
		s.logger.Info("editing session expired", "session_id", id)
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Len returns the number of open sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) remove(ctx context.Context, id, reason string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.closed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	s.logger.Info("editing session closed", "session_id", id, "reason", reason)
}
