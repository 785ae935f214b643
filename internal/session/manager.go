// Package session hosts rounds for presentation clients such as the HTTP API and the terminal.
package session

import (
	"context"
	"ctchen222/tictac/internal/apperror"
	"ctchen222/tictac/internal/clock"
	"ctchen222/tictac/internal/events"
	"ctchen222/tictac/internal/game"
	"ctchen222/tictac/internal/player"
	"ctchen222/tictac/internal/round"
	"ctchen222/tictac/pkg/proto"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session")

// Manager owns every live session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	timePerTurn    time.Duration
	timeSource     clock.TimeSource
	publisher      events.Publisher
	publishTimeout time.Duration
	logger         *slog.Logger
	newRand        func() player.Rand
	newID          func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeSource replaces the wall clock used for turn limits.
func WithTimeSource(ts clock.TimeSource) Option {
	return func(m *Manager) { m.timeSource = ts }
}

// WithPublisher sets where round events are published.
func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithPublishTimeout bounds how long publishing a single event may take.
func WithPublishTimeout(d time.Duration) Option {
	return func(m *Manager) { m.publishTimeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithRandFactory sets the random source given to every new round.
func WithRandFactory(fn func() player.Rand) Option {
	return func(m *Manager) { m.newRand = fn }
}

// WithIDGenerator replaces the uuid based session ids.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager creates a manager whose rounds allow timePerTurn for every turn.
func NewManager(timePerTurn time.Duration, opts ...Option) *Manager {
	m := &Manager{
		sessions:       make(map[string]*Session),
		timePerTurn:    timePerTurn,
		timeSource:     clock.NewReal(),
		publisher:      events.NopPublisher{},
		publishTimeout: defaultPublishTimeout,
		logger:         slog.Default(),
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// Create starts a new round in mode.
func (m *Manager) Create(ctx context.Context, mode round.Mode) (*Session, error) {
	ctx, span := tracer.Start(ctx, "session.Create", trace.WithAttributes(
		attribute.String("round.mode", mode.String()),
	))
	defer span.End()

	if !mode.IsValid() {
		err := fmt.Errorf("%w: unknown game mode %q", apperror.ErrInvalidArgument, mode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid mode")
		return nil, err
	}

	id := m.newID()
	now := m.timeSource.Now()
	s := &Session{
		ID:             id,
		Mode:           mode,
		CreatedAt:      now,
		grid:           game.NewGrid(),
		publisher:      m.publisher,
		publishTimeout: m.publishTimeout,
		logger:         m.logger.With("session.id", id),
		now:            m.timeSource.Now,
		lastActivity:   now,
		subscribers:    make(map[int]chan proto.ServerToClientMessage),
	}
	s.unsubscribeGrid = s.grid.Subscribe(s.onFieldChanged)

	opts := []round.Option{round.WithLogger(s.logger)}
	if m.newRand != nil {
		opts = append(opts, round.WithRand(m.newRand()))
	}

	// The first AI move happens inside New, before s.round is set. Field changes only
	// read the grid, so they are safe to relay.
	r, err := round.New(mode, s.grid, s.onRoundFinished, m.timeSource, m.timePerTurn, opts...)
	if err != nil {
		s.unsubscribeGrid()
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not create round")
		return nil, err
	}
	s.round = r

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	span.SetAttributes(attribute.String("session.id", id))
	s.logger.InfoContext(ctx, "session created", "round.mode", mode.String())
	s.publish(ctx, events.TypeRoundStarted, s.startedPayload())
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns every session, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.RUnlock()

	slices.SortFunc(list, func(a, b *Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list
}

// Delete stops the round of session id and closes its subscriptions.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	s.close(ctx)
	s.logger.InfoContext(ctx, "session deleted")
	return nil
}

// Close deletes every session.
func (m *Manager) Close(ctx context.Context) {
	for _, s := range m.List() {
		_ = m.Delete(ctx, s.ID)
	}
}
