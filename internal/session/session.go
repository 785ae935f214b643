package session

import (
	"context"
	"ctchen222/tictac/internal/events"
	"ctchen222/tictac/internal/game"
	"ctchen222/tictac/internal/round"
	"ctchen222/tictac/pkg/proto"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	subscriberBuffer = 32

	defaultPublishTimeout = 2 * time.Second
)

// Session is a round hosted for a presentation client. It relays field changes and the
// round outcome to its subscribers and to the event publisher.
type Session struct {
	ID        string
	Mode      round.Mode
	CreatedAt time.Time

	round          *round.Round
	grid           *game.Grid
	publisher      events.Publisher
	publishTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time

	// opMu serializes operations on the round.
	opMu sync.Mutex

	// finishMu orders a reported outcome against a reset of the round.
	finishMu sync.Mutex

	// mu guards the fields below. It is never held while calling into the round.
	mu           sync.Mutex
	outcome      *round.Outcome
	generation   uint64
	lastActivity time.Time
	subscribers  map[int]chan proto.ServerToClientMessage
	nextSubID    int
	closed       bool

	unsubscribeGrid func()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = s.now()
	s.mu.Unlock()
}

// Move forwards a click on (x, y) to the round.
func (s *Session) Move(ctx context.Context, x, y int) (game.MoveResult, error) {
	ctx, span := tracer.Start(ctx, "session.Move", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.touch()

	result, err := s.round.ForwardGridInput(ctx, x, y)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "move rejected")
		return result, err
	}
	s.broadcastState()
	return result, nil
}

// Hint suggests a move for the player on turn without applying it.
func (s *Session) Hint(ctx context.Context) (proto.Hint, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.touch()

	symbol, move, err := s.round.GetHint(ctx)
	if err != nil {
		return proto.Hint{}, err
	}
	return proto.Hint{Symbol: symbol, X: move.X, Y: move.Y}, nil
}

// Undo takes back the last move of both players.
func (s *Session) Undo(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.touch()

	if _, err := s.round.Undo(ctx); err != nil {
		return err
	}
	s.broadcastState()
	return nil
}

// Reset starts the round over.
func (s *Session) Reset(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session.Reset", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.touch()

	_, err := s.round.Reset(ctx)

	// An outcome of the previous generation may still be on its way from the timer.
	s.finishMu.Lock()
	generation := s.round.Generation()
	s.mu.Lock()
	if s.outcome != nil && s.outcome.Generation < generation {
		s.outcome = nil
	}
	s.generation = max(s.generation, generation)
	s.mu.Unlock()
	s.finishMu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reset failed")
		return err
	}

	s.publish(ctx, events.TypeRoundReset, s.startedPayload())
	s.broadcastState()
	return nil
}

// State returns a snapshot of the round for display.
func (s *Session) State() proto.RoundState {
	view := s.round.View()

	s.mu.Lock()
	outcome := s.outcome
	s.mu.Unlock()

	board := make([][]game.Symbol, game.GridSize)
	for x := range board {
		board[x] = view.Board[x][:]
	}

	state := proto.RoundState{
		ID:             s.ID,
		Mode:           s.Mode.String(),
		Board:          board,
		PlayerX:        string(view.PlayerX),
		PlayerO:        string(view.PlayerO),
		Finished:       view.Finished,
		TimePerTurn:    s.round.TimePerTurn().Milliseconds(),
		Remaining:      view.Remaining.Milliseconds(),
		Progress:       min(max(float64(view.Remaining)/float64(s.round.TimePerTurn()), 0), 1),
		UndoAvailable:  s.round.IsUndoAvailable(),
		HintAvailable:  s.round.IsHintAvailable(),
		ResetAvailable: s.round.IsResetAvailable(),
	}
	if !view.Finished {
		state.Next = view.CurrentSymbol
	}
	if outcome != nil && view.Finished {
		state.Outcome = outcomeMessage(*outcome, s.Mode)
	}
	return state
}

// Subscribe returns a channel receiving every message of this session. Slow subscribers
// lose messages instead of blocking the round. cancel closes the channel.
func (s *Session) Subscribe() (<-chan proto.ServerToClientMessage, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan proto.ServerToClientMessage, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(c)
			}
		})
	}
}

func (s *Session) broadcast(msg proto.ServerToClientMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
			s.logger.Warn("dropping message for slow subscriber", "subscriber", id, "message.type", msg.Type)
		}
	}
}

func (s *Session) broadcastState() {
	state := s.State()
	s.broadcast(proto.ServerToClientMessage{Type: proto.TypeState, State: &state})
}

// onFieldChanged runs inside the round while it holds its lock.
func (s *Session) onFieldChanged(c game.Coord) {
	symbol, err := s.grid.GetSymbol(c.X, c.Y)
	if err != nil {
		s.logger.Error("field change outside the grid", "x", c.X, "y", c.Y, "error", err)
		return
	}

	s.broadcast(proto.ServerToClientMessage{
		Type:  proto.TypeFieldChanged,
		Field: &proto.Field{X: c.X, Y: c.Y, Symbol: symbol},
	})
	s.publish(context.Background(), events.TypeFieldChanged, events.FieldChangedPayload{
		RoundID: s.ID,
		X:       c.X,
		Y:       c.Y,
		Symbol:  symbol,
	})
}

// onRoundFinished may run on the timer goroutine. Outcomes of a round that has been
// reset since are dropped.
func (s *Session) onRoundFinished(outcome round.Outcome) {
	ctx := context.Background()

	s.finishMu.Lock()
	defer s.finishMu.Unlock()

	s.mu.Lock()
	if outcome.Generation < s.generation {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "dropping outcome of a reset round", "generation", outcome.Generation)
		return
	}
	s.generation = outcome.Generation
	s.outcome = &outcome
	s.lastActivity = s.now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "round finished", "reason", string(outcome.Reason), "winner", outcome.WinnerSymbol().String())

	s.broadcast(proto.ServerToClientMessage{
		Type:    proto.TypeRoundFinished,
		Outcome: outcomeMessage(outcome, s.Mode),
	})
	s.publish(ctx, events.TypeRoundFinished, events.RoundFinishedPayload{
		RoundID: s.ID,
		Reason:  string(outcome.Reason),
		Winner:  outcome.WinnerSymbol(),
		Moves:   outcome.Moves,
	})
}

func (s *Session) startedPayload() events.RoundStartedPayload {
	x, o := s.round.Players()
	return events.RoundStartedPayload{
		RoundID: s.ID,
		Mode:    s.Mode.String(),
		PlayerX: string(x.Kind()),
		PlayerO: string(o.Kind()),
	}
}

// publish gives the publisher at most publishTimeout, since field changes are
// published while the round holds its lock.
func (s *Session) publish(ctx context.Context, eventType string, payload any) {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "could not build event", "event.type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "event.type", eventType, "error", err)
	}
}

// close stops the round and releases every subscriber.
func (s *Session) close(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.round.Stop()
	s.unsubscribeGrid()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.mu.Unlock()

	s.publish(ctx, events.TypeRoundClosed, events.RoundClosedPayload{RoundID: s.ID})
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity, s.outcome != nil
}

func outcomeMessage(o round.Outcome, mode round.Mode) *proto.Outcome {
	framing := o.Framing(mode)
	return &proto.Outcome{
		Reason:        string(o.Reason),
		Winner:        o.WinnerSymbol(),
		Framing:       string(framing.Kind),
		FramingSymbol: framing.Symbol,
	}
}
