// Package round coordinates the turns of two players on a shared grid.
package round

import (
	"context"
	"ctchen222/tictac/internal/apperror"
	"ctchen222/tictac/internal/clock"
	"ctchen222/tictac/internal/game"
	"ctchen222/tictac/internal/player"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// FinishedFunc is called once when a round finishes.
type FinishedFunc func(Outcome)

// Round is one play-through from an empty grid to a victory, a tie or a timeout.
//
// All methods are safe for concurrent use. The finished callback is invoked after the
// round's lock has been released, so it may call back into the round.
type Round struct {
	mu sync.Mutex

	mode        Mode
	grid        *game.Grid
	onFinished  FinishedFunc
	rng         player.Rand
	logger      *slog.Logger
	timePerTurn time.Duration

	turnTimedOut clock.ScheduledAction

	playerX        player.Player
	playerO        player.Player
	isPlayerXsTurn bool
	finished       bool
	generation     uint64

	// pendingOutcome is set when the round finishes and delivered on unlock.
	pendingOutcome *Outcome
}

// Option configures a Round.
type Option func(*Round)

// WithRand sets the random source used for symbol assignment, AI players and hints.
func WithRand(rng player.Rand) Option {
	return func(r *Round) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithLogger sets the logger of the round.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Round) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates players for mode, starts the turn timer and plays the first move if it
// belongs to an AI. onFinished may be nil.
func New(mode Mode, grid *game.Grid, onFinished FinishedFunc, ts clock.TimeSource, timePerTurn time.Duration, opts ...Option) (*Round, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unexpected game mode %q", apperror.ErrInvalidArgument, mode)
	}
	if grid == nil || ts == nil {
		return nil, fmt.Errorf("%w: round needs a grid and a time source", apperror.ErrInvalidArgument)
	}
	if timePerTurn <= 0 {
		return nil, fmt.Errorf("%w: time per turn must be positive, got %s", apperror.ErrInvalidArgument, timePerTurn)
	}

	r := &Round{
		mode:        mode,
		grid:        grid,
		onFinished:  onFinished,
		rng:         player.DefaultRand(),
		logger:      slog.Default(),
		timePerTurn: timePerTurn,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "round", "round.mode", string(mode))

	r.mu.Lock()
	defer r.unlock()

	r.turnTimedOut = ts.Schedule(r.onTurnTimedOut, timePerTurn)
	if err := r.createPlayersLocked(); err != nil {
		r.turnTimedOut.Cancel()
		return nil, err
	}
	if err := r.startFirstTurnLocked(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

// unlock releases the lock and then reports a finish recorded while it was held.
func (r *Round) unlock() {
	outcome := r.pendingOutcome
	r.pendingOutcome = nil
	r.mu.Unlock()

	if outcome != nil && r.onFinished != nil {
		r.onFinished(*outcome)
	}
}

func (r *Round) createPlayersLocked() error {
	var x, o player.Player
	var err error

	switch r.mode {
	case PlayerVsPlayer:
		if x, err = player.NewHuman(game.X, r.grid); err != nil {
			return err
		}
		if o, err = player.NewHuman(game.O, r.grid); err != nil {
			return err
		}
	default:
		humanSymbol := game.X
		if r.rng.IntN(2) == 1 {
			humanSymbol = game.O
		}
		human, err := player.NewHuman(humanSymbol, r.grid)
		if err != nil {
			return err
		}
		ai, err := r.createAI(humanSymbol.Opposite())
		if err != nil {
			return err
		}
		if humanSymbol == game.X {
			x, o = human, ai
		} else {
			x, o = ai, human
		}
	}

	r.playerX, r.playerO = x, o
	return nil
}

func (r *Round) createAI(symbol game.Symbol) (player.AI, error) {
	switch r.mode {
	case PlayerVsEasyAI:
		return player.NewEasyAI(symbol, r.grid, r.rng)
	case PlayerVsMediumAI:
		return player.NewMediumAI(symbol, r.grid, r.rng)
	default:
		return nil, fmt.Errorf("%w: mode %q has no AI player", apperror.ErrInvalidArgument, r.mode)
	}
}

// startFirstTurnLocked hands the first turn to X and lets an AI move right away.
func (r *Round) startFirstTurnLocked(ctx context.Context) error {
	r.isPlayerXsTurn = true
	r.finished = false
	r.turnTimedOut.Restart()
	return r.playAITurnsLocked(ctx)
}

func (r *Round) currentPlayer() player.Player {
	if r.isPlayerXsTurn {
		return r.playerX
	}
	return r.playerO
}

func (r *Round) nextPlayer() player.Player {
	if r.isPlayerXsTurn {
		return r.playerO
	}
	return r.playerX
}

// ForwardGridInput passes (x, y) to the current player if it is a human. Input reaching
// the round during an AI turn is dropped and reported with an empty result. A Blocked
// result leaves the turn with the same player.
func (r *Round) ForwardGridInput(ctx context.Context, x, y int) (game.MoveResult, error) {
	ctx, span := tracer.Start(ctx, "round.ForwardGridInput", trace.WithAttributes(
		attribute.Int("move.x", x),
		attribute.Int("move.y", y),
	))
	defer span.End()

	r.mu.Lock()
	defer r.unlock()

	if r.finished {
		return "", apperror.ErrRoundFinished
	}

	human, ok := r.currentPlayer().(*player.Human)
	if !ok {
		r.logger.DebugContext(ctx, "dropping input during AI turn", "x", x, "y", y)
		return "", nil
	}
	span.SetAttributes(attribute.String("player.symbol", human.Symbol().String()))

	result, err := human.ReceiveInput(x, y)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid input")
		return "", err
	}
	span.SetAttributes(attribute.String("move.result", result.String()))
	if result == game.Blocked {
		return result, nil
	}

	if err := r.handleTurnFinishedLocked(ctx, human, result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn failed")
		return result, err
	}
	if err := r.playAITurnsLocked(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "AI turn failed")
		return result, err
	}
	return result, nil
}

// playAITurnsLocked lets AI players move for as long as it is their turn.
func (r *Round) playAITurnsLocked(ctx context.Context) error {
	for !r.finished {
		ai, ok := r.currentPlayer().(player.AI)
		if !ok {
			return nil
		}

		result, err := ai.MakeMove()
		if err != nil {
			r.abortLocked(ctx, err)
			return err
		}
		if err := r.handleTurnFinishedLocked(ctx, ai, result); err != nil {
			return err
		}
	}
	return nil
}

// handleTurnFinishedLocked advances the round after p completed its turn with result.
func (r *Round) handleTurnFinishedLocked(ctx context.Context, p player.Player, result game.MoveResult) error {
	turnsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("player.kind", string(p.Kind()))))

	switch result {
	case game.Success:
		r.isPlayerXsTurn = !r.isPlayerXsTurn
		r.turnTimedOut.Restart()
	case game.Victory:
		r.finishLocked(ctx, Outcome{Winner: p, Reason: ReasonVictory})
	case game.Tie:
		r.finishLocked(ctx, Outcome{Reason: ReasonTie})
	default:
		err := fmt.Errorf("%w: unexpected move result %q from player %s", apperror.ErrInvalidState, result, p.Symbol())
		r.abortLocked(ctx, err)
		return err
	}
	return nil
}

// onTurnTimedOut is invoked by the time source. The current player forfeits.
func (r *Round) onTurnTimedOut() {
	ctx, span := tracer.Start(context.Background(), "round.onTurnTimedOut")
	defer span.End()

	r.mu.Lock()
	defer r.unlock()

	// The action may have been restarted between dispatch and acquiring the lock.
	if r.finished || r.turnTimedOut.TimeRemaining() > 0 {
		return
	}

	loser := r.currentPlayer()
	span.SetAttributes(attribute.String("player.symbol", loser.Symbol().String()))
	timeoutsCounter.Add(ctx, 1)
	r.logger.InfoContext(ctx, "turn timed out", "player.symbol", loser.Symbol().String())

	r.finishLocked(ctx, Outcome{Winner: r.nextPlayer(), Reason: ReasonTimeout})
}

func (r *Round) finishLocked(ctx context.Context, outcome Outcome) {
	r.turnTimedOut.Cancel()
	r.finished = true
	outcome.Moves = r.grid.MoveCount()
	outcome.Generation = r.generation
	r.pendingOutcome = &outcome

	finishedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(outcome.Reason))))
	r.logger.InfoContext(ctx, "round finished",
		"reason", string(outcome.Reason),
		"winner", outcome.WinnerSymbol().String(),
		"moves", outcome.Moves,
	)
}

// abortLocked stops a round whose state can't be trusted anymore. Nobody is notified.
func (r *Round) abortLocked(ctx context.Context, err error) {
	r.turnTimedOut.Cancel()
	r.finished = true
	r.logger.ErrorContext(ctx, "aborting round", "error", err)
}

// GetHint suggests a move for the current player: a winning move, else a move blocking
// the other player, else a random valid move.
func (r *Round) GetHint(ctx context.Context) (game.Symbol, game.Coord, error) {
	_, span := tracer.Start(ctx, "round.GetHint")
	defer span.End()

	if !r.IsHintAvailable() {
		return game.Empty, game.Coord{}, fmt.Errorf("%w: hints are not available in mode %s", apperror.ErrInvalidOperation, r.mode)
	}

	r.mu.Lock()
	defer r.unlock()

	if r.finished {
		return game.Empty, game.Coord{}, apperror.ErrRoundFinished
	}

	current := r.currentPlayer().Symbol()
	next := r.nextPlayer().Symbol()

	if move, ok := r.grid.TryGetWinningMove(current); ok {
		return current, move, nil
	}
	if move, ok := r.grid.TryGetWinningMove(next); ok {
		return current, move, nil
	}

	moves := r.grid.GetAllValidMoves()
	if len(moves) == 0 {
		err := fmt.Errorf("%w: there are no valid moves", apperror.ErrInvalidState)
		span.RecordError(err)
		return game.Empty, game.Coord{}, err
	}
	return current, moves[r.rng.IntN(len(moves))], nil
}

// Undo reverts the last move of both players, so the same player stays on turn.
// Nothing is undone while fewer than two moves were made.
func (r *Round) Undo(ctx context.Context) ([]game.Coord, error) {
	ctx, span := tracer.Start(ctx, "round.Undo")
	defer span.End()

	if !r.IsUndoAvailable() {
		return nil, fmt.Errorf("%w: undo is not available in mode %s", apperror.ErrInvalidOperation, r.mode)
	}

	r.mu.Lock()
	defer r.unlock()

	if r.finished {
		return nil, apperror.ErrRoundFinished
	}

	changed := r.grid.Undo(2)
	r.logger.DebugContext(ctx, "undo", "fields", len(changed))
	return changed, nil
}

// Reset starts the round over: players are created again, which may swap the symbols
// of the human and the AI, and the grid is cleared.
func (r *Round) Reset(ctx context.Context) ([]game.Coord, error) {
	ctx, span := tracer.Start(ctx, "round.Reset")
	defer span.End()

	r.mu.Lock()
	defer r.unlock()

	r.generation++
	r.turnTimedOut.Cancel()
	if err := r.createPlayersLocked(); err != nil {
		return nil, err
	}
	changed := r.grid.Reset()

	if err := r.startFirstTurnLocked(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "first turn failed")
		return changed, err
	}
	r.logger.InfoContext(ctx, "round reset", "player.x", string(r.playerX.Kind()), "player.o", string(r.playerO.Kind()))
	return changed, nil
}

// Stop cancels the turn timer and finishes the round without reporting an outcome.
func (r *Round) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.turnTimedOut.Cancel()
	r.finished = true
}

func (r *Round) IsUndoAvailable() bool {
	return r.mode != PlayerVsPlayer
}

func (r *Round) IsHintAvailable() bool {
	return r.mode != PlayerVsPlayer
}

func (r *Round) IsResetAvailable() bool {
	return true
}

// Generation counts the resets of the round. Outcomes carry the generation they
// finished in.
func (r *Round) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

func (r *Round) IsFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

func (r *Round) Mode() Mode {
	return r.mode
}

// Grid returns the grid played on. Callers must not modify it directly.
func (r *Round) Grid() *game.Grid {
	return r.grid
}

// CurrentSymbol returns the symbol of the player on turn.
func (r *Round) CurrentSymbol() game.Symbol {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentPlayer().Symbol()
}

// Players returns the players holding X and O.
func (r *Round) Players() (x, o player.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerX, r.playerO
}

func (r *Round) TimePerTurn() time.Duration {
	return r.timePerTurn
}

// RemainingTimeInTurn is the time left before the current player forfeits.
func (r *Round) RemainingTimeInTurn() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return max(r.turnTimedOut.TimeRemaining(), 0)
}

// TurnProgress is the share of the turn time still left, in [0, 1].
func (r *Round) TurnProgress() float64 {
	p := float64(r.RemainingTimeInTurn()) / float64(r.timePerTurn)
	return min(max(p, 0), 1)
}

// View is a consistent snapshot of the round for display.
type View struct {
	Board         [game.GridSize][game.GridSize]game.Symbol
	CurrentSymbol game.Symbol
	Finished      bool
	Remaining     time.Duration
	Moves         int
	PlayerX       player.Kind
	PlayerO       player.Kind
}

// View reads the round state under a single lock.
func (r *Round) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return View{
		Board:         r.grid.Snapshot(),
		CurrentSymbol: r.currentPlayer().Symbol(),
		Finished:      r.finished,
		Remaining:     max(r.turnTimedOut.TimeRemaining(), 0),
		Moves:         r.grid.MoveCount(),
		PlayerX:       r.playerX.Kind(),
		PlayerO:       r.playerO.Kind(),
	}
}

// NewRand returns a random source seeded from seed, for reproducible rounds.
func NewRand(seed uint64) player.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
