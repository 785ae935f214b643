// Package terminal plays a round on a text console.
package terminal

import (
	"bufio"
	"context"
	"ctchen222/tictac/internal/game"
	"ctchen222/tictac/internal/session"
	"ctchen222/tictac/pkg/proto"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

const help = "Enter a move as \"x y\", h for a hint, u to undo, r to reset, s to show the board, q to quit."

var errQuit = errors.New("quit")

// Console drives a session from line based input.
type Console struct {
	sess *session.Session
	in   io.Reader

	mu  sync.Mutex
	out io.Writer
}

func New(sess *session.Session, in io.Reader, out io.Writer) *Console {
	return &Console{sess: sess, in: in, out: out}
}

// Run plays until the input ends, q is entered or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, unsubscribe := c.sess.Subscribe()
	defer unsubscribe()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		c.relay(updates)
	}()
	defer func() {
		unsubscribe()
		<-relayDone
	}()

	c.println(help)
	c.render()

	lines, readErr := scanLines(ctx, c.in)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if err := c.handle(ctx, strings.TrimSpace(line)); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				c.println("error:", err)
			}
		}
	}
}

// scanLines reads in line by line until it ends or ctx is done. The error channel
// receives exactly once before lines is closed.
func scanLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}

func (c *Console) handle(ctx context.Context, line string) error {
	switch strings.ToLower(line) {
	case "":
		return nil
	case "q", "quit":
		return errQuit
	case "h", "hint":
		hint, err := c.sess.Hint(ctx)
		if err != nil {
			return err
		}
		c.println(fmt.Sprintf("hint: %s at %d %d", hint.Symbol, hint.X, hint.Y))
		return nil
	case "u", "undo":
		if err := c.sess.Undo(ctx); err != nil {
			return err
		}
		c.render()
		return nil
	case "r", "reset":
		if err := c.sess.Reset(ctx); err != nil {
			return err
		}
		c.render()
		return nil
	case "s", "show":
		c.render()
		return nil
	case "?", "help":
		c.println(help)
		return nil
	}

	x, y, err := parseMove(line)
	if err != nil {
		return err
	}
	result, err := c.sess.Move(ctx, x, y)
	if err != nil {
		return err
	}
	if result == game.Blocked {
		c.println("that field is taken")
		return nil
	}
	c.render()
	return nil
}

// relay prints the outcome as soon as the round finishes, even between inputs.
func (c *Console) relay(updates <-chan proto.ServerToClientMessage) {
	for msg := range updates {
		if msg.Type == proto.TypeRoundFinished && msg.Outcome != nil {
			c.println(FormatOutcome(*msg.Outcome))
		}
	}
}

func (c *Console) render() {
	c.println(Render(c.sess.State()))
}

func (c *Console) println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

func parseMove(line string) (int, int, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unknown command %q", line)
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad x %q", fields[0])
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad y %q", fields[1])
	}
	return x, y, nil
}

// Render draws the board with x as rows and y as columns, followed by a status line.
func Render(state proto.RoundState) string {
	var b strings.Builder
	b.WriteString("   0   1   2\n")
	for x, column := range state.Board {
		if x > 0 {
			b.WriteString("  ---+---+---\n")
		}
		fmt.Fprintf(&b, "%d ", x)
		for y, symbol := range column {
			if y > 0 {
				b.WriteString("|")
			}
			mark := symbol.String()
			if mark == "" {
				mark = "."
			}
			fmt.Fprintf(&b, " %s ", mark)
		}
		b.WriteString("\n")
	}

	if state.Finished {
		if state.Outcome != nil {
			b.WriteString(FormatOutcome(*state.Outcome))
		} else {
			b.WriteString("round over")
		}
		return b.String()
	}

	fmt.Fprintf(&b, "%s to move (X: %s, O: %s), %.1fs left", state.Next, state.PlayerX, state.PlayerO, float64(state.Remaining)/1000)
	return b.String()
}

// FormatOutcome turns an outcome into the message shown at the end of a round.
func FormatOutcome(o proto.Outcome) string {
	suffix := ""
	if o.Reason == "timeout" {
		suffix = " (time ran out)"
	}
	switch o.Framing {
	case "draw":
		return "Draw." + suffix
	case "defeat":
		return "Defeat." + suffix
	default:
		if o.FramingSymbol != game.Empty {
			return fmt.Sprintf("%s wins!%s", o.FramingSymbol, suffix)
		}
		return "Victory!" + suffix
	}
}
