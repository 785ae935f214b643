package round

import (
	"ctchen222/tictac/internal/game"
	"ctchen222/tictac/internal/player"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Framing(t *testing.T) {
	grid := game.NewGrid()
	human, err := player.NewHuman(game.O, grid)
	require.NoError(t, err)
	ai, err := player.NewMediumAI(game.X, grid, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		outcome Outcome
		mode    Mode
		want    Framing
	}{
		{"draw", Outcome{Reason: ReasonTie}, PlayerVsEasyAI, Framing{Kind: FramingDraw}},
		{"draw in pvp", Outcome{Reason: ReasonTie}, PlayerVsPlayer, Framing{Kind: FramingDraw}},
		{"pvp is always a victory", Outcome{Winner: human, Reason: ReasonTimeout}, PlayerVsPlayer, Framing{Kind: FramingVictory, Symbol: game.O}},
		{"AI won", Outcome{Winner: ai, Reason: ReasonVictory}, PlayerVsMediumAI, Framing{Kind: FramingDefeat}},
		{"human won", Outcome{Winner: human, Reason: ReasonVictory}, PlayerVsMediumAI, Framing{Kind: FramingVictory}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.Framing(tt.mode))
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseMode("hard")
	assert.Error(t, err)
	assert.True(t, PlayerVsEasyAI.HasAI())
	assert.False(t, PlayerVsPlayer.HasAI())
}
