package arena

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/match"
	"github.com/hailam/chesscore/internal/player"
	"github.com/hailam/chesscore/internal/storage"
)

// foolish plays the first legal move of the fool's mate, whichever side it
// is on.
type foolish struct{ name string }

func (f foolish) Name() string                        { return f.name }
func (f foolish) Start(context.Context, string) error { return nil }
func (f foolish) Close() error                        { return nil }

func (f foolish) Play(_ context.Context, req player.Request) <-chan player.Reply {
	ch := make(chan player.Reply, 1)
	for _, s := range []string{"f2f3", "g2g4", "e7e5", "d8h4"} {
		if m, err := board.ParseMove(req.Position, s); err == nil {
			ch <- player.Reply{Move: m}
			return ch
		}
	}
	ch <- player.Reply{Err: errors.New("out of ideas")}
	return ch
}

func entrant(name string) Entrant {
	return Entrant{Name: name, New: func() (player.Player, error) { return foolish{name: name}, nil }}
}

func quick() match.Config {
	return match.Config{Time: 5 * time.Second, PollInterval: time.Millisecond}
}

func TestRunSwapsColours(t *testing.T) {
	store, err := storage.Open(storage.Options{InMemory: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer store.Close()

	report, err := Run(context.Background(), Config{Games: 2, Match: quick(), Store: store}, entrant("a"), entrant("b"))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)

	assert.Equal(t, "a", report.Outcomes[0].White)
	assert.Equal(t, "b", report.Outcomes[1].White)
	for _, out := range report.Outcomes {
		assert.Equal(t, match.BlackMates, out.Result)
	}
	assert.Equal(t, [2]float64{1, 1}, report.Points)

	games, err := store.ListGames()
	require.NoError(t, err)
	assert.Len(t, games, 2)

	stats, err := store.Stats("a")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.GamesPlayed)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
}

func TestRunCyclesOpeningsInPairs(t *testing.T) {
	// Both openings end the game before either player moves.
	cfg := Config{
		Games: 5,
		Match: quick(),
		Openings: [][]string{
			{"f2f3", "e7e5", "g2g4", "d8h4"},
			{"f2f3", "e7e6", "g2g4", "d8h4"},
		},
	}

	report, err := Run(context.Background(), cfg, entrant("a"), entrant("b"))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 5)

	want := []string{"e7e5", "e7e5", "e7e6", "e7e6", "e7e5"}
	for i, out := range report.Outcomes {
		require.Len(t, out.Moves, 4)
		assert.Equal(t, want[i], out.Moves[1].String(), "game %d", i+1)
		assert.Equal(t, match.BlackMates, out.Result)
	}
	assert.Equal(t, [2]float64{2, 3}, report.Points)
}

func TestRunRejectsBadOpening(t *testing.T) {
	cfg := Config{Match: quick(), Openings: [][]string{{"e2e5"}}}
	_, err := Run(context.Background(), cfg, entrant("a"), entrant("b"))
	assert.ErrorIs(t, err, board.ErrIllegalMove)
}

func TestRunFactoryError(t *testing.T) {
	broken := Entrant{Name: "broken", New: func() (player.Player, error) {
		return nil, errors.New("no binary")
	}}

	report, err := Run(context.Background(), Config{Games: 2, Match: quick()}, entrant("a"), broken)
	assert.Error(t, err)
	assert.Empty(t, report.Outcomes)
}

func TestRunWithEngines(t *testing.T) {
	if testing.Short() {
		t.Skip("plays full games")
	}
	engine := func(name string) Entrant {
		return Entrant{Name: name, New: func() (player.Player, error) {
			return player.NewEngineProcess(player.EngineConfig{
				Name:          name,
				Launcher:      player.InProcessLauncher{},
				FixedMoveTime: true,
			}), nil
		}}
	}

	cfg := Config{Games: 2, Match: match.Config{Time: time.Minute, PollInterval: time.Millisecond}}
	report, err := Run(context.Background(), cfg, engine("greedy-a"), engine("greedy-b"))
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	for _, out := range report.Outcomes {
		assert.NotEqual(t, match.Ongoing, out.Result)
		assert.NotEqual(t, match.Aborted, out.Result, "%v", out.Err)
	}
	assert.Equal(t, 2.0, report.Points[0]+report.Points[1])
}
