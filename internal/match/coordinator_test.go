package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/player"
)

// scripted plays a fixed list of moves, then stops answering.
type scripted struct {
	name   string
	moves  []string
	eval   float64
	next   int
	closed bool
	last   []board.Move
}

func (s *scripted) Name() string                        { return s.name }
func (s *scripted) Start(context.Context, string) error { return nil }

func (s *scripted) Close() error {
	s.closed = true
	return nil
}

func (s *scripted) Play(ctx context.Context, req player.Request) <-chan player.Reply {
	ch := make(chan player.Reply, 1)
	s.last = append(s.last, req.LastMove)
	if s.next >= len(s.moves) {
		return ch
	}
	m, err := board.ParseMove(req.Position, s.moves[s.next])
	s.next++
	if err != nil {
		ch <- player.Reply{Err: err}
		return ch
	}
	ch <- player.Reply{Move: m, Eval: s.eval}
	return ch
}

// fixed always answers with the same raw move.
type fixed struct {
	move board.Move
	err  error
}

func (f *fixed) Name() string                        { return "fixed" }
func (f *fixed) Start(context.Context, string) error { return nil }
func (f *fixed) Close() error                        { return nil }

func (f *fixed) Play(context.Context, player.Request) <-chan player.Reply {
	ch := make(chan player.Reply, 1)
	ch <- player.Reply{Move: f.move, Err: f.err}
	return ch
}

func quickConfig() Config {
	return Config{
		Time:         5 * time.Second,
		PollInterval: time.Millisecond,
	}
}

func run(t *testing.T, cfg Config, white, black player.Player) *Outcome {
	t.Helper()
	c, err := New(cfg, white, black)
	require.NoError(t, err)
	assert.Equal(t, NotStarted, c.State())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := c.Play(ctx)
	require.NoError(t, err)
	assert.Equal(t, Terminated, c.State())
	return out
}

func TestFoolsMate(t *testing.T) {
	white := &scripted{name: "white", moves: []string{"f2f3", "g2g4"}}
	black := &scripted{name: "black", moves: []string{"e7e5", "d8h4"}}

	out := run(t, quickConfig(), white, black)

	assert.Equal(t, BlackMates, out.Result)
	assert.Equal(t, -1, out.Score)
	assert.Len(t, out.Moves, 4)
	assert.True(t, white.closed)
	assert.True(t, black.closed)
	assert.NotEmpty(t, out.GameID)
}

func TestLastMoveHandedToPlayers(t *testing.T) {
	white := &scripted{name: "white", moves: []string{"f2f3", "g2g4"}}
	black := &scripted{name: "black", moves: []string{"e7e5", "d8h4"}}

	run(t, quickConfig(), white, black)

	require.Len(t, white.last, 2)
	assert.Equal(t, board.NoMove, white.last[0])
	assert.Equal(t, "e7e5", white.last[1].String())
	require.Len(t, black.last, 2)
	assert.Equal(t, "f2f3", black.last[0].String())
	assert.Equal(t, "g2g4", black.last[1].String())
}

func TestThreefoldRepetition(t *testing.T) {
	white := &scripted{name: "white", moves: []string{"g1f3", "f3g1", "g1f3", "f3g1", "g1f3"}}
	black := &scripted{name: "black", moves: []string{"g8f6", "f6g8", "g8f6", "f6g8", "g8f6"}}

	out := run(t, quickConfig(), white, black)

	assert.Equal(t, Repetition, out.Result)
	assert.Len(t, out.Moves, 8, "draw on the third occurrence, not before")
	assert.Contains(t, out.Remarks, RemarkRepetition)
	assert.Contains(t, out.Remarks, RemarkHugeMaterial)
}

func TestFiftyMoveRule(t *testing.T) {
	cfg := quickConfig()
	cfg.StartFEN = "7k/8/8/8/8/8/8/R6K w - - 90 1"

	white := &scripted{name: "white", moves: []string{"a1a2", "a2a3", "a3a4", "a4a5", "a5a6", "a6a7"}}
	black := &scripted{name: "black", moves: []string{"h8g8", "g8h8", "h8g8", "g8h8", "h8g8", "g8h8"}}

	out := run(t, cfg, white, black)

	assert.Equal(t, FiftyMoves, out.Result)
	assert.Len(t, out.Moves, 10, "draw exactly at the hundredth reversible ply")
	assert.True(t, out.Result.IsDraw())
}

func TestInsufficientMaterialAtStart(t *testing.T) {
	cfg := quickConfig()
	cfg.StartFEN = "4k3/8/8/8/8/8/8/2B1K3 w - - 0 1"

	out := run(t, cfg, &scripted{name: "white"}, &scripted{name: "black"})
	assert.Equal(t, InsufficientMaterial, out.Result)
	assert.Empty(t, out.Moves)
}

func TestStalemateResult(t *testing.T) {
	cfg := quickConfig()
	cfg.StartFEN = "7k/4Q3/8/6K1/8/8/8/8 w - - 0 1"

	out := run(t, cfg, &scripted{name: "white", moves: []string{"e7f7"}}, &scripted{name: "black"})
	assert.Equal(t, Stalemate, out.Result)
	assert.Equal(t, 0, out.Score)
}

func TestLossOnTime(t *testing.T) {
	cfg := quickConfig()
	cfg.Time = 50 * time.Millisecond

	start := time.Now()
	out := run(t, cfg, &scripted{name: "silent"}, &scripted{name: "black"})

	assert.Equal(t, BlackWinsOnTime, out.Result)
	assert.Contains(t, out.Remarks, RemarkLostOnTime)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLossOnTimeAfterOpening(t *testing.T) {
	cfg := quickConfig()
	cfg.Time = 50 * time.Millisecond
	cfg.Opening = []string{"e2e4"}

	out := run(t, cfg, &scripted{name: "white"}, &scripted{name: "silent"})

	assert.Equal(t, WhiteWinsOnTime, out.Result)
	require.Len(t, out.Plies, 1)
	assert.Equal(t, cfg.Time, out.Plies[0].TimeLeft, "opening plies keep the full clock")
	assert.Zero(t, out.Plies[0].Eval)
}

func TestProtocolTimeoutWaitsForClock(t *testing.T) {
	cfg := quickConfig()
	cfg.Time = 50 * time.Millisecond

	out := run(t, cfg, &fixed{err: player.ErrProtocolTimeout}, &scripted{name: "black"})
	assert.Equal(t, BlackWinsOnTime, out.Result)
}

func TestIllegalMoveForfeits(t *testing.T) {
	bogus := board.NewMove(board.E2, board.E5, board.Pawn, board.NoPieceType, board.NoPieceType, board.White)

	out := run(t, quickConfig(), &fixed{move: bogus}, &scripted{name: "black"})

	assert.Equal(t, BlackWinsByForfeit, out.Result)
	assert.Equal(t, -1, out.Score)
	assert.Empty(t, out.Moves, "the illegal move is never applied")
}

func TestUnavailablePlayerAborts(t *testing.T) {
	gone := &player.UnavailableError{Name: "fixed", Err: errors.New("exit status 1")}

	out := run(t, quickConfig(), &fixed{err: gone}, &scripted{name: "black"})

	assert.Equal(t, Aborted, out.Result)
	assert.ErrorIs(t, out.Err, player.ErrPlayerUnavailable)
	assert.Equal(t, 0, out.Score)
}

func TestAdjournment(t *testing.T) {
	moves := func(side string) *scripted {
		if side == "white" {
			return &scripted{name: side, eval: 6, moves: []string{"e2e4", "d2d4", "g1f3"}}
		}
		return &scripted{name: side, eval: 6, moves: []string{"e7e5", "d7d5", "g8f6"}}
	}

	cfg := quickConfig()
	cfg.Adjourn = true
	out := run(t, cfg, moves("white"), moves("black"))

	assert.Equal(t, Adjourned, out.Result)
	assert.Equal(t, PredictWhiteWins, out.Prediction)
	assert.Equal(t, 1, out.Score)
	assert.Len(t, out.Moves, 2)

	cfg.Adjourn = false
	cfg.Time = 100 * time.Millisecond
	out = run(t, cfg, moves("white"), moves("black"))

	assert.Equal(t, PredictWhiteWins, out.Prediction, "prediction is recorded without adjourning")
	assert.Len(t, out.Moves, 6)
	assert.Equal(t, BlackWinsOnTime, out.Result, "white ran out of scripted moves")
	assert.True(t, out.PredictionFailed)
	assert.Contains(t, out.Remarks, RemarkPredictionFailed)
}

func TestBadOpening(t *testing.T) {
	cfg := quickConfig()
	cfg.Opening = []string{"e2e4", "e2e4"}
	_, err := New(cfg, &scripted{}, &scripted{})
	assert.ErrorIs(t, err, board.ErrIllegalMove)

	cfg = quickConfig()
	cfg.StartFEN = "not a fen"
	_, err = New(cfg, &scripted{}, &scripted{})
	assert.ErrorIs(t, err, board.ErrMalformedFEN)
}

func TestCancelledContext(t *testing.T) {
	c, err := New(quickConfig(), &scripted{name: "silent"}, &scripted{name: "black"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := c.Play(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Aborted, out.Result)

	_, err = c.Play(context.Background())
	assert.Error(t, err, "a game is played once")
}
