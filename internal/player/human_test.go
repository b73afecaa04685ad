package player

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesscore/internal/board"
)

func sq(t *testing.T, s string) board.Square {
	t.Helper()
	v, err := board.ParseSquare(s)
	require.NoError(t, err)
	return v
}

func TestHumanInputRejectsIllegalSelections(t *testing.T) {
	input := make(chan Selection, 4)
	h := NewHumanInput("human", input, zerolog.Nop())

	ch := h.Play(context.Background(), Request{Position: board.NewPosition()})
	require.NotNil(t, h.Legal())
	assert.Equal(t, 20, h.Legal().Len())

	input <- Selection{From: sq(t, "e4"), To: sq(t, "e5")} // empty origin
	input <- Selection{From: sq(t, "e2"), To: sq(t, "e5")} // bad destination
	input <- Selection{From: sq(t, "e7"), To: sq(t, "e5")} // opponent's piece
	input <- Selection{From: sq(t, "g1"), To: sq(t, "f3")}

	r := await(t, ch)
	require.NoError(t, r.Err)
	assert.Equal(t, "g1f3", r.Move.String())
}

func TestHumanInputPromotion(t *testing.T) {
	pos, err := board.ParseFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")
	require.NoError(t, err)

	input := make(chan Selection, 2)
	h := NewHumanInput("human", input, zerolog.Nop())

	input <- Selection{From: sq(t, "a7"), To: sq(t, "a8")}
	r := await(t, h.Play(context.Background(), Request{Position: pos.Copy()}))
	require.NoError(t, r.Err)
	assert.Equal(t, "a7a8q", r.Move.String(), "queen by default")

	input <- Selection{From: sq(t, "a7"), To: sq(t, "a8"), Promotion: board.Knight}
	r = await(t, h.Play(context.Background(), Request{Position: pos.Copy()}))
	require.NoError(t, r.Err)
	assert.Equal(t, "a7a8n", r.Move.String())
}

func TestHumanInputClosed(t *testing.T) {
	input := make(chan Selection)
	h := NewHumanInput("human", input, zerolog.Nop())
	close(input)

	r := await(t, h.Play(context.Background(), Request{Position: board.NewPosition()}))
	assert.ErrorIs(t, r.Err, ErrPlayerUnavailable)
}

func TestHumanInputCancel(t *testing.T) {
	h := NewHumanInput("human", make(chan Selection), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Play(ctx, Request{Position: board.NewPosition()})
	cancel()
	assert.ErrorIs(t, await(t, ch).Err, ErrCancelled)
}

func TestReady(t *testing.T) {
	ch := make(chan Reply, 1)
	_, ok := Ready(ch)
	assert.False(t, ok)

	ch <- Reply{Eval: 1.5}
	r, ok := Ready(ch)
	assert.True(t, ok)
	assert.Equal(t, 1.5, r.Eval)
}
