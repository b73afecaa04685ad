package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesscore/internal/board"
)

func TestParseSelection(t *testing.T) {
	sel, err := parseSelection("e7e8n")
	require.NoError(t, err)
	assert.Equal(t, "e7", sel.From.String())
	assert.Equal(t, "e8", sel.To.String())
	assert.Equal(t, board.Knight, sel.Promotion)

	sel, err = parseSelection("g1f3")
	require.NoError(t, err)
	assert.Equal(t, board.NoPieceType, sel.Promotion)

	for _, bad := range []string{"", "e2", "e2e4qq", "z2e4", "e7e8k"} {
		_, err := parseSelection(bad)
		assert.Error(t, err, bad)
	}
}

func TestOpeningFlag(t *testing.T) {
	var l lines
	require.NoError(t, l.Set("e2e4  e7e5"))
	require.NoError(t, l.Set("d2d4"))
	assert.Equal(t, lines{{"e2e4", "e7e5"}, {"d2d4"}}, l)
	assert.Equal(t, "e2e4 e7e5; d2d4", l.String())
}

func TestRunPerft(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runPerft(&buf, board.StartFEN, 2))
	out := buf.String()
	assert.Contains(t, out, "nodes 400 ")
	assert.Equal(t, 20, strings.Count(out, ": 20\n"))

	assert.Error(t, runPerft(&buf, "not a fen", 1))
}
