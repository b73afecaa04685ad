package match

import (
	"math"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Ply is one applied move with what was known when it was played.
type Ply struct {
	Move     board.Move
	Eval     float64       // pawns, positive favours White
	TimeLeft time.Duration // mover's clock after the increment
}

// History is the append-only record of a game. It also keeps the position
// keys seen since the last pawn move or capture for repetition detection.
type History struct {
	startFEN string
	plies    []Ply
	keys     []uint64
}

// NewHistory starts a record for a game beginning at startFEN, whose
// position key is startKey.
func NewHistory(startFEN string, startKey uint64) *History {
	return &History{
		startFEN: startFEN,
		keys:     []uint64{startKey},
	}
}

// Add appends a ply. key is the position key after m was made.
func (h *History) Add(m board.Move, eval float64, timeLeft time.Duration, key uint64) {
	h.plies = append(h.plies, Ply{Move: m, Eval: eval, TimeLeft: timeLeft})
	if m.IsIrreversible() {
		h.keys = h.keys[:0]
	}
	h.keys = append(h.keys, key)
}

func (h *History) StartFEN() string { return h.startFEN }

// MoveCount returns the number of plies played.
func (h *History) MoveCount() int { return len(h.plies) }

// Plies returns a copy of the record.
func (h *History) Plies() []Ply {
	return append([]Ply(nil), h.plies...)
}

// Moves returns the played moves in order.
func (h *History) Moves() []board.Move {
	moves := make([]board.Move, len(h.plies))
	for i, p := range h.plies {
		moves[i] = p.Move
	}
	return moves
}

// LastPlayedMove returns the most recent move, NoMove before the first one.
func (h *History) LastPlayedMove() board.Move {
	if len(h.plies) == 0 {
		return board.NoMove
	}
	return h.plies[len(h.plies)-1].Move
}

// Repetition reports whether the current position has now occurred three
// times since the last irreversible move.
func (h *History) Repetition() bool {
	if len(h.keys) < 3 {
		return false
	}
	last := h.keys[len(h.keys)-1]
	count := 0
	for _, k := range h.keys {
		if k == last {
			count++
		}
	}
	return count >= 3
}

// ReversiblePlies returns the number of plies since the last pawn move or
// capture recorded here.
func (h *History) ReversiblePlies() int {
	return len(h.keys) - 1
}

// LastEvalPair returns the two most recent evaluations, one from each
// player. Both are zero until two plies have been played.
func (h *History) LastEvalPair() (float64, float64) {
	n := len(h.plies)
	if n < 2 {
		return 0, 0
	}
	return h.plies[n-2].Eval, h.plies[n-1].Eval
}

// DrawnForPlies reports whether the last n evaluations all stayed
// strictly inside (-band, band).
func (h *History) DrawnForPlies(band float64, n int) bool {
	if n <= 0 || len(h.plies) < n {
		return false
	}
	for _, p := range h.plies[len(h.plies)-n:] {
		if math.Abs(p.Eval) >= band {
			return false
		}
	}
	return true
}

// EvalSwings counts move pairs whose two evaluations differ by at least
// margin while neither exceeds 12 pawns in magnitude.
func (h *History) EvalSwings(margin float64) int {
	count := 0
	for i := 1; i < len(h.plies); i += 2 {
		a, b := h.plies[i-1].Eval, h.plies[i].Eval
		if math.Abs(a-b) >= margin && math.Max(math.Abs(a), math.Abs(b)) <= 12 {
			count++
		}
	}
	return count
}
