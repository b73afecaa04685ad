package player

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
)

// Selection is a pair of squares picked by a person. Promotion is only read
// for pawn moves to the last rank; NoPieceType there selects a queen.
type Selection struct {
	From, To  board.Square
	Promotion board.PieceType
}

// HumanInput is a Player fed by an input collaborator such as a terminal or
// a board UI. Selections naming no legal move are rejected and the wait
// continues.
type HumanInput struct {
	name  string
	input <-chan Selection
	log   zerolog.Logger

	mu    sync.Mutex
	legal *board.MoveList
}

// NewHumanInput returns a player reading selections from input.
func NewHumanInput(name string, input <-chan Selection, log zerolog.Logger) *HumanInput {
	return &HumanInput{
		name:  name,
		input: input,
		log:   log.With().Str("player", name).Logger(),
	}
}

func (h *HumanInput) Name() string { return h.name }

func (h *HumanInput) Start(context.Context, string) error { return nil }

// Legal returns the legal moves of the position awaiting input, nil when no
// move is requested. Input collaborators use it to highlight squares.
func (h *HumanInput) Legal() *board.MoveList {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.legal
}

func (h *HumanInput) setLegal(ml *board.MoveList) {
	h.mu.Lock()
	h.legal = ml
	h.mu.Unlock()
}

func (h *HumanInput) Play(ctx context.Context, req Request) <-chan Reply {
	ch := make(chan Reply, 1)
	legal := req.Position.GenerateMoves()
	h.setLegal(legal)

	go func() {
		defer h.setLegal(nil)
		for {
			select {
			case <-ctx.Done():
				reply(ch, Reply{Err: ErrCancelled})
				return
			case sel, ok := <-h.input:
				if !ok {
					reply(ch, Reply{Err: &UnavailableError{Name: h.name, Err: errInputClosed}})
					return
				}
				if m := resolve(legal, sel); m != board.NoMove {
					reply(ch, Reply{Move: m})
					return
				}
				h.log.Info().Stringer("from", sel.From).Stringer("to", sel.To).Msg("not a legal move")
			}
		}
	}()
	return ch
}

func resolve(legal *board.MoveList, sel Selection) board.Move {
	if !legal.ValidOrigin(sel.From) || !legal.ValidDestination(sel.From, sel.To) {
		return board.NoMove
	}
	promo := sel.Promotion
	if promo == board.NoPieceType {
		promo = board.Queen
	}
	return legal.Find(sel.From, sel.To, promo)
}

func (h *HumanInput) Close() error { return nil }
