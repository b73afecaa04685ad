// Package player provides the move sources a match can be played between:
// external engine processes and interactive human input.
package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

var (
	// ErrProtocolTimeout means an engine sent no valid, fresh response
	// within its time budget plus the configured margin.
	ErrProtocolTimeout = errors.New("player: protocol timeout")
	// ErrPlayerUnavailable means the player cannot produce moves any more:
	// the process failed to launch, exited, or closed its pipes.
	ErrPlayerUnavailable = errors.New("player: unavailable")
	// ErrCancelled is delivered when the requester abandons a request.
	ErrCancelled = errors.New("player: request cancelled")

	errInputClosed = errors.New("input closed")
)

// UnavailableError carries the process-level cause of ErrPlayerUnavailable.
type UnavailableError struct {
	Name string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("player %s unavailable: %v", e.Name, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool {
	return target == ErrPlayerUnavailable
}

// Request asks a player for its next move.
type Request struct {
	Position  *board.Position // private copy, the player may mutate it
	LastMove  board.Move      // opponent's reply to our previous move, NoMove at first
	TimeLeft  time.Duration   // mover's clock
	Increment time.Duration
}

// Reply is the outcome of a Request. Eval is in pawns from White's side.
type Reply struct {
	Move board.Move
	Eval float64
	Err  error
}

// Player is a move source. Play must not block: the reply arrives on the
// returned channel, which receives exactly one value unless ctx is
// cancelled first. Cancelling ctx abandons the request.
type Player interface {
	Name() string
	// Start prepares the player for a game beginning at fen.
	Start(ctx context.Context, fen string) error
	Play(ctx context.Context, req Request) <-chan Reply
	Close() error
}

// Ready reports, without blocking, whether a reply is waiting on ch. The
// reply is returned when it is.
func Ready(ch <-chan Reply) (Reply, bool) {
	select {
	case r := <-ch:
		return r, true
	default:
		return Reply{}, false
	}
}

func reply(ch chan<- Reply, r Reply) {
	select {
	case ch <- r:
	default:
	}
}
