package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
)

// Chooser picks a move from a non-empty legal move list and returns it with
// an evaluation in pawns from White's side.
type Chooser interface {
	Choose(pos *board.Position, moves *board.MoveList, budget time.Duration) (board.Move, float64)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(pos *board.Position, moves *board.MoveList, budget time.Duration) (board.Move, float64)

func (f ChooserFunc) Choose(pos *board.Position, moves *board.MoveList, budget time.Duration) (board.Move, float64) {
	return f(pos, moves, budget)
}

// ServerConfig configures the engine side of the protocol.
type ServerConfig struct {
	Chooser Chooser // defaults to Greedy
	Logger  zerolog.Logger
}

// Server answers requests for one game, keeping its own copy of the board.
type Server struct {
	position *board.Position
	chooser  Chooser
	log      zerolog.Logger
}

// NewServer prepares a server for a game starting at fen.
func NewServer(fen string, cfg ServerConfig) (*Server, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	if cfg.Chooser == nil {
		cfg.Chooser = Greedy
	}
	return &Server{position: pos, chooser: cfg.Chooser, log: cfg.Logger}, nil
}

// Position returns the server's current board.
func (s *Server) Position() *board.Position {
	return s.position
}

// Serve reads requests from r until EOF or ctx is done, writing one
// response per request to w. Malformed requests are logged and skipped.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		req, err := ParseRequest(line)
		if err != nil {
			s.log.Warn().Err(err).Msg("skipping request")
			continue
		}

		resp, err := s.handle(req)
		if err != nil {
			return err
		}

		out, err := resp.MarshalText()
		if err != nil {
			return err
		}
		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *Server) handle(req Request) (Response, error) {
	if req.LastMove != 0 {
		m := board.Move(req.LastMove)
		if !s.position.GenerateMoves().Contains(m) {
			return Response{}, fmt.Errorf("%w: opponent played %v in %s", board.ErrIllegalMove, m, s.position.ToFEN())
		}
		s.position.MakeMove(m)
	}

	moves := s.position.GenerateMoves()
	if moves.Len() == 0 {
		s.log.Warn().Str("fen", s.position.ToFEN()).Msg("asked to move with no legal moves")
		return Response{ID: req.ID}, nil
	}

	m, eval := s.chooser.Choose(s.position, moves, req.Time)
	s.position.MakeMove(m)

	s.log.Debug().
		Uint64("id", req.ID).
		Stringer("move", m).
		Float64("eval", eval).
		Dur("budget", req.Time).
		Msg("answered")
	return Response{Move: uint32(m), Eval: eval, ID: req.ID}, nil
}

// Greedy takes the most valuable capture or promotion available, else the
// first legal move. It reports the material balance after its move.
var Greedy = ChooserFunc(func(pos *board.Position, moves *board.MoveList, _ time.Duration) (board.Move, float64) {
	best, bestGain := moves.Get(0), -1
	for _, m := range moves.Slice() {
		gain := board.Weight[m.Captured()]
		if m.IsPromotion() {
			gain += board.Weight[m.Promotion()] - board.Weight[board.Pawn]
		}
		if gain > bestGain {
			best, bestGain = m, gain
		}
	}

	pos.MakeMove(best)
	eval := Material(pos)
	pos.UnmakeMove()
	return best, eval
})

// Material returns White's material minus Black's, in pawns.
func Material(pos *board.Position) float64 {
	balance := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		balance += (pos.Pieces(board.White, pt).PopCount() - pos.Pieces(board.Black, pt).PopCount()) * board.Weight[pt]
	}
	return float64(balance) / 100
}
