package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/player"
)

// Config describes one game.
type Config struct {
	// StartFEN defaults to the standard starting position.
	StartFEN string
	// Opening moves in coordinate notation, played from StartFEN before the
	// clocks start.
	Opening []string

	Time      time.Duration // per side, defaults to one minute
	Increment time.Duration

	// Adjourn ends the game as soon as a result can be predicted.
	Adjourn   bool
	WinMargin float64 // pawns, defaults to DefaultWinMargin
	DrawBand  float64 // pawns, defaults to DefaultDrawBand
	DrawPlies int     // defaults to DefaultDrawPlies

	// PollInterval is how often the clock is charged while waiting.
	PollInterval time.Duration

	Keys   *board.Keys // defaults to board.DefaultKeys()
	Logger zerolog.Logger
}

func (c *Config) setDefaults() {
	if c.StartFEN == "" {
		c.StartFEN = board.StartFEN
	}
	if c.Time <= 0 {
		c.Time = time.Minute
	}
	if c.WinMargin <= 0 {
		c.WinMargin = DefaultWinMargin
	}
	if c.DrawBand <= 0 {
		c.DrawBand = DefaultDrawBand
	}
	if c.DrawPlies <= 0 {
		c.DrawPlies = DefaultDrawPlies
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	if c.Keys == nil {
		c.Keys = board.DefaultKeys()
	}
}

// State is the coordinator's lifecycle stage.
type State int

const (
	NotStarted State = iota
	InProgress
	Terminated
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Terminated:
		return "terminated"
	}
	return "not started"
}

// Outcome summarises a finished game.
type Outcome struct {
	GameID           string
	White            string
	Black            string
	StartFEN         string
	FinalFEN         string
	Result           Result
	Prediction       Prediction
	Score            int // White's side; adjourned games take the predicted score
	PredictionFailed bool
	Remarks          []string
	Moves            []board.Move
	Plies            []Ply
	Err              error // cause of an aborted game
}

// Coordinator plays one game between two players. It owns the position,
// the clock and the history for the duration of the game.
type Coordinator struct {
	cfg     Config
	id      string
	log     zerolog.Logger
	players [2]player.Player

	state      State
	position   *board.Position
	history    *History
	clock      *Clock
	legal      *board.MoveList
	result     Result
	prediction Prediction
	cause      error

	played int // moves made by the players, opening excluded
}

// New sets up a game: loads the start position and plays the opening. The
// players are not contacted until Play.
func New(cfg Config, white, black player.Player) (*Coordinator, error) {
	cfg.setDefaults()

	pos, err := board.ParseFENWithKeys(cfg.StartFEN, cfg.Keys)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	c := &Coordinator{
		cfg:      cfg,
		id:       id,
		log:      cfg.Logger.With().Str("game", id).Logger(),
		players:  [2]player.Player{white, black},
		position: pos,
		history:  NewHistory(cfg.StartFEN, pos.Hash()),
		clock:    NewClock(cfg.Time, cfg.Increment),
	}

	for _, s := range cfg.Opening {
		m, err := board.ParseMove(c.position, s)
		if err != nil {
			return nil, fmt.Errorf("opening: %w", err)
		}
		c.position.MakeMove(m)
		c.history.Add(m, 0, c.clock.Initial(), c.position.Hash())
	}
	return c, nil
}

func (c *Coordinator) ID() string             { return c.id }
func (c *Coordinator) State() State           { return c.state }
func (c *Coordinator) Clock() *Clock          { return c.clock }
func (c *Coordinator) History() *History      { return c.history }
func (c *Coordinator) Result() Result         { return c.result }
func (c *Coordinator) Prediction() Prediction { return c.prediction }

// Position returns a copy of the current position.
func (c *Coordinator) Position() *board.Position {
	return c.position.Copy()
}

// Play starts both players, runs the game to its end and closes the
// players. A cancelled ctx aborts the game and is returned as the error.
func (c *Coordinator) Play(ctx context.Context) (*Outcome, error) {
	if c.state != NotStarted {
		return nil, fmt.Errorf("game %s already %s", c.id, c.state)
	}
	c.state = InProgress
	defer c.closePlayers()

	fen := c.position.ToFEN()
	c.log.Info().
		Str("white", c.players[board.White].Name()).
		Str("black", c.players[board.Black].Name()).
		Str("fen", fen).
		Dur("time", c.cfg.Time).
		Dur("inc", c.cfg.Increment).
		Msg("game started")

	for _, p := range c.players {
		if err := p.Start(ctx, fen); err != nil {
			c.log.Error().Err(err).Str("player", p.Name()).Msg("player failed to start")
			c.abort(err)
			return c.finish(), nil
		}
	}

	c.clock.Start(c.position.SideToMove())

	for c.result == Ongoing {
		if c.result = c.gameOver(); c.result != Ongoing {
			break
		}
		if err := c.turn(ctx); err != nil {
			c.abort(err)
			c.clock.Freeze()
			return c.finish(), err
		}
	}

	c.clock.Freeze()
	return c.finish(), nil
}

// gameOver evaluates the termination rules in priority order and caches
// the legal moves for validating the next move.
func (c *Coordinator) gameOver() Result {
	side := c.position.SideToMove()
	c.legal = c.position.GenerateMoves()

	switch {
	case c.legal.IsCheckmate():
		return checkmated(side)
	case c.legal.IsStalemate():
		return Stalemate
	case c.position.InsufficientMaterial():
		return InsufficientMaterial
	case c.history.Repetition():
		return Repetition
	case c.position.HalfmoveClock() >= 100:
		return FiftyMoves
	case c.clock.Remaining(side) < 0:
		return lostOnTime(side)
	}
	return Ongoing
}

// turn requests a move from the side to move and applies it. It returns an
// error only when ctx is done; every other failure becomes a result.
func (c *Coordinator) turn(ctx context.Context) error {
	side := c.position.SideToMove()
	p := c.players[side]

	last := board.NoMove
	if c.played > 0 {
		last = c.history.LastPlayedMove()
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := p.Play(reqCtx, player.Request{
		Position:  c.position.Copy(),
		LastMove:  last,
		TimeLeft:  c.clock.Remaining(side),
		Increment: c.clock.Increment(),
	})

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	mark := time.Now()

	charge := func() time.Duration {
		now := time.Now()
		c.clock.Tick(now.Sub(mark))
		mark = now
		return c.clock.Remaining(side)
	}

	for {
		select {
		case <-ctx.Done():
			charge()
			return ctx.Err()

		case <-ticker.C:
			if charge() <= 0 {
				c.result = lostOnTime(side)
				c.log.Info().Str("player", p.Name()).Msg("flag fell")
				return nil
			}

		case r := <-replies:
			if charge() <= 0 {
				c.result = lostOnTime(side)
				return nil
			}
			switch {
			case r.Err == nil:
				c.apply(side, r)
				return nil
			case errors.Is(r.Err, player.ErrProtocolTimeout):
				// The clock decides: keep waiting until the flag falls.
				c.log.Warn().Err(r.Err).Str("player", p.Name()).Msg("no answer from player")
				replies = nil
			default:
				c.log.Error().Err(r.Err).Str("player", p.Name()).Msg("player failed")
				c.abort(r.Err)
				return nil
			}
		}
	}
}

// apply validates and plays a player's move.
func (c *Coordinator) apply(side board.Color, r player.Reply) {
	if !c.legal.Contains(r.Move) {
		c.log.Warn().
			Str("player", c.players[side].Name()).
			Stringer("move", r.Move).
			Str("fen", c.position.ToFEN()).
			Msg("illegal move, game forfeited")
		c.result = forfeited(side)
		return
	}

	c.clock.SwitchPlayer()
	c.clock.Freeze()

	c.position.MakeMove(r.Move)
	c.history.Add(r.Move, r.Eval, c.clock.Remaining(side), c.position.Hash())
	c.played++

	c.log.Debug().
		Int("ply", c.history.MoveCount()).
		Stringer("move", r.Move).
		Float64("eval", r.Eval).
		Dur("left", c.clock.Remaining(side)).
		Msg("move played")

	if c.prediction == NoPrediction {
		c.prediction = predict(c.history, c.cfg.WinMargin, c.cfg.DrawBand, c.cfg.DrawPlies)
		if c.prediction != NoPrediction {
			c.log.Info().Stringer("prediction", c.prediction).Int("ply", c.history.MoveCount()).Msg("result predicted")
			if c.cfg.Adjourn {
				c.result = Adjourned
				return
			}
		}
	}

	c.clock.Unfreeze()
}

func (c *Coordinator) abort(err error) {
	c.result = Aborted
	c.cause = err
}

func (c *Coordinator) closePlayers() {
	for _, p := range c.players {
		if err := p.Close(); err != nil {
			c.log.Warn().Err(err).Str("player", p.Name()).Msg("close player")
		}
	}
}

func (c *Coordinator) finish() *Outcome {
	c.state = Terminated

	score := c.result.Score()
	if c.result == Adjourned {
		score = c.prediction.Score()
	}

	out := &Outcome{
		GameID:           c.id,
		White:            c.players[board.White].Name(),
		Black:            c.players[board.Black].Name(),
		StartFEN:         c.history.StartFEN(),
		FinalFEN:         c.position.ToFEN(),
		Result:           c.result,
		Prediction:       c.prediction,
		Score:            score,
		PredictionFailed: predictionFailed(c.result, c.prediction),
		Remarks:          remarks(c.result, c.prediction, c.history, c.position),
		Moves:            c.history.Moves(),
		Plies:            c.history.Plies(),
		Err:              c.cause,
	}

	c.log.Info().
		Int("result", int(c.result)).
		Str("reason", c.result.String()).
		Int("plies", c.history.MoveCount()).
		Strs("remarks", out.Remarks).
		Msg("game over")
	return out
}
