// Package arena plays a series of games between two players.
package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/match"
	"github.com/hailam/chesscore/internal/player"
	"github.com/hailam/chesscore/internal/storage"
)

// Entrant is one side of the series. New is called once per game, since a
// player is bound to a single game.
type Entrant struct {
	Name string
	New  func() (player.Player, error)
}

// Config describes a series.
type Config struct {
	Games int // defaults to 2

	// Openings are move lists played from Match.StartFEN. Each opening is
	// used for a pair of games with colours swapped, cycling through the
	// list. None means every game starts from the start position.
	Openings [][]string

	// Match is the template for every game; Opening is overwritten.
	Match match.Config

	// Store receives every finished game when set.
	Store  *storage.Store
	Logger zerolog.Logger
}

// Report is the outcome of a series. Points counts a win as 1 and a draw
// as 0.5, indexed like the entrants.
type Report struct {
	Outcomes []*match.Outcome
	Points   [2]float64
}

type game struct {
	index   int
	opening []string
	swapped bool // the second entrant plays White
}

type finished struct {
	game
	outcome *match.Outcome
	elapsed time.Duration
}

// Run plays cfg.Games games one after another. It stops at the first error
// or when ctx is done.
func Run(ctx context.Context, cfg Config, a, b Entrant) (*Report, error) {
	if cfg.Games <= 0 {
		cfg.Games = 2
	}
	if err := checkOpenings(cfg); err != nil {
		return nil, err
	}
	log := cfg.Logger.With().Str("arena", a.Name+" vs "+b.Name).Logger()
	log.Info().Int("games", cfg.Games).Int("openings", len(cfg.Openings)).Msg("arena started")

	g, ctx := errgroup.WithContext(ctx)
	games := make(chan game)
	results := make(chan finished)
	report := &Report{}

	g.Go(func() error {
		defer close(games)
		return schedule(ctx, cfg, games)
	})

	g.Go(func() error {
		defer close(results)
		for gm := range games {
			res, err := play(ctx, cfg, gm, a, b)
			if err != nil {
				return err
			}
			select {
			case results <- res:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for res := range results {
			if err := record(cfg, res, report); err != nil {
				return err
			}
			log.Info().
				Int("game", res.index+1).
				Str("white", res.outcome.White).
				Str("black", res.outcome.Black).
				Str("result", res.outcome.Result.String()).
				Float64(a.Name, report.Points[0]).
				Float64(b.Name, report.Points[1]).
				Msg("game finished")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return report, err
	}
	log.Info().Float64(a.Name, report.Points[0]).Float64(b.Name, report.Points[1]).Msg("arena finished")
	return report, nil
}

func schedule(ctx context.Context, cfg Config, games chan<- game) error {
	for i := 0; i < cfg.Games; i++ {
		gm := game{index: i, swapped: i%2 == 1}
		if len(cfg.Openings) > 0 {
			gm.opening = cfg.Openings[(i/2)%len(cfg.Openings)]
		}
		select {
		case games <- gm:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func play(ctx context.Context, cfg Config, gm game, a, b Entrant) (finished, error) {
	white, black := a, b
	if gm.swapped {
		white, black = b, a
	}

	wp, err := white.New()
	if err != nil {
		return finished{}, fmt.Errorf("game %d: %s: %w", gm.index+1, white.Name, err)
	}
	bp, err := black.New()
	if err != nil {
		wp.Close()
		return finished{}, fmt.Errorf("game %d: %s: %w", gm.index+1, black.Name, err)
	}

	mcfg := cfg.Match
	mcfg.Opening = gm.opening
	mcfg.Logger = cfg.Logger
	c, err := match.New(mcfg, wp, bp)
	if err != nil {
		wp.Close()
		bp.Close()
		return finished{}, fmt.Errorf("game %d: %w", gm.index+1, err)
	}

	start := time.Now()
	out, err := c.Play(ctx)
	if err != nil {
		return finished{}, err
	}
	return finished{game: gm, outcome: out, elapsed: time.Since(start)}, nil
}

func record(cfg Config, res finished, report *Report) error {
	report.Outcomes = append(report.Outcomes, res.outcome)

	// Score is White's; flip it to the first entrant's side.
	score := float64(res.outcome.Score)
	if res.swapped {
		score = -score
	}
	if res.outcome.Result != match.Aborted {
		report.Points[0] += (1 + score) / 2
		report.Points[1] += (1 - score) / 2
	}

	if cfg.Store == nil {
		return nil
	}
	return cfg.Store.SaveGame(storage.NewGameRecord(res.outcome, time.Now()), res.elapsed)
}

// checkOpenings plays every opening from the start position so a typo
// fails the series before the first game.
func checkOpenings(cfg Config) error {
	fen := cfg.Match.StartFEN
	if fen == "" {
		fen = board.StartFEN
	}
	for i, line := range cfg.Openings {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return err
		}
		for _, s := range line {
			m, err := board.ParseMove(pos, s)
			if err != nil {
				return fmt.Errorf("opening %d: %w", i+1, err)
			}
			pos.MakeMove(m)
		}
	}
	return nil
}
