// Command chessmatch plays games between engines and people.
//
// A player is an engine binary path, "builtin" for the in-process greedy
// engine, or "human" to enter moves such as e2e4 or e7e8n on stdin.
//
//	chessmatch -white ./engine-a -black builtin -time 1m -inc 1s -games 10
//	chessmatch -perft 5 -fen "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/arena"
	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/match"
	"github.com/hailam/chesscore/internal/player"
	"github.com/hailam/chesscore/internal/storage"
)

type lines [][]string

func (l *lines) String() string {
	parts := make([]string, len(*l))
	for i, line := range *l {
		parts[i] = strings.Join(line, " ")
	}
	return strings.Join(parts, "; ")
}

func (l *lines) Set(s string) error {
	*l = append(*l, strings.Fields(s))
	return nil
}

var (
	white      = flag.String("white", "builtin", "white player: engine path, builtin or human")
	black      = flag.String("black", "builtin", "black player: engine path, builtin or human")
	timeFlag   = flag.Duration("time", time.Minute, "time per side")
	inc        = flag.Duration("inc", 0, "increment per move")
	fixed      = flag.Bool("fixed", false, "ask engines for a fixed time per move")
	useBook    = flag.Bool("book", false, "let engines play from the stored opening book")
	adjourn    = flag.Bool("adjourn", false, "stop games once the result can be predicted")
	games      = flag.Int("games", 1, "number of games, colours alternate")
	fen        = flag.String("fen", board.StartFEN, "start position")
	dbDir      = flag.String("db", "", "database directory (default: user data dir)")
	noDB       = flag.Bool("nodb", false, "do not store games")
	perft      = flag.Int("perft", 0, "count leaf nodes to this depth from -fen and exit")
	verbose    = flag.Bool("v", false, "debug logging")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	openings   lines
)

func main() {
	flag.Var(&openings, "opening", "opening moves, space separated (repeatable)")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	if *perft > 0 {
		if err := runPerft(os.Stdout, *fen, *perft); err != nil {
			log.Error().Err(err).Msg("perft")
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error().Err(err).Msg("chessmatch")
		os.Exit(1)
	}
}

func run(ctx context.Context, log zerolog.Logger) error {
	var store *storage.Store
	if !*noDB {
		var err error
		store, err = storage.Open(storage.Options{Dir: *dbDir, Logger: log})
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var b *book.Book
	if *useBook {
		var err error
		if b, err = loadBook(store, *fen, openings); err != nil {
			return err
		}
		log.Info().Int("positions", b.Size()).Msg("book loaded")
	}

	humans := make(chan player.Selection)
	go readSelections(os.Stdin, humans, log)

	wname, bname := *white, *black
	if wname == bname {
		wname, bname = wname+"#1", bname+"#2"
	}
	entrant := func(name, spec string) arena.Entrant {
		return arena.Entrant{Name: name, New: func() (player.Player, error) {
			return newPlayer(name, spec, b, humans, log), nil
		}}
	}

	cfg := arena.Config{
		Games:    *games,
		Openings: openings,
		Match: match.Config{
			StartFEN:  *fen,
			Time:      *timeFlag,
			Increment: *inc,
			Adjourn:   *adjourn,
		},
		Store:  store,
		Logger: log,
	}

	a, bb := entrant(wname, *white), entrant(bname, *black)
	report, err := arena.Run(ctx, cfg, a, bb)
	if report != nil {
		for i, out := range report.Outcomes {
			printOutcome(os.Stdout, i+1, out)
		}
		if len(report.Outcomes) > 1 {
			fmt.Printf("%s %.1f - %.1f %s\n", a.Name, report.Points[0], report.Points[1], bb.Name)
		}
	}
	return err
}

func newPlayer(name, spec string, b *book.Book, humans <-chan player.Selection, log zerolog.Logger) player.Player {
	var launcher player.Launcher
	switch spec {
	case "human":
		return player.NewHumanInput(name, humans, log)
	case "builtin":
		launcher = player.InProcessLauncher{Logger: log}
	default:
		launcher = player.ExecLauncher{Path: spec}
	}
	return player.NewEngineProcess(player.EngineConfig{
		Name:          name,
		Launcher:      launcher,
		FixedMoveTime: *fixed,
		AllowBook:     b != nil,
		Book:          b,
		Logger:        log,
	})
}

// loadBook reads the stored book and adds the opening lines to it, saving
// them for later runs.
func loadBook(store *storage.Store, fen string, openings lines) (*book.Book, error) {
	b := book.New(time.Now().UnixNano())
	if store != nil {
		if err := store.LoadBook(b); err != nil {
			return nil, err
		}
	}
	if len(openings) == 0 {
		return b, nil
	}

	added := book.New(0)
	for _, line := range openings {
		if err := added.AddLine(fen, line...); err != nil {
			return nil, err
		}
	}
	added.Entries(func(key uint64, entries []book.BookEntry) {
		b.Add(key, entries...)
	})
	if store != nil {
		if err := store.SaveBook(added); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// readSelections turns lines like "e2e4" or "e7e8n" into selections.
func readSelections(r io.Reader, out chan<- player.Selection, log zerolog.Logger) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sel, err := parseSelection(strings.TrimSpace(scanner.Text()))
		if err != nil {
			log.Warn().Err(err).Msg("enter moves like e2e4 or e7e8q")
			continue
		}
		out <- sel
	}
}

func parseSelection(s string) (player.Selection, error) {
	var sel player.Selection
	if len(s) != 4 && len(s) != 5 {
		return sel, fmt.Errorf("bad move %q", s)
	}
	from, err := board.ParseSquare(s[0:2])
	if err != nil {
		return sel, err
	}
	to, err := board.ParseSquare(s[2:4])
	if err != nil {
		return sel, err
	}
	sel.From, sel.To = from, to
	if len(s) == 5 {
		i := strings.IndexByte("bnrq", s[4])
		if i < 0 {
			return sel, fmt.Errorf("bad promotion %q", s[4:])
		}
		sel.Promotion = []board.PieceType{board.Bishop, board.Knight, board.Rook, board.Queen}[i]
	}
	return sel, nil
}

func printOutcome(w io.Writer, n int, out *match.Outcome) {
	moves := make([]string, len(out.Moves))
	for i, m := range out.Moves {
		moves[i] = m.String()
	}
	fmt.Fprintf(w, "game %d: %s - %s: %s (%d)\n", n, out.White, out.Black, out.Result, int(out.Result))
	fmt.Fprintf(w, "  moves: %s\n", strings.Join(moves, " "))
	if out.Prediction != match.NoPrediction {
		fmt.Fprintf(w, "  predicted: %s\n", out.Prediction)
	}
	if len(out.Remarks) > 0 {
		fmt.Fprintf(w, "  remarks: %s\n", strings.Join(out.Remarks, ", "))
	}
	if out.Err != nil {
		fmt.Fprintf(w, "  error: %v\n", out.Err)
	}
}

func runPerft(w io.Writer, fen string, depth int) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	start := time.Now()
	divide := board.Divide(pos, depth)
	moves := make([]string, 0, len(divide))
	for move := range divide {
		moves = append(moves, move)
	}
	sort.Strings(moves)

	var total uint64
	for _, move := range moves {
		fmt.Fprintf(w, "%s: %d\n", move, divide[move])
		total += divide[move]
	}
	elapsed := time.Since(start)
	fmt.Fprintf(w, "\nnodes %d  time %v  nps %.0f\n", total, elapsed, float64(total)/elapsed.Seconds())
	return nil
}
