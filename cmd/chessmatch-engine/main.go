// Command chessmatch-engine is a reference engine for chessmatch. It plays
// the material-greedy move and is meant for exercising the match protocol,
// not for playing strength.
//
// Usage:
//
//	chessmatch-engine [-v] play position <fen>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/protocol"
)

var verbose = flag.Bool("v", false, "log every request to stderr")

func main() {
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Str("engine", "greedy").Logger()

	fen, err := positionArg(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: chessmatch-engine [-v] play position <fen>")
		os.Exit(2)
	}

	srv, err := protocol.NewServer(fen, protocol.ServerConfig{Logger: log})
	if err != nil {
		log.Fatal().Err(err).Str("fen", fen).Msg("bad start position")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("serve")
		os.Exit(1)
	}
}

// positionArg accepts the FEN as one argument or split over several.
func positionArg(args []string) (string, error) {
	if len(args) < 2 || args[0] != "play" {
		return "", fmt.Errorf("expected: play position <fen>")
	}
	switch args[1] {
	case "startpos":
		return board.StartFEN, nil
	case "position":
		if len(args) < 3 {
			return "", fmt.Errorf("missing fen")
		}
		return strings.Join(args[2:], " "), nil
	}
	return "", fmt.Errorf("unknown mode %q", args[1])
}
