package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Conn is a running engine's pipes.
type Conn struct {
	In  io.WriteCloser // engine stdin
	Out io.Reader      // engine stdout
	// Wait blocks until the engine exits.
	Wait func() error
	// Kill stops the engine and releases its pipes.
	Kill func() error
	PID  int
}

// Launcher starts an engine for a game from fen.
type Launcher interface {
	Launch(ctx context.Context, fen string) (*Conn, error)
}

// ExecLauncher runs an engine binary as
//
//	<Path> <Args...> play position <fen>
type ExecLauncher struct {
	Path string
	Args []string
	Dir  string
}

func (l ExecLauncher) Launch(ctx context.Context, fen string) (*Conn, error) {
	args := append(append([]string(nil), l.Args...), "play", "position", fen)
	cmd := exec.CommandContext(ctx, l.Path, args...)
	cmd.Dir = l.Dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", l.Path, err)
	}

	return &Conn{
		In:   stdin,
		Out:  stdout,
		Wait: cmd.Wait,
		Kill: func() error {
			err := cmd.Process.Kill()
			if errors.Is(err, os.ErrProcessDone) {
				return nil
			}
			return err
		},
		PID: cmd.Process.Pid,
	}, nil
}
