package player

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/protocol"
)

var errKilled = errors.New("engine killed")

// InProcessLauncher runs the protocol server in a goroutine instead of a
// separate process, connected through pipes exactly like a real engine.
type InProcessLauncher struct {
	Chooser protocol.Chooser
	Logger  zerolog.Logger
}

func (l InProcessLauncher) Launch(ctx context.Context, fen string) (*Conn, error) {
	srv, err := protocol.NewServer(fen, protocol.ServerConfig{Chooser: l.Chooser, Logger: l.Logger})
	if err != nil {
		return nil, err
	}
	return pipeConn(func(r io.Reader, w io.Writer) error {
		return srv.Serve(ctx, r, w)
	}), nil
}

// pipeConn runs serve on the far end of a pair of pipes.
func pipeConn(serve func(r io.Reader, w io.Writer) error) *Conn {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	done := make(chan error, 1)
	go func() {
		err := serve(inR, outW)
		inR.CloseWithError(errKilled)
		outW.CloseWithError(err)
		done <- err
	}()

	return &Conn{
		In:  inW,
		Out: outR,
		Wait: func() error {
			err := <-done
			done <- err
			return err
		},
		Kill: func() error {
			inR.CloseWithError(errKilled)
			return outW.CloseWithError(errKilled)
		},
	}
}
