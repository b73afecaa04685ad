package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/protocol"
)

// EngineConfig configures an EngineProcess.
type EngineConfig struct {
	Name     string
	Launcher Launcher

	// FixedMoveTime asks for FixedMoveTime per move instead of a share of the clock.
	FixedMoveTime bool
	// AllowBook plays from Book while the position is covered. The engine
	// is launched at the first position the book cannot answer.
	AllowBook bool
	Book      *book.Book

	// A request times out after TimeoutMargin times its budget plus TimeoutGrace.
	TimeoutMargin float64
	TimeoutGrace  time.Duration

	Logger zerolog.Logger
}

func (c *EngineConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "engine"
	}
	if c.TimeoutMargin <= 0 {
		c.TimeoutMargin = 2
	}
	if c.TimeoutGrace <= 0 {
		c.TimeoutGrace = time.Second
	}
}

// EngineProcess is a Player backed by an external engine speaking the
// fixed-width protocol over its standard streams.
type EngineProcess struct {
	cfg EngineConfig
	log zerolog.Logger

	mu        sync.Mutex // guards the fields below
	ctx       context.Context
	cancel    context.CancelFunc
	conn      *Conn
	g         *errgroup.Group
	inBook    bool
	responses chan protocol.Response
	exited    chan struct{}
	exitErr   error
	exitOnce  sync.Once
	closeOnce sync.Once

	nextID atomic.Uint64
}

// NewEngineProcess returns an engine player. Nothing runs until Start.
func NewEngineProcess(cfg EngineConfig) *EngineProcess {
	cfg.setDefaults()
	return &EngineProcess{
		cfg: cfg,
		log: cfg.Logger.With().Str("player", cfg.Name).Logger(),
	}
}

func (e *EngineProcess) Name() string { return e.cfg.Name }

// Start binds the player to a game beginning at fen and launches the engine,
// unless the book is in use, in which case launching waits for the first
// position the book cannot answer.
func (e *EngineProcess) Start(ctx context.Context, fen string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx != nil {
		return fmt.Errorf("engine %s already started", e.cfg.Name)
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.exited = make(chan struct{})
	e.responses = make(chan protocol.Response, 16)
	e.inBook = e.cfg.AllowBook && e.cfg.Book.Size() > 0

	if e.inBook {
		return nil
	}
	return e.launchLocked(fen)
}

func (e *EngineProcess) launchLocked(fen string) error {
	conn, err := e.cfg.Launcher.Launch(e.ctx, fen)
	if err != nil {
		e.log.Error().Err(err).Str("fen", fen).Msg("engine launch failed")
		e.markExited(err)
		return &UnavailableError{Name: e.cfg.Name, Err: err}
	}
	e.conn = conn
	e.log.Info().Int("pid", conn.PID).Str("fen", fen).Msg("engine launched")

	g, gctx := errgroup.WithContext(e.ctx)
	readDone := make(chan struct{})

	g.Go(func() error {
		defer close(readDone)
		return e.readLoop(gctx, conn.Out)
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			if err := conn.Kill(); err != nil {
				e.log.Warn().Err(err).Msg("kill engine")
			}
			<-readDone
		case <-readDone:
		}
		err := conn.Wait()
		e.markExited(err)
		e.log.Info().Err(err).Msg("engine exited")
		return nil
	})

	e.g = g
	return nil
}

// readLoop forwards well-formed responses until the engine's stdout closes.
func (e *EngineProcess) readLoop(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		resp, err := protocol.ParseResponse(scanner.Text())
		if err != nil {
			e.log.Warn().Err(err).Msg("ignoring engine output")
			continue
		}
		select {
		case e.responses <- resp:
		case <-ctx.Done():
			return nil
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	e.markExited(err)
	return nil
}

func (e *EngineProcess) markExited(err error) {
	e.exitOnce.Do(func() {
		e.exitErr = err
		close(e.exited)
	})
}

// Play asks the engine for a move. Book moves are answered immediately
// with a zero evaluation.
func (e *EngineProcess) Play(ctx context.Context, req Request) <-chan Reply {
	ch := make(chan Reply, 1)
	go func() {
		reply(ch, e.play(ctx, req))
	}()
	return ch
}

func (e *EngineProcess) play(ctx context.Context, req Request) Reply {
	conn, fresh, err := e.connFor(req)
	if err != nil {
		return Reply{Err: err}
	}
	if conn == nil {
		m, _ := e.cfg.Book.Probe(req.Position)
		e.log.Debug().Stringer("move", m).Msg("book move")
		return Reply{Move: m}
	}

	tm := NewTimeManager()
	tm.Init(req, e.cfg.FixedMoveTime, e.cfg.TimeoutMargin, e.cfg.TimeoutGrace)

	last := req.LastMove
	if fresh {
		last = board.NoMove
	}

	id := e.nextID.Add(1)
	line, err := protocol.Request{ID: id, Time: tm.OptimumTime(), LastMove: uint32(last)}.MarshalText()
	if err != nil {
		return Reply{Err: err}
	}
	if _, err := conn.In.Write(line); err != nil {
		e.markExited(err)
		return Reply{Err: &UnavailableError{Name: e.cfg.Name, Err: err}}
	}
	e.log.Debug().Uint64("id", id).Dur("budget", tm.OptimumTime()).Stringer("last", last).Msg("request sent")

	timer := time.NewTimer(tm.MaximumTime())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Reply{Err: ErrCancelled}
		case <-e.exited:
			return Reply{Err: &UnavailableError{Name: e.cfg.Name, Err: e.exitErr}}
		case <-timer.C:
			return Reply{Err: fmt.Errorf("%w: query %d after %v", ErrProtocolTimeout, id, tm.Elapsed())}
		case resp := <-e.responses:
			if resp.ID != id {
				e.log.Warn().Uint64("id", resp.ID).Uint64("want", id).Msg("discarding stale response")
				continue
			}
			m := board.Move(resp.Move)
			e.log.Debug().Uint64("id", id).Stringer("move", m).Float64("eval", resp.Eval).
				Dur("elapsed", tm.Elapsed()).Msg("response accepted")
			return Reply{Move: m, Eval: resp.Eval}
		}
	}
}

// connFor returns the engine connection for req, or nil when the book
// answers. The engine is launched at the first position out of book, so it
// starts with every book move already on its board; fresh reports that
// launch.
func (e *EngineProcess) connFor(req Request) (conn *Conn, fresh bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx == nil {
		return nil, false, fmt.Errorf("engine %s not started", e.cfg.Name)
	}
	select {
	case <-e.exited:
		return nil, false, &UnavailableError{Name: e.cfg.Name, Err: e.exitErr}
	default:
	}

	if e.inBook {
		if e.cfg.Book.Contains(req.Position) {
			return nil, false, nil
		}
		e.inBook = false
		if err := e.launchLocked(req.Position.ToFEN()); err != nil {
			return nil, false, err
		}
		fresh = true
	}
	return e.conn, fresh, nil
}

// Close stops the engine and waits for its goroutines.
func (e *EngineProcess) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		conn, g, cancel := e.conn, e.g, e.cancel
		e.mu.Unlock()

		if conn != nil {
			conn.In.Close()
		}
		if cancel != nil {
			cancel()
		}
		if g != nil {
			err = g.Wait()
		}
	})
	return err
}
