// Package protocol implements the fixed-width line protocol spoken between
// a match and an engine process.
//
// The match writes requests of exactly RequestWidth bytes:
//
//	<id> time <seconds> [moves <move>] go
//
// and the engine answers with responses of exactly ResponseWidth bytes:
//
//	<move> <eval> <id>
//
// Both records are space padded and newline terminated. Moves travel as
// the decimal value of their packed encoding.
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	RequestWidth  = 50
	ResponseWidth = 30
)

// ErrMalformed is wrapped by every decoding failure.
var ErrMalformed = errors.New("protocol: malformed record")

// Request asks the engine to think for Time and reply to query ID.
// LastMove is the opponent's move to apply first, 0 when there is none.
type Request struct {
	ID       uint64
	Time     time.Duration
	LastMove uint32
}

// Response carries the engine's move for query ID.
type Response struct {
	Move uint32
	Eval float64
	ID   uint64
}

func pad(s string, width int) ([]byte, error) {
	if len(s) > width {
		return nil, fmt.Errorf("%w: %q exceeds %d bytes", ErrMalformed, s, width)
	}
	buf := make([]byte, width+1)
	copy(buf, s)
	for i := len(s); i < width; i++ {
		buf[i] = ' '
	}
	buf[width] = '\n'
	return buf, nil
}

// MarshalText renders the padded request line, newline included.
func (r Request) MarshalText() ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d time %.3f ", r.ID, r.Time.Seconds())
	if r.LastMove != 0 {
		fmt.Fprintf(&sb, "moves %d ", r.LastMove)
	}
	sb.WriteString("go")
	return pad(sb.String(), RequestWidth)
}

// ParseRequest decodes one request line with or without its newline.
func ParseRequest(line string) (Request, error) {
	var r Request
	fields, err := record(line, RequestWidth)
	if err != nil {
		return r, err
	}
	if len(fields) != 4 && len(fields) != 6 {
		return r, fmt.Errorf("%w: request %q", ErrMalformed, line)
	}
	if fields[1] != "time" || fields[len(fields)-1] != "go" {
		return r, fmt.Errorf("%w: request %q", ErrMalformed, line)
	}

	if r.ID, err = strconv.ParseUint(fields[0], 10, 64); err != nil {
		return r, fmt.Errorf("%w: query id: %v", ErrMalformed, err)
	}
	secs, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || secs < 0 {
		return r, fmt.Errorf("%w: time %q", ErrMalformed, fields[2])
	}
	r.Time = time.Duration(math.Round(secs * float64(time.Second)))

	if len(fields) == 6 {
		if fields[3] != "moves" {
			return r, fmt.Errorf("%w: request %q", ErrMalformed, line)
		}
		m, err := strconv.ParseUint(fields[4], 10, 32)
		if err != nil {
			return r, fmt.Errorf("%w: move %q", ErrMalformed, fields[4])
		}
		r.LastMove = uint32(m)
	}
	return r, nil
}

// MarshalText renders the padded response line, newline included.
func (r Response) MarshalText() ([]byte, error) {
	return pad(fmt.Sprintf("%d %.2f %d", r.Move, r.Eval, r.ID), ResponseWidth)
}

// ParseResponse decodes one response line with or without its newline.
func ParseResponse(line string) (Response, error) {
	var r Response
	fields, err := record(line, ResponseWidth)
	if err != nil {
		return r, err
	}
	if len(fields) != 3 {
		return r, fmt.Errorf("%w: response %q", ErrMalformed, line)
	}

	m, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return r, fmt.Errorf("%w: move %q", ErrMalformed, fields[0])
	}
	r.Move = uint32(m)
	if r.Eval, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return r, fmt.Errorf("%w: eval %q", ErrMalformed, fields[1])
	}
	if r.ID, err = strconv.ParseUint(fields[2], 10, 64); err != nil {
		return r, fmt.Errorf("%w: query id %q", ErrMalformed, fields[2])
	}
	return r, nil
}

// record checks the fixed width and splits the line into fields.
func record(line string, width int) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) != width {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformed, len(line), width)
	}
	return strings.Fields(line), nil
}
