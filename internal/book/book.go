// Package book provides an opening book keyed by position hash.
package book

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/hailam/chesscore/internal/board"
)

// BookEntry is one candidate move for a position.
type BookEntry struct {
	Move   board.Move
	Weight uint16
}

// Book maps position hashes to candidate moves. It is safe for concurrent use.
// Hashes are taken with the book's own key table; positions hashed with
// another table are rehashed on lookup.
type Book struct {
	keys *board.Keys

	mu      sync.RWMutex
	entries map[uint64][]BookEntry

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates an empty book keyed with board.DefaultKeys, drawing from a
// generator seeded with seed.
func New(seed int64) *Book {
	return NewWithKeys(seed, board.DefaultKeys())
}

// NewWithKeys creates an empty book keyed with keys.
func NewWithKeys(seed int64, keys *board.Keys) *Book {
	return &Book{
		keys:    keys,
		entries: make(map[uint64][]BookEntry),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Keys returns the table the book's hashes are taken with.
func (b *Book) Keys() *board.Keys { return b.keys }

// key returns the hash of pos under the book's table.
func (b *Book) key(pos *board.Position) uint64 {
	if pos.Keys() == b.keys {
		return pos.Hash()
	}
	same, err := board.ParseFENWithKeys(pos.ToFEN(), b.keys)
	if err != nil {
		return pos.Hash()
	}
	return same.Hash()
}

// Add records candidate moves for the position with the given hash.
// A move already present has its weight raised instead of being duplicated.
func (b *Book) Add(key uint64, entries ...BookEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range entries {
		if e.Move == board.NoMove {
			continue
		}
		list := b.entries[key]
		found := false
		for i := range list {
			if list[i].Move == e.Move {
				list[i].Weight += e.Weight
				found = true
				break
			}
		}
		if !found {
			b.entries[key] = append(list, e)
		}
	}
}

// AddLine walks moves from fen and records each one as a book move for the
// position it is played from.
func (b *Book) AddLine(fen string, moves ...string) error {
	pos, err := board.ParseFENWithKeys(fen, b.keys)
	if err != nil {
		return err
	}
	for _, s := range moves {
		m, err := board.ParseMove(pos, s)
		if err != nil {
			return fmt.Errorf("book line %v: %w", moves, err)
		}
		b.Add(pos.Hash(), BookEntry{Move: m, Weight: 1})
		pos.MakeMove(m)
	}
	return nil
}

// Contains reports whether pos is in the book and every stored move is
// legal there. A hash collision or stale entry fails the check.
func (b *Book) Contains(pos *board.Position) bool {
	if b == nil {
		return false
	}
	key := b.key(pos)
	b.mu.RLock()
	entries := b.entries[key]
	b.mu.RUnlock()
	if len(entries) == 0 {
		return false
	}

	legal := pos.GenerateMoves()
	for _, e := range entries {
		if !legal.Contains(e.Move) {
			return false
		}
	}
	return true
}

// Probe picks a book move for pos by weighted random selection.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	if !b.Contains(pos) {
		return board.NoMove, false
	}

	entries := b.ProbeAll(pos)

	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}

	if totalWeight == 0 {
		return entries[b.intn(len(entries))].Move, true
	}

	r := uint32(b.intn(int(totalWeight)))
	cumulative := uint32(0)
	for _, e := range entries {
		cumulative += uint32(e.Weight)
		if r < cumulative {
			return e.Move, true
		}
	}

	return entries[0].Move, true
}

// ProbeAll returns all book moves for the position, sorted by weight.
func (b *Book) ProbeAll(pos *board.Position) []BookEntry {
	if b == nil {
		return nil
	}

	key := b.key(pos)
	b.mu.RLock()
	entries, ok := b.entries[key]
	if !ok {
		b.mu.RUnlock()
		return nil
	}
	result := make([]BookEntry, len(entries))
	copy(result, entries)
	b.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})

	return result
}

// maxOpeningPlies bounds RandomOpening when the caller sets no limit, since
// a book may contain transposition cycles.
const maxOpeningPlies = 40

// RandomOpening follows book moves from fen until the book runs out or
// maxPlies moves have been played. maxPlies <= 0 means maxOpeningPlies.
func (b *Book) RandomOpening(fen string, maxPlies int) ([]board.Move, error) {
	pos, err := board.ParseFENWithKeys(fen, b.keys)
	if err != nil {
		return nil, err
	}

	if maxPlies <= 0 {
		maxPlies = maxOpeningPlies
	}

	var line []board.Move
	for len(line) < maxPlies {
		m, ok := b.Probe(pos)
		if !ok {
			break
		}
		line = append(line, m)
		pos.MakeMove(m)
	}
	return line, nil
}

// Entries calls fn for every position in the book.
func (b *Book) Entries(fn func(key uint64, entries []BookEntry)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for key, entries := range b.entries {
		fn(key, append([]BookEntry(nil), entries...))
	}
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *Book) intn(n int) int {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Intn(n)
}
