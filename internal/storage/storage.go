package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/match"
)

// Key prefixes
const (
	prefixGame  = "game/"
	prefixStats = "stats/"
	prefixBook  = "book/"
)

// ErrNotFound is returned for lookups of records that were never saved.
var ErrNotFound = errors.New("storage: not found")

// PlyRecord is one stored move.
type PlyRecord struct {
	Move     string        `json:"move"`
	Eval     float64       `json:"eval"`
	TimeLeft time.Duration `json:"time_left"`
}

// GameRecord is a finished game as kept on disk.
type GameRecord struct {
	ID               string      `json:"id"`
	White            string      `json:"white"`
	Black            string      `json:"black"`
	StartFEN         string      `json:"start_fen"`
	FinalFEN         string      `json:"final_fen"`
	Result           int         `json:"result"`
	Reason           string      `json:"reason"`
	Score            int         `json:"score"`
	Prediction       string      `json:"prediction,omitempty"`
	PredictionFailed bool        `json:"prediction_failed,omitempty"`
	Remarks          []string    `json:"remarks,omitempty"`
	Plies            []PlyRecord `json:"plies"`
	Error            string      `json:"error,omitempty"`
	Finished         time.Time   `json:"finished"`
}

// NewGameRecord converts a match outcome into its stored form.
func NewGameRecord(out *match.Outcome, finished time.Time) GameRecord {
	rec := GameRecord{
		ID:               out.GameID,
		White:            out.White,
		Black:            out.Black,
		StartFEN:         out.StartFEN,
		FinalFEN:         out.FinalFEN,
		Result:           int(out.Result),
		Reason:           out.Result.String(),
		Score:            out.Score,
		PredictionFailed: out.PredictionFailed,
		Remarks:          out.Remarks,
		Plies:            make([]PlyRecord, len(out.Plies)),
		Finished:         finished,
	}
	if out.Prediction != match.NoPrediction {
		rec.Prediction = out.Prediction.String()
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	for i, p := range out.Plies {
		rec.Plies[i] = PlyRecord{Move: p.Move.String(), Eval: p.Eval, TimeLeft: p.TimeLeft}
	}
	return rec
}

// PlayerStats tallies finished games for one player name.
type PlayerStats struct {
	Name          string        `json:"name"`
	GamesPlayed   int           `json:"games_played"`
	Wins          int           `json:"wins"`
	Losses        int           `json:"losses"`
	Draws         int           `json:"draws"`
	Aborted       int           `json:"aborted"`
	TimeLosses    int           `json:"time_losses"`
	TotalPlayTime time.Duration `json:"total_play_time"`
}

// WinRate returns the share of decided and drawn games won, as a
// percentage. Draws count half.
func (s *PlayerStats) WinRate() float64 {
	n := s.Wins + s.Losses + s.Draws
	if n == 0 {
		return 0
	}
	return (float64(s.Wins) + float64(s.Draws)/2) / float64(n) * 100
}

func (s *PlayerStats) record(rec *GameRecord, white bool, played time.Duration) {
	s.GamesPlayed++
	s.TotalPlayTime += played

	res := match.Result(rec.Result)
	if res == match.Aborted {
		s.Aborted++
		return
	}
	score := rec.Score
	if !white {
		score = -score
	}
	switch {
	case score > 0:
		s.Wins++
	case score < 0:
		s.Losses++
		if res == match.WhiteWinsOnTime || res == match.BlackWinsOnTime {
			s.TimeLosses++
		}
	case res != match.Ongoing:
		s.Draws++
	}
}

// Options configures a Store.
type Options struct {
	// Dir holds the database files. Empty means DatabaseDir().
	Dir string
	// InMemory keeps everything in memory; Dir is ignored.
	InMemory bool
	Logger   zerolog.Logger
}

// Store keeps finished games, per-player statistics and the opening book
// in a badger database.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens or creates a store.
func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := opts.Dir
		if dir == "" {
			var err error
			if dir, err = DatabaseDir(); err != nil {
				return nil, err
			}
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts = bopts.WithLogger(badgerLogger{opts.Logger.With().Str("component", "badger").Logger()})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Store{db: db, log: opts.Logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame stores a finished game and updates both players' statistics in
// the same transaction. played is the wall time the game took.
func (s *Store) SaveGame(rec GameRecord, played time.Duration) error {
	if rec.ID == "" {
		return errors.New("storage: game record without id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixGame+rec.ID), data); err != nil {
			return err
		}
		for _, side := range []struct {
			name  string
			white bool
		}{{rec.White, true}, {rec.Black, false}} {
			stats, err := loadStats(txn, side.name)
			if err != nil {
				return err
			}
			stats.record(&rec, side.white, played)
			if err := setJSON(txn, prefixStats+side.name, stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug().Str("game", rec.ID).Str("reason", rec.Reason).Msg("game saved")
	return nil
}

// LoadGame returns the game stored under id.
func (s *Store) LoadGame(id string) (*GameRecord, error) {
	var rec GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixGame+id, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListGames returns every stored game, oldest first.
func (s *Store) ListGames() ([]GameRecord, error) {
	var games []GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(txn, prefixGame, func(_ []byte, val []byte) error {
			var rec GameRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			games = append(games, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Finished.Before(games[j].Finished)
	})
	return games, nil
}

// Stats returns the statistics of a player, empty if it never played.
func (s *Store) Stats(name string) (*PlayerStats, error) {
	var stats *PlayerStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn, name)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn, name string) (*PlayerStats, error) {
	stats := &PlayerStats{Name: name}
	err := getJSON(txn, prefixStats+name, stats)
	if errors.Is(err, ErrNotFound) {
		return stats, nil
	}
	return stats, err
}

type bookEntry struct {
	Move   uint32 `json:"move"`
	Weight uint16 `json:"weight"`
}

func bookKey(key uint64) string {
	return prefixBook + strconv.FormatUint(key, 16)
}

// SaveBook writes every position of b, merging with what is stored. Hashes
// are kept as b's key table computed them, so load them into a book with
// the same table.
func (s *Store) SaveBook(b *book.Book) error {
	merged := book.NewWithKeys(0, b.Keys())
	if err := s.LoadBook(merged); err != nil {
		return err
	}
	b.Entries(func(key uint64, entries []book.BookEntry) {
		merged.Add(key, entries...)
	})

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	var err error
	merged.Entries(func(key uint64, entries []book.BookEntry) {
		if err != nil {
			return
		}
		list := make([]bookEntry, len(entries))
		for i, e := range entries {
			list[i] = bookEntry{Move: uint32(e.Move), Weight: e.Weight}
		}
		var data []byte
		if data, err = json.Marshal(list); err != nil {
			return
		}
		err = wb.Set([]byte(bookKey(key)), data)
	})
	if err != nil {
		return err
	}
	if err := wb.Flush(); err != nil {
		return err
	}

	s.log.Debug().Int("positions", merged.Size()).Msg("book saved")
	return nil
}

// LoadBook adds every stored book position to b.
func (s *Store) LoadBook(b *book.Book) error {
	return s.db.View(func(txn *badger.Txn) error {
		return scan(txn, prefixBook, func(k []byte, val []byte) error {
			key, err := strconv.ParseUint(string(k[len(prefixBook):]), 16, 64)
			if err != nil {
				return fmt.Errorf("book key %q: %w", k, err)
			}
			entries, err := decodeBookEntries(val)
			if err != nil {
				return err
			}
			b.Add(key, entries...)
			return nil
		})
	})
}

// BookEntries returns the stored candidates for the position with the
// given hash.
func (s *Store) BookEntries(key uint64) ([]book.BookEntry, error) {
	var entries []book.BookEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(bookKey(key)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entries, err = decodeBookEntries(val)
			return err
		})
	})
	return entries, err
}

func decodeBookEntries(val []byte) ([]book.BookEntry, error) {
	var list []bookEntry
	if err := json.Unmarshal(val, &list); err != nil {
		return nil, err
	}
	entries := make([]book.BookEntry, len(list))
	for i, e := range list {
		entries[i] = book.BookEntry{Move: board.Move(e.Move), Weight: e.Weight}
	}
	return entries, nil
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// scan calls fn for each key under prefix. The slices are only valid
// during the call.
func scan(txn *badger.Txn, prefix string, fn func(key, val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()
		key := item.Key()
		if err := item.Value(func(val []byte) error {
			return fn(key, val)
		}); err != nil {
			return err
		}
	}
	return nil
}

// badgerLogger routes badger's messages through zerolog. Info is demoted
// to Debug, badger is chatty at startup.
type badgerLogger struct {
	zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.Trace().Msgf(format, args...)
}
