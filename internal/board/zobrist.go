package board

import "sync"

// DefaultSeed seeds the shared key table.
const DefaultSeed uint64 = 0x98F107A2BEEF1234

// Keys is an immutable Zobrist key table. Positions keep a reference to the
// table they were hashed with; two positions are only comparable by hash when
// they share a table.
type Keys struct {
	piece      [16][64]uint64 // [Piece][Square]
	enPassant  [8]uint64      // one per file
	castling   [16]uint64     // all 16 castling combinations
	sideToMove uint64         // XOR when black to move
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// NewKeys builds a key table from seed. The same seed always yields the same table.
func NewKeys(seed uint64) *Keys {
	rng := &prng{state: seed}
	k := &Keys{}

	for _, c := range [2]Color{White, Black} {
		for pt := Pawn; pt <= King; pt++ {
			pc := NewPiece(pt, c)
			for sq := A1; sq <= H8; sq++ {
				k.piece[pc][sq] = rng.next()
			}
		}
	}
	for file := range k.enPassant {
		k.enPassant[file] = rng.next()
	}
	for i := range k.castling {
		k.castling[i] = rng.next()
	}
	k.sideToMove = rng.next()

	return k
}

var (
	defaultKeys     *Keys
	defaultKeysOnce sync.Once
)

// DefaultKeys returns the process-wide table built from DefaultSeed on first use.
func DefaultKeys() *Keys {
	defaultKeysOnce.Do(func() {
		defaultKeys = NewKeys(DefaultSeed)
	})
	return defaultKeys
}

// Piece returns the key for pc standing on sq.
func (k *Keys) Piece(pc Piece, sq Square) uint64 {
	return k.piece[pc][sq]
}

// EnPassant returns the key for an en passant target on the given file.
func (k *Keys) EnPassant(file int) uint64 {
	return k.enPassant[file]
}

// Castling returns the key for a castling-rights state.
func (k *Keys) Castling(cr CastlingRights) uint64 {
	return k.castling[cr&AllCastling]
}

// SideToMove returns the key XORed in when black is to move.
func (k *Keys) SideToMove() uint64 {
	return k.sideToMove
}

// csepKey hashes the castling and en passant parts of a csep word.
func (k *Keys) csepKey(csep uint16) uint64 {
	h := k.castling[castlingOf(csep)]
	if ep := epOf(csep); ep != NoSquare {
		h ^= k.enPassant[ep.File()]
	}
	return h
}
