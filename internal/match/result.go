// Package match runs a single timed game between two players.
package match

import "github.com/hailam/chesscore/internal/board"

// Result is the terminal state of a game. The numbering is stable and is
// persisted with finished games.
type Result int

const (
	Ongoing Result = iota
	WhiteMates
	BlackMates
	Stalemate
	InsufficientMaterial
	Repetition
	FiftyMoves
	WhiteWinsOnTime
	BlackWinsOnTime
	WhiteWinsByForfeit
	BlackWinsByForfeit
	Aborted
	Adjourned
)

var resultText = [...]string{
	Ongoing:              "game in progress",
	WhiteMates:           "White wins by checkmate",
	BlackMates:           "Black wins by checkmate",
	Stalemate:            "Draw by stalemate",
	InsufficientMaterial: "Draw by insufficient material",
	Repetition:           "Draw by 3-fold repetition",
	FiftyMoves:           "Draw by 50-move rule",
	WhiteWinsOnTime:      "White wins on time",
	BlackWinsOnTime:      "Black wins on time",
	WhiteWinsByForfeit:   "White wins, Black played an illegal move",
	BlackWinsByForfeit:   "Black wins, White played an illegal move",
	Aborted:              "Game aborted",
	Adjourned:            "Game adjourned",
}

func (r Result) String() string {
	if r < 0 || int(r) >= len(resultText) {
		return "unknown result"
	}
	return resultText[r]
}

// checkmated returns the result for the given side being mated.
func checkmated(loser board.Color) Result {
	return WhiteMates + Result(loser.Other())
}

func lostOnTime(loser board.Color) Result {
	return WhiteWinsOnTime + Result(loser.Other())
}

func forfeited(loser board.Color) Result {
	return WhiteWinsByForfeit + Result(loser.Other())
}

// Score returns +1, 0 or -1 from White's point of view. Aborted and
// ongoing games score 0.
func (r Result) Score() int {
	switch r {
	case WhiteMates, WhiteWinsOnTime, WhiteWinsByForfeit:
		return 1
	case BlackMates, BlackWinsOnTime, BlackWinsByForfeit:
		return -1
	}
	return 0
}

// IsDraw reports whether r is one of the drawing results.
func (r Result) IsDraw() bool {
	switch r {
	case Stalemate, InsufficientMaterial, Repetition, FiftyMoves:
		return true
	}
	return false
}

// Prediction is an early guess at the outcome of a game.
type Prediction int

const (
	NoPrediction Prediction = iota
	PredictWhiteWins
	PredictBlackWins
	PredictDraw
)

func (p Prediction) String() string {
	switch p {
	case PredictWhiteWins:
		return "white wins"
	case PredictBlackWins:
		return "black wins"
	case PredictDraw:
		return "draw"
	}
	return "none"
}

// Score returns the predicted score from White's point of view.
func (p Prediction) Score() int {
	switch p {
	case PredictWhiteWins:
		return 1
	case PredictBlackWins:
		return -1
	}
	return 0
}
