package match

import "github.com/hailam/chesscore/internal/board"

// Adjudication thresholds, in pawns.
const (
	DefaultWinMargin = 5.0
	DefaultDrawBand  = 0.25
	DefaultDrawPlies = 60

	swingMargin  = 3.0
	swingLimit   = 5
	hugeMaterial = 4000
)

// predict guesses the outcome from the engines' recent evaluations: both
// players agreeing that one side is ahead by more than margin, or a long
// stretch of level evaluations.
func predict(h *History, margin, band float64, plies int) Prediction {
	x, y := h.LastEvalPair()
	if min(x, y) > margin {
		return PredictWhiteWins
	}
	if max(x, y) < -margin {
		return PredictBlackWins
	}
	if h.DrawnForPlies(band, plies) {
		return PredictDraw
	}
	return NoPrediction
}

// Remarks flag finished games that deserve a second look.
const (
	RemarkPredictionFailed = "win-loss prediction-failed"
	RemarkEvalDiff         = "eval-diff"
	RemarkHugeMaterial     = "huge material"
	RemarkRepetition       = "draw by 3-move repetition"
	RemarkLostOnTime       = "lost on time"
)

func remarks(res Result, pred Prediction, h *History, final *board.Position) []string {
	var out []string
	if predictionFailed(res, pred) {
		out = append(out, RemarkPredictionFailed)
	}
	if h.EvalSwings(swingMargin) > swingLimit {
		out = append(out, RemarkEvalDiff)
	}
	if final.PositionWeight() > hugeMaterial {
		out = append(out, RemarkHugeMaterial)
	}
	switch res {
	case Repetition:
		out = append(out, RemarkRepetition)
	case WhiteWinsOnTime, BlackWinsOnTime:
		out = append(out, RemarkLostOnTime)
	}
	return out
}

// predictionFailed compares a prediction with a game that was played out.
// Adjourned and aborted games have nothing to compare against.
func predictionFailed(res Result, pred Prediction) bool {
	if pred == NoPrediction || res == Adjourned || res == Aborted || res == Ongoing {
		return false
	}
	return pred.Score() != res.Score()
}
