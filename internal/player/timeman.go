package player

import "time"

// Time allocation constants.
const (
	FixedMoveTime = 200 * time.Millisecond

	maxMovesToGo  = 32.0
	maxWeight     = 7880.0 // material at the start of a game
	weightPerMove = 400.0
	movesScale    = 1.2
	maxShare      = 0.62 // never spend more than this share of the clock
)

// SearchTime allots thinking time for one move. Fewer moves are expected
// to remain as material comes off the board, so each move gets a larger
// slice of the clock.
func SearchTime(timeLeft, inc time.Duration, weight int) time.Duration {
	if timeLeft <= 0 {
		return 0
	}
	movesToGo := maxMovesToGo - (maxWeight-float64(weight))/weightPerMove*movesScale
	if movesToGo < 1 {
		movesToGo = 1
	}

	budget := time.Duration(float64(timeLeft+inc)/movesToGo) + inc/2
	if limit := time.Duration(float64(timeLeft) * maxShare); budget > limit {
		budget = limit
	}
	return budget
}

// TimeManager tracks one outstanding request: how long the engine was told
// to think and how long we wait before declaring a protocol timeout.
type TimeManager struct {
	optimumTime time.Duration
	maximumTime time.Duration
	startTime   time.Time
}

func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init starts timing a request for the position in req. The wait is margin
// times the allotted time plus grace.
func (tm *TimeManager) Init(req Request, fixed bool, margin float64, grace time.Duration) {
	tm.startTime = time.Now()
	if fixed {
		tm.optimumTime = FixedMoveTime
	} else {
		tm.optimumTime = SearchTime(req.TimeLeft, req.Increment, req.Position.PositionWeight())
	}
	tm.maximumTime = time.Duration(float64(tm.optimumTime)*margin) + grace
}

// OptimumTime returns the time the engine is asked to think.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns how long to wait for the answer.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}
