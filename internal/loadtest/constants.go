package loadtest

import "time"

// Defaults applied by Run when the config leaves a field unset.
const (
	DefaultInvalidRatio = 0.1
	DefaultUnseenRatio  = 0.1
	DefaultPassMark     = 40
	DefaultFloorMargin  = 1
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	progressInterval     = time.Second
	// responses carry two decimals
	roundingTolerance = 0.011
)
