// Package risk turns upstream risk scores into the labels and colors shown
// by every console view. All thresholds live here.
package risk

import (
	"math"
	"strconv"
)

type Level string

const (
	LevelNone   Level = "None"
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// SuspiciousThreshold splits activity into suspicious (strictly above) and
// normal. The same value blocks a file download.
const SuspiciousThreshold = 0.7

type band struct {
	above float64
	level Level
}

// bands are checked in order; a score must be strictly greater than the
// bound, so 0.8 is Medium and 0.6 is Low.
var bands = []band{
	{above: 0.8, level: LevelHigh},
	{above: 0.6, level: LevelMedium},
	{above: 0.4, level: LevelLow},
}

// Bucket classifies a score in [0,1]. NaN is treated as no risk.
func Bucket(score float64) Level {
	if math.IsNaN(score) {
		return LevelNone
	}
	for _, b := range bands {
		if score > b.above {
			return b.level
		}
	}
	return LevelNone
}

// Color is the CSS modifier used for badges of this level.
func (l Level) Color() string {
	switch l {
	case LevelHigh:
		return "danger"
	case LevelMedium:
		return "warning"
	case LevelLow:
		return "info"
	default:
		return "success"
	}
}

func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// Suspicious reports whether score crosses SuspiciousThreshold.
func Suspicious(score float64) bool {
	return score > SuspiciousThreshold
}

// Percent renders a score as "85.0%".
func Percent(score float64) string {
	if math.IsNaN(score) {
		return "0.0%"
	}
	return strconv.FormatFloat(score*100, 'f', 1, 64) + "%"
}

// FlagLevel grades a flagged user by how many risk notes they carry.
func FlagLevel(notes int) Level {
	switch {
	case notes > 3:
		return LevelHigh
	case notes > 1:
		return LevelMedium
	default:
		return LevelLow
	}
}
