package calculator

import "math"

// Cross describes how a fast line moved relative to a slow line between two bars.
type Cross int

const (
	CrossNone Cross = iota
	CrossUp
	CrossDown
	// CrossUndefined means at least one of the four readings does not exist.
	CrossUndefined
)

// Crossover detects an upward cross (prevFast<=prevSlow, fast>slow) or a
// downward cross (prevFast>=prevSlow, fast<slow).
func Crossover(prevFast, prevSlow, fast, slow float64) Cross {
	if math.IsNaN(prevFast) || math.IsNaN(prevSlow) || math.IsNaN(fast) || math.IsNaN(slow) {
		return CrossUndefined
	}
	switch {
	case prevFast <= prevSlow && fast > slow:
		return CrossUp
	case prevFast >= prevSlow && fast < slow:
		return CrossDown
	}
	return CrossNone
}

// LastCross applies Crossover to the final two entries of fast and slow.
func LastCross(fast, slow []float64) Cross {
	n := len(fast)
	if n < 2 || len(slow) != n {
		return CrossUndefined
	}
	return Crossover(fast[n-2], slow[n-2], fast[n-1], slow[n-1])
}
