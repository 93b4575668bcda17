package clanker

import "math"

const (
	targetPrice = 0.0000000001
	tickBase    = 1.0001
	tickSpacing = 200
)

// ComputeTick converts the fixed target price to a pool tick and rounds it
// down to a multiple of the tick spacing. The result is always -230400.
func ComputeTick() int64 {
	raw := int64(math.Log(targetPrice) / math.Log(tickBase))
	return floorDiv(raw, tickSpacing) * tickSpacing
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
