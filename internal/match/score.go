// Package match scores a live skeleton against a template outline.
package match

import (
	"math"

	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/outline"
)

// DefaultThreshold is the distance, in normalized coordinates, at which a
// point pair stops contributing to the score
const DefaultThreshold float32 = 0.1

// Score returns the mean per-point similarity of current against template,
// in [0,1]. Sequences of different length score 0. Pairs where either point
// has confidence at or below outline.MinConfidence, or any non-finite
// value, are skipped; if none
// remain the score is 0. A non-positive threshold uses DefaultThreshold.
//
// Score does not allocate and is safe to call once per detection frame.
func Score(current, template []domain.KeyPoint, threshold float32) float32 {
	if len(current) != len(template) {
		return 0
	}
	if !(threshold > 0) {
		threshold = DefaultThreshold
	}

	var total float32
	counted := 0

	for i := range current {
		c, t := current[i], template[i]
		if !finite(c) || !finite(t) {
			continue
		}
		if c.Confidence <= outline.MinConfidence || t.Confidence <= outline.MinConfidence {
			continue
		}

		dx := float64(c.X - t.X)
		dy := float64(c.Y - t.Y)
		d := float32(math.Sqrt(dx*dx + dy*dy))

		total += max(0, 1-d/threshold)
		counted++
	}

	if counted == 0 {
		return 0
	}
	return total / float32(counted)
}

func finite(p domain.KeyPoint) bool {
	for _, v := range [...]float32{p.X, p.Y, p.Confidence} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
