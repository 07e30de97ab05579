// Package outline converts between decoded skeletal outlines and the opaque
// payload embedded in a template record.
package outline

import (
	"encoding/json"
	"fmt"

	"github.com/mmcdole/posekit/internal/domain"
)

// Encode serializes an outline. Output is deterministic for equal inputs.
// It fails only on values JSON cannot carry (NaN, ±Inf).
func Encode(o domain.OutlineData) ([]byte, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode outline: %w: %w", domain.ErrEncoding, err)
	}
	return data, nil
}

// Decode parses an outline payload. ok is false when the payload is empty,
// malformed, or does not carry exactly KeyPointCount points.
func Decode(data []byte) (domain.OutlineData, bool) {
	if len(data) == 0 {
		return domain.OutlineData{}, false
	}

	var o domain.OutlineData
	if err := json.Unmarshal(data, &o); err != nil {
		return domain.OutlineData{}, false
	}
	if !Valid(o) {
		return domain.OutlineData{}, false
	}
	return o, true
}

// FromTemplate decodes the outline embedded in t
func FromTemplate(t domain.PoseTemplate) (domain.OutlineData, bool) {
	return Decode(t.OutlineData)
}

// Valid reports whether o has the full canonical landmark set
func Valid(o domain.OutlineData) bool {
	return len(o.KeyPoints) == KeyPointCount
}

// BoundsOf returns the tightest box around points whose confidence exceeds
// MinConfidence. The zero box is returned when no point qualifies.
func BoundsOf(points []domain.KeyPoint) domain.BoundingBox {
	var minX, minY, maxX, maxY float32
	found := false

	for _, p := range points {
		if p.Confidence <= MinConfidence {
			continue
		}
		if !found {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			found = true
			continue
		}
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	if !found {
		return domain.BoundingBox{}
	}
	return domain.BoundingBox{
		X:      float64(minX),
		Y:      float64(minY),
		Width:  float64(maxX - minX),
		Height: float64(maxY - minY),
	}
}
