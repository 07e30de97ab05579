package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/outline"
)

// keyPointFileDetector reads a skeleton already extracted by an external
// detector and saved as JSON
type keyPointFileDetector struct{}

func (keyPointFileDetector) Detect(ctx context.Context, frame []byte) ([]domain.KeyPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o, err := parseKeyPointFile(frame)
	if err != nil {
		return nil, err
	}
	return o.KeyPoints, nil
}

// parseKeyPointFile accepts either a full outline object or a bare array of
// keypoints in canonical order
func parseKeyPointFile(data []byte) (domain.OutlineData, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return domain.OutlineData{}, fmt.Errorf("empty keypoint file: %w", domain.ErrDecoding)
	}

	var o domain.OutlineData
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &o.KeyPoints); err != nil {
			return domain.OutlineData{}, fmt.Errorf("parse keypoints: %w: %w", domain.ErrDecoding, err)
		}
		o.BoundingBox = outline.BoundsOf(o.KeyPoints)
		o.Confidence = meanConfidence(o.KeyPoints)
	} else if err := json.Unmarshal(trimmed, &o); err != nil {
		return domain.OutlineData{}, fmt.Errorf("parse outline: %w: %w", domain.ErrDecoding, err)
	}

	if !outline.Valid(o) {
		return domain.OutlineData{}, fmt.Errorf("expected %d keypoints, got %d: %w",
			outline.KeyPointCount, len(o.KeyPoints), domain.ErrDecoding)
	}
	return o, nil
}

func meanConfidence(points []domain.KeyPoint) float32 {
	if len(points) == 0 {
		return 0
	}
	var total float32
	for _, p := range points {
		total += p.Confidence
	}
	return total / float32(len(points))
}
