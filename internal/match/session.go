package match

import (
	"context"
	"fmt"

	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/metrics"
	"github.com/mmcdole/posekit/internal/outline"
)

// Session scores detector frames against one active template.
// The template outline is decoded once, outside the frame loop.
type Session struct {
	templateID string
	keyPoints  []domain.KeyPoint
	threshold  float32
}

// NewSession decodes t's outline. ok is false when the template has no
// usable outline, in which case there is nothing to score against.
func NewSession(t domain.PoseTemplate, threshold float32) (*Session, bool) {
	o, ok := outline.FromTemplate(t)
	if !ok {
		return nil, false
	}
	return &Session{
		templateID: t.ID,
		keyPoints:  o.KeyPoints,
		threshold:  threshold,
	}, true
}

// TemplateID returns the id of the active template
func (s *Session) TemplateID() string { return s.templateID }

// Score compares one detected skeleton with the active template and records
// the result
func (s *Session) Score(current []domain.KeyPoint) float32 {
	score := Score(current, s.keyPoints, s.threshold)
	metrics.FramesScored.Inc()
	metrics.MatchScore.Observe(float64(score))
	return score
}

// ScoreFrame runs d over one camera frame and scores the detected skeleton
func (s *Session) ScoreFrame(ctx context.Context, d domain.Detector, frame []byte) (float32, error) {
	points, err := d.Detect(ctx, frame)
	if err != nil {
		return 0, fmt.Errorf("detect pose: %w", err)
	}
	return s.Score(points), nil
}
