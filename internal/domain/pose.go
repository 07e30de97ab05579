package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category groups templates by shot type
type Category string

const (
	CategoryFullBody Category = "full-body"
	CategoryHalfBody Category = "half-body"
	CategorySelfie   Category = "selfie"
	CategoryCouple   Category = "couple"
	CategoryGroup    Category = "group"
	CategoryCreative Category = "creative"
)

// DefaultCategory is used when a persisted category string is not recognized
const DefaultCategory = CategoryFullBody

// Categories lists every category in display order
var Categories = []Category{
	CategoryFullBody,
	CategoryHalfBody,
	CategorySelfie,
	CategoryCouple,
	CategoryGroup,
	CategoryCreative,
}

// ParseCategory maps a raw string to a Category.
// Unknown values return DefaultCategory and ok=false.
func ParseCategory(raw string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == raw {
			return c, true
		}
	}
	return DefaultCategory, false
}

// Difficulty rates how hard a pose is to reproduce
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultDifficulty is used when a persisted difficulty string is not recognized
const DefaultDifficulty = DifficultyEasy

// Difficulties lists every difficulty from easiest to hardest
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty maps a raw string to a Difficulty.
// Unknown values return DefaultDifficulty and ok=false.
func ParseDifficulty(raw string) (Difficulty, bool) {
	for _, d := range Difficulties {
		if string(d) == raw {
			return d, true
		}
	}
	return DefaultDifficulty, false
}

// Rank orders difficulties for sorting (easy=0)
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	default:
		return 0
	}
}

// PoseTemplate is a named reference pose with an embedded outline payload
type PoseTemplate struct {
	ID            string     // Unique, never reused
	Name          string     // Display name
	Category      Category   // Shot type
	Difficulty    Difficulty // Reproduction difficulty
	Tags          []string   // Free-text labels
	ThumbnailURL  string     // Local asset path or remote URI
	OutlineData   []byte     // Encoded OutlineData, decoded lazily
	CreatedAt     time.Time  // Creation time
	IsUserCreated bool       // True only for locally generated templates
}

// NewTemplateID returns a fresh template identifier
func NewTemplateID() string {
	return uuid.NewString()
}

// PointType is the coarse body-part tag carried by each keypoint
type PointType string

const (
	PointHead     PointType = "head"
	PointShoulder PointType = "shoulder"
	PointElbow    PointType = "elbow"
	PointWrist    PointType = "wrist"
	PointHand     PointType = "hand"
	PointHip      PointType = "hip"
	PointKnee     PointType = "knee"
	PointAnkle    PointType = "ankle"
	PointFoot     PointType = "foot"
	PointContour  PointType = "contour"
)

// KeyPoint is one landmark in normalized image space
type KeyPoint struct {
	X          float32   `json:"x"` // [0,1], left to right
	Y          float32   `json:"y"` // [0,1], top to bottom
	Type       PointType `json:"type"`
	Confidence float32   `json:"confidence"` // [0,1]
}

// BoundingBox is an axis-aligned rectangle in normalized image space
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OutlineData is the decoded skeletal outline of a template
type OutlineData struct {
	KeyPoints   []KeyPoint  `json:"keyPoints"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Confidence  float32     `json:"confidence"`
}
