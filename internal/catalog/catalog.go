// Package catalog supplies the curated template set: from a provider when
// one is reachable, otherwise from the built-in defaults.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/outline"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// file is the on-disk catalog layout
type file struct {
	Skeletons map[string]skeleton `yaml:"skeletons"`
	Templates []entry             `yaml:"templates"`
}

type skeleton struct {
	Extends string               `yaml:"extends"`
	Points  map[string][]float32 `yaml:"points"` // landmark -> [x, y, confidence]
}

type entry struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Category   string    `yaml:"category"`
	Difficulty string    `yaml:"difficulty"`
	Tags       []string  `yaml:"tags"`
	Thumbnail  string    `yaml:"thumbnail"`
	Skeleton   string    `yaml:"skeleton"`
	Created    time.Time `yaml:"created"`
}

var loadDefaults = sync.OnceValues(func() ([]domain.PoseTemplate, error) {
	return Parse(defaultsYAML)
})

// Defaults returns the built-in templates. Callers may modify the result.
func Defaults() ([]domain.PoseTemplate, error) {
	templates, err := loadDefaults()
	if err != nil {
		return nil, err
	}
	out := make([]domain.PoseTemplate, len(templates))
	for i, t := range templates {
		t.Tags = append([]string(nil), t.Tags...)
		t.OutlineData = append([]byte(nil), t.OutlineData...)
		out[i] = t
	}
	return out, nil
}

// Fetch asks provider for the catalog and falls back to Defaults when
// there is no provider or it fails
func Fetch(ctx context.Context, provider domain.CatalogProvider, logger *slog.Logger) ([]domain.PoseTemplate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		logger.Debug("no catalog provider configured, using defaults")
		return Defaults()
	}

	templates, err := provider.FetchTemplates(ctx)
	if err != nil {
		logger.Warn("catalog provider failed, using defaults", "error", err)
		return Defaults()
	}
	logger.Debug("fetched catalog", "count", len(templates))
	return templates, nil
}

// FileProvider reads a catalog file in the same layout as the defaults
type FileProvider struct {
	Path string
}

func (p FileProvider) FetchTemplates(ctx context.Context) ([]domain.PoseTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w: %w", p.Path, domain.ErrServiceUnavailable, err)
	}
	return Parse(data)
}

// Parse decodes a catalog document and builds each template's outline
func Parse(data []byte) ([]domain.PoseTemplate, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w: %w", domain.ErrDecoding, err)
	}

	outlines := make(map[string][]byte, len(f.Skeletons))
	templates := make([]domain.PoseTemplate, 0, len(f.Templates))
	seen := make(map[string]bool, len(f.Templates))

	for _, e := range f.Templates {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog template %q has no id: %w", e.Name, domain.ErrDecoding)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("duplicate catalog id %s: %w", e.ID, domain.ErrDecoding)
		}
		seen[e.ID] = true

		category, ok := domain.ParseCategory(e.Category)
		if !ok {
			return nil, fmt.Errorf("catalog template %s: unknown category %q: %w", e.ID, e.Category, domain.ErrDecoding)
		}
		difficulty, ok := domain.ParseDifficulty(e.Difficulty)
		if !ok {
			return nil, fmt.Errorf("catalog template %s: unknown difficulty %q: %w", e.ID, e.Difficulty, domain.ErrDecoding)
		}

		encoded, ok := outlines[e.Skeleton]
		if !ok {
			o, err := buildOutline(e.Skeleton, f.Skeletons)
			if err != nil {
				return nil, fmt.Errorf("catalog template %s: %w", e.ID, err)
			}
			if encoded, err = outline.Encode(o); err != nil {
				return nil, err
			}
			outlines[e.Skeleton] = encoded
		}

		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		templates = append(templates, domain.PoseTemplate{
			ID:           e.ID,
			Name:         e.Name,
			Category:     category,
			Difficulty:   difficulty,
			Tags:         tags,
			ThumbnailURL: e.Thumbnail,
			OutlineData:  append([]byte(nil), encoded...),
			CreatedAt:    e.Created.UTC(),
		})
	}
	return templates, nil
}

// buildOutline lays the named skeleton out in canonical landmark order.
// Landmarks the skeleton omits keep zero confidence.
func buildOutline(name string, skeletons map[string]skeleton) (domain.OutlineData, error) {
	points, err := resolve(name, skeletons, make(map[string]bool))
	if err != nil {
		return domain.OutlineData{}, err
	}

	keyPoints := make([]domain.KeyPoint, outline.KeyPointCount)
	for i := range keyPoints {
		keyPoints[i].Type = outline.TypeOf(outline.Landmark(i))
	}

	for landmarkName, v := range points {
		l, ok := outline.LandmarkByName(landmarkName)
		if !ok {
			return domain.OutlineData{}, fmt.Errorf("skeleton %s: unknown landmark %q: %w", name, landmarkName, domain.ErrDecoding)
		}
		if len(v) != 3 {
			return domain.OutlineData{}, fmt.Errorf("skeleton %s: landmark %s needs [x, y, confidence]: %w", name, landmarkName, domain.ErrDecoding)
		}
		keyPoints[l].X, keyPoints[l].Y, keyPoints[l].Confidence = v[0], v[1], v[2]
	}

	var total float32
	for _, p := range keyPoints {
		total += p.Confidence
	}

	return domain.OutlineData{
		KeyPoints:   keyPoints,
		BoundingBox: outline.BoundsOf(keyPoints),
		Confidence:  total / float32(outline.KeyPointCount),
	}, nil
}

// resolve flattens a skeleton's extends chain, child points winning
func resolve(name string, skeletons map[string]skeleton, visiting map[string]bool) (map[string][]float32, error) {
	s, ok := skeletons[name]
	if !ok {
		return nil, fmt.Errorf("unknown skeleton %q: %w", name, domain.ErrDecoding)
	}
	if visiting[name] {
		return nil, fmt.Errorf("skeleton %s extends itself: %w", name, domain.ErrDecoding)
	}
	visiting[name] = true

	points := make(map[string][]float32)
	if s.Extends != "" {
		base, err := resolve(s.Extends, skeletons, visiting)
		if err != nil {
			return nil, err
		}
		maps.Copy(points, base)
	}
	maps.Copy(points, s.Points)
	return points, nil
}
