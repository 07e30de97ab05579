package library

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmcdole/posekit/internal/domain"
)

// record is the persisted form of a template. Enums are stored as raw
// strings and only validated when mapped back to the domain type.
type record struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Difficulty    string    `json:"difficulty"`
	Tags          []string  `json:"tags"`
	ThumbnailURL  string    `json:"thumbnailURL"`
	OutlineData   []byte    `json:"outlineData"`
	CreatedAt     time.Time `json:"createdAt"`
	IsUserCreated bool      `json:"isUserCreated"`
}

func toRecord(t domain.PoseTemplate) record {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return record{
		ID:            t.ID,
		Name:          t.Name,
		Category:      string(t.Category),
		Difficulty:    string(t.Difficulty),
		Tags:          tags,
		ThumbnailURL:  t.ThumbnailURL,
		OutlineData:   t.OutlineData,
		CreatedAt:     t.CreatedAt.UTC(),
		IsUserCreated: t.IsUserCreated,
	}
}

// fallback describes a raw enum string that was replaced by its default
type fallback struct {
	Field string
	Raw   string
}

func (r record) toTemplate() (domain.PoseTemplate, []fallback) {
	var fallbacks []fallback

	category, ok := domain.ParseCategory(r.Category)
	if !ok {
		fallbacks = append(fallbacks, fallback{Field: "category", Raw: r.Category})
	}
	difficulty, ok := domain.ParseDifficulty(r.Difficulty)
	if !ok {
		fallbacks = append(fallbacks, fallback{Field: "difficulty", Raw: r.Difficulty})
	}

	return domain.PoseTemplate{
		ID:            r.ID,
		Name:          r.Name,
		Category:      category,
		Difficulty:    difficulty,
		Tags:          r.Tags,
		ThumbnailURL:  r.ThumbnailURL,
		OutlineData:   r.OutlineData,
		CreatedAt:     r.CreatedAt,
		IsUserCreated: r.IsUserCreated,
	}, fallbacks
}

func encodeRecords(records []record) ([]byte, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode templates: %w: %w", domain.ErrEncoding, err)
	}
	return data, nil
}

func decodeRecords(data []byte) ([]record, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode templates: %w: %w", domain.ErrDecoding, err)
	}
	return records, nil
}

func encodeIDs(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode ids: %w: %w", domain.ErrEncoding, err)
	}
	return data, nil
}

func decodeIDs(data []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode ids: %w: %w", domain.ErrDecoding, err)
	}
	return ids, nil
}
