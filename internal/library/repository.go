package library

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mmcdole/posekit/internal/assets"
	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/metrics"
	"github.com/mmcdole/posekit/internal/store"
)

// MaxRecents caps the recently used list
const MaxRecents = 20

// Repository owns the template records and the favorites/recents id lists.
// Every mutation is a read-modify-write of one whole collection, so writes
// are serialized per instance. Reads go straight to the store.
type Repository struct {
	kv     domain.KeyValueStore
	assets domain.AssetStore
	logger *slog.Logger

	mu sync.Mutex // Serializes read-modify-write cycles
}

// NewRepository creates a repository over kv and assets
func NewRepository(kv domain.KeyValueStore, assets domain.AssetStore, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{kv: kv, assets: assets, logger: logger}
}

// Close releases the underlying store
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.kv.Close()
}

// === Templates ===

// Save inserts t or replaces the record with the same id in place.
// The caller must have written t's images before calling Save.
func (r *Repository) Save(t domain.PoseTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.upsert([]domain.PoseTemplate{t})
	metrics.Observe("save", err)
	if err != nil {
		r.logger.Error("failed to save template", "id", t.ID, "error", err)
		return err
	}
	r.logger.Debug("saved template", "id", t.ID, "name", t.Name)
	return nil
}

// SeedCatalog upserts a batch of catalog templates in one write
func (r *Repository) SeedCatalog(templates []domain.PoseTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.upsert(templates)
	metrics.Observe("seed", err)
	if err != nil {
		r.logger.Error("failed to seed catalog", "count", len(templates), "error", err)
		return err
	}
	r.logger.Info("seeded catalog", "count", len(templates))
	return nil
}

// List returns every template in insertion order
func (r *Repository) List() ([]domain.PoseTemplate, error) {
	records, err := r.loadRecords()
	metrics.Observe("list", err)
	if err != nil {
		return nil, err
	}

	templates := make([]domain.PoseTemplate, 0, len(records))
	for _, rec := range records {
		templates = append(templates, r.toTemplate(rec))
	}
	return templates, nil
}

// Get returns the template with id, if present
func (r *Repository) Get(id string) (domain.PoseTemplate, bool, error) {
	records, err := r.loadRecords()
	if err != nil {
		return domain.PoseTemplate{}, false, err
	}
	if i := indexOf(records, id); i >= 0 {
		return r.toTemplate(records[i]), true, nil
	}
	return domain.PoseTemplate{}, false, nil
}

// Resolve maps ids to templates in the given order. Ids without a record
// (deleted templates still listed in favorites or recents) are skipped.
func (r *Repository) Resolve(ids []string) ([]domain.PoseTemplate, error) {
	records, err := r.loadRecords()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	resolved := make([]domain.PoseTemplate, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			resolved = append(resolved, r.toTemplate(rec))
		}
	}
	return resolved, nil
}

// Delete removes the template and its local images. Deleting an unknown id
// is a no-op. Favorites and recents are left untouched. Images go first, so
// if rewriting the collection fails the record survives without its cover.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.delete(id)
	metrics.Observe("delete", err)
	if err != nil {
		r.logger.Error("failed to delete template", "id", id, "error", err)
	}
	return err
}

// DeleteBatch deletes ids one by one and stops at the first failure.
// Templates deleted before the failure stay deleted.
func (r *Repository) DeleteBatch(ids []string) error {
	for i, id := range ids {
		if err := r.Delete(id); err != nil {
			return fmt.Errorf("delete %s (%d of %d): %w", id, i+1, len(ids), err)
		}
	}
	return nil
}

// ImportUserTemplate stores image as the template's cover and original
// photo, points the thumbnail at the cover, and saves the template as user
// created. A missing id or creation time is filled in.
func (r *Repository) ImportUserTemplate(t domain.PoseTemplate, image []byte) (domain.PoseTemplate, error) {
	if t.ID == "" {
		t.ID = domain.NewTemplateID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	// Images first: a saved record must never point at a missing cover
	cover, err := r.assets.Store(image, assets.CoverKey(t.ID))
	if err != nil {
		metrics.Observe("import", err)
		return domain.PoseTemplate{}, err
	}
	if _, err := r.assets.Store(image, assets.OriginalKey(t.ID)); err != nil {
		metrics.Observe("import", err)
		return domain.PoseTemplate{}, err
	}

	t.ThumbnailURL = cover
	t.IsUserCreated = true

	if err := r.Save(t); err != nil {
		metrics.Observe("import", err)
		return domain.PoseTemplate{}, err
	}
	metrics.Observe("import", nil)
	r.logger.Info("imported user template", "id", t.ID, "name", t.Name)
	return t, nil
}

// CreateFromPhoto runs gen on photo and imports the result with photo as
// its image
func (r *Repository) CreateFromPhoto(ctx context.Context, gen domain.Generator, photo []byte) (domain.PoseTemplate, error) {
	t, err := gen.Generate(ctx, photo)
	if err != nil {
		return domain.PoseTemplate{}, fmt.Errorf("generate template: %w", err)
	}
	return r.ImportUserTemplate(t, photo)
}

// === Favorites ===

func (r *Repository) AddFavorite(id string) error {
	return r.updateIDs("favorite", store.KeyFavoriteTemplates, id, func(ids []string) ([]string, bool) {
		if slices.Contains(ids, id) {
			return ids, false
		}
		return append(ids, id), true
	})
}

func (r *Repository) RemoveFavorite(id string) error {
	return r.updateIDs("favorite", store.KeyFavoriteTemplates, id, func(ids []string) ([]string, bool) {
		i := slices.Index(ids, id)
		if i < 0 {
			return ids, false
		}
		return slices.Delete(ids, i, i+1), true
	})
}

func (r *Repository) IsFavorite(id string) (bool, error) {
	ids, err := r.loadIDs(store.KeyFavoriteTemplates)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

// ListFavorites returns the favorite ids. Order carries no meaning.
func (r *Repository) ListFavorites() ([]string, error) {
	return r.loadIDs(store.KeyFavoriteTemplates)
}

// === Recents ===

// AddRecent moves id to the front of the recents list, evicting the oldest
// entries beyond MaxRecents
func (r *Repository) AddRecent(id string) error {
	return r.updateIDs("recent", store.KeyRecentTemplates, id, func(ids []string) ([]string, bool) {
		ids = slices.DeleteFunc(ids, func(existing string) bool { return existing == id })
		ids = append([]string{id}, ids...)
		if len(ids) > MaxRecents {
			ids = ids[:MaxRecents]
		}
		return ids, true
	})
}

// ListRecents returns ids most recent first
func (r *Repository) ListRecents() ([]string, error) {
	return r.loadIDs(store.KeyRecentTemplates)
}

// === Helpers (callers hold r.mu where noted) ===

// upsert requires r.mu
func (r *Repository) upsert(templates []domain.PoseTemplate) error {
	for _, t := range templates {
		if err := validate(t); err != nil {
			return err
		}
	}

	records, err := r.loadRecords()
	if err != nil {
		return err
	}

	for _, t := range templates {
		rec := toRecord(t)
		if i := indexOf(records, t.ID); i >= 0 {
			records[i] = rec
		} else {
			records = append(records, rec)
		}
	}
	return r.saveRecords(records)
}

// delete requires r.mu
func (r *Repository) delete(id string) error {
	records, err := r.loadRecords()
	if err != nil {
		return err
	}

	i := indexOf(records, id)
	if i < 0 {
		r.logger.Debug("delete of unknown template ignored", "id", id)
		return nil
	}

	if err := r.assets.Delete(records[i].ThumbnailURL); err != nil {
		return err
	}
	if err := r.assets.DeleteTemplate(id); err != nil {
		return err
	}

	records = slices.Delete(records, i, i+1)
	if err := r.saveRecords(records); err != nil {
		return err
	}
	r.logger.Info("deleted template", "id", id)
	return nil
}

func (r *Repository) updateIDs(op, key, id string, mutate func([]string) ([]string, bool)) error {
	if id == "" {
		return fmt.Errorf("%s: empty template id: %w", op, domain.ErrInvalidTemplate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.loadIDs(key)
	if err == nil {
		var changed bool
		if ids, changed = mutate(ids); changed {
			err = r.saveIDs(key, ids)
		}
	}
	metrics.Observe(op, err)
	if err != nil {
		r.logger.Error("failed to update id list", "key", key, "id", id, "error", err)
	}
	return err
}

func (r *Repository) loadRecords() ([]record, error) {
	data, ok, err := r.kv.Get(store.KeyUserTemplates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeRecords(data)
}

func (r *Repository) saveRecords(records []record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	return r.kv.Put(store.KeyUserTemplates, data)
}

func (r *Repository) loadIDs(key string) ([]string, error) {
	data, ok, err := r.kv.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return decodeIDs(data)
}

func (r *Repository) saveIDs(key string, ids []string) error {
	data, err := encodeIDs(ids)
	if err != nil {
		return err
	}
	return r.kv.Put(key, data)
}

func (r *Repository) toTemplate(rec record) domain.PoseTemplate {
	t, fallbacks := rec.toTemplate()
	for _, f := range fallbacks {
		r.logger.Warn("unrecognized template value, using default",
			"id", rec.ID, "field", f.Field, "value", f.Raw)
	}
	return t
}

func validate(t domain.PoseTemplate) error {
	if t.ID == "" {
		return fmt.Errorf("template %q has no id: %w", t.Name, domain.ErrInvalidTemplate)
	}
	if _, ok := domain.ParseCategory(string(t.Category)); !ok {
		return fmt.Errorf("template %s: unknown category %q: %w", t.ID, t.Category, domain.ErrInvalidTemplate)
	}
	if _, ok := domain.ParseDifficulty(string(t.Difficulty)); !ok {
		return fmt.Errorf("template %s: unknown difficulty %q: %w", t.ID, t.Difficulty, domain.ErrInvalidTemplate)
	}
	return nil
}

func indexOf(records []record, id string) int {
	return slices.IndexFunc(records, func(rec record) bool { return rec.ID == id })
}
