package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/posekit/internal/catalog"
	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/match"
	"github.com/mmcdole/posekit/internal/outline"
	"github.com/mmcdole/posekit/internal/search"
)

// catalogTimeout bounds a catalog fetch
const catalogTimeout = 15 * time.Second

func (a *app) list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	category := fs.String("category", "", "only show this category")
	text := fs.String("q", "", "fuzzy match name or tags")
	sortBy := fs.String("sort", "", "newest, oldest, name-asc, name-desc, difficulty, relevance")
	favoritesOnly := fs.Bool("favorites", false, "only show favorites")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	q := search.Query{Text: *text}
	if *category != "" {
		c, ok := domain.ParseCategory(*category)
		if !ok {
			return fmt.Errorf("unknown category %q", *category)
		}
		q.Category = c
	}
	s, ok := search.ParseSort(*sortBy)
	if !ok {
		return fmt.Errorf("unknown sort %q", *sortBy)
	}
	q.Sort = s

	templates, err := a.repo.List()
	if err != nil {
		return err
	}
	favorites, err := a.favoriteSet()
	if err != nil {
		return err
	}

	if *favoritesOnly {
		kept := make([]domain.PoseTemplate, 0, len(templates))
		for _, t := range templates {
			if favorites[t.ID] {
				kept = append(kept, t)
			}
		}
		templates = kept
	}

	results := search.Filter(templates, q)
	if len(results) == 0 {
		fmt.Fprintln(a.out, dimStyle.Render("No templates."))
		return nil
	}
	fmt.Fprintln(a.out, renderTable(results, favorites, a.width))
	return nil
}

func (a *app) show(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("show takes one template id")
	}
	t, err := a.get(args[0])
	if err != nil {
		return err
	}
	favorites, err := a.favoriteSet()
	if err != nil {
		return err
	}

	o, hasOutline := outline.FromTemplate(t)
	fmt.Fprintln(a.out, renderDetail(t, o, hasOutline, favorites[t.ID]))
	return nil
}

func (a *app) seed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	path := fs.String("catalog", "", "catalog file (default: built-in set)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var provider domain.CatalogProvider
	if *path != "" {
		provider = catalog.FileProvider{Path: *path}
	}

	ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
	defer cancel()

	templates, err := catalog.Fetch(ctx, provider, a.logger)
	if err != nil {
		return err
	}
	if err := a.repo.SeedCatalog(templates); err != nil {
		return err
	}
	fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("✓ Seeded %d templates", len(templates))))
	return nil
}

func (a *app) importTemplate(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	name := fs.String("name", "", "template name")
	category := fs.String("category", string(domain.DefaultCategory), "template category")
	difficulty := fs.String("difficulty", string(domain.DefaultDifficulty), "template difficulty")
	tags := fs.String("tags", "", "comma separated tags")
	outlinePath := fs.String("outline", "", "outline JSON with 33 keypoints")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *name == "" || fs.NArg() != 1 {
		return fmt.Errorf("import needs -name and one image path")
	}

	c, ok := domain.ParseCategory(*category)
	if !ok {
		return fmt.Errorf("unknown category %q", *category)
	}
	d, ok := domain.ParseDifficulty(*difficulty)
	if !ok {
		return fmt.Errorf("unknown difficulty %q", *difficulty)
	}

	image, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	t := domain.PoseTemplate{
		Name:       *name,
		Category:   c,
		Difficulty: d,
		Tags:       splitTags(*tags),
	}
	if *outlinePath != "" {
		data, err := os.ReadFile(*outlinePath)
		if err != nil {
			return fmt.Errorf("read outline: %w", err)
		}
		o, err := parseKeyPointFile(data)
		if err != nil {
			return err
		}
		if t.OutlineData, err = outline.Encode(o); err != nil {
			return err
		}
	}

	saved, err := a.repo.ImportUserTemplate(t, image)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, successStyle.Render("✓ Imported "+saved.Name)+" "+dimStyle.Render(saved.ID))
	return nil
}

func (a *app) delete(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("delete takes at least one template id")
	}
	if err := a.repo.DeleteBatch(args); err != nil {
		return err
	}
	fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf("✓ Deleted %d templates", len(args))))
	return nil
}

func (a *app) favorite(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("fav takes add|rm and a template id")
	}
	switch args[0] {
	case "add":
		if _, err := a.get(args[1]); err != nil {
			return err
		}
		return a.repo.AddFavorite(args[1])
	case "rm":
		return a.repo.RemoveFavorite(args[1])
	default:
		return fmt.Errorf("unknown fav action %q", args[0])
	}
}

func (a *app) recent(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("recent takes no arguments")
	}
	ids, err := a.repo.ListRecents()
	if err != nil {
		return err
	}
	templates, err := a.repo.Resolve(ids)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Fprintln(a.out, dimStyle.Render("Nothing used yet."))
		return nil
	}
	favorites, err := a.favoriteSet()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, renderTable(templates, favorites, a.width))
	return nil
}

func (a *app) score(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("score takes a template id and a frame file")
	}
	t, err := a.get(args[0])
	if err != nil {
		return err
	}

	session, ok := match.NewSession(t, float32(a.cfg.Matching.Threshold))
	if !ok {
		return fmt.Errorf("template %s has no usable outline", t.ID)
	}

	frame, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	score, err := session.ScoreFrame(context.Background(), keyPointFileDetector{}, frame)
	if err != nil {
		return err
	}

	if err := a.repo.AddRecent(t.ID); err != nil {
		a.logger.Warn("failed to record recent template", "id", t.ID, "error", err)
	}
	fmt.Fprintln(a.out, renderScore(t, score))
	return nil
}

func (a *app) cache(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cache takes size or clear")
	}
	switch args[0] {
	case "size":
		size, err := a.assets.TotalSize()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s\n", formatBytes(size), dimStyle.Render(a.assets.Dir()))
		return nil
	case "clear":
		if err := a.assets.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, successStyle.Render("✓ Cleared "+a.assets.Dir()))
		return nil
	default:
		return fmt.Errorf("unknown cache action %q", args[0])
	}
}

func (a *app) get(id string) (domain.PoseTemplate, error) {
	t, ok, err := a.repo.Get(id)
	if err != nil {
		return domain.PoseTemplate{}, err
	}
	if !ok {
		return domain.PoseTemplate{}, fmt.Errorf("no template with id %s", id)
	}
	return t, nil
}

func (a *app) favoriteSet() (map[string]bool, error) {
	ids, err := a.repo.ListFavorites()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func splitTags(raw string) []string {
	tags := []string{}
	for tag := range strings.SplitSeq(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
