package main

import (
	"bytes"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/posekit/internal/catalog"
	"github.com/mmcdole/posekit/internal/config"
	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/log"
	"github.com/mmcdole/posekit/internal/outline"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Storage.AssetDir = filepath.Join(dir, "images")

	a, err := newApp(cfg, log.NullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.repo.Close() })

	var out bytes.Buffer
	a.out = &out
	a.width = 100
	return a, &out
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func defaultOutline(t *testing.T, name string) domain.OutlineData {
	t.Helper()
	templates, err := catalog.Defaults()
	require.NoError(t, err)
	for _, tmpl := range templates {
		if tmpl.Name == name {
			o, ok := outline.FromTemplate(tmpl)
			require.True(t, ok)
			return o
		}
	}
	t.Fatalf("no default template named %q", name)
	return domain.OutlineData{}
}

func TestApp_SeedListShow(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, a.dispatch("seed", nil))
	assert.Contains(t, out.String(), "Seeded 4 templates")

	out.Reset()
	require.NoError(t, a.dispatch("list", []string{"-sort", "name-asc"}))
	assert.Contains(t, out.String(), "Classic Standing")
	assert.Contains(t, out.String(), "Victory Arms")

	out.Reset()
	require.NoError(t, a.dispatch("list", []string{"-category", "half-body"}))
	assert.Contains(t, out.String(), "Hand on Hip")
	assert.NotContains(t, out.String(), "Victory Arms")

	out.Reset()
	require.NoError(t, a.dispatch("show", []string{"5d2e9c17-3a4b-4f6e-8c0d-7b1a9e2f4c02"}))
	assert.Contains(t, out.String(), "Victory Arms")
	assert.Contains(t, out.String(), "33/33 points visible")

	assert.Error(t, a.dispatch("list", []string{"-sort", "popularity"}))
	assert.Error(t, a.dispatch("show", []string{"missing"}))
}

func TestApp_ListedIDsResolve(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.dispatch("seed", nil))

	out.Reset()
	require.NoError(t, a.dispatch("list", []string{"-q", "victory"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	id := strings.Fields(lines[1])[0]
	assert.Equal(t, "5d2e9c17-3a4b-4f6e-8c0d-7b1a9e2f4c02", id)

	out.Reset()
	require.NoError(t, a.dispatch("show", []string{id}))
	assert.Contains(t, out.String(), "Victory Arms")

	require.NoError(t, a.dispatch("fav", []string{"add", id}))
	out.Reset()
	require.NoError(t, a.dispatch("list", []string{"-favorites"}))
	assert.Contains(t, out.String(), id)
}

func TestApp_Favorites(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.dispatch("seed", nil))

	const id = "9a8b7c6d-5e4f-4a3b-9c2d-1e0f2a3b4c03"
	require.NoError(t, a.dispatch("fav", []string{"add", id}))

	out.Reset()
	require.NoError(t, a.dispatch("list", []string{"-favorites"}))
	assert.Contains(t, out.String(), "Hand on Hip")
	assert.NotContains(t, out.String(), "Classic Standing")

	require.NoError(t, a.dispatch("fav", []string{"rm", id}))
	out.Reset()
	require.NoError(t, a.dispatch("list", []string{"-favorites"}))
	assert.Contains(t, out.String(), "No templates.")

	assert.Error(t, a.dispatch("fav", []string{"add", "missing"}))
}

func TestApp_ScoreRecordsRecent(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.dispatch("seed", nil))

	const id = "0b6f4a52-8f1e-4c8e-9d1a-2f7c3e5b9a01"
	frame, err := json.Marshal(defaultOutline(t, "Classic Standing").KeyPoints)
	require.NoError(t, err)
	framePath := writeFile(t, "frame.json", frame)

	out.Reset()
	require.NoError(t, a.dispatch("score", []string{id, framePath}))
	assert.Contains(t, out.String(), "100%")

	out.Reset()
	require.NoError(t, a.dispatch("recent", nil))
	assert.Contains(t, out.String(), "Classic Standing")

	short := writeFile(t, "short.json", []byte(`[{"x":0.5,"y":0.5,"type":"head","confidence":1}]`))
	assert.ErrorIs(t, a.dispatch("score", []string{id, short}), domain.ErrDecoding)
}

func TestApp_ImportAndDelete(t *testing.T) {
	a, out := newTestApp(t)

	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, imaging.New(10, 10, color.NRGBA{G: 255, A: 255}), imaging.PNG))
	imagePath := writeFile(t, "photo.png", png.Bytes())

	o, err := outline.Encode(defaultOutline(t, "Power Stance"))
	require.NoError(t, err)
	outlinePath := writeFile(t, "outline.json", o)

	require.NoError(t, a.dispatch("import", []string{
		"-name", "Garden Pose", "-category", "creative", "-difficulty", "hard",
		"-tags", "garden, flowers,", "-outline", outlinePath, imagePath,
	}))
	assert.Contains(t, out.String(), "Imported Garden Pose")

	templates, err := a.repo.List()
	require.NoError(t, err)
	require.Len(t, templates, 1)
	imported := templates[0]
	assert.Equal(t, []string{"garden", "flowers"}, imported.Tags)
	assert.True(t, imported.IsUserCreated)
	assert.FileExists(t, imported.ThumbnailURL)

	size, err := a.assets.TotalSize()
	require.NoError(t, err)
	assert.Positive(t, size)

	require.NoError(t, a.dispatch("delete", []string{imported.ID}))
	assert.NoFileExists(t, imported.ThumbnailURL)

	templates, err = a.repo.List()
	require.NoError(t, err)
	assert.Empty(t, templates)

	assert.Error(t, a.dispatch("import", []string{imagePath}))
}

func TestApp_Cache(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, os.WriteFile(filepath.Join(a.assets.Dir(), "stray.jpg"), make([]byte, 2048), 0644))

	require.NoError(t, a.dispatch("cache", []string{"size"}))
	assert.Contains(t, out.String(), "2.0 KiB")

	require.NoError(t, a.dispatch("cache", []string{"clear"}))
	size, err := a.assets.TotalSize()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestApp_UnknownCommand(t *testing.T) {
	a, _ := newTestApp(t)
	assert.ErrorIs(t, a.dispatch("dance", nil), errUsage)
}

func TestParseKeyPointFile(t *testing.T) {
	full := defaultOutline(t, "Classic Standing")

	asArray, err := json.Marshal(full.KeyPoints)
	require.NoError(t, err)
	o, err := parseKeyPointFile(asArray)
	require.NoError(t, err)
	assert.Len(t, o.KeyPoints, outline.KeyPointCount)
	assert.Equal(t, outline.BoundsOf(full.KeyPoints), o.BoundingBox)

	asObject, err := outline.Encode(full)
	require.NoError(t, err)
	o, err = parseKeyPointFile(asObject)
	require.NoError(t, err)
	assert.Equal(t, full, o)

	for _, bad := range []string{"", "  ", "[", `{"keyPoints":[]}`, "[]"} {
		_, err := parseKeyPointFile([]byte(bad))
		assert.ErrorIs(t, err, domain.ErrDecoding, "input %q", bad)
	}
}

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "Classic Standing", truncate("Classic Standing", 20))
	assert.Equal(t, "Classic...", truncate("Classic Standing", 10))
	assert.Equal(t, "Cla", truncate("Classic Standing", 3))
	assert.Equal(t, "", truncate("Classic", 0))

	assert.Equal(t, "ab   ", pad("ab", 5))
	assert.Equal(t, "abcdef", pad("abcdef", 3))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{}, splitTags(""))
	assert.Equal(t, []string{"a", "b c"}, splitTags(" a, ,b c ,"))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "3.0 MiB", formatBytes(3*1024*1024))
}
