package assets

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/posekit/internal/domain"
	"github.com/mmcdole/posekit/internal/log"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(16, 12, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), log.NullLogger())
	require.NoError(t, err)
	return s
}

func TestStore_WritesJPEG(t *testing.T) {
	s := newTestStore(t)

	path, err := s.Store(testPNG(t), CoverKey("abc"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "abc_cover.jpg"), path)

	data, ok, err := s.Load(path)
	require.NoError(t, err)
	require.True(t, ok)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2], "expected JPEG magic")
}

func TestStore_OverwritesSilently(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Store(testPNG(t), "k")
	require.NoError(t, err)

	other := imaging.New(40, 40, color.White)
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, other, imaging.PNG))

	second, err := s.Store(buf.Bytes(), "k")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	data, ok, err := s.Load(second)
	require.NoError(t, err)
	require.True(t, ok)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestStore_InvalidInput(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Store([]byte("definitely not an image"), "bad")
	assert.ErrorIs(t, err, domain.ErrImageIO)

	_, err = s.Store(testPNG(t), "../escape")
	assert.ErrorIs(t, err, domain.ErrImageIO)

	_, err = s.Store(testPNG(t), "")
	assert.ErrorIs(t, err, domain.ErrImageIO)
}

func TestStore_ConcurrentKeys(t *testing.T) {
	s := newTestStore(t)
	img := testPNG(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Store(img, CoverKey(string(rune('a'+i))))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestLoad_AbsentCases(t *testing.T) {
	s := newTestStore(t)

	for _, ref := range []string{
		"",
		"https://cdn.example.com/poses/1.jpg",
		"http://example.com/x.jpg",
		filepath.Join(s.Dir(), "missing.jpg"),
	} {
		data, ok, err := s.Load(ref)
		require.NoError(t, err, ref)
		assert.False(t, ok, ref)
		assert.Nil(t, data, ref)
	}
}

func TestLoad_FileURI(t *testing.T) {
	s := newTestStore(t)
	path, err := s.Store(testPNG(t), "uri")
	require.NoError(t, err)

	_, ok, err := s.Load("file://" + path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	path, err := s.Store(testPNG(t), "gone")
	require.NoError(t, err)

	require.NoError(t, s.Delete(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Missing, remote, and empty refs are no-ops
	require.NoError(t, s.Delete(path))
	require.NoError(t, s.Delete("https://example.com/a.jpg"))
	require.NoError(t, s.Delete(""))
}

func TestDelete_OutsideDirIgnored(t *testing.T) {
	s := newTestStore(t)

	outside := filepath.Join(t.TempDir(), "keep.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	require.NoError(t, s.Delete(outside))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestDeleteTemplate(t *testing.T) {
	s := newTestStore(t)
	img := testPNG(t)

	cover, err := s.Store(img, CoverKey("t1"))
	require.NoError(t, err)
	original, err := s.Store(img, OriginalKey("t1"))
	require.NoError(t, err)
	other, err := s.Store(img, CoverKey("t2"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteTemplate("t1"))

	for _, p := range []string{cover, original} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), p)
	}
	_, err = os.Stat(other)
	assert.NoError(t, err)
}

func TestTotalSizeAndClear(t *testing.T) {
	s := newTestStore(t)

	size, err := s.TotalSize()
	require.NoError(t, err)
	assert.Zero(t, size)

	a, err := s.Store(testPNG(t), "a")
	require.NoError(t, err)
	b, err := s.Store(testPNG(t), "b")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(s.Dir(), "temp"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "temp", "x"), []byte("12345"), 0644))

	infoA, err := os.Stat(a)
	require.NoError(t, err)
	infoB, err := os.Stat(b)
	require.NoError(t, err)

	size, err = s.TotalSize()
	require.NoError(t, err)
	assert.Equal(t, infoA.Size()+infoB.Size()+5, size)

	require.NoError(t, s.Clear())

	size, err = s.TotalSize()
	require.NoError(t, err)
	assert.Zero(t, size)

	_, err = os.Stat(s.Dir())
	assert.NoError(t, err, "managed dir itself is kept")
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://a/b.jpg"))
	assert.True(t, IsRemote("HTTP://a/b.jpg"))
	assert.False(t, IsRemote("/var/lib/posekit/a.jpg"))
	assert.False(t, IsRemote("file:///tmp/a.jpg"))
	assert.False(t, IsRemote("relative/a.jpg"))
}

func TestNewStore_Unavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewStore(filepath.Join(blocker, "assets"), log.NullLogger())
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	_, err = NewStore("", log.NullLogger())
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}
