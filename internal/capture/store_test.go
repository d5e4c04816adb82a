package capture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	html     string
	url      string
	shotErrs int
}

func (f *fakeSource) Content() (string, error) { return f.html, nil }
func (f *fakeSource) URL() string              { return f.url }

func (f *fakeSource) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	if f.shotErrs > 0 {
		f.shotErrs--
		return nil, errors.New("page crashed")
	}
	png := []byte("png")
	if len(options) > 0 && options[0].Path != nil {
		if err := os.WriteFile(*options[0].Path, png, 0o644); err != nil {
			return nil, err
		}
	}
	return png, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "create a project in linear", zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestCaptureIfChangedDedup(t *testing.T) {
	s := newTestStore(t)
	src := &fakeSource{html: "<html><body>hello</body></html>", url: "https://example.com"}

	rec, err := s.CaptureIfChanged(src, "goto", false)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Index)

	// Identical content right after: skipped, no index change, no files.
	rec, err = s.CaptureIfChanged(src, "click-submit", false)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 1, s.Summary().TotalStates)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2) // one png, one json

	// Changed content captures again.
	src.html = "<html><body>world</body></html>"
	rec, err = s.CaptureIfChanged(src, "click-submit", false)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.Index)
}

func TestCaptureForceBypassesFingerprint(t *testing.T) {
	s := newTestStore(t)
	src := &fakeSource{html: "<html><body>same</body></html>", url: "https://example.com"}

	rec, err := s.CaptureInitial(src)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "initial", rec.Step)

	rec, err = s.CaptureIfChanged(src, "after-login", true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.Index)
}

func TestIndexMonotonicity(t *testing.T) {
	s := newTestStore(t)
	src := &fakeSource{url: "https://example.com"}

	pages := []string{"<p>a</p>", "<p>a</p>", "<p>b</p>", "<p>c</p>", "<p>c</p>", "<p>a</p>"}
	var indices []int
	for _, html := range pages {
		src.html = html
		rec, err := s.CaptureIfChanged(src, "step", false)
		require.NoError(t, err)
		if rec != nil {
			indices = append(indices, rec.Index)
		}
	}
	// Consecutive repeats suppressed, the non-consecutive repeat of "a" captured.
	assert.Equal(t, []int{1, 2, 3, 4}, indices)

	sum := s.Summary()
	assert.Equal(t, 4, sum.TotalStates)
	for i, rec := range sum.States {
		assert.Equal(t, i+1, rec.Index)
	}
}

func TestCaptureWritesArtifacts(t *testing.T) {
	s := newTestStore(t)
	src := &fakeSource{html: "<html><body>x</body></html>", url: "https://example.com/page"}

	rec, err := s.CaptureIfChanged(src, "goto", false)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "001_goto.png", rec.Screenshot)
	assert.FileExists(t, filepath.Join(s.Dir(), "001_goto.png"))
	assert.FileExists(t, filepath.Join(s.Dir(), "001_goto.json"))
	assert.Equal(t, "https://example.com/page", rec.URL)
	assert.NotEmpty(t, rec.Timestamp)
	assert.NotEmpty(t, s.RunID())
}

func TestFailedScreenshotDoesNotAdvanceCursor(t *testing.T) {
	s := newTestStore(t)
	src := &fakeSource{html: "<html><body>hello</body></html>", url: "https://example.com", shotErrs: 1}

	rec, err := s.CaptureIfChanged(src, "goto", false)
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 0, s.Summary().TotalStates)

	// Same content retried after the failure must still capture, not dedup
	// against a fingerprint that was never persisted.
	rec, err = s.CaptureIfChanged(src, "goto", false)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Index)
	assert.Equal(t, "001_goto.png", rec.Screenshot)

	sum := s.Summary()
	assert.Equal(t, 1, sum.TotalStates)
	assert.Len(t, sum.States, 1)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Create a Project in Linear", "create-a-project-in-linear"},
		{"  search for KSI!! ", "search-for-ksi"},
		{"a---b   c", "a-b-c"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestDOMHashNormalization(t *testing.T) {
	base := DOMHash("<html><body>  hello   world </body></html>")

	// Whitespace differences collapse to the same fingerprint.
	assert.Equal(t, base, DOMHash("<html><body> hello world\n</body></html>"))

	// Script and style bodies do not affect the fingerprint.
	withScript := "<html><script>var x = Math.random();</script><body> hello world </body></html>"
	withStyle := "<html><style>.a{color:red}</style><body> hello world </body></html>"
	assert.Equal(t, base, DOMHash(withScript))
	assert.Equal(t, base, DOMHash(withStyle))

	// Visible content changes do.
	assert.NotEqual(t, base, DOMHash("<html><body>hello there</body></html>"))
}
