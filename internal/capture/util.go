package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	scriptRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	spaceRe   = regexp.MustCompile(`\s+`)
	nonSlugRe = regexp.MustCompile(`[^\w\s-]`)
	dashRe    = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a task description into a folder-safe slug.
func Slugify(text string) string {
	text = strings.ToLower(text)
	text = nonSlugRe.ReplaceAllString(text, "")
	text = dashRe.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}

// DOMHash fingerprints normalized markup. Script and style bodies mutate
// without affecting visible state, so they are stripped before hashing.
func DOMHash(html string) string {
	html = scriptRe.ReplaceAllString(html, "")
	html = styleRe.ReplaceAllString(html, "")
	normalized := spaceRe.ReplaceAllString(strings.TrimSpace(html), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
