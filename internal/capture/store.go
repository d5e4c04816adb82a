package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

// Source is the slice of a live page the store needs to capture a state.
// playwright.Page satisfies it.
type Source interface {
	Content() (string, error)
	URL() string
	Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error)
}

// Record is one persisted captured state. The JSON file sits next to the
// screenshot it references, both keyed by zero-padded index and step label.
type Record struct {
	Index      int    `json:"index"`
	URL        string `json:"url"`
	Timestamp  string `json:"timestamp"`
	DOMHash    string `json:"dom_hash"`
	Step       string `json:"step"`
	Screenshot string `json:"screenshot"`
}

// Summary describes a whole run of captures.
type Summary struct {
	RunID       string   `json:"run_id"`
	TaskSlug    string   `json:"task_slug"`
	TotalStates int      `json:"total_states"`
	Dir         string   `json:"dir"`
	States      []Record `json:"states"`
}

// Store decides after each action whether the page changed since the last
// capture, and persists screenshot plus metadata when it did. Records are
// append-only; the index advances only on an actual capture.
type Store struct {
	runID    string
	taskSlug string
	dir      string
	index    int
	lastHash string
	records  []Record
	logger   zerolog.Logger
}

func NewStore(datasetRoot, task string, logger zerolog.Logger) (*Store, error) {
	slug := Slugify(task)
	if slug == "" {
		slug = "task"
	}
	dir := filepath.Join(datasetRoot, slug)
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("create task dir: %w", err)
	}
	return &Store{
		runID:    uuid.NewString(),
		taskSlug: slug,
		dir:      dir,
		logger:   logger,
	}, nil
}

func (s *Store) RunID() string { return s.runID }
func (s *Store) Dir() string   { return s.dir }

// CaptureIfChanged compares the page fingerprint against the immediately
// preceding capture and persists a new state when it differs. force bypasses
// the comparison (initial and post-login states). A skip returns (nil, nil);
// it is an event, not an error.
func (s *Store) CaptureIfChanged(src Source, step string, force bool) (*Record, error) {
	html, err := src.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	hash := DOMHash(html)

	if !force && hash == s.lastHash {
		s.logger.Debug().Str("step", step).Msg("no change detected, skipping capture")
		return nil, nil
	}

	// Persist first; the cursor advances only once the pair is on disk,
	// so a failed capture leaves the state eligible for the next attempt.
	next := s.index + 1
	shotName := fmt.Sprintf("%03d_%s.png", next, step)
	shotPath := filepath.Join(s.dir, shotName)
	if _, err := src.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(shotPath),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	rec := Record{
		Index:      next,
		URL:        src.URL(),
		Timestamp:  timestamp(),
		DOMHash:    hash,
		Step:       step,
		Screenshot: shotName,
	}
	if err := s.writeMetadata(rec); err != nil {
		return nil, err
	}
	s.lastHash = hash
	s.index = next
	s.records = append(s.records, rec)

	s.logger.Info().
		Int("index", rec.Index).
		Str("step", step).
		Str("hash", hash[:16]).
		Msg("captured state")
	return &rec, nil
}

// CaptureInitial records the state before any action runs.
func (s *Store) CaptureInitial(src Source) (*Record, error) {
	return s.CaptureIfChanged(src, "initial", true)
}

func (s *Store) writeMetadata(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	name := fmt.Sprintf("%03d_%s.json", rec.Index, rec.Step)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func (s *Store) Summary() Summary {
	return Summary{
		RunID:       s.runID,
		TaskSlug:    s.taskSlug,
		TotalStates: len(s.records),
		Dir:         s.dir,
		States:      append([]Record(nil), s.records...),
	}
}
