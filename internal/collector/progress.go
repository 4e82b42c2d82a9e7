package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// progressVersion is the schema version written to progress files.
const progressVersion = 1

// Progress is the durable record of a collection run. It is loaded at
// batch start and rewritten after every processed artist, so an
// interrupted run resumes where it left off. Names, not ids, key the
// sets: discovery happens before an artist exists locally.
type Progress struct {
	Version       int       `json:"version"`
	Completed     []string  `json:"completed"`
	Failed        []string  `json:"failed"`
	Discovered    []string  `json:"discovered"`
	StartedAt     time.Time `json:"startedAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`

	completed  map[string]bool
	failed     map[string]bool
	discovered map[string]bool
}

// NewProgress returns an empty record stamped with the current time.
func NewProgress() *Progress {
	p := &Progress{
		Version:    progressVersion,
		Completed:  []string{},
		Failed:     []string{},
		Discovered: []string{},
		StartedAt:  time.Now().UTC(),
	}
	p.index()
	return p
}

// LoadProgress reads the record at path, or returns a fresh one when the
// file does not exist.
func LoadProgress(path string) (*Progress, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewProgress(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading progress file: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing progress file: %w", err)
	}
	if p.Version > progressVersion {
		return nil, fmt.Errorf("progress file version %d is newer than supported version %d", p.Version, progressVersion)
	}
	p.Version = progressVersion
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now().UTC()
	}
	p.index()
	return &p, nil
}

// Save writes the record to path atomically: the JSON goes to a temp file
// in the same directory first, then replaces the target with a rename, so
// a crash mid-write never leaves a truncated record behind. The update
// timestamp is refreshed before writing.
func (p *Progress) Save(path string) error {
	p.LastUpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating progress directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".progress-*.json")
	if err != nil {
		return fmt.Errorf("creating temp progress file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()         //nolint:errcheck
		os.Remove(tmpName)  //nolint:errcheck
		return fmt.Errorf("writing progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("closing temp progress file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("replacing progress file: %w", err)
	}
	return nil
}

// MarkCompleted appends name to the completed set.
func (p *Progress) MarkCompleted(name string) {
	if !p.completed[name] {
		p.completed[name] = true
		p.Completed = append(p.Completed, name)
	}
}

// MarkFailed appends name to the failed set.
func (p *Progress) MarkFailed(name string) {
	if !p.failed[name] {
		p.failed[name] = true
		p.Failed = append(p.Failed, name)
	}
}

// MarkDiscovered appends name to the discovered set.
func (p *Progress) MarkDiscovered(name string) {
	if !p.discovered[name] {
		p.discovered[name] = true
		p.Discovered = append(p.Discovered, name)
	}
}

// IsCompleted reports whether name has already been processed.
func (p *Progress) IsCompleted(name string) bool { return p.completed[name] }

// IsFailed reports whether name already failed.
func (p *Progress) IsFailed(name string) bool { return p.failed[name] }

// IsDiscovered reports whether name is already in the discovered set.
func (p *Progress) IsDiscovered(name string) bool { return p.discovered[name] }

func (p *Progress) index() {
	p.completed = toSet(p.Completed)
	p.failed = toSet(p.Failed)
	p.discovered = toSet(p.Discovered)
	if p.Completed == nil {
		p.Completed = []string{}
	}
	if p.Failed == nil {
		p.Failed = []string{}
	}
	if p.Discovered == nil {
		p.Discovered = []string{}
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
