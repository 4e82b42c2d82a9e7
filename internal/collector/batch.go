package collector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sydlexius/melisma/internal/provider"
)

// defaultSeeds is the starter queue used when no seeds file is configured.
var defaultSeeds = []string{
	"Radiohead",
	"Thom Yorke",
	"Portishead",
	"Massive Attack",
	"Aphex Twin",
	"Boards of Canada",
	"Björk",
	"PJ Harvey",
	"Sigur Rós",
	"Godspeed You! Black Emperor",
}

// BatchOptions configures one collection run.
type BatchOptions struct {
	// Follow pushes related-artist names discovered during reconciliation
	// onto the queue.
	Follow bool
	// Max caps how many artists are processed; zero means no cap.
	Max int
	// Reset discards any saved progress before the run.
	Reset bool
	// Similar switches ingestion to the similarity source.
	Similar bool
	// Seeds overrides the default seed list.
	Seeds []string
	// Pace is the delay between artists.
	Pace time.Duration
	// ProgressPath is where the durable progress record lives.
	ProgressPath string
}

// Summary reports the aggregate outcome of a batch run.
type Summary struct {
	Processed    int
	Created      int
	Skipped      int
	Existing     int
	Failed       int
	Errors       []string
	Elapsed      time.Duration
	TotalArtists int
	TotalEdges   int
	TopConnected []TopEntry
}

// TopEntry is one line of the most-connected listing in a batch summary.
type TopEntry struct {
	Name        string
	Connections int
}

// LoadSeeds reads one artist name per line from path, ignoring blank
// lines and lines starting with '#'.
func LoadSeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seeds file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var seeds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading seeds file: %w", err)
	}
	return seeds, nil
}

// RunBatch processes a queue of artist names through resolution,
// enrichment and reconciliation, saving progress after every item so an
// interrupted run resumes cleanly. Per-artist failures are recorded and
// the run continues; a storage failure aborts immediately.
func (s *Service) RunBatch(ctx context.Context, opts BatchOptions) (*Summary, error) {
	start := time.Now()

	progress, err := s.loadProgress(opts)
	if err != nil {
		return nil, err
	}

	seeds := opts.Seeds
	if len(seeds) == 0 {
		seeds = defaultSeeds
	}

	queue, err := s.buildQueue(ctx, seeds, progress, opts.Follow)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	queued := toSet(queue)

	for len(queue) > 0 {
		if opts.Max > 0 && summary.Processed >= opts.Max {
			s.logger.Info("reached processing cap", slog.Int("max", opts.Max))
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := queue[0]
		queue = queue[1:]

		result, err := s.collectOne(ctx, name, opts.Similar)
		if err != nil {
			var storageErr *ErrStorage
			if errors.As(err, &storageErr) {
				return nil, err
			}
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", name, err))
			progress.MarkFailed(name)
			s.logger.Warn("artist failed", slog.String("name", name), slog.String("error", err.Error()))
		} else {
			summary.Created += result.Reconcile.Created
			summary.Skipped += result.Reconcile.Skipped
			summary.Existing += result.Reconcile.Existing
			progress.MarkCompleted(name)

			if opts.Follow {
				added := s.enqueueDiscovered(ctx, result.Reconcile.SkippedNames, progress, queued, &queue)
				if added > 0 {
					s.logger.Info("discovered related artists", slog.Int("count", added))
				}
			}
		}
		summary.Processed++

		if err := progress.Save(opts.ProgressPath); err != nil {
			return nil, &ErrStorage{Op: "progress save", Err: err}
		}

		perItem := time.Since(start) / time.Duration(summary.Processed)
		remaining := len(queue)
		if opts.Max > 0 && opts.Max-summary.Processed < remaining {
			remaining = opts.Max - summary.Processed
		}
		s.logger.Info("batch progress",
			slog.Int("processed", summary.Processed),
			slog.Int("remaining", remaining),
			slog.Duration("eta", perItem*time.Duration(remaining)))

		if opts.Pace > 0 && len(queue) > 0 {
			if err := sleepCtx(ctx, opts.Pace); err != nil {
				return nil, err
			}
		}
	}

	summary.Elapsed = time.Since(start)

	summary.TotalArtists, summary.TotalEdges, err = s.artists.Counts(ctx)
	if err != nil {
		return nil, &ErrStorage{Op: "database totals", Err: err}
	}

	top, err := s.artists.TopConnected(ctx, 5)
	if err != nil {
		return nil, &ErrStorage{Op: "top connected listing", Err: err}
	}
	for _, t := range top {
		summary.TopConnected = append(summary.TopConnected, TopEntry{Name: t.Name, Connections: t.Connections})
	}

	return summary, nil
}

func (s *Service) collectOne(ctx context.Context, name string, similar bool) (*CollectResult, error) {
	if similar {
		return s.CollectSimilar(ctx, name)
	}
	return s.CollectArtist(ctx, name)
}

func (s *Service) loadProgress(opts BatchOptions) (*Progress, error) {
	if opts.Reset {
		if err := os.Remove(opts.ProgressPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, &ErrStorage{Op: "progress reset", Err: err}
		}
		return NewProgress(), nil
	}
	progress, err := LoadProgress(opts.ProgressPath)
	if err != nil {
		return nil, &ErrStorage{Op: "progress load", Err: err}
	}
	return progress, nil
}

// buildQueue filters the seed list down to names not yet completed or
// failed and not already present locally. The local check matches display
// names case-insensitively. When follow is set, names discovered by an
// earlier interrupted run are appended after the seeds so a resume picks
// them back up.
func (s *Service) buildQueue(ctx context.Context, seeds []string, progress *Progress, follow bool) ([]string, error) {
	candidates := seeds
	if follow {
		candidates = append(append([]string{}, seeds...), progress.Discovered...)
	}

	var queue []string
	queued := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		if queued[name] || progress.IsCompleted(name) || progress.IsFailed(name) {
			continue
		}
		existing, err := s.artists.GetByName(ctx, name)
		if err != nil {
			return nil, &ErrStorage{Op: "seed lookup", Err: err}
		}
		if existing != nil {
			continue
		}
		queued[name] = true
		queue = append(queue, name)
	}
	return queue, nil
}

// enqueueDiscovered appends unseen relation targets to the queue and
// records them in the progress file.
func (s *Service) enqueueDiscovered(ctx context.Context, names []string, progress *Progress, queued map[string]bool, queue *[]string) int {
	added := 0
	for _, name := range names {
		if queued[name] || progress.IsCompleted(name) || progress.IsFailed(name) {
			continue
		}
		existing, err := s.artists.GetByName(ctx, name)
		if err != nil {
			s.logger.Warn("discovery lookup failed", slog.String("name", name), slog.String("error", err.Error()))
			continue
		}
		if existing != nil {
			continue
		}
		queued[name] = true
		progress.MarkDiscovered(name)
		*queue = append(*queue, name)
		added++
	}
	return added
}

// FormatSummary renders a batch summary for console output.
func FormatSummary(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d artists in %s\n", s.Processed, s.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "  relations created:  %d\n", s.Created)
	fmt.Fprintf(&b, "  relations existing: %d\n", s.Existing)
	fmt.Fprintf(&b, "  targets skipped:    %d\n", s.Skipped)
	fmt.Fprintf(&b, "  failures:           %d\n", s.Failed)
	for _, msg := range s.Errors {
		fmt.Fprintf(&b, "    %s\n", msg)
	}
	fmt.Fprintf(&b, "Database: %d artists, %d relations\n", s.TotalArtists, s.TotalEdges)
	if len(s.TopConnected) > 0 {
		b.WriteString("Most connected:\n")
		for _, t := range s.TopConnected {
			fmt.Fprintf(&b, "  %-30s %d\n", t.Name, t.Connections)
		}
	}
	return b.String()
}

// ProviderSources lists the upstream sources a batch run touches, for
// startup logging.
func ProviderSources(similar bool) []string {
	if similar {
		return []string{provider.NameMusicBrainz.DisplayName(), provider.NameLastFM.DisplayName()}
	}
	return []string{provider.NameMusicBrainz.DisplayName(), provider.NameWikidata.DisplayName()}
}
