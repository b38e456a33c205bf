// Package dataset keeps the feature records of a photo collection up to
// date.
//
// The collection is laid out as <root>/<species>/<photo>. Every photo gets a
// record keyed "<species>/<photo name without extension>". A stored record
// is reused when it is newer than its photo; only what is missing from it is
// computed. Each species is processed by its own goroutine, and a photo that
// fails never stops its siblings.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/leafmetrics/internal/features"
	"github.com/ironsheep/leafmetrics/internal/imaging"
	"github.com/ironsheep/leafmetrics/internal/measure"
	"github.com/ironsheep/leafmetrics/internal/recordstore"
)

// Options tune a Syncer.
type Options struct {
	// Force saves every record even when nothing was recomputed.
	Force bool

	// Workers caps the number of species processed at once; 0 means one
	// goroutine per species.
	Workers int

	// SummaryDir receives <species>.json summaries. Empty disables them.
	SummaryDir string

	Logger zerolog.Logger
}

// Syncer refreshes the records of a photo collection.
type Syncer struct {
	pipeline features.Pipeline
	store    recordstore.Store
	opts     Options
	log      zerolog.Logger
}

// NewSyncer creates a syncer measuring photos with p and persisting to store.
func NewSyncer(p features.Pipeline, store recordstore.Store, opts Options) *Syncer {
	return &Syncer{pipeline: p, store: store, opts: opts, log: opts.Logger}
}

// PhotoResult is the outcome for one photo.
type PhotoResult struct {
	Key      string             `json:"key"`
	Path     string             `json:"path"`
	Reused   bool               `json:"reused"`
	Saved    bool               `json:"saved"`
	Features map[string]float64 `json:"features,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Failed reports whether the photo could not be measured.
func (r PhotoResult) Failed() bool { return r.Error != "" }

// SpeciesReport groups the results of one species directory.
type SpeciesReport struct {
	Species string        `json:"species"`
	Photos  []PhotoResult `json:"photos"`
}

// Report is the outcome of a Sync run, species in lexical order.
type Report struct {
	Species  []SpeciesReport `json:"species"`
	Duration time.Duration   `json:"duration"`
}

// Counts returns the number of photos processed, saved and failed.
func (r *Report) Counts() (photos, saved, failed int) {
	for _, sp := range r.Species {
		for _, p := range sp.Photos {
			photos++
			if p.Saved {
				saved++
			}
			if p.Failed() {
				failed++
			}
		}
	}
	return photos, saved, failed
}

// Sync processes every species directory under root. It returns an error
// only when root cannot be listed or ctx is cancelled; per-photo failures
// are part of the report.
func (s *Syncer) Sync(ctx context.Context, root string) (*Report, error) {
	start := time.Now()
	species, err := listSpecies(root)
	if err != nil {
		return nil, err
	}

	reports := make([]SpeciesReport, len(species))
	var sem chan struct{}
	if s.opts.Workers > 0 {
		sem = make(chan struct{}, s.opts.Workers)
	}

	var wg sync.WaitGroup
	for i, name := range species {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					reports[i] = SpeciesReport{Species: name}
					return
				}
			}
			reports[i] = s.syncSpecies(ctx, root, name)
		}(i, name)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sync interrupted: %w", err)
	}

	report := &Report{Species: reports, Duration: time.Since(start)}
	photos, saved, failed := report.Counts()
	s.log.Info().
		Int("species", len(species)).
		Int("photos", photos).
		Int("saved", saved).
		Int("failed", failed).
		Dur("took", report.Duration).
		Msg("dataset synced")
	return report, nil
}

func listSpecies(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset: %w", err)
	}
	var species []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			species = append(species, e.Name())
		}
	}
	sort.Strings(species)
	return species, nil
}

func (s *Syncer) syncSpecies(ctx context.Context, root, species string) SpeciesReport {
	log := s.log.With().Str("species", species).Logger()
	report := SpeciesReport{Species: species}

	entries, err := os.ReadDir(filepath.Join(root, species))
	if err != nil {
		log.Error().Err(err).Msg("failed to list species")
		return report
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return report
		}
		if e.IsDir() || !imaging.IsPhotoFile(e.Name()) {
			continue
		}
		res := s.syncPhoto(ctx, filepath.Join(root, species, e.Name()), photoKey(species, e.Name()), log)
		if res.Failed() {
			log.Warn().Str("photo", res.Path).Str("error", res.Error).Msg("photo skipped")
		}
		report.Photos = append(report.Photos, res)
	}

	if s.opts.SummaryDir != "" {
		if err := writeSummary(s.opts.SummaryDir, Summarize(report)); err != nil {
			log.Error().Err(err).Msg("failed to write summary")
		}
	}
	log.Info().Int("photos", len(report.Photos)).Msg("species synced")
	return report
}

func photoKey(species, name string) string {
	return species + "/" + strings.TrimSuffix(name, filepath.Ext(name))
}

// syncPhoto measures one photo. Panics inside the pipeline are contained to
// the photo.
func (s *Syncer) syncPhoto(ctx context.Context, path, key string, log zerolog.Logger) (res PhotoResult) {
	res = PhotoResult{Key: key, Path: path}
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	photo, err := imaging.LoadPhoto(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	fs := features.New(photo, s.pipeline, features.WithLogger(log.With().Str("photo", key).Logger()))

	rec, savedAt, err := s.store.Load(ctx, key)
	switch {
	case err == nil && info.ModTime().Before(savedAt):
		if err := fs.LoadPartial(rec); err != nil {
			log.Warn().Err(err).Str("photo", key).Msg("stored record rejected, recomputing")
		} else {
			res.Reused = true
		}
	case err == nil:
		log.Debug().Str("photo", key).Msg("photo newer than its record")
	case errors.Is(err, recordstore.ErrNotFound):
	default:
		log.Warn().Err(err).Str("photo", key).Msg("stored record unreadable, recomputing")
	}

	out, err := fs.ToRecord()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if res.Features, err = fs.GetFeatures(); err != nil {
		res.Error = err.Error()
		return res
	}

	if fs.WasModified() || s.opts.Force {
		if err := s.store.Save(ctx, key, out); err != nil {
			res.Error = fmt.Sprintf("failed to save record: %v", err)
			return res
		}
		res.Saved = true
	}
	return res
}

// FeatureStats describes one feature over a species.
type FeatureStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summary collects the features of every measured photo of a species.
type Summary struct {
	Species  string                  `json:"species"`
	Photos   int                     `json:"photos"`
	Failed   int                     `json:"failed"`
	Features map[string][]float64    `json:"features"`
	Stats    map[string]FeatureStats `json:"stats"`
}

// Summarize builds the summary of a species report. Values are listed in
// photo order.
func Summarize(report SpeciesReport) Summary {
	sum := Summary{
		Species:  report.Species,
		Features: make(map[string][]float64),
		Stats:    make(map[string]FeatureStats),
	}
	for _, p := range report.Photos {
		sum.Photos++
		if p.Failed() {
			sum.Failed++
			continue
		}
		for name, v := range p.Features {
			sum.Features[name] = append(sum.Features[name], v)
		}
	}
	for name, values := range sum.Features {
		mean, std := stat.MeanStdDev(values, nil)
		if len(values) < 2 {
			std = 0
		}
		sum.Stats[name] = FeatureStats{Mean: mean, StdDev: std}
	}
	return sum
}

func writeSummary(dir string, sum Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, sum.Species+".json"), data, 0644)
}

// Clear removes node, and everything derived from it, from every stored
// record. The next Sync recomputes them. Records that cannot be decoded are
// logged and left alone.
func Clear(ctx context.Context, store recordstore.Store, node features.Node, log zerolog.Logger) (int, error) {
	if !features.Valid(node) {
		return 0, &measure.InvalidInputError{What: "node", Err: fmt.Errorf("unknown node %q", node)}
	}
	keys, err := store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	cleared := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return cleared, err
		}
		rec, _, err := store.Load(ctx, key)
		switch {
		case errors.Is(err, measure.ErrInvalidInput):
			log.Warn().Err(err).Str("key", key).Msg("skipping unreadable record")
			continue
		case errors.Is(err, recordstore.ErrNotFound):
			continue
		case err != nil:
			return cleared, err
		}
		out, err := features.ClearRecord(rec, node)
		if err != nil {
			return cleared, err
		}
		if err := store.Save(ctx, key, out); err != nil {
			return cleared, err
		}
		cleared++
	}
	return cleared, nil
}
