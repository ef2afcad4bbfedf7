// Package pipeline runs one collection pass: gate, fetch, validate, extract,
// persist. Each step is chained through the result type, so the first
// failure short-circuits the rest and surfaces as a single reported outcome.
// A run is synchronous and never retries; the next scheduled invocation is
// the retry.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minsoo-dev/libcrowd/archive"
	"github.com/minsoo-dev/libcrowd/config"
	"github.com/minsoo-dev/libcrowd/extract"
	"github.com/minsoo-dev/libcrowd/fetch"
	"github.com/minsoo-dev/libcrowd/gate"
	"github.com/minsoo-dev/libcrowd/models"
	"github.com/minsoo-dev/libcrowd/parser"
	"github.com/minsoo-dev/libcrowd/result"
	"github.com/minsoo-dev/libcrowd/store"
)

// seenCacheSize bounds the duplicate-suppression window. At a dozen pins per
// fetch and one fetch per 15 minutes this covers several weeks of runs.
const seenCacheSize = 4096

// Collector wires the pipeline steps together for repeated runs.
type Collector struct {
	cfg     *config.Config
	gate    *gate.Gate
	client  *fetch.Client
	store   store.Store
	seen    *lru.Cache[string, struct{}]
	Metrics *Metrics
}

// NewCollector builds a collector around an admission gate, a fetch client,
// and a persistence backend.
func NewCollector(cfg *config.Config, g *gate.Gate, client *fetch.Client, st store.Store) (*Collector, error) {
	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, err
	}
	return &Collector{
		cfg:     cfg,
		gate:    g,
		client:  client,
		store:   st,
		seen:    seen,
		Metrics: NewMetrics(),
	}, nil
}

// Run executes one pass and reports its terminal outcome. Expected failure
// modes never panic out of Run; they land in the report.
func (c *Collector) Run(ctx context.Context) *models.RunReport {
	report := &models.RunReport{StartTime: time.Now()}
	defer func() { report.EndTime = time.Now() }()

	if err := c.gate.Open(); err != nil {
		report.Outcome = OutcomeSkipped
		report.Err = err
		c.Metrics.IncWindowSkipped()
		c.Metrics.IncRun(OutcomeSkipped)
		slog.Debug("operating window closed", slog.Any("reason", err))
		return report
	}

	fetchStart := time.Now()
	fetched := c.client.Fetch(ctx)
	c.Metrics.ObserveFetch(time.Since(fetchStart))

	if fr, err := fetched.Unpack(); err == nil {
		report.StatusCode = fr.StatusCode
		c.archivePage(fr)
	}

	validated := result.Bind(fetched, fetch.Validate)
	extracted := result.Bind(validated, func(fr models.FetchResult) result.Result[[]*models.Reading] {
		return extract.Readings(fr.RawContent, fr.Timestamp)
	})
	prepared := result.Map(extracted, func(readings []*models.Reading) []*models.Reading {
		kept, dropped := c.prepare(readings)
		report.ReadingCount = len(readings)
		report.Duplicates = dropped
		return kept
	})
	saved := store.SaveResult(ctx, c.store, prepared)

	rows, err := saved.Unpack()
	if err != nil {
		report.Err = err
		report.Outcome = outcomeLabel(err)
		c.Metrics.IncError(report.Outcome)
		c.Metrics.IncRun(report.Outcome)
		slog.Error("run failed",
			slog.String("outcome", report.Outcome),
			slog.Int("status", report.StatusCode),
			slog.Any("error", err),
		)
		return report
	}

	report.RowsAppended = rows
	report.Outcome = OutcomeOK
	c.Metrics.AddReadings(report.ReadingCount)
	c.Metrics.AddRows(rows)
	c.Metrics.AddDuplicates(report.Duplicates)
	c.Metrics.IncRun(OutcomeOK)
	slog.Info("run complete",
		slog.Int("readings", report.ReadingCount),
		slog.Int("rows", report.RowsAppended),
		slog.Int("duplicates", report.Duplicates),
	)
	return report
}

// prepare validates and normalizes extracted readings and drops ones whose
// key was already persisted by a recent run.
func (c *Collector) prepare(readings []*models.Reading) (kept []*models.Reading, dropped int) {
	for _, r := range readings {
		if err := parser.ValidateReading(r); err != nil {
			slog.Warn("invalid reading dropped", slog.Any("error", err))
			continue
		}
		r.Floor = parser.NormalizeFloor(r.Floor)
		r.Location = parser.NormalizeLocation(r.Location)
		r.StatusLevel = parser.StatusLevel(r.Status)

		if _, seen := c.seen.Get(r.Key()); seen {
			dropped++
			continue
		}
		c.seen.Add(r.Key(), struct{}{})
		kept = append(kept, r)
	}
	return kept, dropped
}

func (c *Collector) archivePage(fr models.FetchResult) {
	if c.cfg.ArchiveDir == "" {
		return
	}
	path, err := archive.SavePage(c.cfg.ArchiveDir, fr)
	if err != nil {
		slog.Error("archive page", slog.Any("error", err))
		return
	}
	slog.Debug("page archived", slog.String("path", path))
}
