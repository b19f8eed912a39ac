package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clinsights/pubscreen/internal/model"
	"github.com/clinsights/pubscreen/internal/report"
	"github.com/clinsights/pubscreen/internal/score"
	"github.com/clinsights/pubscreen/internal/watchlist"
	"github.com/clinsights/pubscreen/internal/worker"
)

// Searcher finds publications for one researcher. A failed search must
// return an error, never fabricated publications.
type Searcher interface {
	Search(ctx context.Context, r model.Researcher) ([]model.Publication, error)
}

// Extractor derives structured entities from one publication
type Extractor interface {
	Extract(ctx context.Context, pub model.Publication) (model.ExtractionResult, error)
}

// Pipeline orchestrates the complete analysis: roster → publications →
// extraction → watch-list matching → scoring → disclosure records.
type Pipeline struct {
	searcher  Searcher
	extractor Extractor
	matcher   *watchlist.Matcher
	scorer    *score.Scorer
	builder   *report.Builder
	host      string
	workers   int
	logger    *slog.Logger
}

// New creates a pipeline from already-wired providers and configuration
func New(searcher Searcher, extractor Extractor, cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	workers := cfg.Concurrency.Workers
	if workers < 1 {
		workers = 1
	}

	return &Pipeline{
		searcher:  searcher,
		extractor: extractor,
		matcher:   watchlist.NewMatcher(&cfg.Watchlist),
		scorer:    score.NewScorer(),
		builder:   report.NewBuilder(cfg.Host.Institution),
		host:      cfg.Host.Institution,
		workers:   workers,
		logger:    logger,
	}
}

// researcherResult pairs one researcher's outcome with the records it
// produced. Each concurrent slot owns exactly one; the merge at the end
// restores roster order.
type researcherResult struct {
	outcome model.ResearcherOutcome
	records []model.DisclosureRecord
}

// Run processes the roster and returns the complete report. Researchers
// run concurrently when workers > 1; records are always emitted in
// (roster order, publication order) so repeated runs are comparable.
func (p *Pipeline) Run(ctx context.Context, researchers []model.Researcher) (*model.RunReport, error) {
	started := time.Now().UTC()
	runID := ulid.Make().String()

	p.logger.Info("run started",
		slog.String("run_id", runID),
		slog.Int("researchers", len(researchers)),
		slog.Int("workers", p.workers))

	results := make([]researcherResult, len(researchers))
	err := worker.RunIndexed(ctx, len(researchers), p.workers, func(ctx context.Context, i int) {
		results[i] = p.processResearcher(ctx, researchers[i])
	})
	if err != nil {
		return nil, err
	}

	rep := &model.RunReport{
		RunID:           runID,
		StartedAt:       started,
		FinishedAt:      time.Now().UTC(),
		HostInstitution: p.host,
		Researchers:     make([]model.ResearcherOutcome, 0, len(results)),
	}
	for _, res := range results {
		rep.Researchers = append(rep.Researchers, res.outcome)
		rep.Records = append(rep.Records, res.records...)
	}

	p.logger.Info("run finished",
		slog.String("run_id", runID),
		slog.Int("records", len(rep.Records)),
		slog.Int("flagged", rep.FlaggedRecords()),
		slog.Int("failures", rep.TotalFailures()),
		slog.Duration("elapsed", rep.FinishedAt.Sub(rep.StartedAt)))

	return rep, nil
}

// processResearcher walks one researcher through the state machine. A
// failed or empty publication search skips the researcher; it never
// aborts the run.
func (p *Pipeline) processResearcher(ctx context.Context, r model.Researcher) researcherResult {
	log := p.logger.With(slog.String("researcher", r.DisplayName()))

	outcome := model.ResearcherOutcome{Researcher: r, Status: model.ResearcherPending}

	outcome.Status = model.ResearcherFetching
	log.Info("fetching publications")

	pubs, err := p.searcher.Search(ctx, r)
	if err != nil {
		log.Warn("publication search failed", slog.String("error", err.Error()))
		outcome.Status = model.ResearcherSkippedNoPub
		outcome.SkipReason = err.Error()
		return researcherResult{outcome: outcome}
	}

	outcome.Publications = len(pubs)
	if len(pubs) == 0 {
		log.Info("no publications found")
		outcome.Status = model.ResearcherSkippedNoPub
		outcome.SkipReason = "no publications found"
		return researcherResult{outcome: outcome}
	}

	outcome.Status = model.ResearcherProcessing
	log.Info("processing publications", slog.Int("count", len(pubs)))

	var records []model.DisclosureRecord
	for _, pub := range pubs {
		rec, failure := p.processPublication(ctx, r, pub, log)
		if failure != nil {
			outcome.Failures = append(outcome.Failures, *failure)
			continue
		}
		records = append(records, rec)
	}

	outcome.Records = len(records)
	outcome.Status = model.ResearcherDone
	return researcherResult{outcome: outcome, records: records}
}

// processPublication runs extraction, matching and scoring for one
// publication. Failures are isolated: the publication is reported as
// FAILED and the caller moves on.
func (p *Pipeline) processPublication(ctx context.Context, r model.Researcher, pub model.Publication, log *slog.Logger) (model.DisclosureRecord, *model.PublicationFailure) {
	log = log.With(slog.String("publication", pub.Title))
	if !pub.HasContent() {
		log.Debug("publication carries only a title")
	}
	log.Debug("publication state", slog.String("state", string(model.PublicationExtracting)))

	extraction, err := p.extractor.Extract(ctx, pub)
	if err != nil {
		log.Warn("extraction failed",
			slog.String("state", string(model.PublicationFailed)),
			slog.String("error", err.Error()))
		return model.DisclosureRecord{}, &model.PublicationFailure{
			PublicationID: pub.ID,
			Title:         pub.Title,
			Error:         err.Error(),
		}
	}

	log.Debug("publication state", slog.String("state", string(model.PublicationScoring)))
	flagged := p.matcher.Match(extraction.Countries)
	confidence := p.scorer.Score(extraction, flagged)

	rec := p.builder.Build(r, pub, extraction, flagged, confidence)
	log.Info("publication recorded",
		slog.String("state", string(model.PublicationRecorded)),
		slog.Bool("flagged", rec.Flagged),
		slog.Int("confidence", confidence))
	return rec, nil
}
