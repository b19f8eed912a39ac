package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clinsights/pubscreen/internal/model"
)

type stubSearcher struct {
	pubs   map[string][]model.Publication
	errs   map[string]error
	delays map[string]time.Duration
}

func (s *stubSearcher) Search(_ context.Context, r model.Researcher) ([]model.Publication, error) {
	if d := s.delays[r.Key()]; d > 0 {
		time.Sleep(d)
	}
	if err := s.errs[r.Key()]; err != nil {
		return nil, err
	}
	return s.pubs[r.Key()], nil
}

type stubExtractor struct {
	results map[string]model.ExtractionResult
	failOn  map[string]error
}

func (e *stubExtractor) Extract(_ context.Context, pub model.Publication) (model.ExtractionResult, error) {
	if err := e.failOn[pub.ID]; err != nil {
		return model.ExtractionResult{}, err
	}
	return e.results[pub.ID], nil
}

func testConfig(workers int) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Concurrency.Workers = workers
	return cfg
}

func TestPipeline_Run_BuildsFlaggedRecord(t *testing.T) {
	researcher := model.Researcher{LastName: "Zhang", FirstName: "Wei"}
	searcher := &stubSearcher{
		pubs: map[string][]model.Publication{
			researcher.Key(): {{ID: "111", Title: "Gene therapy", Journal: "Nature Medicine"}},
		},
	}
	extractor := &stubExtractor{
		results: map[string]model.ExtractionResult{
			"111": {Countries: []string{"China"}},
		},
	}

	p := New(searcher, extractor, testConfig(1), nil)
	rep, err := p.Run(context.Background(), []model.Researcher{researcher})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rep.RunID == "" {
		t.Error("Expected a run ID")
	}
	if rep.HostInstitution != "Boston Children's Hospital" {
		t.Errorf("Expected host institution, got %q", rep.HostInstitution)
	}
	if len(rep.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(rep.Records))
	}

	rec := rep.Records[0]
	if !rec.Flagged {
		t.Error("Expected flagged record")
	}
	if len(rec.FlaggedCountries) != 1 || rec.FlaggedCountries[0] != "China" {
		t.Errorf("Expected flagged countries [China], got %v", rec.FlaggedCountries)
	}
	if rec.ConfidenceScore != 6 {
		t.Errorf("Expected confidence 6, got %d", rec.ConfidenceScore)
	}
	if rec.AuthorName != "Wei Zhang" {
		t.Errorf("Expected author Wei Zhang, got %q", rec.AuthorName)
	}
	if rec.PublicationName != "Nature Medicine" {
		t.Errorf("Expected publication Nature Medicine, got %q", rec.PublicationName)
	}

	if len(rep.Researchers) != 1 {
		t.Fatalf("Expected 1 researcher outcome, got %d", len(rep.Researchers))
	}
	outcome := rep.Researchers[0]
	if outcome.Status != model.ResearcherDone {
		t.Errorf("Expected status done, got %s", outcome.Status)
	}
	if outcome.Publications != 1 || outcome.Records != 1 {
		t.Errorf("Expected 1 publication and 1 record, got %d/%d", outcome.Publications, outcome.Records)
	}
}

func TestPipeline_Run_IsolatesExtractionFailures(t *testing.T) {
	first := model.Researcher{LastName: "Zhang", FirstName: "Wei"}
	second := model.Researcher{LastName: "Ivanova", FirstName: "Maria"}

	searcher := &stubSearcher{
		pubs: map[string][]model.Publication{
			first.Key(): {
				{ID: "1", Title: "One"},
				{ID: "2", Title: "Two"},
				{ID: "3", Title: "Three"},
			},
			second.Key(): {{ID: "4", Title: "Four"}},
		},
	}
	extractor := &stubExtractor{
		results: map[string]model.ExtractionResult{
			"1": {Countries: []string{"France"}},
			"3": {},
			"4": {Countries: []string{"Russia"}},
		},
		failOn: map[string]error{
			"2": errors.New("model overloaded"),
		},
	}

	p := New(searcher, extractor, testConfig(1), nil)
	rep, err := p.Run(context.Background(), []model.Researcher{first, second})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(rep.Records) != 3 {
		t.Fatalf("Expected 3 records (failed publication excluded), got %d", len(rep.Records))
	}
	if rep.Records[0].ResearchTitle != "One" || rep.Records[1].ResearchTitle != "Three" {
		t.Errorf("Expected records One and Three for first researcher, got %q and %q",
			rep.Records[0].ResearchTitle, rep.Records[1].ResearchTitle)
	}
	if rep.Records[2].ResearchTitle != "Four" {
		t.Errorf("Expected next researcher still processed, got %q", rep.Records[2].ResearchTitle)
	}

	outcome := rep.Researchers[0]
	if outcome.Status != model.ResearcherDone {
		t.Errorf("Expected first researcher done despite failure, got %s", outcome.Status)
	}
	if len(outcome.Failures) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(outcome.Failures))
	}
	if outcome.Failures[0].Title != "Two" || outcome.Failures[0].PublicationID != "2" {
		t.Errorf("Expected failure for publication Two, got %+v", outcome.Failures[0])
	}
	if rep.TotalFailures() != 1 {
		t.Errorf("Expected 1 total failure, got %d", rep.TotalFailures())
	}
}

func TestPipeline_Run_SkipsResearcherOnSearchFailure(t *testing.T) {
	broken := model.Researcher{LastName: "Okafor", FirstName: "Chidi"}
	healthy := model.Researcher{LastName: "Zhang", FirstName: "Wei"}

	searcher := &stubSearcher{
		pubs: map[string][]model.Publication{
			healthy.Key(): {{ID: "1", Title: "One"}},
		},
		errs: map[string]error{
			broken.Key(): errors.New("publication search unavailable: status 503"),
		},
	}
	extractor := &stubExtractor{
		results: map[string]model.ExtractionResult{"1": {}},
	}

	p := New(searcher, extractor, testConfig(1), nil)
	rep, err := p.Run(context.Background(), []model.Researcher{broken, healthy})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	skipped := rep.Researchers[0]
	if skipped.Status != model.ResearcherSkippedNoPub {
		t.Errorf("Expected skipped status, got %s", skipped.Status)
	}
	if skipped.SkipReason == "" {
		t.Error("Expected a skip reason")
	}
	if skipped.Records != 0 {
		t.Errorf("Expected no records for skipped researcher, got %d", skipped.Records)
	}

	if len(rep.Records) != 1 {
		t.Fatalf("Expected run to continue past the failure, got %d records", len(rep.Records))
	}
	if rep.Researchers[1].Status != model.ResearcherDone {
		t.Errorf("Expected second researcher done, got %s", rep.Researchers[1].Status)
	}
}

func TestPipeline_Run_SkipsResearcherWithoutPublications(t *testing.T) {
	researcher := model.Researcher{LastName: "Quiet", FirstName: "Rae"}
	searcher := &stubSearcher{}
	extractor := &stubExtractor{}

	p := New(searcher, extractor, testConfig(1), nil)
	rep, err := p.Run(context.Background(), []model.Researcher{researcher})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	outcome := rep.Researchers[0]
	if outcome.Status != model.ResearcherSkippedNoPub {
		t.Errorf("Expected skipped status, got %s", outcome.Status)
	}
	if outcome.SkipReason != "no publications found" {
		t.Errorf("Expected no-publications reason, got %q", outcome.SkipReason)
	}
	if len(rep.Records) != 0 {
		t.Errorf("Expected no records, got %d", len(rep.Records))
	}
}

func TestPipeline_Run_ConcurrentKeepsRosterOrder(t *testing.T) {
	researchers := make([]model.Researcher, 6)
	searcher := &stubSearcher{
		pubs:   make(map[string][]model.Publication),
		delays: make(map[string]time.Duration),
	}
	extractor := &stubExtractor{results: make(map[string]model.ExtractionResult)}

	for i := range researchers {
		researchers[i] = model.Researcher{LastName: fmt.Sprintf("Last%d", i), FirstName: "A"}
		id := fmt.Sprintf("pub-%d", i)
		searcher.pubs[researchers[i].Key()] = []model.Publication{{ID: id, Title: id}}
		// Earlier researchers finish last
		searcher.delays[researchers[i].Key()] = time.Duration(len(researchers)-i) * 10 * time.Millisecond
		extractor.results[id] = model.ExtractionResult{}
	}

	p := New(searcher, extractor, testConfig(4), nil)
	rep, err := p.Run(context.Background(), researchers)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(rep.Records) != len(researchers) {
		t.Fatalf("Expected %d records, got %d", len(researchers), len(rep.Records))
	}
	for i, rec := range rep.Records {
		want := fmt.Sprintf("pub-%d", i)
		if rec.ResearchTitle != want {
			t.Errorf("Record %d: expected %s, got %s", i, want, rec.ResearchTitle)
		}
	}
	for i, outcome := range rep.Researchers {
		if outcome.Researcher.Key() != researchers[i].Key() {
			t.Errorf("Outcome %d: expected %s, got %s", i, researchers[i].Key(), outcome.Researcher.Key())
		}
	}
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	searcher := &stubSearcher{pubs: map[string][]model.Publication{}}
	extractor := &stubExtractor{}

	p := New(searcher, extractor, testConfig(2), nil)
	_, err := p.Run(ctx, []model.Researcher{{LastName: "Zhang", FirstName: "Wei"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPipeline_Run_EmptyRoster(t *testing.T) {
	p := New(&stubSearcher{}, &stubExtractor{}, testConfig(1), nil)
	rep, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rep.Records) != 0 || len(rep.Researchers) != 0 {
		t.Errorf("Expected empty report, got %d records / %d researchers", len(rep.Records), len(rep.Researchers))
	}
	if rep.RunID == "" {
		t.Error("Expected a run ID even for an empty roster")
	}
}
