package cli

import (
	"context"
	"time"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// Stub services for command tests.

type stubIngester struct {
	report *domain.IngestReport
	err    error
	paths  []string
}

func (s *stubIngester) IngestPaths(_ context.Context, paths []string) (*domain.IngestReport, error) {
	s.paths = paths
	if s.report == nil {
		s.report = domain.NewIngestReport()
	}
	return s.report, s.err
}

type stubIndexer struct {
	unembedded int
	err        error
	called     bool
}

func (s *stubIndexer) BuildIndexes(_ context.Context) (int, error) {
	s.called = true
	return s.unembedded, s.err
}

type stubRetriever struct {
	results []domain.RetrievedChunk
	err     error
	query   string
	opts    domain.RetrieveOptions
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievedChunk, error) {
	s.query = query
	s.opts = opts
	return s.results, s.err
}

type stubCurated struct {
	examples []domain.CuratedExample
	added    []domain.CuratedExample
	scored   map[string]int
	err      error
}

func (s *stubCurated) Add(_ context.Context, example domain.CuratedExample) (*domain.CuratedExample, error) {
	if s.err != nil {
		return nil, s.err
	}
	example.ID = "example-id"
	example.CreatedAt = time.Now().UTC()
	s.added = append(s.added, example)
	return &example, nil
}

func (s *stubCurated) List(_ context.Context, category string) ([]domain.CuratedExample, error) {
	if s.err != nil {
		return nil, s.err
	}
	if category == "" {
		return s.examples, nil
	}
	var out []domain.CuratedExample
	for _, ex := range s.examples {
		if ex.Category == category {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (s *stubCurated) Score(_ context.Context, id string, score int) error {
	if s.err != nil {
		return s.err
	}
	if s.scored == nil {
		s.scored = make(map[string]int)
	}
	s.scored[id] = score
	return nil
}

// setupTestServices installs stub services and returns a cleanup that
// restores the previous wiring.
func setupTestServices() (ingest *stubIngester, indexer *stubIndexer, retrieve *stubRetriever, curated *stubCurated, cleanup func()) {
	oldIngest := ingestOrchestrator
	oldIndexer := indexBuilder
	oldRetriever := retriever
	oldCurated := curatedService

	ingest = &stubIngester{}
	indexer = &stubIndexer{}
	retrieve = &stubRetriever{}
	curated = &stubCurated{}

	SetServices(Services{
		Ingest:  ingest,
		Indexer: indexer,
		Query:   retrieve,
		Curated: curated,
	})

	cleanup = func() {
		ingestOrchestrator = oldIngest
		indexBuilder = oldIndexer
		retriever = oldRetriever
		curatedService = oldCurated
	}
	return ingest, indexer, retrieve, curated, cleanup
}
