package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/leaguelore/leaguelore-cli/internal/canonical"
	"github.com/leaguelore/leaguelore-cli/internal/chunker"
	"github.com/leaguelore/leaguelore-cli/internal/classify"
	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driving"
	"github.com/leaguelore/leaguelore-cli/internal/entities"
	"github.com/leaguelore/leaguelore-cli/internal/logger"
	"github.com/leaguelore/leaguelore-cli/internal/segmenter"
)

// Ensure IngestService implements the interface.
var _ driving.IngestOrchestrator = (*IngestService)(nil)

// DefaultIngestWorkers is the default parallel file worker count.
const DefaultIngestWorkers = 4

// IngestConfig tunes the ingest pipeline.
type IngestConfig struct {
	// Workers is the parallel file worker count.
	Workers int

	// SubjectKeywords, when non-empty, keeps only email threads whose
	// subject contains at least one keyword (case-insensitive).
	SubjectKeywords []string
}

// IngestService runs the offline batch pipeline: parse, segment,
// canonicalise, classify, tag, chunk, store, post to the lexical
// index. Embedding happens separately in the index builder so a slow
// or absent embedding capability never blocks ingestion.
type IngestService struct {
	parsers       map[string]driven.Parser // extension -> parser
	segmenter     *segmenter.Segmenter
	canonicaliser *canonical.Canonicaliser
	classifier    *classify.Classifier
	tagger        *entities.Tagger
	chunker       *chunker.Chunker
	docStore      driven.DocumentStore
	lexical       driven.LexicalIndex
	cfg           IngestConfig

	// upsertLocks serialises store writes per document id, so two
	// workers holding the same native record cannot interleave.
	lockMu      sync.Mutex
	upsertLocks map[string]*sync.Mutex
}

// NewIngestService creates the ingest orchestrator. lexical may be
// nil when no live index is attached.
func NewIngestService(
	parsers []driven.Parser,
	seg *segmenter.Segmenter,
	canon *canonical.Canonicaliser,
	cls *classify.Classifier,
	tagger *entities.Tagger,
	chk *chunker.Chunker,
	docStore driven.DocumentStore,
	lexical driven.LexicalIndex,
	cfg IngestConfig,
) *IngestService {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultIngestWorkers
	}

	byExt := make(map[string]driven.Parser)
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			byExt[strings.ToLower(ext)] = p
		}
	}

	return &IngestService{
		parsers:       byExt,
		segmenter:     seg,
		canonicaliser: canon,
		classifier:    cls,
		tagger:        tagger,
		chunker:       chk,
		docStore:      docStore,
		lexical:       lexical,
		cfg:           cfg,
		upsertLocks:   make(map[string]*sync.Mutex),
	}
}

// IngestPaths processes the given files and directories. Bad records
// and unreadable files are counted in the report; only batch-level
// failures (cancellation, store unavailable) return an error.
func (s *IngestService) IngestPaths(ctx context.Context, paths []string) (*domain.IngestReport, error) {
	report := domain.NewIngestReport()

	files, err := s.expandPaths(paths, report)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		logger.Info("No ingestible files found")
		return report, nil
	}

	logger.Section("Parsing")
	records, err := s.parseFiles(ctx, files, report)
	if err != nil {
		return report, err
	}

	logger.Section("Segmenting")
	groups := s.segmentRecords(records)
	logger.Info("Segmented %d records into %d groups", len(records), len(groups))

	logger.Section("Writing documents")
	if err := s.processGroups(ctx, groups, report); err != nil {
		return report, err
	}

	snapshot := report.Snapshot()
	logger.Info("Ingest complete: %d documents, %d chunks, %d errors",
		snapshot.DocumentsWritten, snapshot.ChunksWritten, report.ErrorCount())
	return report, nil
}

// expandPaths resolves files and directories to a sorted list of
// ingestible files. Files with no registered parser are skipped.
func (s *IngestService) expandPaths(paths []string, report *domain.IngestReport) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if s.parserFor(path) == nil {
			return
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("Cannot stat %s: %v", path, err)
			report.AddError(domain.ErrorKindFile)
			report.AddFile(true)
			continue
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// parseFiles runs the parser workers and collects all raw records.
func (s *IngestService) parseFiles(ctx context.Context, files []string, report *domain.IngestReport) ([]domain.RawRecord, error) {
	fileCh := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var records []domain.RawRecord

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileCh {
				parsed := s.parseOneFile(ctx, path, report)
				mu.Lock()
				records = append(records, parsed...)
				mu.Unlock()
			}
		}()
	}

	for _, path := range files {
		select {
		case <-ctx.Done():
			close(fileCh)
			wg.Wait()
			return nil, ctx.Err()
		case fileCh <- path:
		}
	}
	close(fileCh)
	wg.Wait()

	return records, ctx.Err()
}

// parserFor matches path against the registered extensions, longest
// suffix first, so multi-part extensions like ".transcript.json" win
// over a plain ".json". Nil when no parser handles the file.
func (s *IngestService) parserFor(path string) driven.Parser {
	name := strings.ToLower(filepath.Base(path))
	var match driven.Parser
	matchLen := 0
	for ext, p := range s.parsers {
		if len(ext) > matchLen && strings.HasSuffix(name, ext) {
			match = p
			matchLen = len(ext)
		}
	}
	return match
}

// parseOneFile drains one file's record and error channels.
func (s *IngestService) parseOneFile(ctx context.Context, path string, report *domain.IngestReport) []domain.RawRecord {
	parser := s.parserFor(path)
	logger.Debug("Parsing %s", path)

	recordsCh, errsCh := parser.Parse(ctx, path)

	var records []domain.RawRecord
	fileFailed := false
	for recordsCh != nil || errsCh != nil {
		select {
		case rec, ok := <-recordsCh:
			if !ok {
				recordsCh = nil
				continue
			}
			records = append(records, rec)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			switch {
			case errors.Is(err, domain.ErrFileUnreadable):
				logger.Warn("Unreadable file %s: %v", path, err)
				report.AddError(domain.ErrorKindFile)
				fileFailed = true
			case errors.Is(err, domain.ErrTimestampAmbiguous):
				logger.Debug("Ambiguous timestamp in %s: %v", path, err)
				report.AddError(domain.ErrorKindTimestampAmbiguous)
			default:
				logger.Debug("Bad record in %s: %v", path, err)
				report.AddError(domain.ErrorKindParse)
			}
		}
	}

	report.AddFile(fileFailed && len(records) == 0)
	return records
}

// segmentRecords groups records per source format. Email threading
// spans files, so all records segment together.
func (s *IngestService) segmentRecords(records []domain.RawRecord) []domain.RecordGroup {
	groups := s.segmenter.Group(records)

	if len(s.cfg.SubjectKeywords) == 0 {
		return groups
	}

	// Keyword relevance filter applies to email threads only.
	kept := groups[:0]
	for _, group := range groups {
		if group.Format == domain.SourceEmail && !s.subjectRelevant(group) {
			logger.Debug("Skipping off-topic thread %q", groupSubject(group))
			continue
		}
		kept = append(kept, group)
	}
	return kept
}

// subjectRelevant reports whether the thread subject contains any
// configured keyword.
func (s *IngestService) subjectRelevant(group domain.RecordGroup) bool {
	subject := strings.ToLower(groupSubject(group))
	for _, keyword := range s.cfg.SubjectKeywords {
		if strings.Contains(subject, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// groupSubject returns the group's first non-empty title.
func groupSubject(group domain.RecordGroup) string {
	for _, rec := range group.Records {
		if rec.Title != "" {
			return rec.Title
		}
	}
	return ""
}

// processGroups runs the document workers over the record groups.
func (s *IngestService) processGroups(ctx context.Context, groups []domain.RecordGroup, report *domain.IngestReport) error {
	groupCh := make(chan domain.RecordGroup)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range groupCh {
				if err := s.processGroup(ctx, group, report); err != nil {
					errOnce.Do(func() { firstErr = err })
				}
			}
		}()
	}

	for _, group := range groups {
		select {
		case <-ctx.Done():
			close(groupCh)
			wg.Wait()
			return ctx.Err()
		case groupCh <- group:
		}
	}
	close(groupCh)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// processGroup canonicalises, classifies, tags, chunks and stores one
// group as one document. Store failures are batch-fatal.
func (s *IngestService) processGroup(ctx context.Context, group domain.RecordGroup, report *domain.IngestReport) error {
	result, err := s.canonicaliser.Canonicalise(group)
	if err != nil {
		logger.Debug("Cannot canonicalise group: %v", err)
		report.AddError(domain.ErrorKindParse)
		return nil
	}
	doc := result.Document

	if result.NeedsReview {
		report.AddError(domain.ErrorKindTimestampAmbiguous)
		report.FlagForReview(doc.ID)
	}

	label, classifierFailed := s.classifier.Classify(ctx, doc)
	doc.ContentType = &label
	if classifierFailed {
		report.AddError(domain.ErrorKindClassifierUnavailable)
	}

	s.tagger.Tag(&doc)

	chunks := s.chunker.Chunk(doc)

	unlock := s.lockDocument(doc.ID)
	defer unlock()

	prior, err := s.docStore.GetChunks(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("%w: loading chunks for %s: %w", domain.ErrStoreUnavailable, doc.ID, err)
	}

	if err := s.docStore.UpsertDocument(ctx, &doc, chunks); err != nil {
		return fmt.Errorf("%w: upserting %s: %w", domain.ErrStoreUnavailable, doc.ID, err)
	}

	if s.lexical != nil {
		kept := make(map[string]bool, len(chunks))
		for _, chunk := range chunks {
			kept[chunk.ID] = true
		}
		for _, old := range prior {
			if kept[old.ID] {
				continue
			}
			if err := s.lexical.Delete(ctx, old.ID); err != nil {
				return fmt.Errorf("deleting stale postings for %s: %w", old.ID, err)
			}
		}
		for _, chunk := range chunks {
			if err := s.lexical.Index(ctx, chunk.ID, chunk.Text); err != nil {
				return fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
			}
		}
	}

	report.AddDocument(len(chunks))
	logger.Debug("Wrote %s (%s, %d chunks)", doc.ID, doc.Title, len(chunks))
	return nil
}

// lockDocument acquires the per-document upsert lock.
func (s *IngestService) lockDocument(id string) func() {
	s.lockMu.Lock()
	lock, ok := s.upsertLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.upsertLocks[id] = lock
	}
	s.lockMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
