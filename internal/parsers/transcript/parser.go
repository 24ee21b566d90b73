// Package transcript parses pre-segmented audio transcripts. Each
// file is one episode: JSON with timestamped, speaker-labelled spans.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// episode mirrors a transcript file.
type episode struct {
	Show       string    `json:"show"`
	Episode    int       `json:"episode"`
	Title      string    `json:"title"`
	RecordedAt string    `json:"recorded_at"`
	Segments   []segment `json:"segments"`
}

// segment is one timestamped span of speech.
type segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
}

// Parser reads transcript episode files.
type Parser struct{}

// New creates a transcript parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the source format this parser produces.
func (p *Parser) Format() domain.SourceFormat {
	return domain.SourceTranscript
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".transcript.json"}
}

// Parse reads the episode at path and emits exactly one record:
// the whole episode, speaker labels preserved in the body.
func (p *Parser) Parse(ctx context.Context, path string) (<-chan domain.RawRecord, <-chan error) {
	records := make(chan domain.RawRecord, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)

		data, err := os.ReadFile(path)
		if err != nil {
			errs <- fmt.Errorf("%w: %s: %v", domain.ErrFileUnreadable, path, err)
			return
		}

		var ep episode
		if err := json.Unmarshal(data, &ep); err != nil {
			errs <- fmt.Errorf("%w: %s: %v", domain.ErrFileUnreadable, path, err)
			return
		}

		record, warn := p.toRecord(ep, path)
		if warn != nil {
			// Non-fatal: the record still flows, without a timestamp,
			// and the canonicaliser flags it for review.
			errs <- warn
		}

		select {
		case records <- record:
		case <-ctx.Done():
		}
	}()

	return records, errs
}

// toRecord flattens segments into a speaker-labelled plain text body.
func (p *Parser) toRecord(ep episode, path string) (domain.RawRecord, error) {
	var body strings.Builder
	speakers := make([]string, 0, 4)
	seen := make(map[string]bool)
	lastSpeaker := ""

	for _, seg := range ep.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := strings.TrimSpace(seg.Speaker)
		if speaker != "" && !seen[speaker] {
			seen[speaker] = true
			speakers = append(speakers, speaker)
		}

		// Consecutive segments from one speaker join into a turn.
		if speaker != "" && speaker != lastSpeaker {
			if body.Len() > 0 {
				body.WriteString("\n")
			}
			body.WriteString(speaker)
			body.WriteString(": ")
			lastSpeaker = speaker
		} else if body.Len() > 0 {
			body.WriteString(" ")
		}
		body.WriteString(text)
	}

	title := ep.Title
	if title == "" {
		title = stem(path)
	}

	var timestamp *time.Time
	var warn error
	if ep.RecordedAt != "" {
		parsed, err := time.Parse(time.RFC3339, ep.RecordedAt)
		if err != nil {
			warn = fmt.Errorf("%w: %s: recorded_at %q", domain.ErrTimestampAmbiguous, filepath.Base(path), ep.RecordedAt)
		} else {
			utc := parsed.UTC()
			timestamp = &utc
		}
	}

	metadata := map[string]any{
		"transcript_file": filepath.Base(path),
	}
	if ep.Show != "" {
		metadata["show"] = ep.Show
	}
	if ep.Episode > 0 {
		metadata["episode"] = ep.Episode
	}

	return domain.RawRecord{
		Format:       domain.SourceTranscript,
		Title:        title,
		Body:         body.String(),
		Timestamp:    timestamp,
		Participants: speakers,
		NativeID:     stem(path),
		Metadata:     metadata,
	}, warn
}

// stem returns the filename without transcript extensions.
func stem(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".json")
	name = strings.TrimSuffix(name, ".transcript")
	return name
}
