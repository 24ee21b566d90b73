// Package enex parses Evernote export files. ENEX is XML with the
// note body embedded as HTML inside a CDATA section; the body is
// reduced to plain text and embedded resources are carried through as
// opaque attachments.
package enex

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// enexTimeLayout is Evernote's timestamp format.
const enexTimeLayout = "20060102T150405Z"

// Parser reads .enex notebook exports.
type Parser struct {
	minContentLength int
}

// Option configures the parser.
type Option func(*Parser)

// WithMinContentLength skips notes whose extracted text is shorter
// than n. Default 0: empty notes still become (empty) documents.
func WithMinContentLength(n int) Option {
	return func(p *Parser) {
		if n >= 0 {
			p.minContentLength = n
		}
	}
}

// New creates a notebook export parser.
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format returns the source format this parser produces.
func (p *Parser) Format() domain.SourceFormat {
	return domain.SourceNotebook
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".enex"}
}

// note mirrors the <note> element of an ENEX export.
type note struct {
	Title      string     `xml:"title"`
	Content    string     `xml:"content"`
	Created    string     `xml:"created"`
	Updated    string     `xml:"updated"`
	Tags       []string   `xml:"tag"`
	Attributes attributes `xml:"note-attributes"`
	Resources  []resource `xml:"resource"`
}

// attributes mirrors <note-attributes>.
type attributes struct {
	SourceURL string `xml:"source-url"`
	Author    string `xml:"author"`
}

// resource mirrors an embedded <resource> blob.
type resource struct {
	Data     resourceData `xml:"data"`
	MIME     string       `xml:"mime"`
	FileName string       `xml:"resource-attributes>file-name"`
}

// resourceData is the base64 payload of a resource.
type resourceData struct {
	Encoding string `xml:"encoding,attr"`
	Value    string `xml:",chardata"`
}

// Parse streams raw records from the export at path. The decoder works
// element by element so large exports never load fully into memory.
func (p *Parser) Parse(ctx context.Context, path string) (<-chan domain.RawRecord, <-chan error) {
	records := make(chan domain.RawRecord)
	errs := make(chan error, 1)

	go func() {
		defer close(records)
		defer close(errs)

		f, err := os.Open(path)
		if err != nil {
			errs <- fmt.Errorf("%w: %s: %v", domain.ErrFileUnreadable, path, err)
			return
		}
		defer f.Close()

		decoder := xml.NewDecoder(f)
		decoder.Strict = false
		index := 0

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			tok, err := decoder.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- fmt.Errorf("%w: %s: %v", domain.ErrFileUnreadable, path, err)
				return
			}

			start, ok := tok.(xml.StartElement)
			if !ok || start.Name.Local != "note" {
				continue
			}

			var n note
			if err := decoder.DecodeElement(&n, &start); err != nil {
				errs <- fmt.Errorf("%w: %s note %d: %v", domain.ErrParseRecord, filepath.Base(path), index, err)
				index++
				continue
			}

			record, ok := p.toRecord(n, path, index)
			index++
			if !ok {
				continue
			}

			select {
			case records <- record:
			case <-ctx.Done():
				return
			}
		}
	}()

	return records, errs
}

// toRecord converts a decoded note into a raw record.
// The second return is false when the note is filtered out.
func (p *Parser) toRecord(n note, path string, index int) (domain.RawRecord, bool) {
	content := extractText(n.Content)
	if len(content) < p.minContentLength {
		return domain.RawRecord{}, false
	}

	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = "Untitled"
	}

	var timestamp *time.Time
	if created, err := time.Parse(enexTimeLayout, n.Created); err == nil {
		utc := created.UTC()
		timestamp = &utc
	}

	metadata := map[string]any{
		"notebook_file": filepath.Base(path),
	}
	if n.Attributes.SourceURL != "" {
		metadata["source_url"] = n.Attributes.SourceURL
	}
	if updated, err := time.Parse(enexTimeLayout, n.Updated); err == nil {
		metadata["updated"] = updated.UTC().Format(time.RFC3339)
	}

	var attachments []domain.Attachment
	for _, res := range n.Resources {
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(res.Data.Value), ""))
		if err != nil {
			continue // corrupt resource, note text still usable
		}
		attachments = append(attachments, domain.Attachment{
			Name:     res.FileName,
			MIMEType: res.MIME,
			Data:     data,
		})
	}

	var participants []string
	if n.Attributes.Author != "" {
		participants = append(participants, n.Attributes.Author)
	}

	// Notes have no export-stable guid, so the native id is the title
	// plus created timestamp, stable across re-exports of the same note.
	nativeID := title + "|" + n.Created

	return domain.RawRecord{
		Format:       domain.SourceNotebook,
		Title:        title,
		Body:         content,
		Timestamp:    timestamp,
		Participants: participants,
		Attachments:  attachments,
		NativeID:     nativeID,
		Tags:         n.Tags,
		Metadata:     metadata,
	}, true
}

var (
	blockTags = regexp.MustCompile(`(?i)</?(p|div|br|li|tr|h[1-6]|en-note)[^>]*>`)
	skipSpans = regexp.MustCompile(`(?is)<(style|script|head)[^>]*>.*?</(style|script|head)>`)
	anyTag    = regexp.MustCompile(`<[^>]+>`)
	blankRuns = regexp.MustCompile(`\n\s*\n+`)
	spaceRuns = regexp.MustCompile(`[ \t]+`)
)

// extractText reduces the note's embedded HTML to plain text: style
// and script content dropped, block-level tags become newlines, all
// remaining tags stripped, entities decoded.
func extractText(html string) string {
	text := skipSpans.ReplaceAllString(html, "")
	text = blockTags.ReplaceAllString(text, "\n")
	text = anyTag.ReplaceAllString(text, " ")

	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	).Replace(text)

	text = spaceRuns.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
