// Package mbox parses email exports: mbox archives and single .eml
// messages. Multipart bodies are decoded to plain text, quoted-reply
// and signature chrome stripped, threading headers retained for the
// segmenter.
package mbox

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
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

// DefaultMinBodyLength is the minimum cleaned body length; shorter
// messages are skipped as noise (receipts, bounces, empty replies).
const DefaultMinBodyLength = 20

var (
	addressPattern   = regexp.MustCompile(`[\w.+-]+@[\w.-]+`)
	replyLinePattern = regexp.MustCompile(`(?i)^On .{4,80} wrote:\s*$`)
	mobileSignature  = regexp.MustCompile(`(?i)^(Sent from|Get Outlook|Sent via)`)
	blankRuns        = regexp.MustCompile(`\n\s*\n\s*\n+`)
	spaceRuns        = regexp.MustCompile(` +`)
)

// Parser reads .mbox archives and single .eml files.
type Parser struct {
	minBodyLength   int
	stripQuotes     bool
	stripSignatures bool
}

// Option configures the parser.
type Option func(*Parser)

// WithMinBodyLength sets the minimum cleaned body length.
func WithMinBodyLength(n int) Option {
	return func(p *Parser) {
		if n >= 0 {
			p.minBodyLength = n
		}
	}
}

// WithKeepQuotes disables quoted-reply stripping.
func WithKeepQuotes() Option {
	return func(p *Parser) { p.stripQuotes = false }
}

// New creates an email parser with the given options.
func New(opts ...Option) *Parser {
	p := &Parser{
		minBodyLength:   DefaultMinBodyLength,
		stripQuotes:     true,
		stripSignatures: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format returns the source format this parser produces.
func (p *Parser) Format() domain.SourceFormat {
	return domain.SourceEmail
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".mbox", ".eml"}
}

// Parse streams raw records from the mailbox or message at path.
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

		if strings.EqualFold(filepath.Ext(path), ".eml") {
			p.emitMessage(ctx, f, path, 0, records, errs)
			return
		}
		p.parseMbox(ctx, f, path, records, errs)
	}()

	return records, errs
}

// parseMbox splits the archive on "From " envelope lines and parses
// each message independently. A malformed message is reported and
// skipped; the rest of the archive still parses.
func (p *Parser) parseMbox(
	ctx context.Context,
	r io.Reader,
	path string,
	records chan<- domain.RawRecord,
	errs chan<- error,
) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var current bytes.Buffer
	index := 0
	flush := func() {
		if current.Len() == 0 {
			return
		}
		p.emitMessage(ctx, bytes.NewReader(current.Bytes()), path, index, records, errs)
		index++
		current.Reset()
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if strings.HasPrefix(line, "From ") {
			flush()
			continue // envelope line, not part of the message
		}
		// mbox quoting: ">From " at line start escapes a literal "From ".
		if strings.HasPrefix(line, ">From ") {
			line = line[1:]
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	if err := scanner.Err(); err != nil {
		errs <- fmt.Errorf("%w: %s: %v", domain.ErrFileUnreadable, path, err)
	}
}

// emitMessage parses one RFC 822 message and sends the record.
func (p *Parser) emitMessage(
	ctx context.Context,
	r io.Reader,
	path string,
	index int,
	records chan<- domain.RawRecord,
	errs chan<- error,
) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		errs <- fmt.Errorf("%w: %s message %d: %v", domain.ErrParseRecord, filepath.Base(path), index, err)
		return
	}

	record, err := p.parseMessage(msg, path, index)
	if err != nil {
		errs <- fmt.Errorf("%w: %s message %d: %v", domain.ErrParseRecord, filepath.Base(path), index, err)
		return
	}
	if record == nil {
		return // below minimum body length
	}

	select {
	case records <- *record:
	case <-ctx.Done():
	}
}

// parseMessage converts a parsed message into a raw record.
// Returns nil when the cleaned body is below the minimum length.
func (p *Parser) parseMessage(msg *mail.Message, path string, index int) (*domain.RawRecord, error) {
	subject := decodeHeader(msg.Header.Get("Subject"))
	sender := extractAddress(decodeHeader(msg.Header.Get("From")))

	participants := []string{}
	if sender != "" {
		participants = append(participants, sender)
	}
	for _, header := range []string{"To", "Cc"} {
		for _, addr := range addressPattern.FindAllString(decodeHeader(msg.Header.Get(header)), -1) {
			participants = append(participants, addr)
		}
	}

	var timestamp *time.Time
	if dateHeader := msg.Header.Get("Date"); dateHeader != "" {
		if parsed, err := mail.ParseDate(dateHeader); err == nil {
			utc := parsed.UTC()
			timestamp = &utc
		}
		// An unparseable date is not an error here: the canonicaliser
		// flags the document for review.
	}

	body, attachments, err := extractBody(msg)
	if err != nil {
		return nil, err
	}
	body = p.cleanBody(body)
	if len(body) < p.minBodyLength {
		return nil, nil
	}

	messageID := strings.TrimSpace(msg.Header.Get("Message-ID"))
	nativeID := messageID
	if nativeID == "" {
		// Stable fallback for messages without a Message-ID.
		nativeID = fmt.Sprintf("%s#%d", filepath.Base(path), index)
	}

	var references []string
	if refs := msg.Header.Get("References"); refs != "" {
		references = strings.Fields(refs)
	}

	return &domain.RawRecord{
		Format:       domain.SourceEmail,
		Title:        subject,
		Body:         body,
		Timestamp:    timestamp,
		Participants: participants,
		Attachments:  attachments,
		NativeID:     nativeID,
		MessageID:    messageID,
		InReplyTo:    strings.TrimSpace(msg.Header.Get("In-Reply-To")),
		References:   references,
		Metadata: map[string]any{
			"mailbox": filepath.Base(path),
		},
	}, nil
}

// cleanBody strips quoted replies, reply attribution lines and
// signatures, then normalises whitespace.
func (p *Parser) cleanBody(body string) string {
	lines := strings.Split(body, "\n")
	var cleaned []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if p.stripQuotes {
			if strings.HasPrefix(trimmed, ">") {
				continue
			}
			if replyLinePattern.MatchString(trimmed) {
				continue
			}
		}

		if p.stripSignatures {
			if trimmed == "--" || trimmed == "---" || trimmed == "____" {
				break
			}
			if mobileSignature.MatchString(trimmed) {
				break
			}
		}

		cleaned = append(cleaned, line)
	}

	return normaliseWhitespace(strings.Join(cleaned, "\n"))
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header // Return original if decoding fails
	}
	return decoded
}

// extractAddress pulls the bare address out of a From header.
func extractAddress(from string) string {
	if match := addressPattern.FindString(from); match != "" {
		return match
	}
	return strings.TrimSpace(from)
}

// extractBody extracts plain text and attachments from a message.
func extractBody(msg *mail.Message) (string, []domain.Attachment, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return "", nil, domain.ErrInvalidInput
		}
		return string(body), nil, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(msg.Body, params["boundary"])
	}

	body, err := io.ReadAll(decodeTransfer(msg.Body, msg.Header.Get("Content-Transfer-Encoding")))
	if err != nil {
		return "", nil, domain.ErrInvalidInput
	}

	if mediaType == "text/html" {
		return stripHTMLTags(string(body)), nil, nil
	}
	return string(body), nil, nil
}

// extractMultipartBody walks multipart parts, collecting text and
// attachments. Plain text parts are preferred over HTML.
func extractMultipartBody(r io.Reader, boundary string) (string, []domain.Attachment, error) {
	if boundary == "" {
		return "", nil, nil
	}

	mr := multipart.NewReader(r, boundary)
	var textParts []string
	var htmlParts []string
	var attachments []domain.Attachment

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		partContentType := part.Header.Get("Content-Type")
		mediaType, params, parseErr := mime.ParseMediaType(partContentType)
		if parseErr != nil {
			mediaType = "application/octet-stream"
		}

		disposition := part.Header.Get("Content-Disposition")
		if strings.Contains(disposition, "attachment") {
			data, readErr := io.ReadAll(part)
			part.Close()
			if readErr == nil {
				attachments = append(attachments, domain.Attachment{
					Name:     part.FileName(),
					MIMEType: mediaType,
					Data:     data,
				})
			}
			continue
		}

		content, readErr := io.ReadAll(decodeTransfer(part, part.Header.Get("Content-Transfer-Encoding")))
		part.Close()
		if readErr != nil {
			continue
		}

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, string(content))
		case mediaType == "text/html":
			htmlParts = append(htmlParts, stripHTMLTags(string(content)))
		case strings.HasPrefix(mediaType, "multipart/"):
			nested, nestedAtt, nestedErr := extractMultipartBody(bytes.NewReader(content), params["boundary"])
			if nestedErr == nil && nested != "" {
				textParts = append(textParts, nested)
			}
			attachments = append(attachments, nestedAtt...)
		}
	}

	// Prefer plain text over HTML
	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), attachments, nil
	}
	if len(htmlParts) > 0 {
		return strings.Join(htmlParts, "\n"), attachments, nil
	}
	return "", attachments, nil
}

// decodeTransfer wraps r with the declared transfer decoding.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}

// stripHTMLTags removes HTML tags for basic text extraction.
func stripHTMLTags(html string) string {
	var result strings.Builder
	inTag := false

	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	lines := strings.Split(result.String(), "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// normaliseWhitespace collapses runs of blank lines and spaces.
func normaliseWhitespace(text string) string {
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
