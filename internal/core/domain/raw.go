package domain

import "time"

// SourceFormat identifies the export format a record came from.
type SourceFormat string

const (
	// SourceNotebook is a notebook export (.enex).
	SourceNotebook SourceFormat = "notebook"

	// SourceEmail is an email mailbox (.mbox or single .eml).
	SourceEmail SourceFormat = "email"

	// SourceTranscript is a pre-segmented audio transcript.
	SourceTranscript SourceFormat = "transcript"
)

// Attachment is an opaque blob attached to a raw record.
// Attachments are carried through parsing but never indexed.
type Attachment struct {
	// Name is the attachment filename, if known.
	Name string

	// MIMEType is the declared content type.
	MIMEType string

	// Data is the raw bytes.
	Data []byte
}

// RawRecord represents a single record produced by a format parser.
// It is transient: consumed by the segmenter and canonicaliser,
// never persisted.
type RawRecord struct {
	// Format identifies the source format.
	Format SourceFormat

	// Title is the raw title (note title, email subject, episode title).
	Title string

	// Body is the extracted plain text body.
	Body string

	// Timestamp is the record's own timestamp, nil when absent or unparseable.
	Timestamp *time.Time

	// Participants lists senders/recipients/speakers in source order.
	Participants []string

	// Attachments carries opaque blobs found in the record.
	Attachments []Attachment

	// NativeID is the source's own stable identifier for this record
	// (note guid, Message-ID, episode file stem).
	NativeID string

	// MessageID, InReplyTo and References carry email threading headers.
	// Empty for non-email formats.
	MessageID  string
	InReplyTo  string
	References []string

	// Tags carries source-side labels (notebook tags).
	Tags []string

	// Metadata contains format-specific key-value pairs
	// (notebook guid, source URL, episode number).
	Metadata map[string]any
}

// RecordGroup is the segmenter's output: an ordered set of raw records
// that canonicalise into exactly one document. Email threads hold
// several records in chronological order; notebook notes and transcript
// episodes are singletons.
type RecordGroup struct {
	// Format is the shared source format of all records in the group.
	Format SourceFormat

	// Records are the member records, chronological where order is known.
	Records []RawRecord

	// ThreadKey is the grouping key for email threads, empty otherwise.
	ThreadKey string
}
