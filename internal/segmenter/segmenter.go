// Package segmenter groups related raw records into the logical units
// that become documents: email replies into threads, transcript
// episodes and notebook notes into singletons.
package segmenter

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// DefaultThreadWindow is how far apart two messages with the same
// subject can be and still join one thread, absent explicit reply
// references. Exposed as configuration; 30 days is a heuristic, not
// a contract.
const DefaultThreadWindow = 30 * 24 * time.Hour

var replyPrefix = regexp.MustCompile(`(?i)^(re|fwd|fw|aw):\s*`)

// Segmenter groups raw records by source format.
type Segmenter struct {
	threadWindow time.Duration
}

// Option configures the segmenter.
type Option func(*Segmenter)

// WithThreadWindow sets the chronological-adjacency window for
// subject-keyed email threading.
func WithThreadWindow(window time.Duration) Option {
	return func(s *Segmenter) {
		if window > 0 {
			s.threadWindow = window
		}
	}
}

// New creates a segmenter.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{threadWindow: DefaultThreadWindow}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Group segments records into candidate documents. Non-email records
// pass through as singleton groups; email records thread by reply
// references first, normalised subject second, with participant
// overlap and chronological adjacency breaking subject-key ties.
func (s *Segmenter) Group(records []domain.RawRecord) []domain.RecordGroup {
	var groups []domain.RecordGroup
	var emails []domain.RawRecord

	for _, rec := range records {
		if rec.Format == domain.SourceEmail {
			emails = append(emails, rec)
			continue
		}
		groups = append(groups, domain.RecordGroup{
			Format:  rec.Format,
			Records: []domain.RawRecord{rec},
		})
	}

	groups = append(groups, s.threadEmails(emails)...)
	return groups
}

// thread is a mutable group under construction.
type thread struct {
	key          string
	records      []domain.RawRecord
	participants map[string]bool
	messageIDs   map[string]bool
	last         *time.Time
}

// threadEmails groups email records into threads.
func (s *Segmenter) threadEmails(emails []domain.RawRecord) []domain.RecordGroup {
	if len(emails) == 0 {
		return nil
	}

	// Chronological processing keeps adjacency checks one-directional.
	// Records without a timestamp sort last, joining by subject only.
	sorted := make([]domain.RawRecord, len(emails))
	copy(sorted, emails)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Timestamp, sorted[j].Timestamp
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.Before(*tj)
	})

	var threads []*thread
	byMessageID := make(map[string]*thread)

	for _, rec := range sorted {
		target := s.matchThread(rec, threads, byMessageID)
		if target == nil {
			target = &thread{
				key:          NormaliseSubject(rec.Title),
				participants: make(map[string]bool),
				messageIDs:   make(map[string]bool),
			}
			threads = append(threads, target)
		}

		target.records = append(target.records, rec)
		for _, p := range rec.Participants {
			target.participants[strings.ToLower(p)] = true
		}
		if rec.MessageID != "" {
			target.messageIDs[rec.MessageID] = true
			byMessageID[rec.MessageID] = target
		}
		if rec.Timestamp != nil {
			target.last = rec.Timestamp
		}
	}

	groups := make([]domain.RecordGroup, 0, len(threads))
	for _, th := range threads {
		groups = append(groups, domain.RecordGroup{
			Format:    domain.SourceEmail,
			Records:   th.records,
			ThreadKey: th.key,
		})
	}
	return groups
}

// matchThread finds the thread rec belongs to, or nil for a new one.
// Explicit reply references win; subject-key matches then require
// participant overlap or adjacency within the window.
func (s *Segmenter) matchThread(
	rec domain.RawRecord,
	threads []*thread,
	byMessageID map[string]*thread,
) *thread {
	for _, ref := range append([]string{rec.InReplyTo}, rec.References...) {
		if ref == "" {
			continue
		}
		if th, ok := byMessageID[ref]; ok {
			return th
		}
	}

	subject := NormaliseSubject(rec.Title)
	if subject == "" {
		return nil
	}

	for _, th := range threads {
		if th.key != subject {
			continue
		}
		if s.overlapsParticipants(rec, th) {
			return th
		}
		if s.withinWindow(rec, th) {
			return th
		}
	}
	return nil
}

// overlapsParticipants reports whether rec shares any participant
// with the thread.
func (s *Segmenter) overlapsParticipants(rec domain.RawRecord, th *thread) bool {
	for _, p := range rec.Participants {
		if th.participants[strings.ToLower(p)] {
			return true
		}
	}
	return false
}

// withinWindow reports whether rec falls inside the adjacency window
// of the thread's last message. Records without timestamps match:
// subject equality is the only signal left.
func (s *Segmenter) withinWindow(rec domain.RawRecord, th *thread) bool {
	if rec.Timestamp == nil || th.last == nil {
		return true
	}
	gap := rec.Timestamp.Sub(*th.last)
	if gap < 0 {
		gap = -gap
	}
	return gap <= s.threadWindow
}

// NormaliseSubject strips conventional reply/forward prefixes and
// case-folds, producing the subject-based thread key.
func NormaliseSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	for {
		stripped := replyPrefix.ReplaceAllString(subject, "")
		if stripped == subject {
			break
		}
		subject = strings.TrimSpace(stripped)
	}
	return strings.ToLower(subject)
}
