// Package canonical maps segmented record groups to canonical
// documents: one note, one email thread or one transcript episode
// becomes exactly one document with a stable identity.
package canonical

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// Canonicaliser builds documents from record groups. The roster is
// loaded once at startup and passed in explicitly; it resolves
// participant aliases to canonical names.
type Canonicaliser struct {
	roster *domain.Roster
}

// New creates a canonicaliser. roster may be nil: participants then
// stay as free text.
func New(roster *domain.Roster) *Canonicaliser {
	return &Canonicaliser{roster: roster}
}

// Result carries the document plus flags the ingest report needs.
type Result struct {
	// Document is the canonical document, chunks not yet attached.
	Document domain.Document

	// NeedsReview is true when the timestamp could not be normalised.
	NeedsReview bool
}

// Canonicalise maps one group to one document.
func (c *Canonicaliser) Canonicalise(group domain.RecordGroup) (*Result, error) {
	if len(group.Records) == 0 {
		return nil, domain.ErrInvalidInput
	}

	first := group.Records[0]
	doc := domain.Document{
		ID:           domain.DocumentID(group.Format, first.NativeID),
		Source:       group.Format,
		Title:        first.Title,
		Participants: c.resolveParticipants(group),
		Tags:         dedupeStrings(collectTags(group)),
		Metadata:     mergeMetadata(group),
		IngestedAt:   time.Now().UTC(),
	}

	if len(group.Records) == 1 {
		doc.Content = strings.TrimSpace(first.Body)
	} else {
		doc.Content = threadContent(group.Records)
		doc.Metadata["thread_id"] = group.ThreadKey
		doc.Metadata["message_count"] = len(group.Records)
	}

	needsReview := true
	for _, rec := range group.Records {
		if rec.Timestamp != nil {
			utc := rec.Timestamp.UTC()
			doc.CreatedAt = &utc
			needsReview = false
			break // records are chronological: first timestamp wins
		}
	}

	if doc.CreatedAt != nil {
		season := SeasonFor(*doc.CreatedAt)
		doc.Season = &season
	}

	return &Result{Document: doc, NeedsReview: needsReview}, nil
}

// threadContent joins message bodies chronologically with attribution,
// dropping bodies duplicated inside later messages (quoted replies the
// parser's chrome-stripping missed).
func threadContent(records []domain.RawRecord) string {
	var parts []string
	for i, rec := range records {
		body := strings.TrimSpace(rec.Body)
		if body == "" {
			continue
		}
		if duplicatedLater(body, records[i+1:]) {
			continue
		}

		sender := ""
		if len(rec.Participants) > 0 {
			sender = rec.Participants[0]
		}
		header := attribution(sender, rec.Timestamp)
		if header != "" {
			parts = append(parts, header+"\n"+body)
		} else {
			parts = append(parts, body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// duplicatedLater reports whether body reappears verbatim inside a
// later message.
func duplicatedLater(body string, later []domain.RawRecord) bool {
	for _, rec := range later {
		if strings.Contains(rec.Body, body) {
			return true
		}
	}
	return false
}

// attribution builds the "From X on date:" header for a thread part.
func attribution(sender string, at *time.Time) string {
	switch {
	case sender != "" && at != nil:
		return fmt.Sprintf("[%s, %s]", sender, at.UTC().Format("2006-01-02"))
	case sender != "":
		return fmt.Sprintf("[%s]", sender)
	case at != nil:
		return fmt.Sprintf("[%s]", at.UTC().Format("2006-01-02"))
	default:
		return ""
	}
}

// resolveParticipants unions all participants across the group,
// resolving roster aliases to canonical names and keeping unknown
// names as-is. Sorted for deterministic output.
func (c *Canonicaliser) resolveParticipants(group domain.RecordGroup) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range group.Records {
		for _, p := range rec.Participants {
			name := strings.TrimSpace(p)
			if name == "" {
				continue
			}
			if canonical, ok := c.roster.Resolve(name); ok {
				name = canonical
			} else if canonical, ok := c.roster.Resolve(localPart(name)); ok {
				// Email addresses resolve by their local part too.
				name = canonical
			}
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// localPart returns the part of an email address before the @.
func localPart(address string) string {
	if at := strings.IndexByte(address, '@'); at > 0 {
		return address[:at]
	}
	return address
}

// collectTags unions record tags across the group.
func collectTags(group domain.RecordGroup) []string {
	var tags []string
	for _, rec := range group.Records {
		tags = append(tags, rec.Tags...)
	}
	return tags
}

// mergeMetadata merges record metadata; later records win on key
// collisions, matching chronological order.
func mergeMetadata(group domain.RecordGroup) map[string]any {
	merged := make(map[string]any)
	for _, rec := range group.Records {
		for k, v := range rec.Metadata {
			merged[k] = v
		}
	}
	return merged
}

// dedupeStrings removes duplicates preserving first-seen order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SeasonFor derives the fantasy season label from a timestamp:
// August through December belong to that year's season, January
// through July to the prior year's.
func SeasonFor(at time.Time) string {
	year := at.UTC().Year()
	if at.UTC().Month() < time.August {
		year--
	}
	return strconv.Itoa(year)
}
