// Package entities extracts structured entities from document text:
// league members via the roster, team names and date references.
package entities

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// Tagger scans document text for roster members, team names and date
// expressions. Matching is case-insensitive and whole-word.
type Tagger struct {
	roster *domain.Roster

	// aliasPatterns maps compiled whole-word pattern -> canonical name.
	aliasPatterns []aliasPattern

	// teamPatterns maps compiled whole-word pattern -> team name.
	teamPatterns []aliasPattern
}

type aliasPattern struct {
	re        *regexp.Regexp
	canonical string
}

// Explicit date formats the tagger recognises.
var dateFormats = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), "2006-01-02"},
	{regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`), ""},
	{regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`), "1/2/2006"},
}

// monthNameLayouts are tried for prose dates like "January 2, 2006".
var monthNameLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
	"Jan. 2 2006",
}

// relativePattern matches relative date expressions resolved against
// the document timestamp.
var relativePattern = regexp.MustCompile(`(?i)\b(yesterday|today|last\s+(?:week|night|sunday|season)|this\s+(?:week|season))\b`)

// capitalisedRun matches runs of capitalised words for low-confidence
// free tagging. Single capitalised words are only considered when not
// sentence-initial.
var capitalisedRun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

// NewTagger builds a tagger from the roster. Alias and team patterns
// are compiled once up front.
func NewTagger(roster *domain.Roster) *Tagger {
	t := &Tagger{roster: roster}
	for _, alias := range roster.Aliases() {
		canonical, _ := roster.Resolve(alias)
		t.aliasPatterns = append(t.aliasPatterns, aliasPattern{
			re:        wholeWord(alias),
			canonical: canonical,
		})
	}
	for _, team := range roster.Teams() {
		t.teamPatterns = append(t.teamPatterns, aliasPattern{
			re:        wholeWord(team),
			canonical: team,
		})
	}
	return t
}

// wholeWord compiles a case-insensitive whole-word pattern for name.
func wholeWord(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
}

// Tag extracts entities from the document content and title. Results
// land in doc.Entities (players, teams, dates) and low-confidence
// capitalised-token candidates append to doc.Tags.
func (t *Tagger) Tag(doc *domain.Document) {
	text := doc.Title + "\n" + doc.Content

	players := t.matchPatterns(t.aliasPatterns, text)
	teams := t.matchPatterns(t.teamPatterns, text)
	dates := extractDates(text, doc.CreatedAt)

	if doc.Entities == nil {
		doc.Entities = make(map[string][]string)
	}
	if len(players) > 0 {
		doc.Entities[domain.EntityPlayers] = players
	}
	if len(teams) > 0 {
		doc.Entities[domain.EntityTeams] = teams
	}
	if len(dates) > 0 {
		doc.Entities[domain.EntityDates] = dates
	}

	for _, candidate := range t.freeCandidates(text, players, teams) {
		doc.Tags = appendUnique(doc.Tags, candidate)
	}
}

// matchPatterns returns the sorted set of canonical names whose
// patterns match the text.
func (t *Tagger) matchPatterns(patterns []aliasPattern, text string) []string {
	seen := make(map[string]bool)
	for _, p := range patterns {
		if p.re.MatchString(text) {
			seen[p.canonical] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// extractDates finds explicit and relative date references. Relative
// expressions resolve against createdAt and are skipped when it is nil.
// All results are ISO dates, sorted and deduplicated.
func extractDates(text string, createdAt *time.Time) []string {
	seen := make(map[string]bool)

	for _, df := range dateFormats {
		for _, match := range df.re.FindAllString(text, -1) {
			if iso, ok := parseExplicit(match, df.layout); ok {
				seen[iso] = true
			}
		}
	}

	if createdAt != nil {
		base := createdAt.UTC()
		for _, match := range relativePattern.FindAllString(text, -1) {
			if iso, ok := resolveRelative(match, base); ok {
				seen[iso] = true
			}
		}
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// parseExplicit normalises an explicit date match to ISO form.
func parseExplicit(match, layout string) (string, bool) {
	if layout != "" {
		if at, err := time.Parse(layout, match); err == nil {
			return at.Format("2006-01-02"), true
		}
		return "", false
	}
	for _, l := range monthNameLayouts {
		if at, err := time.Parse(l, match); err == nil {
			return at.Format("2006-01-02"), true
		}
	}
	return "", false
}

// resolveRelative maps a relative expression to a concrete date
// anchored at base.
func resolveRelative(expr string, base time.Time) (string, bool) {
	norm := strings.Join(strings.Fields(strings.ToLower(expr)), " ")
	switch norm {
	case "today", "this week":
		return base.Format("2006-01-02"), true
	case "yesterday", "last night":
		return base.AddDate(0, 0, -1).Format("2006-01-02"), true
	case "last week":
		return base.AddDate(0, 0, -7).Format("2006-01-02"), true
	case "last sunday":
		days := int(base.Weekday()-time.Sunday+7) % 7
		if days == 0 {
			days = 7
		}
		return base.AddDate(0, 0, -days).Format("2006-01-02"), true
	case "this season", "last season":
		// Season references resolve to a year, not a day.
		return "", false
	}
	return "", false
}

// freeCandidates collects capitalised multi-word runs not already
// matched as players or teams. These are low confidence, so they go
// to tags rather than entities.
func (t *Tagger) freeCandidates(text string, players, teams []string) []string {
	matched := make(map[string]bool)
	for _, p := range players {
		matched[strings.ToLower(p)] = true
	}
	for _, tm := range teams {
		matched[strings.ToLower(tm)] = true
	}
	for _, alias := range t.roster.Aliases() {
		matched[alias] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, run := range capitalisedRun.FindAllString(text, -1) {
		key := strings.ToLower(run)
		if matched[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, fmt.Sprintf("maybe:%s", run))
	}
	return out
}

// appendUnique appends value to list unless already present.
func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
