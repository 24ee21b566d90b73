package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

func testRoster(t *testing.T) *domain.Roster {
	t.Helper()
	roster, err := domain.NewRoster(map[string][]string{
		"Mike Jones": {"mike", "mikey", "the commish"},
		"Dave Smith": {"dave"},
	}, []string{"Gridiron Gurus", "Couch Potatoes"})
	require.NoError(t, err)
	return roster
}

func taggedDoc(t *testing.T, content string, createdAt *time.Time) domain.Document {
	t.Helper()
	doc := domain.Document{Content: content, CreatedAt: createdAt}
	NewTagger(testRoster(t)).Tag(&doc)
	return doc
}

func TestTagPlayers(t *testing.T) {
	doc := taggedDoc(t, "Mikey traded with DAVE again.", nil)
	assert.Equal(t, []string{"Dave Smith", "Mike Jones"}, doc.Entities[domain.EntityPlayers])
}

func TestTagWholeWordOnly(t *testing.T) {
	// "mike" inside "mikes" must not match, but "mikey" does.
	doc := taggedDoc(t, "Carmikes theatre was fun", nil)
	assert.Empty(t, doc.Entities[domain.EntityPlayers])
}

func TestTagMultiWordAlias(t *testing.T) {
	doc := taggedDoc(t, "the commish vetoed it", nil)
	assert.Equal(t, []string{"Mike Jones"}, doc.Entities[domain.EntityPlayers])
}

func TestTagTeams(t *testing.T) {
	doc := taggedDoc(t, "gridiron gurus lost to the Couch Potatoes", nil)
	assert.Equal(t, []string{"Couch Potatoes", "Gridiron Gurus"}, doc.Entities[domain.EntityTeams])
}

func TestTagExplicitDates(t *testing.T) {
	doc := taggedDoc(t, "Drafted on Sep 3, 2023 and again 2023-09-10, then 9/17/2023.", nil)
	assert.Equal(t, []string{"2023-09-03", "2023-09-10", "2023-09-17"}, doc.Entities[domain.EntityDates])
}

func TestTagRelativeDates(t *testing.T) {
	at := time.Date(2023, 10, 10, 12, 0, 0, 0, time.UTC) // a Tuesday
	doc := taggedDoc(t, "He dropped him yesterday, after losing last Sunday.", &at)
	assert.Equal(t, []string{"2023-10-08", "2023-10-09"}, doc.Entities[domain.EntityDates])
}

func TestTagRelativeDatesNeedTimestamp(t *testing.T) {
	doc := taggedDoc(t, "He dropped him yesterday.", nil)
	assert.Empty(t, doc.Entities[domain.EntityDates])
}

func TestTagFreeCandidates(t *testing.T) {
	doc := taggedDoc(t, "Trade talk about Travis Kelce heated up.", nil)
	assert.Contains(t, doc.Tags, "maybe:Travis Kelce")
	// "Trade" alone is sentence-initial, not a candidate.
	assert.NotContains(t, doc.Tags, "maybe:Trade")
}

func TestTagFreeCandidatesSkipRosterMatches(t *testing.T) {
	doc := taggedDoc(t, "Mike Jones benched Travis Kelce.", nil)
	assert.Equal(t, []string{"Mike Jones"}, doc.Entities[domain.EntityPlayers])
	assert.NotContains(t, doc.Tags, "maybe:Mike Jones")
	assert.Contains(t, doc.Tags, "maybe:Travis Kelce")
}
