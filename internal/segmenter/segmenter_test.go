package segmenter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

func ts(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return &parsed
}

func email(title, messageID, inReplyTo string, at *time.Time, participants ...string) domain.RawRecord {
	return domain.RawRecord{
		Format:       domain.SourceEmail,
		Title:        title,
		MessageID:    messageID,
		InReplyTo:    inReplyTo,
		Timestamp:    at,
		Participants: participants,
		Body:         "body of " + messageID,
		NativeID:     messageID,
	}
}

func TestNormaliseSubject(t *testing.T) {
	assert.Equal(t, "week 5 recap", NormaliseSubject("Week 5 recap"))
	assert.Equal(t, "week 5 recap", NormaliseSubject("Re: Week 5 recap"))
	assert.Equal(t, "week 5 recap", NormaliseSubject("RE: FWD: Week 5 recap"))
	assert.Equal(t, "week 5 recap", NormaliseSubject("  Fw: week 5 RECAP "))
}

func TestGroup_NonEmailSingletons(t *testing.T) {
	records := []domain.RawRecord{
		{Format: domain.SourceNotebook, Title: "Note A", NativeID: "a"},
		{Format: domain.SourceTranscript, Title: "Episode 1", NativeID: "ep1"},
		{Format: domain.SourceNotebook, Title: "Note B", NativeID: "b"},
	}

	groups := New().Group(records)
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.Len(t, g.Records, 1)
	}
}

func TestGroup_ThreadsByReplyReference(t *testing.T) {
	records := []domain.RawRecord{
		email("Trade offer", "<m1>", "", ts(t, "2023-10-09T10:00:00Z"), "mike@x.com", "dave@x.com"),
		email("Completely different subject", "<m2>", "<m1>", ts(t, "2023-10-09T11:00:00Z"), "dave@x.com"),
	}

	groups := New().Group(records)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Records, 2)
}

func TestGroup_ThreadsByNormalisedSubject(t *testing.T) {
	records := []domain.RawRecord{
		email("Week 5 recap", "<m1>", "", ts(t, "2023-10-09T10:00:00Z"), "mike@x.com", "dave@x.com"),
		email("Re: Week 5 recap", "<m2>", "", ts(t, "2023-10-10T10:00:00Z"), "dave@x.com", "mike@x.com"),
		email("RE: Re: Week 5 recap", "<m3>", "", ts(t, "2023-10-11T10:00:00Z"), "steve@x.com", "mike@x.com"),
	}

	groups := New().Group(records)
	require.Len(t, groups, 1)
	assert.Equal(t, "week 5 recap", groups[0].ThreadKey)
	assert.Len(t, groups[0].Records, 3)
}

func TestGroup_SubjectMatchOutsideWindowSplits(t *testing.T) {
	// Same annual subject, disjoint participants, a year apart:
	// two threads.
	records := []domain.RawRecord{
		email("Draft day", "<y1>", "", ts(t, "2022-08-27T10:00:00Z"), "mike@x.com"),
		email("Draft day", "<y2>", "", ts(t, "2023-08-26T10:00:00Z"), "steve@x.com"),
	}

	groups := New().Group(records)
	assert.Len(t, groups, 2)
}

func TestGroup_SubjectMatchWithParticipantOverlapJoins(t *testing.T) {
	// Outside the window but same people: still one thread.
	records := []domain.RawRecord{
		email("Keeper rules", "<k1>", "", ts(t, "2023-01-01T10:00:00Z"), "mike@x.com", "dave@x.com"),
		email("Re: Keeper rules", "<k2>", "", ts(t, "2023-06-01T10:00:00Z"), "dave@x.com"),
	}

	groups := New().Group(records)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Records, 2)
}

func TestGroup_ChronologicalOrderWithinThread(t *testing.T) {
	records := []domain.RawRecord{
		email("Re: Waivers", "<w2>", "", ts(t, "2023-10-10T10:00:00Z"), "dave@x.com", "mike@x.com"),
		email("Waivers", "<w1>", "", ts(t, "2023-10-09T10:00:00Z"), "mike@x.com", "dave@x.com"),
	}

	groups := New().Group(records)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Records, 2)
	assert.Equal(t, "<w1>", groups[0].Records[0].MessageID)
	assert.Equal(t, "<w2>", groups[0].Records[1].MessageID)
}

func TestGroup_CustomWindow(t *testing.T) {
	seg := New(WithThreadWindow(24 * time.Hour))
	records := []domain.RawRecord{
		email("Standings", "<s1>", "", ts(t, "2023-10-01T10:00:00Z"), "mike@x.com"),
		email("Standings", "<s2>", "", ts(t, "2023-10-05T10:00:00Z"), "dave@x.com"),
	}

	groups := seg.Group(records)
	assert.Len(t, groups, 2)
}
