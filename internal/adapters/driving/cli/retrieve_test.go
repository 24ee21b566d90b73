package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

func TestRetrieveCmd_Use(t *testing.T) {
	assert.Equal(t, "retrieve [query]", retrieveCmd.Use)
}

func TestRetrieveCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"retrieve"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRetrieveCmd_HasFlags(t *testing.T) {
	require.NotNil(t, retrieveCmd.Flags().Lookup("limit"))
	require.NotNil(t, retrieveCmd.Flags().Lookup("alpha"))
	require.NotNil(t, retrieveCmd.Flags().Lookup("type"))
	require.NotNil(t, retrieveCmd.Flags().Lookup("season"))
	require.NotNil(t, retrieveCmd.Flags().Lookup("participant"))
	require.NotNil(t, retrieveCmd.Flags().Lookup("json"))
}

func TestRetrieveCmd_PassesOptions(t *testing.T) {
	_, _, retrieve, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{
		"retrieve", "the veto scandal",
		"--limit", "5",
		"--alpha", "0.6",
		"--type", "recap",
		"--season", "2023",
		"--participant", "Dave Smith",
	})
	defer func() {
		rootCmd.SetArgs(nil)
		retrieveK = 0
		retrieveAlpha = -1
		retrieveContentTypes = nil
		retrieveSeasons = nil
		retrieveParticipants = nil
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "the veto scandal", retrieve.query)
	assert.Equal(t, 5, retrieve.opts.K)
	require.NotNil(t, retrieve.opts.Alpha)
	assert.InDelta(t, 0.6, *retrieve.opts.Alpha, 1e-9)
	assert.Equal(t, []domain.ContentType{domain.ContentTypeRecap}, retrieve.opts.ContentTypes)
	assert.Equal(t, []string{"2023"}, retrieve.opts.Seasons)
	assert.Equal(t, []string{"Dave Smith"}, retrieve.opts.Participants)
}

func TestRetrieveCmd_RejectsUnknownContentType(t *testing.T) {
	_, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"retrieve", "anything", "--type", "gossip"})
	defer func() {
		rootCmd.SetArgs(nil)
		retrieveContentTypes = nil
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content type")
}

func TestRetrieveCmd_PrintsResults(t *testing.T) {
	_, _, retrieve, _, cleanup := setupTestServices()
	defer cleanup()

	ct := domain.ContentTypeRoast
	season := "2023"
	when := time.Date(2023, 10, 15, 0, 0, 0, 0, time.UTC)
	retrieve.results = []domain.RetrievedChunk{{
		Chunk: domain.Chunk{ID: "d1:0", DocumentID: "d1", Text: "The commish forgot to set his lineup again."},
		Document: domain.Document{
			ID: "d1", Title: "Week 6 Carnage", ContentType: &ct, Season: &season, CreatedAt: &when,
		},
		Score: 0.87,
	}}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"retrieve", "lineup"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Week 6 Carnage")
	assert.Contains(t, out, "0.87")
	assert.Contains(t, out, "roast")
	assert.Contains(t, out, "season 2023")
	assert.Contains(t, out, "forgot to set his lineup")
}

func TestRetrieveCmd_NoResults(t *testing.T) {
	_, _, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"retrieve", "nothing matches this"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found.")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short text", snippet("short  text", 80))
	long := snippet("one two three four five six seven eight nine ten", 20)
	assert.True(t, len(long) <= 24)
	assert.Contains(t, long, "...")
}
