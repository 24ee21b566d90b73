package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Chunking.MaxTokens)
	assert.Equal(t, 32, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 0.3, cfg.Retrieval.Alpha)
	assert.Equal(t, 10, cfg.Retrieval.K)
	assert.Equal(t, 4, cfg.Ingest.Workers)
	assert.Equal(t, 20, cfg.Ingest.MinBodyLength)
	assert.Equal(t, 0, cfg.Ingest.MinNoteLength)
	assert.Equal(t, 30, cfg.Ingest.ThreadWindowDays)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir = "/tmp/lore"

[chunking]
max_tokens = 100
overlap_tokens = 10

[retrieval]
alpha = 0.5

[ingest]
subject_keywords = ["fantasy", "league"]

[embedding]
provider = "openai"
api_key = "sk-test"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lore", cfg.DataDir)
	assert.Equal(t, 100, cfg.Chunking.MaxTokens)
	assert.Equal(t, 10, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 0.5, cfg.Retrieval.Alpha)
	assert.Equal(t, []string{"fantasy", "league"}, cfg.Ingest.SubjectKeywords)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	// Untouched sections keep their defaults.
	assert.Equal(t, 10, cfg.Retrieval.K)
	assert.Equal(t, 4, cfg.Ingest.Workers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"alpha above one", "[retrieval]\nalpha = 1.5\n"},
		{"negative max tokens", "[chunking]\nmax_tokens = -1\n"},
		{"zero workers", "[ingest]\nworkers = 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "not [valid toml"))
	assert.Error(t, err)
}

func TestBuildRoster(t *testing.T) {
	path := writeConfig(t, `
[roster]
teams = ["Gridiron Gurus"]

[roster.members]
"Mike Jones" = ["mike", "mikey"]
"Dave Smith" = ["dave"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	roster, err := cfg.BuildRoster()
	require.NoError(t, err)

	canonical, ok := roster.Resolve("mikey")
	require.True(t, ok)
	assert.Equal(t, "Mike Jones", canonical)
	assert.Equal(t, []string{"Gridiron Gurus"}, roster.Teams())
}

func TestBuildRosterConflict(t *testing.T) {
	path := writeConfig(t, `
[roster.members]
"Mike Jones" = ["ace"]
"Dave Smith" = ["ace"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.BuildRoster()
	assert.ErrorIs(t, err, domain.ErrRosterInvalid)
}

func TestBuildRosterEmpty(t *testing.T) {
	cfg := Default()
	roster, err := cfg.BuildRoster()
	require.NoError(t, err)
	_, ok := roster.Resolve("anyone")
	assert.False(t, ok)
}
