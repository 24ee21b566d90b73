package enex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<en-export export-date="20231216T040000Z" application="Evernote">
  <note>
    <title>Draft night chaos</title>
    <content><![CDATA[<?xml version="1.0" encoding="UTF-8"?>
<en-note><div>Mike took a kicker in round 6.</div><div>Nobody let him forget it all season.</div></en-note>]]></content>
    <created>20230827T013000Z</created>
    <updated>20230827T020000Z</updated>
    <tag>draft</tag>
    <tag>lore</tag>
    <note-attributes>
      <source-url>https://example.com/draft-board</source-url>
    </note-attributes>
  </note>
  <note>
    <title>Empty note</title>
    <content><![CDATA[<en-note></en-note>]]></content>
    <created>20230901T120000Z</created>
  </note>
</en-export>
`

func collect(t *testing.T, p *Parser, path string) ([]domain.RawRecord, []error) {
	t.Helper()
	recordsCh, errsCh := p.Parse(context.Background(), path)

	var records []domain.RawRecord
	var errs []error
	for recordsCh != nil || errsCh != nil {
		select {
		case r, ok := <-recordsCh:
			if !ok {
				recordsCh = nil
				continue
			}
			records = append(records, r)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			errs = append(errs, err)
		}
	}
	return records, errs
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.enex")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParser_Contract(t *testing.T) {
	p := New()
	assert.Equal(t, domain.SourceNotebook, p.Format())
	assert.Equal(t, []string{".enex"}, p.Extensions())
}

func TestParse_Notes(t *testing.T) {
	records, errs := collect(t, New(), writeExport(t, sampleExport))
	require.Empty(t, errs)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, domain.SourceNotebook, first.Format)
	assert.Equal(t, "Draft night chaos", first.Title)
	assert.Contains(t, first.Body, "kicker in round 6")
	assert.Contains(t, first.Body, "forget it all season")
	assert.Equal(t, []string{"draft", "lore"}, first.Tags)
	assert.Equal(t, "https://example.com/draft-board", first.Metadata["source_url"])
	require.NotNil(t, first.Timestamp)
	assert.Equal(t, 2023, first.Timestamp.Year())

	// Block tags become line breaks, not run-on text.
	assert.NotContains(t, first.Body, "round 6.Nobody")
}

func TestParse_EmptyBodyKeptByDefault(t *testing.T) {
	records, errs := collect(t, New(), writeExport(t, sampleExport))
	require.Empty(t, errs)
	require.Len(t, records, 2)
	assert.Equal(t, "Empty note", records[1].Title)
	assert.Equal(t, "", records[1].Body)
}

func TestParse_MinContentLengthFilters(t *testing.T) {
	records, errs := collect(t, New(WithMinContentLength(10)), writeExport(t, sampleExport))
	require.Empty(t, errs)
	require.Len(t, records, 1)
	assert.Equal(t, "Draft night chaos", records[0].Title)
}

func TestParse_NativeIDStableAcrossRuns(t *testing.T) {
	path := writeExport(t, sampleExport)
	first, _ := collect(t, New(), path)
	second, _ := collect(t, New(), path)
	require.Len(t, first, 2)
	assert.Equal(t, first[0].NativeID, second[0].NativeID)
}

func TestParse_EmbeddedResource(t *testing.T) {
	export := `<?xml version="1.0" encoding="UTF-8"?>
<en-export>
  <note>
    <title>With attachment</title>
    <content><![CDATA[<en-note><div>See the attached punishment photo.</div></en-note>]]></content>
    <created>20231001T090000Z</created>
    <resource>
      <data encoding="base64">aGVsbG8gd29ybGQ=</data>
      <mime>image/png</mime>
    </resource>
  </note>
</en-export>
`
	records, errs := collect(t, New(), writeExport(t, export))
	require.Empty(t, errs)
	require.Len(t, records, 1)
	require.Len(t, records[0].Attachments, 1)
	assert.Equal(t, "image/png", records[0].Attachments[0].MIMEType)
	assert.Equal(t, []byte("hello world"), records[0].Attachments[0].Data)
}

func TestParse_MissingFile(t *testing.T) {
	records, errs := collect(t, New(), filepath.Join(t.TempDir(), "gone.enex"))
	assert.Empty(t, records)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrFileUnreadable)
}

func TestExtractText_StripsStyleBlocks(t *testing.T) {
	html := `<en-note><style>body { color: red; }</style><div>Visible text only.</div></en-note>`
	assert.Equal(t, "Visible text only.", extractText(html))
}

func TestExtractText_DecodesEntities(t *testing.T) {
	html := `<en-note><div>Mike &amp; Dave &quot;argued&quot;</div></en-note>`
	assert.Equal(t, `Mike & Dave "argued"`, extractText(html))
}
