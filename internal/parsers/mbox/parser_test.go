package mbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// collect drains both channels and returns records plus errors.
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

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParser_Contract(t *testing.T) {
	p := New()
	assert.Equal(t, domain.SourceEmail, p.Format())
	assert.Contains(t, p.Extensions(), ".mbox")
	assert.Contains(t, p.Extensions(), ".eml")
}

func TestParse_SingleEML(t *testing.T) {
	eml := `From: mike@example.com
To: dave@example.com, steve@example.com
Subject: Week 5 recap
Date: Mon, 09 Oct 2023 10:00:00 +0000
Message-ID: <recap-w5@example.com>
Content-Type: text/plain

The Gurus got absolutely steamrolled this week, no other way to put it.
`
	path := writeFile(t, "recap.eml", eml)

	records, errs := collect(t, New(), path)
	require.Empty(t, errs)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, domain.SourceEmail, rec.Format)
	assert.Equal(t, "Week 5 recap", rec.Title)
	assert.Equal(t, "<recap-w5@example.com>", rec.NativeID)
	assert.Contains(t, rec.Body, "steamrolled")
	assert.Equal(t, []string{"mike@example.com", "dave@example.com", "steve@example.com"}, rec.Participants)
	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, 2023, rec.Timestamp.Year())
}

func TestParse_Mbox_MultipleMessages(t *testing.T) {
	mboxContent := `From mike@example.com Mon Oct  9 10:00:00 2023
From: mike@example.com
To: league@example.com
Subject: Trade block update
Message-ID: <m1@example.com>

Listening to offers on my RB2, no lowballs this time please.

From dave@example.com Mon Oct  9 11:00:00 2023
From: dave@example.com
To: league@example.com
Subject: Re: Trade block update
Message-ID: <m2@example.com>
In-Reply-To: <m1@example.com>

Define lowball, because last year you wanted two firsts for a kicker.
`
	path := writeFile(t, "league.mbox", mboxContent)

	records, errs := collect(t, New(), path)
	require.Empty(t, errs)
	require.Len(t, records, 2)
	assert.Equal(t, "<m1@example.com>", records[0].NativeID)
	assert.Equal(t, "<m1@example.com>", records[1].InReplyTo)
}

func TestParse_StripsQuotedReplies(t *testing.T) {
	eml := `From: dave@example.com
To: mike@example.com
Subject: Re: Trade block update
Message-ID: <m2@example.com>
Content-Type: text/plain

Hard pass on that offer, my dude.

On Mon, Oct 9, 2023 at 10:00 AM Mike wrote:
> Listening to offers on my RB2.
> No lowballs this time.
`
	path := writeFile(t, "reply.eml", eml)

	records, errs := collect(t, New(), path)
	require.Empty(t, errs)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Body, "Hard pass")
	assert.NotContains(t, records[0].Body, "Listening to offers")
	assert.NotContains(t, records[0].Body, "wrote:")
}

func TestParse_StripsSignature(t *testing.T) {
	eml := `From: steve@example.com
To: league@example.com
Subject: lineup question
Message-ID: <m3@example.com>
Content-Type: text/plain

Anyone know if the bye weeks shift after the schedule change? Asking for my bench.

--
Steve Jablonski
Commissioner, Gridiron Gurus
`
	path := writeFile(t, "sig.eml", eml)

	records, errs := collect(t, New(), path)
	require.Empty(t, errs)
	require.Len(t, records, 1)
	assert.NotContains(t, records[0].Body, "Commissioner")
}

func TestParse_MultipartPrefersPlainText(t *testing.T) {
	eml := `From: mike@example.com
To: league@example.com
Subject: multipart test
Message-ID: <m4@example.com>
Content-Type: multipart/alternative; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/plain

Plain text body about the waiver wire chaos this morning.
--BOUNDARY
Content-Type: text/html

<html><body><p>HTML body about the <b>waiver wire</b> chaos.</p></body></html>
--BOUNDARY--
`
	path := writeFile(t, "multi.eml", eml)

	records, errs := collect(t, New(), path)
	require.Empty(t, errs)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Body, "Plain text body")
	assert.NotContains(t, records[0].Body, "<b>")
}

func TestParse_SkipsShortBodies(t *testing.T) {
	eml := `From: mike@example.com
To: league@example.com
Subject: ok
Message-ID: <m5@example.com>
Content-Type: text/plain

ok
`
	path := writeFile(t, "short.eml", eml)

	records, errs := collect(t, New(), path)
	require.Empty(t, errs)
	assert.Empty(t, records)
}

func TestParse_MalformedMessageSkipped(t *testing.T) {
	mboxContent := `From mike@example.com Mon Oct  9 10:00:00 2023
this is not a valid rfc822 message at all

From dave@example.com Mon Oct  9 11:00:00 2023
From: dave@example.com
To: league@example.com
Subject: still fine
Message-ID: <ok@example.com>

The archive keeps parsing even when one message is garbage.
`
	path := writeFile(t, "mixed.mbox", mboxContent)

	records, errs := collect(t, New(), path)
	require.Len(t, records, 1)
	assert.Equal(t, "<ok@example.com>", records[0].NativeID)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrParseRecord)
}

func TestParse_MissingFile(t *testing.T) {
	records, errs := collect(t, New(), filepath.Join(t.TempDir(), "nope.mbox"))
	assert.Empty(t, records)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrFileUnreadable)
}

func TestParse_Deterministic(t *testing.T) {
	eml := `From: mike@example.com
To: league@example.com
Subject: determinism check
Message-ID: <det@example.com>
Content-Type: text/plain

Same file, same records, every single time we parse it.
`
	path := writeFile(t, "det.eml", eml)

	first, _ := collect(t, New(), path)
	second, _ := collect(t, New(), path)
	assert.Equal(t, first, second)
}
