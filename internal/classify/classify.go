// Package classify assigns a content-type label to each document
// using two tiers: cheap high-precision rules first, then an optional
// model-backed classifier for everything the rules cannot place.
package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driven"
	"github.com/leaguelore/leaguelore-cli/internal/logger"
)

// DefaultConfidenceThreshold is the minimum model confidence required
// to accept a model label. Below it the document stays "other".
const DefaultConfidenceThreshold = 0.5

// Rule patterns are matched against the lower-cased title and content.
// Title matches are higher precision, so titles are checked first.
var (
	recapTitle    = regexp.MustCompile(`\b(week\s+\d+\s+recap|recap:|season\s+recap|draft\s+recap)\b`)
	recapBody     = regexp.MustCompile(`\b(final\s+score|beat\s+me\s+by|won\s+by\s+\d+|matchup\s+of\s+the\s+week)\b`)
	tradePattern  = regexp.MustCompile(`\b(trade(?:d|s)?\s+(?:offer|block|for|away|deadline)|counter\s*offer|i'?ll\s+(?:give|send)\s+you|waiver\s+(?:wire|claim)|(?:accept|veto)\s+(?:the\s+)?trade)\b`)
	statsPattern  = regexp.MustCompile(`\b(points?\s+(?:per|against|for)|standings|\d+\.\d+\s+(?:pts|points)|league\s+leaders?|top\s+scor)\b`)
	roastPattern  = regexp.MustCompile(`\b(worst\s+(?:manager|team|pick|trade)|hall\s+of\s+shame|punishment|last\s+place|sacko|roast)\b`)
	lorePattern   = regexp.MustCompile(`\b(remember\s+when|league\s+history|origin\s+story|the\s+curse\s+of|legend\s+of|back\s+in\s+20\d\d)\b`)
)

// Classifier runs the two tiers. The model service may be nil, in
// which case only rules apply and unmatched documents become "other".
type Classifier struct {
	model     driven.ClassifierService
	threshold float64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithConfidenceThreshold overrides the model confidence floor.
func WithConfidenceThreshold(threshold float64) Option {
	return func(c *Classifier) { c.threshold = threshold }
}

// New creates a classifier. model may be nil.
func New(model driven.ClassifierService, opts ...Option) *Classifier {
	c := &Classifier{model: model, threshold: DefaultConfidenceThreshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify labels the document. The returned bool reports whether the
// model tier failed, so the caller can count capability errors; the
// label is always valid, falling back to "other".
func (c *Classifier) Classify(ctx context.Context, doc domain.Document) (domain.ContentType, bool) {
	if label, ok := ruleLabel(doc.Title, doc.Content); ok {
		return label, false
	}

	if c.model == nil {
		return domain.ContentTypeOther, false
	}

	label, confidence, err := c.model.Classify(ctx, classifierInput(doc))
	if err != nil {
		logger.Warn("model classifier failed for %s: %v", doc.ID, err)
		return domain.ContentTypeOther, true
	}
	ct := domain.ContentType(strings.ToLower(strings.TrimSpace(label)))
	if !domain.ValidContentType(ct) || confidence < c.threshold {
		return domain.ContentTypeOther, false
	}
	return ct, false
}

// ruleLabel applies the rule tier. Title rules win over body rules.
func ruleLabel(title, content string) (domain.ContentType, bool) {
	lowTitle := strings.ToLower(title)
	lowBody := strings.ToLower(content)

	if recapTitle.MatchString(lowTitle) {
		return domain.ContentTypeRecap, true
	}
	switch {
	case tradePattern.MatchString(lowTitle) || tradePattern.MatchString(lowBody):
		return domain.ContentTypeTradeTalk, true
	case roastPattern.MatchString(lowTitle) || roastPattern.MatchString(lowBody):
		return domain.ContentTypeRoast, true
	case statsPattern.MatchString(lowTitle) || statsPattern.MatchString(lowBody):
		return domain.ContentTypeStats, true
	case lorePattern.MatchString(lowTitle) || lorePattern.MatchString(lowBody):
		return domain.ContentTypeLore, true
	case recapBody.MatchString(lowBody):
		return domain.ContentTypeRecap, true
	}
	return "", false
}

// classifierInput truncates long documents: the opening text carries
// the signal and model context windows are finite.
func classifierInput(doc domain.Document) string {
	const maxChars = 2000
	text := doc.Title + "\n\n" + doc.Content
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}
