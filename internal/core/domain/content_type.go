package domain

// ContentType is the classifier's label for a document.
type ContentType string

// The fixed label set. Documents the classifier cannot place with
// sufficient confidence are labelled ContentTypeOther rather than guessed.
const (
	ContentTypeRoast     ContentType = "roast"
	ContentTypeRecap     ContentType = "recap"
	ContentTypeTradeTalk ContentType = "trade-talk"
	ContentTypeStats     ContentType = "stats"
	ContentTypeLore      ContentType = "lore"
	ContentTypeOther     ContentType = "other"
)

// ContentTypes lists all valid labels.
func ContentTypes() []ContentType {
	return []ContentType{
		ContentTypeRoast,
		ContentTypeRecap,
		ContentTypeTradeTalk,
		ContentTypeStats,
		ContentTypeLore,
		ContentTypeOther,
	}
}

// ValidContentType reports whether label is a member of the fixed set.
func ValidContentType(label ContentType) bool {
	for _, ct := range ContentTypes() {
		if ct == label {
			return true
		}
	}
	return false
}
