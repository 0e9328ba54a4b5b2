package constants

import "strings"

// Tag is a token-level BIO tag.
type Tag string

// EntityProject is the only entity type the pipeline recognizes.
const EntityProject = "PROJECT"

const (
	TagOutside       Tag = "O"
	TagBeginProject  Tag = "B-" + EntityProject
	TagInsideProject Tag = "I-" + EntityProject
)

// IgnoreLabelID marks subword positions excluded from the training loss.
const IgnoreLabelID = -100

// DefaultLabels is the label vocabulary in id order.
var DefaultLabels = []string{
	string(TagOutside),
	string(TagBeginProject),
	string(TagInsideProject),
}

// ToInside rewrites a "B-" prefix to "I-"; other tags are returned unchanged.
func ToInside(tag string) string {
	if strings.HasPrefix(tag, "B-") {
		return "I-" + strings.TrimPrefix(tag, "B-")
	}
	return tag
}

// SplitTag returns the BIO prefix and entity type of a label.
// Labels without a B-/I- prefix (including "O") report prefix "I", like the
// grouping logic of common token-classification pipelines.
func SplitTag(label string) (prefix, entity string) {
	switch {
	case strings.HasPrefix(label, "B-"):
		return "B", label[2:]
	case strings.HasPrefix(label, "I-"):
		return "I", label[2:]
	default:
		return "I", label
	}
}
