// File: internal/conversation/classify.go
package conversation

import "strings"

const (
	// OutOfContextReply is the canonical assistant answer for questions
	// the uploaded documents cannot ground.
	OutOfContextReply = "Out of context. Please ask based on the uploaded documents."

	// FallbackReply is shown in place of an assistant answer when an
	// exchange fails outright.
	FallbackReply = "Sorry, I encountered an error processing your request."
)

const outOfContextMarker = "out of context"

// IsOutOfContext reports whether an assistant reply declines to answer
// from the uploaded documents. The check is a case-insensitive substring
// match, so rephrased refusals like "This appears to be Out Of Context"
// are classified the same as the canonical sentence.
func IsOutOfContext(reply string) bool {
	return strings.Contains(strings.ToLower(reply), outOfContextMarker)
}
