package stream

import "strings"

// CompletionMarker is the literal substring the server embeds in the stream
// to denote end of content. Detection is per frame; a marker split across
// two frames is not recognized (the server flushes it as a single frame).
const CompletionMarker = "**Processing complete.**"

// FrameKind classifies an inbound text frame.
type FrameKind int

const (
	// FrameContent is an untagged frame whose text is part of the solution.
	FrameContent FrameKind = iota

	// FrameStatus is a tagged server log line, never part of the solution.
	FrameStatus

	// FrameCompletion carries the end-of-content marker.
	FrameCompletion
)

func (k FrameKind) String() string {
	switch k {
	case FrameContent:
		return "content"
	case FrameStatus:
		return "status"
	case FrameCompletion:
		return "completion"
	default:
		return "unknown"
	}
}

// statusTags are the recognized status-frame prefixes, case-sensitive.
var statusTags = []string{"[INFO]", "[DEBUG]", "[WARNING]", "[ERROR]"}

// Classify determines the kind of an inbound text frame. Status tags take
// precedence over the completion marker so a tagged line mentioning the
// marker is still a status frame.
func Classify(text string) FrameKind {
	for _, tag := range statusTags {
		if strings.HasPrefix(text, tag) {
			return FrameStatus
		}
	}
	if strings.Contains(text, CompletionMarker) {
		return FrameCompletion
	}
	return FrameContent
}

// IsErrorStatus reports whether a status frame signals a server-side failure.
func IsErrorStatus(text string) bool {
	return strings.HasPrefix(text, "[ERROR]")
}
