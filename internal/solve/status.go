package solve

import (
	"regexp"
	"strings"

	"github.com/solvrlabs/solvr/internal/stream"
)

// statusPhrases maps known status-line prefixes (after the tag is stripped)
// to short presentation phrases. First match wins.
var statusPhrases = []struct {
	prefix string
	phrase string
}{
	{"connection established", "Connected…"},
	{"found pdf file", "Document received…"},
	{"initializing pdf processing", "Preparing document…"},
	{"processing '", "Processing document…"},
	{"uploading file", "Analyzing document…"},
	{"upload completed", "Document analyzed…"},
	{"extraction complete", "Text extracted, preparing solution…"},
	{"generating solutions", "Generating solution…"},
	{"processing complete.", "Solution complete"},
}

// trailingErrorRe captures the explanation out of lines shaped like
// "... Error: the file is encrypted".
var trailingErrorRe = regexp.MustCompile(`Error:\s*(.+)$`)

// MapStatus translates a raw status line into a presentation phrase.
// Unmatched informational and debug lines return ok=false: they are not
// shown, only logged. Error-tagged lines always map to "Error: <detail>".
func MapStatus(line string) (phrase string, ok bool) {
	if stream.IsErrorStatus(line) {
		return "Error: " + errorDetail(line), true
	}

	detail := strings.ToLower(stripTag(line))
	for _, sp := range statusPhrases {
		if strings.HasPrefix(detail, sp.prefix) {
			return sp.phrase, true
		}
	}
	return "", false
}

// errorDetail extracts a human explanation from an [ERROR] line.
func errorDetail(line string) string {
	detail := stripTag(line)
	if m := trailingErrorRe.FindStringSubmatch(detail); m != nil {
		return m[1]
	}
	if detail != "" {
		return detail
	}
	return "something went wrong"
}

// stripTag removes the leading "[LEVEL]" tag and surrounding space.
func stripTag(line string) string {
	if strings.HasPrefix(line, "[") {
		if i := strings.Index(line, "]"); i >= 0 {
			return strings.TrimSpace(line[i+1:])
		}
	}
	return strings.TrimSpace(line)
}
