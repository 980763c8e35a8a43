package generate

import (
	"strings"
)

// FenceMarker opens and closes a code block in markdown answers.
const FenceMarker = "```"

// StripFences removes a wrapping code fence from text. The opening line is
// dropped when text starts with a fence, and the last line is dropped when
// it is a fence as well. ok is false when nothing remains after the opening
// fence.
func StripFences(text string) (out string, ok bool) {
	if !strings.HasPrefix(text, FenceMarker) {
		return text, true
	}

	lines := splitLines(text)
	lines = lines[1:]
	if len(lines) == 0 {
		return "", false
	}
	if strings.HasPrefix(lines[len(lines)-1], FenceMarker) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n"), true
}

// splitLines splits on LF, CRLF and CR. A trailing line break does not
// produce an empty last line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
