package chat

import (
	"regexp"
	"strings"
)

// Quick-reply markers are full lines of the form <<label>> inside a bot
// message. They are derived on demand from the raw content and never
// stored separately.
var optionLine = regexp.MustCompile(`^\s*<<(.+?)>>\s*$`)

// Options extracts the quick-reply labels from a bot message body, in
// order of appearance.
func Options(content string) []string {
	var opts []string
	for _, line := range strings.Split(content, "\n") {
		if m := optionLine.FindStringSubmatch(line); m != nil {
			opts = append(opts, m[1])
		}
	}
	return opts
}

// StripOptions returns the body with the quick-reply marker lines removed,
// for display.
func StripOptions(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if optionLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}
