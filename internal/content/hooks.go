package content

import (
	"regexp"
	"strconv"
	"strings"
)

// HookCandidate is one enumerated hook recovered from freeform model output.
type HookCandidate struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
}

// Model output enumerates hooks either quoted (`1. "Cook this"`) or plain
// (`2. Cook this.`). Both are accepted; the quoted form wins when it matches.
var (
	quotedHookRe = regexp.MustCompile(`^(\d+)\.\s+"(.*)"\s*$`)
	plainHookRe  = regexp.MustCompile(`^(\d+)\.\s+(.*?)\.?\s*$`)
)

// ParseHooks extracts numbered hook candidates from finalized hooks-stage
// output. It is a best-effort recovery, not a grammar: lines matching
// neither enumeration pattern are counted in skipped and dropped, and zero
// candidates is a valid (degraded) result the caller must tolerate by
// falling back to the raw text.
func ParseHooks(text string) (candidates []HookCandidate, skipped int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := quotedHookRe.FindStringSubmatch(line); m != nil {
			ordinal, err := strconv.Atoi(m[1])
			if err == nil && ordinal >= 1 {
				candidates = append(candidates, HookCandidate{Ordinal: ordinal, Text: m[2]})
				continue
			}
		}
		if m := plainHookRe.FindStringSubmatch(line); m != nil {
			ordinal, err := strconv.Atoi(m[1])
			body := strings.TrimSpace(m[2])
			if err == nil && ordinal >= 1 && body != "" {
				candidates = append(candidates, HookCandidate{Ordinal: ordinal, Text: body})
				continue
			}
		}
		skipped++
	}
	return candidates, skipped
}
