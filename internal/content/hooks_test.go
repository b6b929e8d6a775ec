package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHooks_QuotedLine(t *testing.T) {
	candidates, skipped := ParseHooks(`1. "Cook this"`)
	assert.Equal(t, []HookCandidate{{Ordinal: 1, Text: "Cook this"}}, candidates)
	assert.Equal(t, 0, skipped)
}

func TestParseHooks_PlainLineTrailingPeriod(t *testing.T) {
	candidates, skipped := ParseHooks("2. Cook this.")
	assert.Equal(t, []HookCandidate{{Ordinal: 2, Text: "Cook this"}}, candidates)
	assert.Equal(t, 0, skipped)
}

func TestParseHooks_NoNumberedLines(t *testing.T) {
	candidates, skipped := ParseHooks("Here are some ideas:\n- a bullet\n- another")
	assert.Empty(t, candidates)
	assert.Equal(t, 3, skipped)
}

func TestParseHooks_MixedFormats(t *testing.T) {
	input := "Here are your hooks:\n" +
		"1. \"You won't believe this kitchen trick\"\n" +
		"2. Stop scrolling if you love pasta.\n" +
		"\n" +
		"3. \"The 10-second rule nobody told you\"\n" +
		"Let me know which one you like!"

	candidates, skipped := ParseHooks(input)
	assert.Equal(t, []HookCandidate{
		{Ordinal: 1, Text: "You won't believe this kitchen trick"},
		{Ordinal: 2, Text: "Stop scrolling if you love pasta"},
		{Ordinal: 3, Text: "The 10-second rule nobody told you"},
	}, candidates)
	// The intro and outro lines don't match either pattern.
	assert.Equal(t, 2, skipped)
}

func TestParseHooks_SingleTrailingPeriodStripped(t *testing.T) {
	candidates, _ := ParseHooks("1. Wait for it...")
	if assert.Len(t, candidates, 1) {
		// Only one period is stripped, not the whole ellipsis.
		assert.Equal(t, "Wait for it..", candidates[0].Text)
	}
}

func TestParseHooks_DuplicateAndGappedOrdinals(t *testing.T) {
	candidates, _ := ParseHooks("1. First\n1. Also first\n5. Fifth")
	assert.Equal(t, []HookCandidate{
		{Ordinal: 1, Text: "First"},
		{Ordinal: 1, Text: "Also first"},
		{Ordinal: 5, Text: "Fifth"},
	}, candidates)
}

func TestParseHooks_QuotedWithTrailingWhitespace(t *testing.T) {
	candidates, _ := ParseHooks("3. \"Trailing spaces\"   ")
	assert.Equal(t, []HookCandidate{{Ordinal: 3, Text: "Trailing spaces"}}, candidates)
}

func TestParseHooks_EmptyInput(t *testing.T) {
	candidates, skipped := ParseHooks("")
	assert.Empty(t, candidates)
	assert.Zero(t, skipped)
}

func TestParseHooks_ZeroOrdinalSkipped(t *testing.T) {
	candidates, skipped := ParseHooks("0. Not a real hook")
	assert.Empty(t, candidates)
	assert.Equal(t, 1, skipped)
}
