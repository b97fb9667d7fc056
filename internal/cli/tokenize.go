package cli

import "strings"

// MaxTokens bounds the number of whitespace-separated tokens read from
// one command line, per the tokenization rule in the external
// interfaces section.
const MaxTokens = 32

// Tokenize splits line on whitespace, discarding empty fields, and
// truncates to MaxTokens tokens. Blank and whitespace-only lines
// tokenize to an empty slice.
func Tokenize(line string) []string {
	fields := strings.Fields(line)
	if len(fields) > MaxTokens {
		fields = fields[:MaxTokens]
	}
	return fields
}
