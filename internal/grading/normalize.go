package grading

import "strings"

// Answer comparison is one canonical rule applied everywhere: both sides are
// normalized into a set of tokens and compared order-independently. A
// single-token answer therefore reduces to trimmed, case-insensitive string
// equality.

func isDelimiter(r rune) bool {
	return r == ',' || r == ';' || r == '|'
}

// normalizeTokens lowercases, trims and splits an answer string into its
// token set. Leading '*' markers (used by authoring tools to flag correct
// options) are stripped; empty tokens are dropped.
func normalizeTokens(raw string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, part := range strings.FieldsFunc(raw, isDelimiter) {
		token := strings.TrimSpace(strings.ToLower(part))
		token = strings.TrimPrefix(token, "*")
		token = strings.TrimSpace(token)
		if token != "" {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

// answersMatch reports whether a student's answer is equivalent to the
// correct answer under token-set comparison.
func answersMatch(student, correct string) bool {
	got := normalizeTokens(student)
	want := normalizeTokens(correct)

	if len(got) != len(want) || len(want) == 0 {
		return false
	}
	for token := range want {
		if _, ok := got[token]; !ok {
			return false
		}
	}
	return true
}
