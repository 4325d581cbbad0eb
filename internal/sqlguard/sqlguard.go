// Package sqlguard validates LLM-generated SQL before it can reach a
// database. Validation fails closed: anything that is not a single read-only
// SELECT is rejected and never executed.
package sqlguard

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrSecurityRejected indicates a statement that failed read-only
// validation. Rejected statements are never executed and never surfaced to
// the end user as raw errors.
var ErrSecurityRejected = errors.New("sql statement rejected")

// forbidden are keywords that mutate data or schema, or escape the query
// sandbox. Matched as whole words, case-insensitive.
var forbidden = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE", "TRUNCATE",
	"MERGE", "REPLACE", "GRANT", "REVOKE", "EXEC", "EXECUTE", "CALL",
	"ATTACH", "DETACH", "PRAGMA", "VACUUM", "INTO",
}

var (
	fencePattern     = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")
	commentPattern   = regexp.MustCompile(`--[^\n]*|/\*.*?\*/`)
	forbiddenPattern *regexp.Regexp
)

func init() {
	forbiddenPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(forbidden, "|") + `)\b`)
}

// Validate checks that raw contains exactly one read-only SELECT statement.
// Markdown code fences produced by LLMs are stripped first. The normalized
// statement is returned on success.
func Validate(raw string) (string, error) {
	stmt := Normalize(raw)
	if stmt == "" {
		return "", fmt.Errorf("%w: empty statement", ErrSecurityRejected)
	}

	// A trailing terminator is tolerated; an interior one means multiple
	// statements.
	trimmed := strings.TrimSuffix(stmt, ";")
	if strings.Contains(trimmed, ";") {
		return "", fmt.Errorf("%w: multiple statements", ErrSecurityRejected)
	}

	bare := commentPattern.ReplaceAllString(trimmed, " ")
	upper := strings.ToUpper(strings.TrimSpace(bare))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "", fmt.Errorf("%w: not a SELECT statement", ErrSecurityRejected)
	}

	if m := forbiddenPattern.FindString(bare); m != "" {
		return "", fmt.Errorf("%w: forbidden keyword %s", ErrSecurityRejected, strings.ToUpper(m))
	}

	return strings.TrimSpace(trimmed), nil
}

// Normalize strips markdown fences and surrounding whitespace from an
// LLM-produced statement without judging its safety.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return strings.TrimSpace(s)
}

// leadKeywords are tokens a SQL statement can plausibly start with: read
// statements plus everything on the forbidden list. A mutation still looks
// like SQL; Validate is what rejects it.
var leadKeywords = func() map[string]bool {
	kw := map[string]bool{
		"SELECT": true, "WITH": true, "EXPLAIN": true, "SHOW": true,
		"DESCRIBE": true, "VALUES": true, "BEGIN": true, "COMMIT": true,
		"ROLLBACK": true, "SET": true, "USE": true,
	}
	for _, f := range forbidden {
		kw[f] = true
	}
	return kw
}()

// LooksLikeSQL reports whether a statement starts with a SQL keyword.
// Distinguishes a model that produced SQL (safe or not) from one that
// replied with prose; callers treat prose as a decline, not a security
// rejection.
func LooksLikeSQL(raw string) bool {
	fields := strings.Fields(strings.ToUpper(Normalize(raw)))
	if len(fields) == 0 {
		return false
	}
	return leadKeywords[strings.TrimLeft(fields[0], "(")]
}
