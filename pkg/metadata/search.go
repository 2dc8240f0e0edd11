package metadata

import "strings"

// TranslatePattern converts a glob-like pattern (`*` any run, `?` one
// char) into a SQL LIKE pattern, escaping any literal `%`, `_`, and `\`
// the caller wrote. If the result contains neither `%` nor `_` after
// translation, it is wrapped with `%...%` to emulate substring search.
//
// Returns ok=false when the pattern is empty or is `*`/`%` alone, which
// the caller must reject with bad_request.
func TranslatePattern(pattern string) (like string, ok bool) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" || trimmed == "*" || trimmed == "%" {
		return "", false
	}

	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	like = b.String()

	if !strings.ContainsAny(like, "%_") {
		like = "%" + like + "%"
	}
	return like, true
}

// MaxSearchDepth bounds recursive search traversal (spec.md §4.3: "hard
// depth cap of 20 to bound cycles that cannot actually occur in a valid
// tree but cheaply defend against misuse").
const MaxSearchDepth = 20

// MaxPathDepth bounds the upward parent walk used to reconstruct an
// absolute path from a file id.
const MaxPathDepth = 32

// DefaultSearchLimit and the valid search limit range.
const (
	DefaultSearchLimit = 100
	MinSearchLimit     = 1
	MaxSearchLimit     = 1000
)

// ClampSearchLimit applies the spec's default/range rules to a
// caller-supplied limit (0 meaning "not supplied").
func ClampSearchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit < MinSearchLimit {
		return MinSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}
