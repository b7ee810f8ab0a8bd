package orchestrator

import "strings"

const fence = "```"

// CleanGeneratedCode strips a leading markdown fence (with an optional
// language tag) and a trailing fence. Nothing else is touched, and
// cleaning its own output changes nothing.
func CleanGeneratedCode(code string) string {
	code = strings.TrimSpace(code)

	if strings.HasPrefix(code, fence) {
		rest := code[len(fence):]
		line, body, found := strings.Cut(rest, "\n")
		switch {
		case found && isLanguageTag(line):
			rest = body
		case !found && isLanguageTag(rest):
			rest = ""
		}
		code = strings.TrimSpace(rest)
	}

	if strings.HasSuffix(code, fence) {
		code = strings.TrimSpace(strings.TrimSuffix(code, fence))
	}
	return code
}

// isLanguageTag reports whether s looks like the info string of a fence
// ("python", "py3", "") rather than code.
func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '+' || r == '.':
		default:
			return false
		}
	}
	return true
}
