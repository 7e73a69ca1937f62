package bot

import (
	"regexp"
	"strings"
	"unicode"
)

var mentionRE = regexp.MustCompile(`^<@!?(\d+)>$`)

// splitArgs splits on whitespace, keeping "double quoted" runs together.
func splitArgs(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		hasWord bool
	)
	flush := func() {
		if hasWord {
			out = append(out, cur.String())
		}
		cur.Reset()
		hasWord = false
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			hasWord = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			cur.WriteRune(r)
			hasWord = true
		}
	}
	flush()
	return out
}

// parseCommand returns the lower-cased command name and its arguments.
func parseCommand(prefix, content string) (string, []string, bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := splitArgs(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// parseUserRef accepts a <@id> mention or a bare numeric id.
func parseUserRef(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if m := mentionRE.FindStringSubmatch(arg); m != nil {
		return m[1], true
	}
	if arg != "" && isDigits(arg) {
		return arg, true
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
