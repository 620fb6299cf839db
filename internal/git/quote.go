package git

import (
	"regexp"
	"strings"
)

var (
	safeArgRe         = regexp.MustCompile(`^[A-Za-z0-9_/:=-]+$`)
	leadingEmptyRe    = regexp.MustCompile(`^(?:'')+`)
	enclosedEscapedRe = regexp.MustCompile(`\\'''`)
)

// QuoteArg quotes a single argument for a POSIX shell. Arguments made only
// of [A-Za-z0-9_/:=-] are returned unchanged.
func QuoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if safeArgRe.MatchString(arg) {
		return arg
	}
	quoted := "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	quoted = leadingEmptyRe.ReplaceAllString(quoted, "")
	return enclosedEscapedRe.ReplaceAllString(quoted, `\'`)
}

// QuoteCommand joins argv into a single "git ..." shell command string.
// It is meant for transports that only accept a command line; local
// execution passes argv directly.
func QuoteCommand(argv []string) string {
	parts := make([]string, 0, len(argv)+1)
	parts = append(parts, "git")
	for _, a := range argv {
		parts = append(parts, QuoteArg(a))
	}
	return strings.Join(parts, " ")
}
