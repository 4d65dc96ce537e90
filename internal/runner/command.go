// Package runner spawns external commands on behalf of runs and streams
// their output.
package runner

import (
	"strings"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// Tokenize splits a command line into an executable and its arguments,
// honoring single- and double-quoted segments. Quotes group whitespace but
// are not part of the token.
func Tokenize(command string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inToken := false
	var quote rune // 0 when outside quotes

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, domain.Errf(domain.KindInvalidCommand, "unterminated %c quote", quote)
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	if len(tokens) == 0 {
		return nil, domain.Errf(domain.KindInvalidCommand, "empty command")
	}
	return tokens, nil
}

// CheckAllowed rejects executables outside the allow-list. An empty list
// permits everything.
func CheckAllowed(executable string, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	for _, a := range allowed {
		if executable == a {
			return nil
		}
	}
	return domain.Errf(domain.KindCommandNotAllowed, "executable %q is not on the allow-list", executable)
}
