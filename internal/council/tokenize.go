package council

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrEmptyCommand      = errors.New("empty command")
	ErrUnterminatedQuote = errors.New("unterminated quote in command")
)

// SplitCommand splits a command string into an argument vector using
// shell-like quoting: whitespace separates tokens, single quotes are fully
// literal, double quotes group, and a backslash outside single quotes takes
// the next character literally. It never consults the environment.
func SplitCommand(command string) ([]string, error) {
	var (
		tokens     []string
		current    strings.Builder
		inToken    bool
		inSingle   bool
		inDouble   bool
		escapeNext bool
	)

	for _, ch := range command {
		switch {
		case escapeNext:
			current.WriteRune(ch)
			escapeNext = false
			inToken = true
		case ch == '\\' && !inSingle:
			escapeNext = true
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			inToken = true
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			inToken = true
		case unicode.IsSpace(ch) && !inSingle && !inDouble:
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(ch)
			inToken = true
		}
	}

	if inSingle || inDouble {
		return nil, ErrUnterminatedQuote
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}
	return tokens, nil
}
