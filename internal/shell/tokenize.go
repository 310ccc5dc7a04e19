package shell

import "fmt"

// Tokenize splits a raw input line shell-style: whitespace separates tokens,
// single and double quotes group them, and backslash escapes the next
// character outside single quotes. An unterminated quote is an error.
func Tokenize(line string) ([]string, error) {
	var tokens []string
	var current []rune
	inToken := false

	const (
		plain = iota
		single
		double
	)
	state := plain
	escaped := false

	for _, r := range line {
		if escaped {
			current = append(current, r)
			inToken = true
			escaped = false
			continue
		}

		switch state {
		case plain:
			switch r {
			case '\\':
				escaped = true
			case '\'':
				state = single
				inToken = true
			case '"':
				state = double
				inToken = true
			case ' ', '\t':
				if inToken {
					tokens = append(tokens, string(current))
					current = current[:0]
					inToken = false
				}
			default:
				current = append(current, r)
				inToken = true
			}
		case single:
			if r == '\'' {
				state = plain
			} else {
				current = append(current, r)
			}
		case double:
			switch r {
			case '"':
				state = plain
			case '\\':
				escaped = true
			default:
				current = append(current, r)
			}
		}
	}

	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}
	if state != plain {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inToken {
		tokens = append(tokens, string(current))
	}
	return tokens, nil
}
