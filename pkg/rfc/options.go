package rfc

import "strings"

// OptionLineWidth is the width of one OPTIONS line of RFC_READ_TABLE.
const OptionLineWidth = 72

// OptionLines builds the OPTIONS table of RFC_READ_TABLE. Each condition is
// split into lines of at most OptionLineWidth characters, breaking only at
// blanks outside quoted literals. A single token wider than a line is kept
// whole; the backend rejects it with a readable error.
func OptionLines(conditions []string) []map[string]any {
	var lines []map[string]any
	for _, condition := range conditions {
		for _, line := range splitCondition(strings.TrimSpace(condition)) {
			lines = append(lines, map[string]any{"TEXT": line})
		}
	}
	return lines
}

func splitCondition(condition string) []string {
	if condition == "" {
		return nil
	}
	if len(condition) <= OptionLineWidth {
		return []string{condition}
	}

	var (
		lines   []string
		current strings.Builder
	)
	for _, token := range tokenize(condition) {
		switch {
		case current.Len() == 0:
			current.WriteString(token)
		case current.Len()+1+len(token) <= OptionLineWidth:
			current.WriteByte(' ')
			current.WriteString(token)
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(token)
		}
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// tokenize splits on blanks that are not inside '...' literals. Doubled
// quotes inside a literal are escapes and do not end it.
func tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			if quoted && i+1 < len(s) && s[i+1] == '\'' {
				current.WriteString("''")
				i++
				continue
			}
			quoted = !quoted
			current.WriteByte(c)
		case c == ' ' && !quoted:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}
