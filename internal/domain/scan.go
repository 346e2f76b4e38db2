package domain

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const maxLineBytes = 1 << 20

// textLine is one right-trimmed line of a model text file and its whitespace tokens.
type textLine struct {
	text   string
	tokens []string
}

func scanLines(r io.Reader) ([]textLine, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []textLine
	for sc.Scan() {
		text := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		lines = append(lines, textLine{text: text, tokens: strings.Fields(text)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}
	return lines, nil
}

// lineAt returns lines[i] if i is in range and the line has at least minTokens tokens.
func lineAt(lines []textLine, i, minTokens int) (textLine, bool) {
	if i < 0 || i >= len(lines) {
		return textLine{}, false
	}
	l := lines[i]
	if len(l.tokens) < minTokens {
		return textLine{}, false
	}
	return l, true
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
