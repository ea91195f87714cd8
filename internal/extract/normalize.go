// Package extract turns document text into question records.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var spaceRun = regexp.MustCompile(` {2,}`)

// Normalize joins words split by a trailing hyphen across a line break and
// collapses runs of spaces. Blank lines are kept since they delimit answers.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	out := make([]string, 0, len(lines))
	carry := ""
	for i, line := range lines {
		if carry != "" {
			line = carry + strings.TrimLeft(line, " \t")
			carry = ""
		}
		if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			if head, ok := splitHyphenated(line); ok {
				carry = head
				continue
			}
		}
		out = append(out, spaceRun.ReplaceAllString(line, " "))
	}
	return strings.Join(out, "\n")
}

// splitHyphenated returns the line without its trailing hyphen when the hyphen
// breaks a word, i.e. it directly follows a letter.
func splitHyphenated(line string) (string, bool) {
	trimmed := strings.TrimRight(line, " \t")
	if !strings.HasSuffix(trimmed, "-") {
		return "", false
	}
	head := strings.TrimSuffix(trimmed, "-")
	last, _ := utf8.DecodeLastRuneInString(head)
	if last == utf8.RuneError || !unicode.IsLetter(last) {
		return "", false
	}
	return head, true
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
