package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	startPattern    = regexp.MustCompile(`^(?P<id>[0-9]{1,3})\.\s+(?P<text>.*)$`)
	endPattern      = regexp.MustCompile(`^\s*(?P<text>.*)\s+\[(?P<id>[0-9]{1,3})\]\s*$`)
	sandwichPattern = regexp.MustCompile(`^[0-9]{1,3}\.\s+(?P<text>.+)\s+\[[0-9]{1,3}\]\s*$`)
	answerPattern   = regexp.MustCompile(`^(?P<slot>[abcd])\)\s+(?P<text>.*)$`)
)

// MatchStart reports whether line opens a question ("12. text").
func MatchStart(line string) (int64, string, bool) {
	m := startPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.ParseInt(m[startPattern.SubexpIndex("id")], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, strings.TrimSpace(m[startPattern.SubexpIndex("text")]), true
}

// MatchEnd reports whether line closes a question ("text [12]").
func MatchEnd(line string) (int64, string, bool) {
	m := endPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.ParseInt(m[endPattern.SubexpIndex("id")], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, strings.TrimSpace(m[endPattern.SubexpIndex("text")]), true
}

// MatchSandwiched returns the question text of a line carrying both markers
// ("12. text [12]"). Ids are not compared here.
func MatchSandwiched(line string) (string, bool) {
	m := sandwichPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	text := strings.TrimSpace(m[sandwichPattern.SubexpIndex("text")])
	if text == "" {
		return "", false
	}
	return text, true
}

// MatchAnswer reports whether line opens an answer block ("a) text").
func MatchAnswer(line string) (byte, string, bool) {
	m := answerPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	return m[answerPattern.SubexpIndex("slot")][0], strings.TrimSpace(m[answerPattern.SubexpIndex("text")]), true
}
