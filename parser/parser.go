// Package parser classifies incoming chat messages into capture intents.
package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Intent is the parsed classification of a message.
type Intent int

const (
	// TitledLink is a URL preceded by meaningful text to use as the title.
	TitledLink Intent = iota
	// BareLink is a URL with no usable text; content must be fetched.
	BareLink
	// PlainText is a message with no URL at all.
	PlainText
)

// String returns a human-readable intent name.
func (i Intent) String() string {
	switch i {
	case TitledLink:
		return "titled_link"
	case BareLink:
		return "bare_link"
	case PlainText:
		return "plain_text"
	default:
		return "unknown"
	}
}

// ParsedMessage is the result of classifying a raw message.
// URL is set for TitledLink and BareLink; Title is set only for TitledLink.
type ParsedMessage struct {
	Intent Intent
	Title  string
	URL    string
}

// urlPattern matches the first URL-looking token: http(s) scheme followed by
// non-whitespace. No further validation is done here.
var urlPattern = regexp.MustCompile(`https?://\S+`)

// noisePatterns strip trailing share boilerplate that messaging apps append
// when copying links (Douyin, Xiaohongshu, and generic localized variants).
// Applied sequentially, each to the result of the previous one.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[,，]?\s*复制打开抖音.*$`),
	regexp.MustCompile(`(?i)[,，]?\s*复制此链接.*$`),
	regexp.MustCompile(`(?i)[,，]?\s*copy and open Xiaohongshu.*$`),
	regexp.MustCompile(`(?i)[,，]?\s*打开抖音.*$`),
	regexp.MustCompile(`(?i)[,，]?\s*打开小红书.*$`),
	regexp.MustCompile(`(?i)[,，]?\s*点击链接.*$`),
}

// minTitleLen is the exclusive lower bound on a meaningful title prefix.
// One or two leftover characters are treated as noise.
const minTitleLen = 2

// StripNoise removes trailing share boilerplate from a title prefix.
// Idempotent: re-applying it to cleaned text is a no-op.
func StripNoise(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range noisePatterns {
		s = strings.TrimSpace(p.ReplaceAllString(s, ""))
	}
	return s
}

// Parse classifies a raw message into one of the three intents.
// Only the first URL match is considered, even if several are present.
func Parse(text string) ParsedMessage {
	loc := urlPattern.FindStringIndex(text)
	if loc == nil {
		return ParsedMessage{Intent: PlainText}
	}

	url := text[loc[0]:loc[1]]
	prefix := StripNoise(text[:loc[0]])

	if utf8.RuneCountInString(prefix) > minTitleLen {
		return ParsedMessage{Intent: TitledLink, Title: prefix, URL: url}
	}
	return ParsedMessage{Intent: BareLink, URL: url}
}
