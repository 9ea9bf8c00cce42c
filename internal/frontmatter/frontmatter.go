// Package frontmatter extracts the leading metadata block of a document.
//
// The accepted block is deliberately flat:
//
//	---
//	title: "Hello"
//	category: News
//	---
//
// Every line is a single `key: value` pair split on the first colon. Values
// may be wrapped in one pair of double quotes. Multi-line values, lists and
// nested maps are not supported; `tags: [a, b]` is the string "[a, b]".
package frontmatter

import (
	"regexp"
	"strings"
)

// Delimiter opens and closes a metadata block.
const Delimiter = "---"

// block matches a metadata block anchored at the start of the text. The body
// is captured non-greedily so the first closing delimiter ends the block, and
// the line break after that delimiter belongs to the block.
var block = regexp.MustCompile(`^---\s*([\s\S]*?)\s*---[ \t]*(?:\r?\n)?`)

// Metadata maps block keys to their unquoted values.
type Metadata map[string]string

// Get returns the trimmed value for key, or "" when missing.
func (m Metadata) Get(key string) string {
	return m[key]
}

// Extract parses the metadata block at the start of raw. Text without a block
// yields an empty, non-nil Metadata.
func Extract(raw string) Metadata {
	meta := Metadata{}

	match := block.FindStringSubmatch(raw)
	if match == nil {
		return meta
	}

	for _, line := range strings.Split(match[1], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		meta[key] = unquote(strings.TrimSpace(value))
	}

	return meta
}

// Strip removes the leading metadata block and returns the rest of raw
// untouched. Text without a block is returned as is.
func Strip(raw string) string {
	loc := block.FindStringIndex(raw)
	if loc == nil {
		return raw
	}
	return raw[loc[1]:]
}

// Split returns both the metadata and the stripped body.
func Split(raw string) (Metadata, string) {
	return Extract(raw), Strip(raw)
}

// HasBlock reports whether raw starts with a metadata block.
func HasBlock(raw string) bool {
	return block.MatchString(raw)
}

// unquote strips exactly one pair of surrounding double quotes.
func unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}
