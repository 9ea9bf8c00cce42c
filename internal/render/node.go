// Package render turns a stripped document body into structured nodes.
//
// Two policies exist. The structural policy walks a markdown AST and is the
// default. The legacy policy reproduces the historical blank-line chunk
// classifier and is kept for output compatibility only.
package render

import (
	"fmt"
	"strings"
)

// Kind identifies a node.
type Kind uint8

const (
	KindText Kind = iota
	KindHeading
	KindParagraph
	KindList
	KindListItem
	KindBlockquote
	KindStrong
	KindEmphasis
	KindLink
)

var kindNames = map[Kind]string{
	KindText:       "text",
	KindHeading:    "heading",
	KindParagraph:  "paragraph",
	KindList:       "list",
	KindListItem:   "item",
	KindBlockquote: "blockquote",
	KindStrong:     "strong",
	KindEmphasis:   "emphasis",
	KindLink:       "link",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", k)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("render: unknown node kind %q", b)
}

// Block reports whether the kind is block-level.
func (k Kind) Block() bool {
	switch k {
	case KindHeading, KindParagraph, KindList, KindListItem, KindBlockquote:
		return true
	}
	return false
}

// Node is one rendered element. Text leaves carry Text; headings carry
// Level (1-3); links carry Href; lists may be Ordered.
type Node struct {
	Kind     Kind     `json:"kind"`
	Level    int      `json:"level,omitempty"`
	Ordered  bool     `json:"ordered,omitempty"`
	Text     string   `json:"text,omitempty"`
	Href     string   `json:"href,omitempty"`
	Children NodeList `json:"children,omitempty"`
}

// NodeList is an ordered sequence of nodes.
type NodeList []Node

// Renderer maps a stripped body to nodes. Renderers never fail: markup they
// do not recognise becomes a paragraph.
type Renderer interface {
	Render(body string) NodeList
}

func text(s string) Node {
	return Node{Kind: KindText, Text: s}
}

// appendText adds s to list, merging with a trailing text node.
func appendText(list NodeList, s string) NodeList {
	if s == "" {
		return list
	}
	if n := len(list); n > 0 && list[n-1].Kind == KindText {
		list[n-1].Text += s
		return list
	}
	return append(list, text(s))
}

// Text flattens nodes to plain text, separating blocks with blank lines.
func Text(nodes NodeList) string {
	var parts []string
	var inline strings.Builder

	flush := func() {
		if s := strings.TrimSpace(inline.String()); s != "" {
			parts = append(parts, s)
		}
		inline.Reset()
	}

	for _, n := range nodes {
		switch {
		case n.Kind == KindText:
			inline.WriteString(n.Text)
		case n.Kind.Block():
			flush()
			if s := Text(n.Children); s != "" {
				parts = append(parts, s)
			}
		default:
			inline.WriteString(inlineText(n.Children))
		}
	}
	flush()

	return strings.Join(parts, "\n\n")
}

func inlineText(nodes NodeList) string {
	var b strings.Builder
	for _, n := range nodes {
		if n.Kind == KindText {
			b.WriteString(n.Text)
			continue
		}
		b.WriteString(inlineText(n.Children))
	}
	return b.String()
}

// WordCount counts whitespace-separated words in the rendered text.
func WordCount(nodes NodeList) int {
	return len(strings.Fields(Text(nodes)))
}
