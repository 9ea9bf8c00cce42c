package render

import (
	"regexp"
	"strings"
)

var boldSpan = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Legacy is the blank-line chunk classifier. Each chunk is classified on its
// own:
//
//   - "## " prefix: level 2 heading
//   - any line starting "- ": list made of those lines
//   - "> " prefix: blockquote
//   - anything else that is not blank: paragraph
//
// "**x**" becomes a strong span everywhere except headings. A list interrupted
// by a blank line yields two lists; chunks are never merged.
type Legacy struct{}

// Render implements Renderer.
func (Legacy) Render(body string) NodeList {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	var out NodeList
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.Trim(chunk, "\n")

		switch {
		case strings.HasPrefix(chunk, "## "):
			heading := strings.Replace(chunk, "## ", "", 1)
			out = append(out, Node{Kind: KindHeading, Level: 2, Children: NodeList{text(heading)}})

		case isListChunk(chunk):
			list := Node{Kind: KindList}
			for _, line := range strings.Split(chunk, "\n") {
				if strings.HasPrefix(line, "- ") {
					item := strings.TrimPrefix(line, "- ")
					list.Children = append(list.Children, Node{Kind: KindListItem, Children: bold(item)})
				}
			}
			out = append(out, list)

		case strings.HasPrefix(chunk, "> "):
			out = append(out, Node{Kind: KindBlockquote, Children: bold(unquoteLines(chunk))})

		case strings.TrimSpace(chunk) != "":
			out = append(out, Node{Kind: KindParagraph, Children: bold(chunk)})
		}
	}
	return out
}

func isListChunk(chunk string) bool {
	for _, line := range strings.Split(chunk, "\n") {
		if strings.HasPrefix(line, "- ") {
			return true
		}
	}
	return false
}

// unquoteLines drops the "> " marker from every quoted line.
func unquoteLines(chunk string) string {
	lines := strings.Split(chunk, "\n")
	for i, line := range lines {
		line = strings.TrimPrefix(line, ">")
		lines[i] = strings.TrimPrefix(line, " ")
	}
	return strings.Join(lines, "\n")
}

// bold splits s into text and strong spans.
func bold(s string) NodeList {
	var out NodeList
	last := 0
	for _, m := range boldSpan.FindAllStringSubmatchIndex(s, -1) {
		out = appendText(out, s[last:m[0]])
		out = append(out, Node{Kind: KindStrong, Children: NodeList{text(s[m[2]:m[3]])}})
		last = m[1]
	}
	return appendText(out, s[last:])
}
