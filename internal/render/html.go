package render

import (
	"html"
	"net/url"
	"strconv"
	"strings"
)

// HTML serialises nodes to an HTML fragment. Text is escaped and links with
// schemes other than http, https and mailto are neutralised.
func HTML(nodes NodeList) string {
	var b strings.Builder
	writeHTML(&b, nodes)
	return b.String()
}

func writeHTML(b *strings.Builder, nodes NodeList) {
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			b.WriteString(html.EscapeString(n.Text))
		case KindHeading:
			level := strconv.Itoa(clampLevel(n.Level))
			b.WriteString("<h" + level + ">")
			writeHTML(b, n.Children)
			b.WriteString("</h" + level + ">\n")
		case KindParagraph:
			wrap(b, "p", n.Children, true)
		case KindList:
			tag := "ul"
			if n.Ordered {
				tag = "ol"
			}
			b.WriteString("<" + tag + ">\n")
			writeHTML(b, n.Children)
			b.WriteString("</" + tag + ">\n")
		case KindListItem:
			wrap(b, "li", n.Children, true)
		case KindBlockquote:
			b.WriteString("<blockquote>\n")
			writeHTML(b, n.Children)
			if !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
			b.WriteString("</blockquote>\n")
		case KindStrong:
			wrap(b, "strong", n.Children, false)
		case KindEmphasis:
			wrap(b, "em", n.Children, false)
		case KindLink:
			b.WriteString(`<a href="` + html.EscapeString(safeHref(n.Href)) + `">`)
			writeHTML(b, n.Children)
			b.WriteString("</a>")
		}
	}
}

func wrap(b *strings.Builder, tag string, children NodeList, block bool) {
	b.WriteString("<" + tag + ">")
	writeHTML(b, children)
	b.WriteString("</" + tag + ">")
	if block {
		b.WriteByte('\n')
	}
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > MaxHeadingLevel:
		return MaxHeadingLevel
	}
	return level
}

func safeHref(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return href
	}
	return "#"
}
