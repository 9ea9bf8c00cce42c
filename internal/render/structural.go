package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	gmtext "github.com/yuin/goldmark/text"
)

// MaxHeadingLevel is the deepest heading kept as a heading. Deeper headings
// render as paragraphs.
const MaxHeadingLevel = 3

// Structural maps markdown blocks onto nodes by walking goldmark's AST. Lists
// separated by blank lines stay a single list.
//
// The parser is stateless, so one Structural can serve concurrent callers.
type Structural struct {
	parser parser.Parser
}

// NewStructural builds a CommonMark parser without extensions.
func NewStructural() *Structural {
	return &Structural{parser: goldmark.New().Parser()}
}

// Render implements Renderer.
func (r *Structural) Render(body string) NodeList {
	src := []byte(body)
	doc := r.parser.Parse(gmtext.NewReader(src))

	w := walker{src: src}
	return w.blocks(doc)
}

type walker struct {
	src []byte
}

func (w walker) blocks(parent ast.Node) NodeList {
	var out NodeList
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, w.block(c)...)
	}
	return out
}

func (w walker) block(n ast.Node) NodeList {
	switch n := n.(type) {
	case *ast.Heading:
		if n.Level > MaxHeadingLevel {
			return w.paragraph(w.inlines(n))
		}
		return NodeList{{Kind: KindHeading, Level: n.Level, Children: w.inlines(n)}}

	case *ast.Paragraph, *ast.TextBlock:
		return w.paragraph(w.inlines(n))

	case *ast.List:
		list := Node{Kind: KindList, Ordered: n.IsOrdered()}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			list.Children = append(list.Children, w.item(item))
		}
		return NodeList{list}

	case *ast.Blockquote:
		return NodeList{{Kind: KindBlockquote, Children: w.blocks(n)}}

	case *ast.ThematicBreak:
		return nil

	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return w.literal(n)

	default:
		if n.HasChildren() {
			return w.blocks(n)
		}
		return w.literal(n)
	}
}

// literal renders the raw text of an unrecognised block as a paragraph.
func (w walker) literal(n ast.Node) NodeList {
	s := w.lines(n)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return w.paragraph(NodeList{text(s)})
}

// item renders a list item. Tight items hold their inline content directly;
// loose items keep paragraph blocks.
func (w walker) item(n ast.Node) Node {
	item := Node{Kind: KindListItem}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if tb, ok := c.(*ast.TextBlock); ok {
			item.Children = append(item.Children, w.inlines(tb)...)
			continue
		}
		item.Children = append(item.Children, w.block(c)...)
	}
	return item
}

func (w walker) paragraph(children NodeList) NodeList {
	if len(children) == 0 {
		return nil
	}
	return NodeList{{Kind: KindParagraph, Children: children}}
}

func (w walker) inlines(parent ast.Node) NodeList {
	var out NodeList
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			out = appendText(out, string(c.Segment.Value(w.src)))
			if c.SoftLineBreak() || c.HardLineBreak() {
				out = appendText(out, "\n")
			}

		case *ast.String:
			out = appendText(out, string(c.Value))

		case *ast.Emphasis:
			kind := KindEmphasis
			if c.Level >= 2 {
				kind = KindStrong
			}
			out = append(out, Node{Kind: kind, Children: w.inlines(c)})

		case *ast.Link:
			out = append(out, Node{Kind: KindLink, Href: string(c.Destination), Children: w.inlines(c)})

		case *ast.AutoLink:
			out = append(out, Node{
				Kind:     KindLink,
				Href:     string(c.URL(w.src)),
				Children: NodeList{text(string(c.Label(w.src)))},
			})

		case *ast.RawHTML:
			for i := 0; i < c.Segments.Len(); i++ {
				seg := c.Segments.At(i)
				out = appendText(out, string(seg.Value(w.src)))
			}

		default:
			// Code spans, images and anything else keep only their text.
			for _, child := range w.inlines(c) {
				if child.Kind == KindText {
					out = appendText(out, child.Text)
					continue
				}
				out = append(out, child)
			}
		}
	}
	return out
}

// lines joins the raw lines of a leaf block.
func (w walker) lines(n ast.Node) string {
	lines := n.Lines()
	if lines == nil {
		return ""
	}
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(w.src))
	}
	return strings.TrimRight(b.String(), "\n")
}
