package reply

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	citationRegex  = regexp.MustCompile(`\s*\[\d+\]`)
	spaceRunRegex  = regexp.MustCompile(`[ \t]+`)
	blankLineRegex = regexp.MustCompile(`\n{3,}`)
	mdParser       = goldmark.New().Parser()
)

// cleanReply flattens model markdown into plain text and drops [n] citation markers.
func cleanReply(raw string) string {
	out := markdownToText(raw)
	out = citationRegex.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

func markdownToText(md string) string {
	src := []byte(md)
	doc := mdParser.Parse(text.NewReader(src))
	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if !entering {
				return ast.WalkContinue, nil
			}
			b.Write(node.Segment.Value(src))
			if node.HardLineBreak() {
				b.WriteByte('\n')
			} else if node.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.Label(src))
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
				b.WriteString("\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				b.WriteString("- ")
			}
		case *ast.TextBlock, *ast.List:
			if !entering {
				b.WriteString("\n")
			}
		case *ast.Paragraph, *ast.Heading:
			if !entering {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	out := spaceRunRegex.ReplaceAllString(b.String(), " ")
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	out = strings.Join(lines, "\n")
	return blankLineRegex.ReplaceAllString(out, "\n\n")
}
