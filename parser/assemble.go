package parser

import (
	"github.com/gerunddev/orgtree/ast"
)

// assemble finishes a structurally parsed document: inline segmentation,
// parent links, document properties and plugin processors, in that order.
func (p *Parser) assemble(doc *ast.Node, props map[string]string, ctx *Context) {
	p.segmentTree(doc, ctx)

	ast.Relink(doc)
	for k, v := range props {
		doc.Properties[k] = v
	}

	p.runProcessors(doc, ctx)
	ast.Relink(doc)
}

// segmentTree rewrites the opaque Text left by the grammar in every
// container that allows inline content.
func (p *Parser) segmentTree(doc *ast.Node, ctx *Context) {
	doc.Walk(func(n *ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n.Kind {
		case ast.Heading, ast.ListItem:
			n.Inline = p.segmentAll(n.Inline, ctx)
		case ast.Paragraph, ast.TableCell:
			n.Children = p.segmentAll(n.Children, ctx)
			return ast.SkipChildren
		case ast.CodeBlock:
			return ast.SkipChildren
		}
		return ast.GoToNext
	})
}

func (p *Parser) segmentAll(nodes []*ast.Node, ctx *Context) []*ast.Node {
	var out []*ast.Node
	for _, n := range nodes {
		if n.Kind != ast.Text {
			out = append(out, n)
			continue
		}
		out = append(out, p.segment(n.Value, ctx)...)
	}
	return out
}

// runProcessors offers each matching node to each processor once. Matches
// are collected before a processor runs, so nodes it inserts are not fed
// back to it; nodes removed by an earlier call are skipped.
func (p *Parser) runProcessors(doc *ast.Node, ctx *Context) {
	for _, pr := range p.processors {
		if pr.Kind == ast.Document {
			continue
		}
		for _, n := range doc.Collect(pr.Kind) {
			if !attached(n, doc) {
				continue
			}
			switch out := pr.Process(n, ctx); {
			case out == nil:
				ctx.Logger.Debug("processor removed node", "kind", n.Kind)
				n.Remove()
			case out != n:
				n.ReplaceWith(out)
			}
		}
	}
}

func attached(n, root *ast.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
