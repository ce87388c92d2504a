// Package report renders a composed explanation into markdown and HTML for
// the presentation layer. It never recomputes any number it is handed.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"ayursense/domain/dosha"
	"ayursense/domain/explain"
)

// Renderer formats assessment explanations.
type Renderer struct{}

// NewRenderer creates a report renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Markdown renders the explanation as a markdown document.
func (r *Renderer) Markdown(fused dosha.FusionResult, ex explain.Explanation) string {
	var b strings.Builder

	b.WriteString("# Constitutional Assessment\n\n")
	b.WriteString(ex.Summary)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "**Dominant dosha:** %s  \n", ex.Dominant)
	fmt.Fprintf(&b, "**Imbalance level:** %s  \n", ex.Imbalance)
	fmt.Fprintf(&b, "**Overall confidence:** %.0f%% (%s)\n\n", ex.Confidence*100, ex.ConfidenceBand)

	b.WriteString("## Combined scores\n\n")
	for _, d := range dosha.CanonicalOrder {
		fmt.Fprintf(&b, "- %s: %.1f%%\n", d, fused.Scores[d]*100)
	}
	b.WriteString("\n## Modality contributions\n\n")

	for _, m := range ex.Modalities {
		fmt.Fprintf(&b, "### %s\n\n", m.Modality)
		fmt.Fprintf(&b, "%s (effective weight %.0f%%)\n\n", m.Contribution, m.Weight*100)
		for _, d := range dosha.CanonicalOrder {
			fmt.Fprintf(&b, "- %s: %.1f%%\n", d, m.Scores[d]*100)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the explanation as an HTML fragment.
func (r *Renderer) HTML(fused dosha.FusionResult, ex explain.Explanation) []byte {
	md := r.Markdown(fused, ex)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}
