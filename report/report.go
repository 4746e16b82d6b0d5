// Package report renders knowledge base responses as plain text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/a-h/bedrockrag/models"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"gopkg.in/yaml.v3"
)

// EmptyResultWarning is printed when a response has no citations.
const EmptyResultWarning = "warning: no citations were returned"

// New creates a Printer. A width of zero disables word wrapping.
func New(w io.Writer, width int) Printer {
	return Printer{
		w:     w,
		width: width,
	}
}

type Printer struct {
	w     io.Writer
	width int
}

// PrintCitations writes each citation with its 1-based index, content, location and metadata.
func PrintCitations(w io.Writer, citations []models.Citation) error {
	return New(w, 0).PrintCitations(citations)
}

// ReportComparison writes the answers and citations of both responses, followed by their citation counts.
func ReportComparison(w io.Writer, without, with models.QueryResponse) error {
	return New(w, 0).ReportComparison(without, with)
}

func (p Printer) PrintCitations(citations []models.Citation) error {
	var sb strings.Builder
	if err := p.writeCitations(&sb, citations); err != nil {
		return err
	}
	_, err := io.WriteString(p.w, sb.String())
	return err
}

func (p Printer) PrintResponse(resp models.QueryResponse) error {
	var sb strings.Builder
	if err := p.writeResponse(&sb, resp); err != nil {
		return err
	}
	_, err := io.WriteString(p.w, sb.String())
	return err
}

func (p Printer) ReportComparison(without, with models.QueryResponse) error {
	var sb strings.Builder
	sb.WriteString("=== Without query decomposition ===\n")
	if err := p.writeResponse(&sb, without); err != nil {
		return err
	}
	sb.WriteString("\n=== With query decomposition ===\n")
	if err := p.writeResponse(&sb, with); err != nil {
		return err
	}
	sb.WriteString("\n=== Summary ===\n")
	fmt.Fprintf(&sb, "Without query decomposition: %d citations\n", len(without.Citations))
	fmt.Fprintf(&sb, "With query decomposition: %d citations\n", len(with.Citations))
	_, err := io.WriteString(p.w, sb.String())
	return err
}

func (p Printer) writeResponse(sb *strings.Builder, resp models.QueryResponse) error {
	sb.WriteString("Answer:\n")
	sb.WriteString(p.block(resp.Answer))
	return p.writeCitations(sb, resp.Citations)
}

func (p Printer) writeCitations(sb *strings.Builder, citations []models.Citation) error {
	fmt.Fprintf(sb, "Citations: %d\n", len(citations))
	if len(citations) == 0 {
		sb.WriteString(EmptyResultWarning)
		sb.WriteString("\n")
		return nil
	}
	for i, c := range citations {
		fmt.Fprintf(sb, "\nCitation %d\n", i+1)
		if c.Score != nil {
			fmt.Fprintf(sb, "Score: %.4f\n", *c.Score)
		}
		sb.WriteString("Content:\n")
		sb.WriteString(p.block(c.Text))
		fmt.Fprintf(sb, "Location: %s\n", c.Location)
		if len(c.Metadata) == 0 {
			sb.WriteString("Metadata: {}\n")
			continue
		}
		md, err := yaml.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to render metadata of citation %d: %w", i+1, err)
		}
		sb.WriteString("Metadata:\n")
		sb.WriteString(indent.String(string(md), 2))
	}
	return nil
}

// block wraps and indents text as received, ending it with a newline.
func (p Printer) block(s string) string {
	if p.width > 0 {
		s = wordwrap.String(s, p.width-2)
	}
	s = indent.String(s, 2)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}
