package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/jonathan/figure-planner/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes, in terminal columns
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer renders figures and proposals for terminal output.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintFigure outputs one record.
func (p *Printer) PrintFigure(fig *types.Figure) {
	if fig == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "ID:      %s\n", fig.ID)
	fmt.Fprintf(&sb, "Name:    %s\n", fig.Name)
	fmt.Fprintf(&sb, "Status:  %s\n", fig.Status)
	if fig.Title != "" {
		fmt.Fprintf(&sb, "Title:   %s\n", fig.Title)
	}
	if len(fig.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags:    %s\n", strings.Join(fig.Tags, ", "))
	}
	fmt.Fprintf(&sb, "Assets:  thumbnail=%s portrait=%s\n", orDash(fig.ThumbnailKey), orDash(fig.PortraitKey))
	if fig.Plan != nil && fig.Plan.Summary != "" {
		fmt.Fprintf(&sb, "\nPlan:    %s\n", fig.Plan.Summary)
	}
	if fig.Notes != "" {
		fmt.Fprintf(&sb, "Notes:   %s\n", fig.Notes)
	}
	if fig.UpdatedAt > 0 {
		fmt.Fprintf(&sb, "Updated: %s\n", time.UnixMilli(fig.UpdatedAt).Format(time.RFC3339))
	}

	p.printBox("FIGURE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFigures outputs one line per record.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintFigures(figures []*types.Figure) {
	if len(figures) == 0 {
		fmt.Fprintln(p.out, "no figures")
		return
	}
	for _, f := range figures {
		fmt.Fprintf(p.out, "%-12s %-10s %s  %s\n", f.ID, f.Status, pad(f.Name, 16), truncate(f.Title, 50))
	}
	fmt.Fprintf(p.out, "\n%d figure(s)\n", len(figures))
}

// PrintProposal outputs a generated proposal.
func (p *Printer) PrintProposal(proposal *types.Proposal) {
	if proposal == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:    %s\n", proposal.Name)
	fmt.Fprintf(&sb, "Title:   %s\n", proposal.Title)
	fmt.Fprintf(&sb, "Summary: %s\n", proposal.Summary)
	if proposal.Hook != "" {
		fmt.Fprintf(&sb, "Hook:    %s\n", proposal.Hook)
	}
	if proposal.ThumbnailIdea != "" {
		fmt.Fprintf(&sb, "Thumb:   %s\n", proposal.ThumbnailIdea)
	}
	if len(proposal.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags:    %s\n", strings.Join(proposal.Tags, ", "))
	}
	if len(proposal.SourceHints) > 0 {
		sb.WriteString("\nSources:\n")
		count := min(len(proposal.SourceHints), maxItemsToShow)
		for _, s := range proposal.SourceHints[:count] {
			fmt.Fprintf(&sb, "  • %s\n", s)
		}
		if len(proposal.SourceHints) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(proposal.SourceHints)-maxItemsToShow)
		}
	}

	p.printBox("PROPOSAL", strings.TrimSuffix(sb.String(), "\n"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// displayWidth returns the number of terminal columns s occupies. Wide and
// fullwidth runes take two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// truncate shortens s to at most cols columns, ending in "..." when cut.
func truncate(s string, cols int) string {
	if displayWidth(s) <= cols {
		return s
	}
	var sb strings.Builder
	used := 0
	for _, r := range s {
		w := runeWidth(r)
		if used+w > cols-3 {
			break
		}
		sb.WriteRune(r)
		used += w
	}
	return sb.String() + "..."
}

// pad right-fills s with spaces to cols columns.
func pad(s string, cols int) string {
	if w := displayWidth(s); w < cols {
		return s + strings.Repeat(" ", cols-w)
	}
	return s
}
