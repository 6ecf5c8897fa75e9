// Package report formats validation outcomes for a terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vk/palacegen/internal/validate"
)

// Printer writes styled reports to one writer. Colours follow the writer's
// capabilities, so buffers and pipes get plain text.
type Printer struct {
	w      io.Writer
	title  lipgloss.Style
	ok     lipgloss.Style
	fail   lipgloss.Style
	field  lipgloss.Style
	reason lipgloss.Style
	detail lipgloss.Style
}

// New returns a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		title:  r.NewStyle().Bold(true),
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		field:  r.NewStyle().Foreground(lipgloss.Color("6")),
		reason: r.NewStyle().Foreground(lipgloss.Color("3")),
		detail: r.NewStyle().Faint(true),
	}
}

// Valid reports a job that passed validation.
func (p *Printer) Valid(job string) {
	fmt.Fprintf(p.w, "%s %s\n", p.ok.Render("✓"), p.title.Render(job))
}

// Invalid reports every field error of a job as an aligned table.
func (p *Printer) Invalid(job string, errs []validate.FieldError) {
	noun := "problems"
	if len(errs) == 1 {
		noun = "problem"
	}
	fmt.Fprintf(p.w, "%s %s: %d %s\n", p.fail.Render("✗"), p.title.Render(job), len(errs), noun)

	fieldWidth, reasonWidth := 0, 0
	for _, e := range errs {
		fieldWidth = max(fieldWidth, lipgloss.Width(e.Field))
		reasonWidth = max(reasonWidth, lipgloss.Width(string(e.Reason)))
	}
	for _, e := range errs {
		line := strings.Join([]string{
			p.field.Width(fieldWidth).Render(e.Field),
			p.reason.Width(reasonWidth).Render(string(e.Reason)),
			p.detail.Render(e.Message),
		}, "  ")
		fmt.Fprintf(p.w, "  %s\n", line)
	}
}

// Written reports the files produced for a job.
func (p *Printer) Written(job string, files ...string) {
	fmt.Fprintf(p.w, "%s %s\n", p.ok.Render("✓"), p.title.Render(job))
	for _, f := range files {
		fmt.Fprintf(p.w, "  %s %s\n", p.detail.Render("wrote"), f)
	}
}
