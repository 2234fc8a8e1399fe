package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

type theme struct {
	color bool
	ok    lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	path  lipgloss.Style
	faint lipgloss.Style
}

func plainTheme() theme {
	return theme{}
}

func colorTheme() theme {
	return theme{
		color: true,
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5fd787")).Bold(true),
		info:  lipgloss.NewStyle().Foreground(lipgloss.Color("#58d4ff")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaf5f")).Bold(true),
		path:  lipgloss.NewStyle().Bold(true),
		faint: lipgloss.NewStyle().Faint(true),
	}
}

// printer writes the ✓ / → / ⚠ progress lines. Colors are used only when
// the output is a terminal and NO_COLOR is unset.
type printer struct {
	w     io.Writer
	theme theme
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w, theme: plainTheme()}
	if f, ok := w.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			p.theme = colorTheme()
		}
	}
	return p
}

func (p *printer) paint(style lipgloss.Style, s string) string {
	if !p.theme.color {
		return s
	}
	return style.Render(s)
}

func (p *printer) ok(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(p.theme.ok, "✓")+" "+fmt.Sprintf(format, args...))
}

func (p *printer) step(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(p.theme.info, "→")+" "+fmt.Sprintf(format, args...))
}

func (p *printer) warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(p.theme.warn, "⚠")+" "+fmt.Sprintf(format, args...))
}

func (p *printer) detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+p.paint(p.theme.faint, fmt.Sprintf(format, args...)))
}

func (p *printer) path(path string) string {
	return p.paint(p.theme.path, path)
}

func (p *printer) raw(data []byte) {
	p.w.Write(data)
}
