package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/gnana997/quickgen/pkg/extractor"
	"github.com/gnana997/quickgen/pkg/knowledge"
	"github.com/gnana997/quickgen/pkg/scanner"
)

var (
	colorOK    = lipgloss.Color("#2CD7C7")
	colorWarn  = lipgloss.Color("#F4D03F")
	colorError = lipgloss.Color("#E74C3C")
	colorMuted = lipgloss.Color("#6C7A89")
)

// printer writes command output. Styling is applied only when the
// destination is a terminal, so piped output stays plain.
type printer struct {
	w      io.Writer
	styled bool

	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	muted lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &printer{
		w:      w,
		styled: styled,
		title:  lipgloss.NewStyle().Bold(true),
		ok:     lipgloss.NewStyle().Foreground(colorOK),
		warn:   lipgloss.NewStyle().Foreground(colorWarn),
		bad:    lipgloss.NewStyle().Foreground(colorError).Bold(true),
		muted:  lipgloss.NewStyle().Foreground(colorMuted),
	}
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) fileErrors(errs []scanner.FileError) {
	for _, e := range errs {
		p.printf("%s %s: %s\n", p.render(p.warn, "!"), e.Path, p.render(p.muted, e.Err.Error()))
	}
}

// docsSummary prints the end-of-run report of the documentation pass. In
// dry-run mode the per-file diffs come first.
func (p *printer) docsSummary(res *scanner.RunResult, dryRun bool) {
	if dryRun {
		for _, f := range res.Files {
			if len(f.Diff) > 0 {
				p.w.Write(f.Diff)
			}
		}
	}
	p.fileErrors(res.Errors)

	st := res.Stats
	verb := "updated"
	if dryRun {
		verb = "would update"
	}
	mark := p.render(p.ok, "✓")
	if st.Errored > 0 {
		mark = p.render(p.warn, "⚠")
	}
	p.printf("%s Scanned %d files: %s %s, %d skipped, %s (%d components) in %dms\n",
		mark, st.Scanned,
		p.render(p.title, fmt.Sprint(st.Updated)), verb,
		st.Skipped,
		p.countErrored(st.Errored),
		st.Components, st.DurationMs)
}

func (p *printer) knowledgeSummary(res *knowledge.Result) {
	p.fileErrors(res.Errors)

	st := res.Stats
	mark := p.render(p.ok, "✓")
	if st.Errored > 0 {
		mark = p.render(p.warn, "⚠")
	}
	p.printf("%s Knowledge base written to %s\n", mark, p.render(p.title, res.OutputDir))
	p.printf("  files %d (%d skipped, %s), symbols %d, imports %d, calls %d in %dms\n",
		st.Extracted, st.Skipped, p.countErrored(st.Errored),
		st.Symbols, st.Imports, st.Calls, st.DurationMs)
}

func (p *printer) countErrored(n int) string {
	s := fmt.Sprintf("%d errored", n)
	if n == 0 {
		return s
	}
	return p.render(p.bad, s)
}

func (p *printer) fileView(v *knowledge.FileView) {
	p.printf("%s\n", p.render(p.title, v.File))

	p.section("Symbols", len(v.Symbols))
	for _, s := range v.Symbols {
		p.printf("  %-9s %s %s\n", s.Kind, s.Name, p.lines(s.StartLine, s.EndLine))
	}

	p.section("Imports", len(v.Imports))
	for _, imp := range v.Imports {
		p.printf("  %q %s\n", imp.Source, specifierList(imp.Specifiers))
	}

	p.section("Exports", len(v.Exports))
	for _, e := range v.Exports {
		line := "  " + e.Name
		if e.Local != "" && e.Local != e.Name {
			line += " (" + e.Local + ")"
		}
		if e.Source != "" {
			line += fmt.Sprintf(" from %q", e.Source)
		}
		p.printf("%s\n", line)
	}

	p.section("References", len(v.References))
	for _, r := range v.References {
		switch r.Type {
		case knowledge.ReferenceExtends:
			p.printf("  extends %s %s\n", r.Name, p.lines(r.Line, r.Line))
		default:
			p.printf("  %s from %q\n", r.Local, r.Source)
		}
	}

	p.section("Calls", len(v.Calls))
	for _, c := range v.Calls {
		p.printf("  %s(%s) in %s %s\n", c.Name, strings.Join(c.Arguments, ", "), c.Context, p.lines(c.Line, c.Line))
	}
}

func (p *printer) trace(t *knowledge.TraceResult) {
	p.printf("%s\n", p.render(p.title, t.Symbol))

	p.section("Defined in", len(t.Definitions))
	for _, d := range t.Definitions {
		p.printf("  %s:%d %s\n", d.File, d.StartLine, p.render(p.muted, string(d.Kind)))
		if d.Snippet != "" {
			for _, line := range strings.Split(d.Snippet, "\n") {
				p.printf("    %s\n", p.render(p.muted, line))
			}
		}
	}

	p.section("Called from", countCalls(t.Calls))
	for _, fc := range t.Calls {
		for _, c := range fc.Calls {
			p.printf("  %s:%d in %s\n", fc.File, c.Line, c.Context)
		}
	}

	p.section("Imported by", len(t.Imports))
	for _, fi := range t.Imports {
		p.printf("  %s\n", fi.File)
	}
}

func (p *printer) section(name string, n int) {
	p.printf("\n%s %s\n", p.render(p.title, name), p.render(p.muted, fmt.Sprintf("(%d)", n)))
}

func (p *printer) lines(start, end int) string {
	if start == end {
		return p.render(p.muted, fmt.Sprintf("L%d", start))
	}
	return p.render(p.muted, fmt.Sprintf("L%d-%d", start, end))
}

func specifierList(specs []extractor.Specifier) string {
	if len(specs) == 0 {
		return "(side effect)"
	}
	parts := make([]string, 0, len(specs))
	for _, s := range specs {
		switch {
		case s.Type == extractor.ImportNamespaceSpecifier:
			parts = append(parts, "* as "+s.Local)
		case s.Imported != "" && s.Imported != s.Local:
			parts = append(parts, s.Imported+" as "+s.Local)
		default:
			parts = append(parts, s.Local)
		}
	}
	return strings.Join(parts, ", ")
}

func countCalls(calls []knowledge.FileCalls) int {
	n := 0
	for _, fc := range calls {
		n += len(fc.Calls)
	}
	return n
}
