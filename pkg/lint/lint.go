package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Sriram-PR/doc-site/pkg/markdown"
)

// Severity ranks a Diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes.
const (
	CodeUnterminatedFence   = "unterminated-fence"
	CodeHeadingInFence      = "heading-in-fence"
	CodeDuplicateAnchor     = "duplicate-anchor"
	CodeAnchorMismatch      = "anchor-mismatch"
	CodeEmptyTableCell      = "empty-table-cell"
	CodeNonCommonMark       = "non-commonmark-heading"
	CodeUnrecognizedHeading = "unrecognized-heading"
)

var listItemRegex = regexp.MustCompile(`^\s*([-*+]|\d+\.)\s`)

// Diagnostic is one structural warning. Line is zero-based.
type Diagnostic struct {
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// sectionLine pairs an extracted section with the source line it came from.
type sectionLine struct {
	section markdown.Section
	line    int
	fenced  bool
}

// Diagnose reports constructs that the section extractor and document
// renderer handle differently from each other or from CommonMark.
// It never alters what either of them produce.
func Diagnose(content string) []Diagnostic {
	diags := []Diagnostic{}
	if content == "" {
		return diags
	}

	lines := strings.Split(content, "\n")
	sections := markdown.ExtractSections(content)
	located := locateSections(lines, sections)

	diags = append(diags, fenceDiagnostics(lines)...)
	diags = append(diags, sectionDiagnostics(located)...)
	diags = append(diags, mismatchDiagnostics(content, sections, located)...)
	diags = append(diags, tableDiagnostics(lines)...)
	diags = append(diags, commonMarkDiagnostics(content, located)...)

	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Line < diags[j].Line
	})
	return diags
}

// HasWarnings reports whether any diagnostic is a warning.
func HasWarnings(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// locateSections walks lines with the extractor's heading rule and attaches
// each line index to the matching section.
func locateSections(lines []string, sections []markdown.Section) []sectionLine {
	located := make([]sectionLine, 0, len(sections))
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		_, title, ok := markdown.ParseHeadingLine(line)
		if !ok || title == "" {
			continue
		}
		idx := len(located)
		if idx >= len(sections) {
			break
		}
		located = append(located, sectionLine{section: sections[idx], line: i, fenced: inFence})
	}
	return located
}

func fenceDiagnostics(lines []string) []Diagnostic {
	open := -1
	for i, line := range lines {
		if !strings.HasPrefix(line, "```") {
			continue
		}
		if open < 0 {
			open = i
		} else {
			open = -1
		}
	}
	if open < 0 {
		return nil
	}
	return []Diagnostic{{
		Line:     open,
		Severity: SeverityWarning,
		Code:     CodeUnterminatedFence,
		Message:  "code fence is never closed; its contents will not be rendered",
	}}
}

func sectionDiagnostics(located []sectionLine) []Diagnostic {
	var diags []Diagnostic
	for _, sl := range located {
		if sl.fenced {
			diags = append(diags, Diagnostic{
				Line:     sl.line,
				Severity: SeverityWarning,
				Code:     CodeHeadingInFence,
				Message:  fmt.Sprintf("line inside code fence is listed as section %q", sl.section.Title),
			})
		}
		if base := markdown.GenerateAnchor(sl.section.Title, sl.section.Order); base != sl.section.Anchor {
			diags = append(diags, Diagnostic{
				Line:     sl.line,
				Severity: SeverityInfo,
				Code:     CodeDuplicateAnchor,
				Message:  fmt.Sprintf("anchor %q already used; section gets %q", base, sl.section.Anchor),
			})
		}
	}
	return diags
}

func mismatchDiagnostics(content string, sections []markdown.Section, located []sectionLine) []Diagnostic {
	var diags []Diagnostic
	for _, m := range markdown.AnchorMismatches(sections, markdown.RenderDocument(content)) {
		line := m.Line
		if line < 0 && m.Index < len(located) {
			line = located[m.Index].line
		}
		diags = append(diags, Diagnostic{
			Line:     line,
			Severity: SeverityWarning,
			Code:     CodeAnchorMismatch,
			Message: fmt.Sprintf("heading %d %q: navigation anchor %q, page anchor %q",
				m.Index, m.Title, m.SectionAnchor, m.HeadingAnchor),
		})
	}
	return diags
}

func tableDiagnostics(lines []string) []Diagnostic {
	var diags []Diagnostic
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.Contains(line, "|") {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ">") || listItemRegex.MatchString(line) {
			continue
		}

		pieces := strings.Split(trimmed, "|")
		// an outer pipe leaves an empty first/last piece that is not a cell
		if len(pieces) > 0 && strings.TrimSpace(pieces[0]) == "" {
			pieces = pieces[1:]
		}
		if len(pieces) > 0 && strings.TrimSpace(pieces[len(pieces)-1]) == "" {
			pieces = pieces[:len(pieces)-1]
		}
		empty := 0
		for _, p := range pieces {
			if strings.TrimSpace(p) == "" {
				empty++
			}
		}
		if empty > 0 {
			diags = append(diags, Diagnostic{
				Line:     i,
				Severity: SeverityInfo,
				Code:     CodeEmptyTableCell,
				Message:  fmt.Sprintf("%d empty table cell(s) will be dropped and later cells shift left", empty),
			})
		}
	}
	return diags
}

func commonMarkDiagnostics(content string, located []sectionLine) []Diagnostic {
	cmLines := map[int]bool{}
	// goldmark does not skip a byte order mark; dropping it keeps line numbers
	headings := ExtractHeadings([]byte(strings.TrimPrefix(content, "\uFEFF")))
	for _, h := range headings {
		if h.Line >= 0 {
			cmLines[h.Line] = true
		}
	}

	naiveLines := map[int]bool{}
	var diags []Diagnostic
	for _, sl := range located {
		naiveLines[sl.line] = true
		if sl.fenced || cmLines[sl.line] {
			continue
		}
		diags = append(diags, Diagnostic{
			Line:     sl.line,
			Severity: SeverityWarning,
			Code:     CodeNonCommonMark,
			Message:  fmt.Sprintf("%q is a section here but not a heading in CommonMark", sl.section.Title),
		})
	}

	for _, h := range headings {
		if h.Line < 0 || naiveLines[h.Line] {
			continue
		}
		diags = append(diags, Diagnostic{
			Line:     h.Line,
			Severity: SeverityInfo,
			Code:     CodeUnrecognizedHeading,
			Message:  fmt.Sprintf("CommonMark heading %q is not listed as a section", h.Text),
		})
	}
	return diags
}
