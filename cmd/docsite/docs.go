package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/lint"
	"github.com/Sriram-PR/doc-site/pkg/markdown"
	"github.com/Sriram-PR/doc-site/pkg/project"
)

// readInput reads a markdown file, or stdin when path is "-"
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// localService parses documents without a store. Parse and ReadTime never
// touch storage.
func localService(anchorMode string) (*project.Service, error) {
	cfg := config.AppConfig{Markdown: config.MarkdownConfig{AnchorMode: anchorMode}}
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return project.NewService(nil, cfg.Markdown, nil, logrus.NewEntry(quiet)), nil
}

// fileArg returns the single positional argument or prints usage
func fileArg(fs *flag.FlagSet) string {
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

// runRender handles the render subcommand
func runRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	format := fs.String("format", "json", "Output format (json, sections, html)")
	anchors := fs.String("anchors", config.AnchorModeCanonical, "Anchor mode (canonical, legacy)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite render [options] <file|->\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doRender(fileArg(fs), *format, *anchors, os.Stdin, os.Stdout, os.Stderr))
}

// doRender parses one document and writes it in the requested format.
func doRender(path, format, anchorMode string, stdin io.Reader, stdout, stderr io.Writer) int {
	content, err := readInput(path, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	svc, err := localService(anchorMode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	doc := svc.Parse(content)

	var out any
	switch format {
	case "json":
		out = map[string]any{
			"sections":  doc.Sections,
			"nodes":     markdown.ToNodes(doc.Blocks),
			"wordCount": markdown.WordCount(content),
			"readTime":  svc.ReadTime(content),
		}
	case "sections":
		out = doc.Sections
	case "html":
		fmt.Fprintln(stdout, markdown.RenderHTML(doc.Blocks))
		return 0
	default:
		fmt.Fprintf(stderr, "Error: unknown format '%s' (supported: json, sections, html)\n", format)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runOutline handles the outline subcommand
func runOutline(args []string) {
	fs := flag.NewFlagSet("outline", flag.ExitOnError)
	compact := fs.Bool("compact", false, "Only show top-level sections")
	title := fs.String("title", "", "Tree title (defaults to the file name)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite outline [options] <file|->\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doOutline(fileArg(fs), *title, *compact, os.Stdin, os.Stdout, os.Stderr))
}

// doOutline prints the section tree of one document
func doOutline(path, title string, compact bool, stdin io.Reader, stdout, stderr io.Writer) int {
	content, err := readInput(path, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if title == "" {
		title = path
	}

	outline := markdown.BuildOutline(markdown.Parse(content).Sections)
	if compact {
		outline = markdown.CompactOutline(outline)
	}
	if err := markdown.WriteOutline(stdout, title, outline); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runLint handles the lint subcommand
func runLint(args []string) {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	strict := fs.Bool("strict", false, "Exit with status 1 when any warning is reported")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite lint [options] <file|->\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doLint(fileArg(fs), *strict, os.Stdin, os.Stdout, os.Stderr))
}

// doLint prints one line per diagnostic with a one-based line number.
func doLint(path string, strict bool, stdin io.Reader, stdout, stderr io.Writer) int {
	content, err := readInput(path, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	diags := lint.Diagnose(content)
	for _, d := range diags {
		fmt.Fprintf(stdout, "%s:%d: %s [%s] %s\n", path, d.Line+1, d.Severity, d.Code, d.Message)
	}
	if len(diags) == 0 {
		fmt.Fprintf(stdout, "%s: no problems found\n", path)
	}

	if strict && lint.HasWarnings(diags) {
		return 1
	}
	return 0
}

// runPreview handles the preview subcommand
func runPreview(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	style := fs.String("style", "auto", "Glamour style (auto, dark, light, notty, ascii)")
	width := fs.Int("width", 80, "Word wrap width")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite preview [options] <file|->\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doPreview(fileArg(fs), *style, *width, os.Stdin, os.Stdout, os.Stderr))
}

// doPreview renders a document for the terminal, preceded by its stats.
func doPreview(path, style string, width int, stdin io.Reader, stdout, stderr io.Writer) int {
	content, err := readInput(path, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	styleOpt := glamour.WithStandardStyle(style)
	if style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	rendered, err := tr.Render(content)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	doc := markdown.Parse(content)
	fmt.Fprintf(stdout, "%s: %d sections, %d words, %d min read\n",
		path, len(doc.Sections), markdown.WordCount(content), markdown.ReadTime(content, markdown.DefaultWordsPerMinute))
	fmt.Fprint(stdout, rendered)
	return 0
}
