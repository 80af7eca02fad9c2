package importer

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// AutoSelector as a content selector recognizes the documentation framework
// of each page instead of using a fixed CSS selector.
const AutoSelector = "auto"

// frameworkReadability is reported when no framework matched and the page
// was extracted with readability.
const frameworkReadability = "readability"

type docFramework string

const (
	frameworkDocusaurus  docFramework = "docusaurus"
	frameworkMkDocs      docFramework = "mkdocs"
	frameworkSphinx      docFramework = "sphinx"
	frameworkGitBook     docFramework = "gitbook"
	frameworkReadTheDocs docFramework = "readthedocs"
)

// IsAutoSelector reports whether selector asks for framework detection
func IsAutoSelector(selector string) bool {
	return strings.EqualFold(strings.TrimSpace(selector), AutoSelector)
}

// frameworkSignature is the markup a documentation generator leaves behind.
// Any single match identifies the framework.
type frameworkSignature struct {
	framework  docFramework
	selector   string
	attributes []string
	classes    []string // A trailing * matches as a prefix
	scripts    []string // Substrings of script src attributes
	markers    []string // Lowercase substrings of the raw page
}

// Order matters: ReadTheDocs pages are usually Sphinx pages too.
var frameworkSignatures = []frameworkSignature{
	{
		framework:  frameworkDocusaurus,
		selector:   "article[class*='theme-doc'], .theme-doc-markdown, article.markdown, main article",
		attributes: []string{"data-docusaurus", "data-docusaurus-root-container"},
		classes:    []string{"docusaurus-wrapper", "theme-doc-markdown"},
		markers:    []string{"__docusaurus"},
	},
	{
		framework:  frameworkMkDocs,
		selector:   "article.md-content__inner, .md-content article, .md-content",
		attributes: []string{"data-md-component", "data-md-color-scheme"},
		classes:    []string{"md-content", "md-main"},
		markers:    []string{"material for mkdocs"},
	},
	{
		framework: frameworkReadTheDocs,
		selector:  ".rst-content, div[role='main'], .document",
		classes:   []string{"rst-content", "wy-nav-content"},
		scripts:   []string{"readthedocs"},
		markers:   []string{"readthedocs.io", "sphinx-rtd-theme"},
	},
	{
		framework: frameworkSphinx,
		selector:  "div.document, div.body, article.bd-article, main.bd-main",
		classes:   []string{"sphinxsidebar", "sphinx-tabs"},
		scripts:   []string{"searchindex.js", "_static/sphinx"},
		markers:   []string{"created using sphinx", "_static/alabaster"},
	},
	{
		framework: frameworkGitBook,
		selector:  "section.normal.markdown-section, .page-inner section, main[class*='gitbook']",
		classes:   []string{"gitbook*", "markdown-section"},
		markers:   []string{"gb-page"},
	},
}

func (sig frameworkSignature) matches(doc *goquery.Document, lowHTML string) bool {
	for _, attr := range sig.attributes {
		if doc.Find("["+attr+"]").Length() > 0 {
			return true
		}
	}
	for _, class := range sig.classes {
		if prefix, ok := strings.CutSuffix(class, "*"); ok {
			if hasClassPrefix(doc, prefix) {
				return true
			}
		} else if doc.Find("."+class).Length() > 0 {
			return true
		}
	}
	for _, pattern := range sig.scripts {
		found := doc.Find("script[src]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			src, _ := s.Attr("src")
			return strings.Contains(src, pattern)
		})
		if found.Length() > 0 {
			return true
		}
	}
	for _, marker := range sig.markers {
		if strings.Contains(lowHTML, marker) {
			return true
		}
	}
	return false
}

func hasClassPrefix(doc *goquery.Document, prefix string) bool {
	found := doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		classAttr, _ := s.Attr("class")
		for _, c := range strings.Fields(classAttr) {
			if strings.HasPrefix(c, prefix) {
				return true
			}
		}
		return false
	})
	return found.Length() > 0
}

// frameworkDetector remembers the framework recognized for each host.
// Hosts with no match are cached too, so readability is used directly.
type frameworkDetector struct {
	mu    sync.RWMutex
	hosts map[string]*frameworkSignature
	log   *logrus.Entry
}

func newFrameworkDetector(log *logrus.Entry) *frameworkDetector {
	return &frameworkDetector{hosts: make(map[string]*frameworkSignature), log: log}
}

// detect returns the signature for host, matching doc on the first visit
func (d *frameworkDetector) detect(doc *goquery.Document, raw []byte, host string) (frameworkSignature, bool) {
	d.mu.RLock()
	sig, cached := d.hosts[host]
	d.mu.RUnlock()
	if cached {
		if sig == nil {
			return frameworkSignature{}, false
		}
		return *sig, true
	}

	lowHTML := string(bytes.ToLower(raw))
	for i := range frameworkSignatures {
		if frameworkSignatures[i].matches(doc, lowHTML) {
			sig = &frameworkSignatures[i]
			break
		}
	}

	d.mu.Lock()
	d.hosts[host] = sig
	d.mu.Unlock()

	if sig == nil {
		d.log.WithField("host", host).Info("No documentation framework detected, using readability extraction")
		return frameworkSignature{}, false
	}
	d.log.WithFields(logrus.Fields{"host": host, "framework": sig.framework}).Info("Detected documentation framework")
	return *sig, true
}

// extractReadable uses Mozilla's Readability algorithm to find the article
// body of a page that has no known framework markup.
func extractReadable(body []byte, pageURL *url.URL) (title, content string, err error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: readability extraction failed for %s: %w", utils.ErrContentSelector, pageURL, err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", "", fmt.Errorf("%w: readability found no content on %s", utils.ErrContentSelector, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", "", fmt.Errorf("%w: reading readability output: %w", utils.ErrParsing, err)
	}
	mainContent := doc.Find("body")
	cleanupHTML(mainContent)

	content, err = toMarkdown(mainContent, pageURL)
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(article.Title)
	if title == "" {
		title = strings.TrimSpace(mainContent.Find("h1").First().Text())
	}
	return title, content, nil
}
