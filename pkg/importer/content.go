package importer

import (
	"bytes"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/doc-site/pkg/markdown"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

var markdownContentTypes = map[string]bool{
	"text/markdown":   true,
	"text/x-markdown": true,
	"text/plain":      true,
}

// isRawMarkdown reports whether a response should be taken as markdown source
// rather than HTML.
func isRawMarkdown(u *url.URL, contentType string) bool {
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".md", ".markdown":
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return markdownContentTypes[strings.ToLower(mediaType)]
}

// extractHTML narrows an HTML page to its main content and converts it to
// markdown. The "auto" selector recognizes the documentation framework of
// the page and falls back to readability extraction.
func (im *Importer) extractHTML(body []byte, pageURL *url.URL, selector string) (title, content, framework string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", "", fmt.Errorf("%w: reading HTML from %s: %w", utils.ErrParsing, pageURL, err)
	}

	if !IsAutoSelector(selector) {
		title, content, err = convertSelection(doc, pageURL, selector)
		return title, content, "", err
	}

	if sig, ok := im.detector.detect(doc, body, pageURL.Hostname()); ok {
		title, content, err = convertSelection(doc, pageURL, sig.selector)
		if err == nil {
			return title, content, string(sig.framework), nil
		}
		im.log.WithField("framework", sig.framework).Debugf("Framework selector failed, using readability: %v", err)
	}

	title, content, err = extractReadable(body, pageURL)
	return title, content, frameworkReadability, err
}

// convertSelection converts the first element matching selector. The title
// is the first h1 in the selection, then <title>.
func convertSelection(doc *goquery.Document, pageURL *url.URL, selector string) (title, content string, err error) {
	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return "", "", fmt.Errorf("%w: selector '%s' not found on page '%s'", utils.ErrContentSelector, selector, pageURL)
	}
	mainContent := selection.First().Clone()
	cleanupHTML(mainContent)

	title = strings.TrimSpace(mainContent.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	content, err = toMarkdown(mainContent, pageURL)
	return title, content, err
}

func toMarkdown(selection *goquery.Selection, pageURL *url.URL) (string, error) {
	html, err := goquery.OuterHtml(selection)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrMarkdownConversion, err)
	}

	converter := md.NewConverter(pageURL.Host, true, nil)
	content, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrMarkdownConversion, err)
	}
	return strings.TrimSpace(content) + "\n", nil
}

// cleanupHTML removes navigation noise that converts badly: permalink
// anchors, edit links, scripts, and page chrome.
func cleanupHTML(content *goquery.Selection) {
	content.Find("script, style, noscript, nav, footer").Remove()
	content.Find("a.headerlink, a.permalink, a.anchor, a.edit-on-github").Remove()
	content.Find("a[title='Permalink to this heading']").Remove()
	content.Find("a[title='Link to this heading']").Remove()

	content.Find("a").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		href, _ := s.Attr("href")
		if text == "¶" || text == "#" || (text == "" && strings.HasPrefix(href, "#")) {
			s.Remove()
		}
	})
}

// markdownTitle returns the first heading of raw markdown content.
func markdownTitle(content string) string {
	if sections := markdown.ExtractSections(content); len(sections) > 0 {
		return sections[0].Title
	}
	return ""
}

// titleFromURL names a page after the last path segment, or the host.
func titleFromURL(u *url.URL) string {
	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	if base == "." || base == "/" || base == "" {
		return u.Hostname()
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	return base
}
