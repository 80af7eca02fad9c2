package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/markdown"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// Options limits a single search. Zero values use the index defaults.
type Options struct {
	MaxResults    int
	SnippetLength int
}

// Result is one matching section of a project
type Result struct {
	ProjectSlug string `json:"projectSlug"`
	ProjectName string `json:"projectName"`
	Anchor      string `json:"anchor"`  // Empty when the match is above the first heading or on the project name
	Heading     string `json:"heading"` // Title of the section holding the match
	Snippet     string `json:"snippet"`
	Score       int    `json:"score"`
}

type indexedChunk struct {
	order   int
	heading string
	anchor  string
	body    string
	lowHead string
	lowBody string
}

type indexEntry struct {
	revision  int
	updatedAt time.Time
	chunks    []indexedChunk
}

// Index caches chunked project content by project ID and revision.
type Index struct {
	chunkCfg ChunkerConfig
	defaults Options
	log      *logrus.Entry

	mu      sync.RWMutex
	entries map[string]*indexEntry
}

var tokenizerOnce sync.Once

// NewIndex creates an empty index. The tokenizer is loaded on first use;
// if it fails, chunk sizes are estimated from rune counts.
func NewIndex(cfg config.SearchConfig, logger *logrus.Entry) *Index {
	tokenizerOnce.Do(func() {
		if err := InitTokenizer(DefaultEncoding); err != nil {
			logger.Warnf("Tokenizer unavailable, estimating chunk sizes: %v", err)
		}
	})
	return &Index{
		chunkCfg: ChunkerConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
		defaults: Options{MaxResults: cfg.MaxResults, SnippetLength: cfg.SnippetLength},
		log:      logger,
		entries:  make(map[string]*indexEntry),
	}
}

// Forget drops the cached chunks of a project
func (idx *Index) Forget(projectID string) {
	idx.mu.Lock()
	delete(idx.entries, projectID)
	idx.mu.Unlock()
}

// Len returns the number of cached projects
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Search matches every whitespace-separated term of query, case-insensitively,
// against the project name, section heading, and chunk text. Results are
// grouped per section and ordered by score.
func (idx *Index) Search(projects []*models.Project, query string, opts Options) ([]Result, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: search query is empty", utils.ErrInvalidInput)
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = idx.defaults.MaxResults
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = idx.defaults.SnippetLength
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = 160
	}

	type ranked struct {
		Result
		order int
	}
	var hits []ranked

	for _, p := range projects {
		if p == nil {
			continue
		}
		entry, err := idx.entryFor(p)
		if err != nil {
			return nil, err
		}

		lowName := strings.ToLower(p.Name)
		best := make(map[string]int) // section key -> position in hits
		for _, c := range entry.chunks {
			score, nameOnly, ok := scoreChunk(terms, lowName, c)
			if !ok {
				continue
			}

			r := Result{
				ProjectSlug: p.Slug,
				ProjectName: p.Name,
				Score:       score,
			}
			key := "\x00name"
			if nameOnly {
				r.Snippet = extractSnippet(collapseWhitespace(c.body), "", opts.SnippetLength)
			} else {
				key = c.anchor + "\x00" + c.heading
				r.Anchor = c.anchor
				r.Heading = c.heading
				r.Snippet = extractSnippet(collapseWhitespace(c.body), firstPresent(terms, c.lowBody), opts.SnippetLength)
			}

			if pos, seen := best[key]; seen {
				if hits[pos].Score < r.Score {
					hits[pos].Result = r
				}
				continue
			}
			best[key] = len(hits)
			hits = append(hits, ranked{Result: r, order: c.order})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].ProjectSlug != hits[j].ProjectSlug {
			return hits[i].ProjectSlug < hits[j].ProjectSlug
		}
		return hits[i].order < hits[j].order
	})

	if opts.MaxResults > 0 && len(hits) > opts.MaxResults {
		hits = hits[:opts.MaxResults]
	}
	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = h.Result
	}
	return results, nil
}

// scoreChunk requires every term somewhere in the name, heading, or body.
// Heading and name hits weigh more than body occurrences.
func scoreChunk(terms []string, lowName string, c indexedChunk) (score int, nameOnly, ok bool) {
	nameOnly = true
	for _, term := range terms {
		inName := strings.Contains(lowName, term)
		inHead := c.lowHead != "" && strings.Contains(c.lowHead, term)
		bodyHits := strings.Count(c.lowBody, term)
		if !inName && !inHead && bodyHits == 0 {
			return 0, false, false
		}
		if inHead || bodyHits > 0 {
			nameOnly = false
		}
		score += bodyHits
		if inHead {
			score += 5
		}
		if inName {
			score += 3
		}
	}
	return score, nameOnly, true
}

func firstPresent(terms []string, text string) string {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return term
		}
	}
	return ""
}

func (idx *Index) entryFor(p *models.Project) (*indexEntry, error) {
	idx.mu.RLock()
	entry, ok := idx.entries[p.ID]
	idx.mu.RUnlock()
	if ok && entry.revision == p.Revision && entry.updatedAt.Equal(p.UpdatedAt) {
		return entry, nil
	}

	chunks, err := chunkSections(p.Content, p.Sections, idx.chunkCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: chunking project %s: %w", utils.ErrParsing, p.Slug, err)
	}

	entry = &indexEntry{
		revision:  p.Revision,
		updatedAt: p.UpdatedAt,
		chunks:    chunks,
	}

	idx.mu.Lock()
	idx.entries[p.ID] = entry
	idx.mu.Unlock()

	idx.log.WithFields(logrus.Fields{"slug": p.Slug, "chunks": len(entry.chunks)}).Debug("Indexed project")
	return entry, nil
}

// chunkSections chunks content one section at a time, so every chunk
// belongs to exactly one heading. Text above the first heading has no anchor.
func chunkSections(content string, sections []models.SectionRecord, cfg ChunkerConfig) ([]indexedChunk, error) {
	ordered := make([]models.SectionRecord, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	resolver := anchorResolver{sections: ordered, cursor: -1}

	lines := strings.Split(content, "\n")
	headings := markdown.Headings(markdown.Parse(content).Blocks)

	var out []indexedChunk
	add := func(segment []string, heading, anchor string) error {
		chunks, err := ChunkMarkdown(strings.Join(segment, "\n"), cfg)
		if err != nil {
			return err
		}
		for _, c := range chunks {
			out = append(out, indexedChunk{
				order:   len(out),
				heading: heading,
				anchor:  anchor,
				body:    c.Body,
				lowHead: strings.ToLower(heading),
				lowBody: strings.ToLower(c.Body),
			})
		}
		return nil
	}

	start := len(lines)
	if len(headings) > 0 {
		start = headings[0].Line
	}
	if err := add(lines[:start], "", ""); err != nil {
		return nil, err
	}
	for i, h := range headings {
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].Line
		}
		if err := add(lines[h.Line:end], h.Text, resolver.resolve(h.Text)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// anchorResolver maps headings to stored section anchors in document order,
// so repeated titles resolve to successive sections.
type anchorResolver struct {
	sections []models.SectionRecord
	cursor   int
}

func (r *anchorResolver) resolve(title string) string {
	for i := r.cursor + 1; i < len(r.sections); i++ {
		if r.sections[i].Title == title {
			r.cursor = i
			return r.sections[i].Anchor
		}
	}

	base := markdown.GenerateAnchorNoFallback(title)
	for i, s := range r.sections {
		if s.Anchor == base || strings.HasPrefix(s.Anchor, base+"-") {
			r.cursor = max(r.cursor, i)
			return s.Anchor
		}
	}
	return ""
}
