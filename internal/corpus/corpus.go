// Package corpus accumulates the accepted records of one extraction run.
package corpus

import "sync"

// Summary is the structured part of an accepted record
type Summary struct {
	Title     string   `json:"title" yaml:"title"`
	Authors   []string `json:"authors" yaml:"authors"`
	Year      int      `json:"year" yaml:"year"`
	Reference string   `json:"reference" yaml:"reference"`
}

// Corpus holds summaries and descriptions as two index-aligned sequences.
// Entry i of every sequence comes from the same source file.
type Corpus struct {
	mu           sync.Mutex
	summaries    []Summary
	descriptions []string
	sources      []string
}

// New creates an empty corpus
func New() *Corpus {
	return &Corpus{}
}

// Append adds one accepted record
func (c *Corpus) Append(source string, summary Summary, description string) {
	summary.Authors = append([]string{}, summary.Authors...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries = append(c.summaries, summary)
	c.descriptions = append(c.descriptions, description)
	c.sources = append(c.sources, source)
}

// Len returns the number of accepted records
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.summaries)
}

// Summaries returns a copy of the summary sequence
func (c *Corpus) Summaries() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Summary, len(c.summaries))
	for i, s := range c.summaries {
		s.Authors = append([]string{}, s.Authors...)
		out[i] = s
	}
	return out
}

// Descriptions returns a copy of the description sequence
func (c *Corpus) Descriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.descriptions...)
}

// Sources returns the source file of each entry
func (c *Corpus) Sources() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.sources...)
}
