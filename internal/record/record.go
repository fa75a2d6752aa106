// Package record parses harvested OAI-PMH oai_dc documents and exposes their
// Dublin Core elements through selector lookups.
package record

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// DublinCoreNS is the namespace of the Dublin Core element set
const DublinCoreNS = "http://purl.org/dc/elements/1.1/"

// Selectors used by the extractor
const (
	Subject     = "subject"
	Title       = "title"
	Creator     = "creator"
	Date        = "date"
	Identifier  = "identifier"
	Description = "description"
)

// compiled holds the expressions of the selectors above, compiled once
var compiled = func() map[string]*xpath.Expr {
	exprs := make(map[string]*xpath.Expr)
	for _, selector := range []string{Subject, Title, Creator, Date, Identifier, Description} {
		exprs[selector] = xpath.MustCompile(expression(selector))
	}
	return exprs
}()

func expression(selector string) string {
	return fmt.Sprintf("//*[local-name()='%s']", selector)
}

// ParseError reports a document that is not well-formed XML
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Record is a parsed metadata document
type Record struct {
	path string
	doc  *xmlquery.Node
}

// Parse reads and parses the document at path
func Parse(path string) (*Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer file.Close()

	return parse(path, file)
}

// ParseBytes parses an in-memory document; name is only used in errors
func ParseBytes(name string, data []byte) (*Record, error) {
	return parse(name, bytes.NewReader(data))
}

func parse(name string, r io.Reader) (*Record, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	return &Record{path: name, doc: doc}, nil
}

// Path returns the file the record was parsed from
func (r *Record) Path() string {
	return r.path
}

// Values returns the text of every Dublin Core element named selector, in
// document order. Elements with no text are omitted.
func (r *Record) Values(selector string) []string {
	var values []string
	for _, text := range r.Texts(selector) {
		if text != "" {
			values = append(values, text)
		}
	}
	return values
}

// Texts is like Values but keeps one entry per element, empty ones included
func (r *Record) Texts(selector string) []string {
	expr, ok := compiled[selector]
	if !ok {
		var err error
		if expr, err = xpath.Compile(expression(selector)); err != nil {
			// only reachable with a selector that breaks the expression
			return nil
		}
	}

	var texts []string
	for _, node := range xmlquery.QuerySelectorAll(r.doc, expr) {
		if isDublinCore(node) {
			texts = append(texts, node.InnerText())
		}
	}
	return texts
}

// OAI-PMH headers reuse names such as identifier, so elements outside the
// Dublin Core namespace are skipped.
func isDublinCore(node *xmlquery.Node) bool {
	return node.NamespaceURI == DublinCoreNS || node.Prefix == "dc"
}
