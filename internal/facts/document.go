package facts

import (
	"errors"
	"strconv"
	"strings"
)

// Taxonomy is the facts namespace that is flattened
const Taxonomy = "us-gaap"

// ErrMissingTaxonomy is returned for documents without facts.us-gaap
var ErrMissingTaxonomy = errors.New("document has no facts." + Taxonomy + " mapping")

// Document is a parsed companyfacts response
type Document struct {
	root     *Node
	taxonomy *Node

	CIK        int64
	EntityName string
}

// ParseDocument parses and validates a companyfacts body
func ParseDocument(data []byte) (*Document, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return NewDocument(root)
}

// NewDocument wraps a parsed tree, requiring the facts.us-gaap mapping
func NewDocument(root *Node) (*Document, error) {
	taxonomy, ok := root.Path("facts", Taxonomy)
	if !ok || !taxonomy.IsObject() {
		return nil, ErrMissingTaxonomy
	}

	doc := &Document{root: root, taxonomy: taxonomy}
	if n, ok := root.Get("cik"); ok {
		if text, ok := n.Text(); ok {
			doc.CIK, _ = strconv.ParseInt(strings.TrimLeft(text, "0"), 10, 64)
		}
	}
	if n, ok := root.Get("entityName"); ok {
		doc.EntityName, _ = n.Text()
	}
	return doc, nil
}

// Root is the whole document
func (d *Document) Root() *Node { return d.root }

// Taxonomy is the facts.us-gaap mapping the walker runs over
func (d *Document) Taxonomy() *Node { return d.taxonomy }
