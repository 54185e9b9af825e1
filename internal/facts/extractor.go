package facts

import "github.com/ppiankov/edgarflat/internal/model"

// Extractor runs the walker, resolver and builders with one walk mode
type Extractor struct {
	mode WalkMode
}

// NewExtractor creates an extractor
func NewExtractor(mode WalkMode) *Extractor {
	if mode == "" {
		mode = WalkFull
	}
	return &Extractor{mode: mode}
}

// Mode returns the configured walk mode
func (e *Extractor) Mode() WalkMode { return e.mode }

// Financials discovers concepts, resolves units and builds the Raw Financials
// table. Skips from unit resolution are included.
func (e *Extractor) Financials(doc *Document) Table[model.FactRow] {
	choices, unitSkips := ResolveUnits(doc, Discover(doc, e.mode))
	t := BuildFactTable(doc, choices)
	t.Skipped = append(unitSkips, t.Skipped...)
	return t
}

// Attributes re-walks the document and builds the Account Attributes table
func (e *Extractor) Attributes(doc *Document) Table[model.AttributeRow] {
	return BuildAttributeTable(doc, Discover(doc, e.mode))
}
