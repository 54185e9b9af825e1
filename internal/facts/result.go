package facts

// SkipReason says why a concept contributed no rows to a table
type SkipReason string

const (
	SkipNotInTaxonomy  SkipReason = "not in taxonomy"
	SkipNotAMapping    SkipReason = "concept is not a mapping"
	SkipNoUnits        SkipReason = "no units"
	SkipMalformedUnits SkipReason = "malformed units"
	SkipNoAttributes   SkipReason = "no label or description"
)

// Stage names the builder that skipped a concept
type Stage string

const (
	StageUnits      Stage = "units"
	StageFacts      Stage = "facts"
	StageAttributes Stage = "attributes"
)

// Skip records one concept left out of a table
type Skip struct {
	Concept string     `json:"concept"`
	Stage   Stage      `json:"stage"`
	Reason  SkipReason `json:"reason"`
}

// ConceptResult is the outcome of extracting one concept: rows, or a reason
type ConceptResult[R any] struct {
	Concept string
	Rows    []R
	Skip    SkipReason
}

// OK reports whether the concept produced rows
func (r ConceptResult[R]) OK() bool { return r.Skip == "" }

// Table is a built table plus the concepts it could not cover
type Table[R any] struct {
	Rows    []R
	Skipped []Skip
}

// Add appends a concept's rows, or records it as skipped
func (t *Table[R]) Add(stage Stage, r ConceptResult[R]) {
	if !r.OK() {
		t.Skipped = append(t.Skipped, Skip{Concept: r.Concept, Stage: stage, Reason: r.Skip})
		return
	}
	t.Rows = append(t.Rows, r.Rows...)
}

func skipped[R any](concept string, reason SkipReason) ConceptResult[R] {
	return ConceptResult[R]{Concept: concept, Skip: reason}
}

// lookupConcept resolves taxonomy[concept] as a mapping
func lookupConcept(doc *Document, concept string) (*Node, SkipReason) {
	n, ok := doc.Taxonomy().Get(concept)
	if !ok {
		return nil, SkipNotInTaxonomy
	}
	if !n.IsObject() {
		return nil, SkipNotAMapping
	}
	return n, ""
}
