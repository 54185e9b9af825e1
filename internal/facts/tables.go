package facts

import (
	"database/sql"
	"math"
	"strconv"

	"github.com/ppiankov/edgarflat/internal/model"
)

// BuildFactTable emits one row per observation of each (concept, unit) pair,
// concatenated in resolver order. A concept whose path is missing or malformed
// contributes nothing; the build never aborts.
func BuildFactTable(doc *Document, choices []UnitChoice) Table[model.FactRow] {
	var t Table[model.FactRow]
	for _, choice := range choices {
		t.Add(StageFacts, factRows(doc, choice))
	}
	return t
}

func factRows(doc *Document, choice UnitChoice) ConceptResult[model.FactRow] {
	node, reason := lookupConcept(doc, choice.Concept)
	if reason != "" {
		return skipped[model.FactRow](choice.Concept, reason)
	}
	observations, ok := node.Path("units", choice.Unit)
	if !ok {
		return skipped[model.FactRow](choice.Concept, SkipNoUnits)
	}
	if !observations.IsArray() {
		return skipped[model.FactRow](choice.Concept, SkipMalformedUnits)
	}

	rows := make([]model.FactRow, 0, observations.Len())
	for _, obs := range observations.Items() {
		if !obs.IsObject() {
			return skipped[model.FactRow](choice.Concept, SkipMalformedUnits)
		}
		rows = append(rows, model.FactRow{
			Start:      textField(obs, "start"),
			End:        textField(obs, "end"),
			Val:        textField(obs, "val"),
			Accn:       textField(obs, "accn"),
			FY:         intField(obs, "fy"),
			FP:         textField(obs, "fp"),
			Form:       textField(obs, "form"),
			Filed:      textField(obs, "filed"),
			Frame:      textField(obs, "frame"),
			Units:      choice.Unit,
			AccountID:  choice.Concept,
			CIK:        doc.CIK,
			EntityName: doc.EntityName,
		})
	}
	return ConceptResult[model.FactRow]{Concept: choice.Concept, Rows: rows}
}

// BuildAttributeTable emits label/description rows for every discovered
// concept, independently of unit resolution. units is never copied.
func BuildAttributeTable(doc *Document, concepts []string) Table[model.AttributeRow] {
	var t Table[model.AttributeRow]
	seen := make(map[string]bool)
	for _, concept := range concepts {
		if seen[concept] {
			continue
		}
		seen[concept] = true
		t.Add(StageAttributes, attributeRows(doc, concept))
	}
	return t
}

func attributeRows(doc *Document, concept string) ConceptResult[model.AttributeRow] {
	node, reason := lookupConcept(doc, concept)
	if reason != "" {
		return skipped[model.AttributeRow](concept, reason)
	}
	label, hasLabel := node.Get("label")
	desc, hasDesc := node.Get("description")
	if !hasLabel && !hasDesc {
		return skipped[model.AttributeRow](concept, SkipNoAttributes)
	}

	// Scalars broadcast; sequences produce one row per element.
	n := max(1, label.Len()*boolInt(label.IsArray()), desc.Len()*boolInt(desc.IsArray()))
	rows := make([]model.AttributeRow, 0, n)
	for i := range n {
		rows = append(rows, model.AttributeRow{
			Label:       cellAt(label, i),
			Description: cellAt(desc, i),
			AccountID:   concept,
			CIK:         doc.CIK,
			EntityName:  doc.EntityName,
		})
	}
	return ConceptResult[model.AttributeRow]{Concept: concept, Rows: rows}
}

func cellAt(n *Node, i int) sql.NullString {
	if n.IsArray() {
		items := n.Items()
		if i >= len(items) {
			return sql.NullString{}
		}
		n = items[i]
	}
	s, ok := n.Text()
	return sql.NullString{String: s, Valid: ok}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func textField(obs *Node, key string) sql.NullString {
	n, ok := obs.Get(key)
	if !ok {
		return sql.NullString{}
	}
	s, ok := n.Text()
	return sql.NullString{String: s, Valid: ok}
}

// intField reads integral numbers, accepting "2020" and "2020.0"
func intField(obs *Node, key string) sql.NullInt64 {
	s := textField(obs, key)
	if !s.Valid {
		return sql.NullInt64{}
	}
	if v, err := strconv.ParseInt(s.String, 10, 64); err == nil {
		return sql.NullInt64{Int64: v, Valid: true}
	}
	f, err := strconv.ParseFloat(s.String, 64)
	if err != nil || f != math.Trunc(f) {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}
