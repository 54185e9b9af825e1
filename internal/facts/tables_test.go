package facts

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/ppiankov/edgarflat/internal/model"
)

const exampleDocument = `{"facts":{"dei":{"EntityCommonStockSharesOutstanding":{}},"us-gaap":{"Assets":{"label":"Assets","description":"Total assets","units":{"USD":[{"end":"2020-12-31","val":"1000","accn":"A1","fy":2020,"fp":"FY","form":"10-K","filed":"2021-01-01"}]}}}},"cik":320193,"entityName":"Example Corp"}`

const multiConceptDocument = `{
	"cik": 789019,
	"entityName": "Multi Co",
	"facts": {
		"dei": {"EntityPublicFloat": {"units": {"USD": []}}},
		"us-gaap": {
			"Revenues": {
				"label": "Revenues",
				"description": "Revenue recognized",
				"units": {
					"USD": [
						{"start": "2021-01-01", "end": "2021-12-31", "val": 500, "accn": "R1", "fy": 2021, "fp": "FY", "form": "10-K", "filed": "2022-02-01", "frame": "CY2021"},
						{"start": "2022-01-01", "end": "2022-12-31", "val": 650.5, "accn": "R2", "fy": 2022, "fp": "FY", "form": "10-K", "filed": "2023-02-01"}
					],
					"EUR": [
						{"end": "2022-12-31", "val": 600, "accn": "R3", "fy": 2022, "fp": "FY", "form": "10-K", "filed": "2023-02-01"}
					]
				}
			},
			"UnitsOnly": {
				"units": {"shares": [{"end": "2022-12-31", "val": 10, "accn": "U1", "fy": 2022, "fp": "Q4", "form": "10-K", "filed": "2023-02-01"}]}
			},
			"LabelOnly": {"label": "Label only", "description": "No observations"},
			"EmptyUnits": {"label": "Empty", "description": "Empty units", "units": {}},
			"BrokenUnits": {"label": "Broken", "description": "Units not a list", "units": {"USD": {"oops": 1}}},
			"NotAMapping": [1, 2, 3]
		}
	}
}`

func mustDocument(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseDocument([]byte(s))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func TestExtractor_EndToEndExample(t *testing.T) {
	doc := mustDocument(t, exampleDocument)
	ex := NewExtractor(WalkFull)

	financials := ex.Financials(doc)
	wantFact := model.FactRow{
		End:        str("2020-12-31"),
		Val:        str("1000"),
		Accn:       str("A1"),
		FY:         sql.NullInt64{Int64: 2020, Valid: true},
		FP:         str("FY"),
		Form:       str("10-K"),
		Filed:      str("2021-01-01"),
		Units:      "USD",
		AccountID:  "Assets",
		CIK:        320193,
		EntityName: "Example Corp",
	}
	if len(financials.Rows) != 1 {
		t.Fatalf("Expected exactly 1 fact row, got %d: %+v", len(financials.Rows), financials.Rows)
	}
	if !reflect.DeepEqual(financials.Rows[0], wantFact) {
		t.Errorf("fact row = %+v\nwant %+v", financials.Rows[0], wantFact)
	}
	if financials.Rows[0].Start.Valid || financials.Rows[0].Frame.Valid {
		t.Error("Expected start and frame to be NULL")
	}

	attributes := ex.Attributes(doc)
	wantAttr := model.AttributeRow{
		Label:       str("Assets"),
		Description: str("Total assets"),
		AccountID:   "Assets",
		CIK:         320193,
		EntityName:  "Example Corp",
	}
	if len(attributes.Rows) != 1 {
		t.Fatalf("Expected exactly 1 attribute row, got %d", len(attributes.Rows))
	}
	if !reflect.DeepEqual(attributes.Rows[0], wantAttr) {
		t.Errorf("attribute row = %+v\nwant %+v", attributes.Rows[0], wantAttr)
	}
}

func TestResolveUnits_FirstKeyWins(t *testing.T) {
	doc := mustDocument(t, multiConceptDocument)
	choices, skips := ResolveUnits(doc, Discover(doc, WalkFull))

	want := []UnitChoice{
		{Concept: "Revenues", Unit: "USD"},
		{Concept: "UnitsOnly", Unit: "shares"},
		{Concept: "BrokenUnits", Unit: "USD"},
	}
	if !reflect.DeepEqual(choices, want) {
		t.Errorf("choices = %v, want %v", choices, want)
	}

	wantSkips := map[string]SkipReason{
		"LabelOnly":   SkipNoUnits,
		"EmptyUnits":  SkipNoUnits,
		"NotAMapping": SkipNotAMapping,
	}
	if len(skips) != len(wantSkips) {
		t.Fatalf("Expected %d skips, got %v", len(wantSkips), skips)
	}
	for _, s := range skips {
		if wantSkips[s.Concept] != s.Reason || s.Stage != StageUnits {
			t.Errorf("unexpected skip %+v", s)
		}
	}
}

func TestResolveUnits_OrderDependence(t *testing.T) {
	usdFirst := mustDocument(t, `{"facts":{"us-gaap":{"X":{"units":{"USD":[],"EUR":[]}}}}}`)
	eurFirst := mustDocument(t, `{"facts":{"us-gaap":{"X":{"units":{"EUR":[],"USD":[]}}}}}`)

	a, _ := ResolveUnits(usdFirst, []string{"X"})
	b, _ := ResolveUnits(eurFirst, []string{"X"})
	if a[0].Unit != "USD" || b[0].Unit != "EUR" {
		t.Errorf("Expected USD then EUR, got %s and %s", a[0].Unit, b[0].Unit)
	}
}

func TestResolveUnits_UnknownAndDuplicateConcepts(t *testing.T) {
	doc := mustDocument(t, exampleDocument)
	choices, skips := ResolveUnits(doc, []string{"Assets", "Missing", "Assets"})
	if len(choices) != 1 || choices[0].Concept != "Assets" {
		t.Errorf("Expected single Assets choice, got %v", choices)
	}
	if len(skips) != 1 || skips[0].Reason != SkipNotInTaxonomy {
		t.Errorf("Expected Missing to be skipped, got %v", skips)
	}
}

func TestBuildFactTable_PartialFailure(t *testing.T) {
	doc := mustDocument(t, multiConceptDocument)
	table := NewExtractor(WalkFull).Financials(doc)

	// Revenues (2, USD only) + UnitsOnly (1); BrokenUnits skipped
	if len(table.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(table.Rows))
	}
	order := []string{"Revenues", "Revenues", "UnitsOnly"}
	for i, row := range table.Rows {
		if row.AccountID != order[i] {
			t.Errorf("row %d account = %s, want %s", i, row.AccountID, order[i])
		}
		if row.CIK != 789019 || row.EntityName != "Multi Co" {
			t.Errorf("row %d identity = %d/%s", i, row.CIK, row.EntityName)
		}
	}
	if table.Rows[0].Frame != str("CY2021") || table.Rows[1].Frame.Valid {
		t.Errorf("frame copied incorrectly: %+v / %+v", table.Rows[0].Frame, table.Rows[1].Frame)
	}
	if table.Rows[1].Val != str("650.5") {
		t.Errorf("Expected literal val 650.5, got %+v", table.Rows[1].Val)
	}

	found := false
	for _, s := range table.Skipped {
		if s.Concept == "BrokenUnits" {
			found = true
			if s.Stage != StageFacts || s.Reason != SkipMalformedUnits {
				t.Errorf("unexpected skip %+v", s)
			}
		}
	}
	if !found {
		t.Error("Expected BrokenUnits to be reported as skipped")
	}
}

func TestBuildFactTable_NothingResolvable(t *testing.T) {
	doc := mustDocument(t, `{"facts":{"us-gaap":{"A":{"label":"a"}}}}`)
	table := NewExtractor(WalkFull).Financials(doc)
	if len(table.Rows) != 0 {
		t.Errorf("Expected empty table, got %d rows", len(table.Rows))
	}
	if len(table.Skipped) != 1 {
		t.Errorf("Expected 1 skip, got %v", table.Skipped)
	}
}

func TestBuildAttributeTable_IndependentCoverage(t *testing.T) {
	doc := mustDocument(t, multiConceptDocument)
	ex := NewExtractor(WalkFull)

	attrs := ex.Attributes(doc)
	facts := ex.Financials(doc)

	inAttrs := map[string]bool{}
	for _, r := range attrs.Rows {
		inAttrs[r.AccountID] = true
	}
	inFacts := map[string]bool{}
	for _, r := range facts.Rows {
		inFacts[r.AccountID] = true
	}

	if !inFacts["UnitsOnly"] || inAttrs["UnitsOnly"] {
		t.Error("Expected UnitsOnly in facts but not attributes")
	}
	if inFacts["LabelOnly"] || !inAttrs["LabelOnly"] {
		t.Error("Expected LabelOnly in attributes but not facts")
	}
	if !inAttrs["EmptyUnits"] || !inAttrs["BrokenUnits"] {
		t.Error("Expected concepts with labels to appear in attributes regardless of units")
	}
	if inAttrs["NotAMapping"] {
		t.Error("Expected NotAMapping to be skipped")
	}
	// one row per concept: Revenues, LabelOnly, EmptyUnits, BrokenUnits
	if len(attrs.Rows) != 4 {
		t.Errorf("Expected 4 attribute rows, got %d", len(attrs.Rows))
	}
}

func TestBuildAttributeTable_SequenceValues(t *testing.T) {
	doc := mustDocument(t, `{"facts":{"us-gaap":{"X":{"label":["first","second","third"],"description":"shared"}}}}`)
	table := BuildAttributeTable(doc, []string{"X"})

	if len(table.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(table.Rows))
	}
	for i, want := range []string{"first", "second", "third"} {
		if table.Rows[i].Label != str(want) {
			t.Errorf("row %d label = %+v, want %s", i, table.Rows[i].Label, want)
		}
		if table.Rows[i].Description != str("shared") {
			t.Errorf("row %d description = %+v", i, table.Rows[i].Description)
		}
	}
}

func TestBuildAttributeTable_MissingDescriptionIsNull(t *testing.T) {
	doc := mustDocument(t, `{"facts":{"us-gaap":{"X":{"label":"x"}}}}`)
	table := BuildAttributeTable(doc, []string{"X", "X"})
	if len(table.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(table.Rows))
	}
	if table.Rows[0].Description.Valid {
		t.Error("Expected NULL description")
	}
}

func TestFactRows_NeverTagStructuralKeys(t *testing.T) {
	doc := mustDocument(t, multiConceptDocument)
	ignore := DefaultIgnore()
	structural := StructuralKeys(doc.Root())
	for _, row := range NewExtractor(WalkFull).Financials(doc).Rows {
		if ignore.Has(row.AccountID) || structural.Has(row.AccountID) {
			t.Errorf("row tagged with excluded key %s", row.AccountID)
		}
	}
}

func TestIntField(t *testing.T) {
	obs := mustParse(t, `{"a": 2020, "b": "2021", "c": 2022.0, "d": 2022.5, "e": null, "f": "FY"}`)
	tests := []struct {
		key  string
		want sql.NullInt64
	}{
		{"a", sql.NullInt64{Int64: 2020, Valid: true}},
		{"b", sql.NullInt64{Int64: 2021, Valid: true}},
		{"c", sql.NullInt64{Int64: 2022, Valid: true}},
		{"d", sql.NullInt64{}},
		{"e", sql.NullInt64{}},
		{"f", sql.NullInt64{}},
		{"missing", sql.NullInt64{}},
	}
	for _, tt := range tests {
		if got := intField(obs, tt.key); got != tt.want {
			t.Errorf("intField(%s) = %+v, want %+v", tt.key, got, tt.want)
		}
	}
}
