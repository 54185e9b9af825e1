package facts

import (
	"reflect"
	"slices"
	"testing"
)

// Nest has its concepts one level down under a branch that is not last.
const nestedTree = `{
	"A": {"label": "a"},
	"Nest": {"Inner": {"Deep": {}}},
	"B": {"Sub": {"Leaf": {}}}
}`

func mustParse(t *testing.T, s string) *Node {
	t.Helper()
	n, err := Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return n
}

func TestWalk_Modes(t *testing.T) {
	root := mustParse(t, nestedTree)

	tests := []struct {
		name string
		mode WalkMode
		want []string
	}{
		{
			name: "full recurses into every mapping",
			mode: WalkFull,
			want: []string{"A", "Nest", "B", "Inner", "Deep", "Sub", "Leaf"},
		},
		{
			name: "last-branch only follows the last key",
			mode: WalkLastBranch,
			want: []string{"A", "Nest", "B", "Sub", "Leaf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Walk(root, DefaultIgnore(), tt.mode))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Walk() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalk_IgnoredLastKeyStopsLastBranch(t *testing.T) {
	root := mustParse(t, `{"A": {"X": {}}, "units": {"Y": {}}}`)

	got := slices.Collect(Walk(root, DefaultIgnore(), WalkLastBranch))
	if want := []string{"A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("last-branch = %v, want %v", got, want)
	}

	got = slices.Collect(Walk(root, DefaultIgnore(), WalkFull))
	if want := []string{"A", "X"}; !reflect.DeepEqual(got, want) {
		t.Errorf("full = %v, want %v", got, want)
	}
}

func TestWalk_RealShapeIsModeIndependent(t *testing.T) {
	doc, err := ParseDocument([]byte(multiConceptDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	full := Discover(doc, WalkFull)
	last := Discover(doc, WalkLastBranch)
	if !reflect.DeepEqual(full, last) {
		t.Errorf("Expected same concepts for a flat taxonomy, full=%v last=%v", full, last)
	}
}

func TestWalk_KeepsDuplicates(t *testing.T) {
	root := mustParse(t, `{"A": {"A": {}}}`)
	got := slices.Collect(Walk(root, DefaultIgnore(), WalkFull))
	if want := []string{"A", "A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestWalk_RestartableAndStoppable(t *testing.T) {
	root := mustParse(t, nestedTree)
	seq := Walk(root, DefaultIgnore(), WalkFull)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical passes, got %v and %v", first, second)
	}

	count := 0
	for range seq {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("Expected early stop after 2, got %d", count)
	}
}

func TestWalk_EmptyAndNonObject(t *testing.T) {
	for _, src := range []string{`{}`, `[]`, `"x"`} {
		root := mustParse(t, src)
		for _, mode := range []WalkMode{WalkFull, WalkLastBranch} {
			if got := slices.Collect(Walk(root, DefaultIgnore(), mode)); len(got) != 0 {
				t.Errorf("%s/%s: expected nothing, got %v", src, mode, got)
			}
		}
	}
}

func TestParseWalkMode(t *testing.T) {
	tests := []struct {
		in      string
		want    WalkMode
		wantErr bool
	}{
		{"", WalkFull, false},
		{"full", WalkFull, false},
		{"last-branch", WalkLastBranch, false},
		{"breadth", "", true},
	}
	for _, tt := range tests {
		got, err := ParseWalkMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWalkMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseWalkMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDiscover_ExcludesStructuralKeys(t *testing.T) {
	// "Revenues" also appears directly under dei and "srt" directly under facts;
	// both are envelope keys for this document and must not become concepts.
	doc, err := ParseDocument([]byte(`{
		"cik": 1,
		"entityName": "X",
		"facts": {
			"dei": {"Revenues": {}},
			"srt": {},
			"us-gaap": {
				"Assets": {"units": {"USD": []}},
				"Revenues": {"units": {"USD": []}},
				"srt": {"units": {"USD": []}},
				"cik": {},
				"USD": {}
			}
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got := Discover(doc, WalkFull)
	if want := []string{"Assets"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}
