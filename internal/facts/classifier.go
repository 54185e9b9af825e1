package facts

// KeySet is a set of exact, case-sensitive key names
type KeySet map[string]struct{}

// NewKeySet builds a set from keys
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	s.Add(keys...)
	return s
}

// Add inserts keys
func (s KeySet) Add(keys ...string) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Has reports membership
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// DefaultIgnore returns the boilerplate keys that never name a concept
func DefaultIgnore() KeySet {
	return NewKeySet("dei", "USD", "label", "description", "units", "shares")
}

// IsCandidate reports whether key may name a concept under the given ignore-set
func IsCandidate(key string, ignore KeySet) bool {
	return !ignore.Has(key)
}

// StructuralKeys collects the document's own envelope keys: the top-level
// names, everything directly under facts.dei and everything directly under facts.
func StructuralKeys(root *Node) KeySet {
	s := NewKeySet("cik", "entityName", "facts", "dei")
	if dei, ok := root.Path("facts", "dei"); ok {
		s.Add(dei.Keys()...)
	}
	if f, ok := root.Get("facts"); ok {
		s.Add(f.Keys()...)
	}
	return s
}

// Classifier decides whether a discovered key is an account id
type Classifier struct {
	ignore     KeySet
	structural KeySet
}

// NewClassifier computes the per-document exclusion list once
func NewClassifier(doc *Document) *Classifier {
	return &Classifier{
		ignore:     DefaultIgnore(),
		structural: StructuralKeys(doc.Root()),
	}
}

// IsConcept reports whether key is a candidate account id for this document
func (c *Classifier) IsConcept(key string) bool {
	return IsCandidate(key, c.ignore) && !c.structural.Has(key)
}
