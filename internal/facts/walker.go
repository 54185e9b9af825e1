package facts

import (
	"fmt"
	"iter"
)

// WalkMode selects how the walker descends into nested mappings
type WalkMode string

const (
	// WalkFull recurses into every nested mapping whose key is not ignored
	WalkFull WalkMode = "full"

	// WalkLastBranch recurses only into the value of the last key of each
	// mapping, and only when that key is not ignored. Concepts nested under
	// any other branch are not discovered.
	WalkLastBranch WalkMode = "last-branch"
)

// ParseWalkMode validates a configured mode; empty means WalkFull
func ParseWalkMode(s string) (WalkMode, error) {
	switch WalkMode(s) {
	case "", WalkFull:
		return WalkFull, nil
	case WalkLastBranch:
		return WalkLastBranch, nil
	}
	return "", fmt.Errorf("unknown walk mode %q (want %s or %s)", s, WalkFull, WalkLastBranch)
}

// Walk lazily yields every non-ignored key at any depth. A mapping's own keys
// come before anything nested in it. Duplicates are not removed.
// The sequence can be ranged over any number of times.
func Walk(n *Node, ignore KeySet, mode WalkMode) iter.Seq[string] {
	return func(yield func(string) bool) {
		walk(n, ignore, mode, yield)
	}
}

func walk(n *Node, ignore KeySet, mode WalkMode, yield func(string) bool) bool {
	keys := n.Keys()
	for _, k := range keys {
		if IsCandidate(k, ignore) && !yield(k) {
			return false
		}
	}

	if mode == WalkLastBranch {
		if len(keys) == 0 {
			return true
		}
		last := keys[len(keys)-1]
		child, _ := n.Get(last)
		if child.IsObject() && IsCandidate(last, ignore) {
			return walk(child, ignore, mode, yield)
		}
		return true
	}

	for _, k := range keys {
		if !IsCandidate(k, ignore) {
			continue
		}
		child, _ := n.Get(k)
		if child.IsObject() && !walk(child, ignore, mode, yield) {
			return false
		}
	}
	return true
}

// Discover returns the document's candidate account ids in first-discovered
// order, without duplicates.
func Discover(doc *Document, mode WalkMode) []string {
	c := NewClassifier(doc)
	seen := make(map[string]bool)
	var concepts []string
	for key := range Walk(doc.Taxonomy(), c.ignore, mode) {
		if !c.IsConcept(key) || seen[key] {
			continue
		}
		seen[key] = true
		concepts = append(concepts, key)
	}
	return concepts
}
