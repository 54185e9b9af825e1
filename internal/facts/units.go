package facts

// UnitChoice is the single reporting unit chosen for a concept
type UnitChoice struct {
	Concept string
	Unit    string
}

// ResolveUnits picks, per concept, the first key of taxonomy[concept].units in
// document order. Concepts without a usable units mapping are dropped and
// reported; the output keeps first-discovered order and holds each concept once.
func ResolveUnits(doc *Document, concepts []string) ([]UnitChoice, []Skip) {
	var (
		choices []UnitChoice
		skips   []Skip
		seen    = make(map[string]bool)
	)
	for _, concept := range concepts {
		if seen[concept] {
			continue
		}
		seen[concept] = true

		unit, reason := firstUnit(doc, concept)
		if reason != "" {
			skips = append(skips, Skip{Concept: concept, Stage: StageUnits, Reason: reason})
			continue
		}
		choices = append(choices, UnitChoice{Concept: concept, Unit: unit})
	}
	return choices, skips
}

func firstUnit(doc *Document, concept string) (string, SkipReason) {
	node, reason := lookupConcept(doc, concept)
	if reason != "" {
		return "", reason
	}
	units, ok := node.Get("units")
	if !ok {
		return "", SkipNoUnits
	}
	if !units.IsObject() {
		return "", SkipMalformedUnits
	}
	keys := units.Keys()
	if len(keys) == 0 {
		return "", SkipNoUnits
	}
	return keys[0], ""
}
