// Package collections maps category tags to destination collections and
// computes minimal membership deltas. Collections outside the rule set are
// never touched, so manually curated memberships survive every run.
package collections

import "sort"

// Rules maps category tag values to one or more destination collection IDs.
// The mapping is many-to-many: a category can feed several collections and a
// collection can receive several categories.
type Rules struct {
	byCategory map[string][]string
	managed    map[string]struct{}
}

// NewRules builds a rule set from the raw category mapping.
func NewRules(mapping map[string][]string) Rules {
	rules := Rules{
		byCategory: make(map[string][]string, len(mapping)),
		managed:    make(map[string]struct{}),
	}
	for category, targets := range mapping {
		unique := make([]string, 0, len(targets))
		seen := make(map[string]struct{}, len(targets))
		for _, id := range targets {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			unique = append(unique, id)
			rules.managed[id] = struct{}{}
		}
		sort.Strings(unique)
		rules.byCategory[category] = unique
	}
	return rules
}

// Desired returns the collection IDs a product of the given category should
// belong to, and whether the category is mapped at all. An unmapped category
// usually points at a taxonomy gap and is worth surfacing to the caller.
func (r Rules) Desired(category string) ([]string, bool) {
	targets, ok := r.byCategory[category]
	return targets, ok
}

// Managed reports whether the collection is governed by this rule set.
func (r Rules) Managed(collectionID string) bool {
	_, ok := r.managed[collectionID]
	return ok
}

// Delta is the minimal set of membership changes for one product.
type Delta struct {
	Add    []string
	Remove []string
}

// Empty reports whether applying the delta would change nothing.
func (d Delta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// ComputeDelta diffs a product's current memberships against the desired set
// for its category. Only managed collections are candidates for removal.
// Applying the delta and recomputing yields an empty delta, so repeated runs
// settle immediately. The second return value is false when the category has
// no mapping; the delta is then empty.
func (r Rules) ComputeDelta(category string, current []string) (Delta, bool) {
	desired, mapped := r.Desired(category)
	if !mapped {
		return Delta{}, false
	}

	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	desiredSet := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		desiredSet[id] = struct{}{}
	}

	var delta Delta
	for _, id := range desired {
		if _, ok := currentSet[id]; !ok {
			delta.Add = append(delta.Add, id)
		}
	}
	for _, id := range current {
		if !r.Managed(id) {
			continue
		}
		if _, ok := desiredSet[id]; !ok {
			delta.Remove = append(delta.Remove, id)
		}
	}
	sort.Strings(delta.Remove)

	return delta, true
}
