package orchestrator

import (
	"sort"

	"github.com/kbgateway/kbgateway/gateway"
)

// sortSemanticMatches orders matches by score desc, then source path asc —
// the spec §3/§8 ordering invariant. Stable so equal-score equal-source
// entries keep their backend-returned relative order.
func sortSemanticMatches(matches []gateway.SemanticMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Source < matches[j].Source
	})
}

// sortStructuralRelationships orders relationships by (source, relation,
// target) asc, the tiebreak ordering since relationships carry no score.
func sortStructuralRelationships(rels []gateway.StructuralRelationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].Source != rels[j].Source {
			return rels[i].Source < rels[j].Source
		}
		if rels[i].Relation != rels[j].Relation {
			return rels[i].Relation < rels[j].Relation
		}
		return rels[i].Target < rels[j].Target
	})
}
