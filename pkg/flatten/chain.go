package flatten

import "section-indexer/pkg/models"

// AncestorChain reconstructs the ordered lineage of a section, from
// most-specific to least-specific: chain[0] is the node's own name and
// chain[k] is the k-th ancestor walking upward from the immediate parent.
// The walk takes at most level-1 parent steps and stops early when the top
// of the forest is reached, so the level bound is a cap, not a guarantee of
// that many entries. A top-level node always yields a chain of length 1.
func AncestorChain(node *models.SectionNode) []string {
	chain := []string{node.Name}
	remaining := node.Level - 1
	for parent := node.Parent; remaining > 0 && parent != nil; parent = parent.Parent {
		chain = append(chain, parent.Name)
		remaining--
	}
	return chain
}
