package flatten

import "section-indexer/pkg/models"

// AssembleFacets maps a section's lineage chain onto the named hierarchy
// facet slots plus the single-select radio value.
//
// Slot i in 0..=level gets chain[i] where the chain reaches; a chain shorter
// than level+1 leaves the upper slots unset (sparse facets, reported by
// FlattenedRecord.SparseFacets). The radio value is chain[level] for levels
// 0..5; level-6 sections deliberately collapse onto the level-5 slot since
// the facet UI only offers six selectable tiers.
//
// The level must already have passed ValidateLevel.
func AssembleFacets(level int, chain []string) (map[int]string, string) {
	levels := make(map[int]string, level+1)
	for i := 0; i <= level && i < len(chain); i++ {
		levels[i] = chain[i]
	}

	radioIdx := level
	if radioIdx > models.MaxRadioLevel {
		radioIdx = models.MaxRadioLevel
	}
	var radio string
	if radioIdx < len(chain) {
		radio = chain[radioIdx]
	}
	return levels, radio
}
