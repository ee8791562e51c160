package models

import (
	"encoding/json"
	"fmt"
)

// Level bounds for hierarchy facets. Records support depths 0 through
// MaxLevel; the single-select radio facet only offers levels 0 through
// MaxRadioLevel, so MaxLevel nodes collapse onto the MaxRadioLevel slot.
const (
	MinLevel      = 0
	MaxLevel      = 6
	MaxRadioLevel = 5
)

// FlattenedRecord is one section flattened out of a document tree, carrying
// its own rendered text plus the hierarchy facets describing its lineage.
// Records are immutable once produced.
type FlattenedRecord struct {
	SectionID       string         // Anchor id of the originating section
	Anchor          string         // Same value as SectionID, kept distinct for downstream compatibility
	Name            string         // Section title
	Level           int            // Validated depth, 0..6
	Content         string         // Rendered text of the section's own blocks only
	HierarchyLevels map[int]string // Facet slot -> name, populated for 0..=Level where the chain reaches
	HierarchyRadio  string         // Deepest selectable facet value, clamped at level 5
	TokenCount      int            // Token count of Content, -1 when no tokenizer is available
}

// SparseFacets reports whether any facet slot in 0..=Level was left unset.
// This happens when a node's nominal level exceeds its real ancestor count;
// the slots are deliberately left sparse rather than guessed.
func (r *FlattenedRecord) SparseFacets() bool {
	for i := 0; i <= r.Level; i++ {
		if _, ok := r.HierarchyLevels[i]; !ok {
			return true
		}
	}
	return false
}

// recordJSON is the serialized shape consumed by storage and indexing.
// Field names are a downstream contract and must not change.
type recordJSON struct {
	SectionID      string  `json:"section_id"`
	Anchor         string  `json:"anchor"`
	Name           string  `json:"name"`
	Level          int     `json:"level"`
	Content        string  `json:"content"`
	HierarchyLvl0  *string `json:"hierarchy_lvl0,omitempty"`
	HierarchyLvl1  *string `json:"hierarchy_lvl1,omitempty"`
	HierarchyLvl2  *string `json:"hierarchy_lvl2,omitempty"`
	HierarchyLvl3  *string `json:"hierarchy_lvl3,omitempty"`
	HierarchyLvl4  *string `json:"hierarchy_lvl4,omitempty"`
	HierarchyLvl5  *string `json:"hierarchy_lvl5,omitempty"`
	HierarchyLvl6  *string `json:"hierarchy_lvl6,omitempty"`
	HierarchyRadio string  `json:"hierarchy_radio_lvl"`
	TokenCount     *int    `json:"token_count,omitempty"`
}

// MarshalJSON flattens HierarchyLevels into the hierarchy_lvl0..6 slots.
func (r FlattenedRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		SectionID:      r.SectionID,
		Anchor:         r.Anchor,
		Name:           r.Name,
		Level:          r.Level,
		Content:        r.Content,
		HierarchyRadio: r.HierarchyRadio,
	}
	slots := [...]**string{
		&out.HierarchyLvl0, &out.HierarchyLvl1, &out.HierarchyLvl2,
		&out.HierarchyLvl3, &out.HierarchyLvl4, &out.HierarchyLvl5,
		&out.HierarchyLvl6,
	}
	for i := MinLevel; i <= MaxLevel; i++ {
		if name, ok := r.HierarchyLevels[i]; ok {
			v := name
			*slots[i] = &v
		}
	}
	if r.TokenCount >= 0 {
		tc := r.TokenCount
		out.TokenCount = &tc
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds HierarchyLevels from the flat slot fields.
func (r *FlattenedRecord) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding flattened record: %w", err)
	}
	r.SectionID = in.SectionID
	r.Anchor = in.Anchor
	r.Name = in.Name
	r.Level = in.Level
	r.Content = in.Content
	r.HierarchyRadio = in.HierarchyRadio
	r.HierarchyLevels = make(map[int]string)
	slots := [...]*string{
		in.HierarchyLvl0, in.HierarchyLvl1, in.HierarchyLvl2,
		in.HierarchyLvl3, in.HierarchyLvl4, in.HierarchyLvl5,
		in.HierarchyLvl6,
	}
	for i, s := range slots {
		if s != nil {
			r.HierarchyLevels[i] = *s
		}
	}
	r.TokenCount = -1
	if in.TokenCount != nil {
		r.TokenCount = *in.TokenCount
	}
	return nil
}
