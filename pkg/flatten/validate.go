package flatten

import (
	"fmt"

	"section-indexer/pkg/models"
	"section-indexer/pkg/utils"
)

// ValidateLevel gate-keeps depth values before any facet logic runs.
// Accepts whole numbers in [MinLevel, MaxLevel] only; anything else is fatal
// for the enclosing document's flatten operation.
func ValidateLevel(level int) error {
	if level < models.MinLevel || level > models.MaxLevel {
		return fmt.Errorf("%w: level %d not in [%d, %d]",
			utils.ErrInvalidLevel, level, models.MinLevel, models.MaxLevel)
	}
	return nil
}
