package phase

import (
	"fmt"

	"github.com/metis-io/metis/internal/config"
	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/metiserr"
)

// ValidateParentKind enforces spec invariants 3 and 4 and the
// reassign_parent rule in §4.3(a): the structural compatibility between a
// child's kind and its proposed parent's kind/phase. Cycle detection and
// existence-of-parent lookups are the caller's responsibility (they require
// repository access); this function only checks the static rule.
func ValidateParentKind(childKind docmodel.Kind, parentKind docmodel.Kind, parentPhase string, preset config.Preset) error {
	switch childKind {
	case docmodel.KindTask:
		if parentKind != docmodel.KindInitiative {
			return fmt.Errorf("%w: task parent must be an initiative", metiserr.ErrParentInvalid)
		}
		if parentPhase != "decompose" && parentPhase != "active" {
			return fmt.Errorf("%w: parent initiative must be in decompose or active phase, got %s", metiserr.ErrParentInvalid, parentPhase)
		}
		return nil
	case docmodel.KindInitiative:
		switch preset {
		case config.PresetStreamlined:
			if parentKind != docmodel.KindVision {
				return fmt.Errorf("%w: initiative parent must be a vision under the streamlined preset", metiserr.ErrParentInvalid)
			}
		case config.PresetFull:
			if parentKind != docmodel.KindStrategy {
				return fmt.Errorf("%w: initiative parent must be a strategy under the full preset", metiserr.ErrParentInvalid)
			}
		default:
			return fmt.Errorf("%w: preset %s does not allow initiative parents", metiserr.ErrParentInvalid, preset)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s documents do not take a parent", metiserr.ErrParentInvalid, childKind)
	}
}
