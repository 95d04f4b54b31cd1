package phase

import (
	"errors"
	"testing"

	"github.com/metis-io/metis/internal/config"
	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/metiserr"
)

func TestValidateParentKindTask(t *testing.T) {
	if err := ValidateParentKind(docmodel.KindTask, docmodel.KindInitiative, "decompose", config.PresetFull); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateParentKind(docmodel.KindTask, docmodel.KindInitiative, "discovery", config.PresetFull); !errors.Is(err, metiserr.ErrParentInvalid) {
		t.Errorf("expected ErrParentInvalid for wrong phase, got %v", err)
	}
	if err := ValidateParentKind(docmodel.KindTask, docmodel.KindVision, "draft", config.PresetFull); !errors.Is(err, metiserr.ErrParentInvalid) {
		t.Errorf("expected ErrParentInvalid for wrong kind, got %v", err)
	}
}

func TestValidateParentKindInitiative(t *testing.T) {
	if err := ValidateParentKind(docmodel.KindInitiative, docmodel.KindVision, "draft", config.PresetStreamlined); err != nil {
		t.Errorf("unexpected error under streamlined preset: %v", err)
	}
	if err := ValidateParentKind(docmodel.KindInitiative, docmodel.KindStrategy, "draft", config.PresetFull); err != nil {
		t.Errorf("unexpected error under full preset: %v", err)
	}
	if err := ValidateParentKind(docmodel.KindInitiative, docmodel.KindStrategy, "draft", config.PresetStreamlined); !errors.Is(err, metiserr.ErrParentInvalid) {
		t.Errorf("expected ErrParentInvalid for strategy parent under streamlined preset, got %v", err)
	}
	if err := ValidateParentKind(docmodel.KindInitiative, docmodel.KindVision, "draft", config.PresetDirect); !errors.Is(err, metiserr.ErrParentInvalid) {
		t.Errorf("expected ErrParentInvalid under direct preset, got %v", err)
	}
}

func TestValidateParentKindRejectsOthers(t *testing.T) {
	if err := ValidateParentKind(docmodel.KindVision, docmodel.KindStrategy, "draft", config.PresetFull); !errors.Is(err, metiserr.ErrParentInvalid) {
		t.Errorf("expected ErrParentInvalid for vision child, got %v", err)
	}
}
