package docmodel

import "testing"

func TestParseExitCriteria(t *testing.T) {
	body := `# Fix login

Some description.

## Exit Criteria

- [x] Login succeeds with valid credentials
- [ ] Rate limiting is in place
- [X] Audit log entry written

## Notes

- [ ] this is not a criterion
`

	criteria := ParseExitCriteria(body)
	if len(criteria) != 3 {
		t.Fatalf("expected 3 criteria, got %d: %+v", len(criteria), criteria)
	}
	if !criteria[0].Completed || criteria[0].Text != "Login succeeds with valid credentials" {
		t.Errorf("unexpected criterion 0: %+v", criteria[0])
	}
	if criteria[1].Completed {
		t.Errorf("expected criterion 1 incomplete: %+v", criteria[1])
	}
	if !criteria[2].Completed {
		t.Errorf("expected criterion 2 (capital X) to be completed: %+v", criteria[2])
	}
}

func TestParseExitCriteriaAcceptanceHeading(t *testing.T) {
	body := "## Acceptance Criteria\n- [ ] one\n- [x] two\n"
	criteria := ParseExitCriteria(body)
	if len(criteria) != 2 {
		t.Fatalf("expected 2 criteria, got %d", len(criteria))
	}
}

func TestExitCriteriaMet(t *testing.T) {
	if !ExitCriteriaMet(nil) {
		t.Error("no criteria should be vacuously met")
	}
	if !ExitCriteriaMet([]ExitCriterion{{Completed: true}, {Completed: true}}) {
		t.Error("all complete should be met")
	}
	if ExitCriteriaMet([]ExitCriterion{{Completed: true}, {Completed: false}}) {
		t.Error("one incomplete should not be met")
	}
}

func TestDetectKindFromTag(t *testing.T) {
	fm := map[string]any{"tags": []any{"#initiative", "backend"}}
	k, ok := DetectKind(fm)
	if !ok || k != KindInitiative {
		t.Errorf("DetectKind() = %v, %v, want initiative, true", k, ok)
	}
}

func TestDetectKindFromLevel(t *testing.T) {
	fm := map[string]any{"level": "adr"}
	k, ok := DetectKind(fm)
	if !ok || k != KindADR {
		t.Errorf("DetectKind() = %v, %v, want adr, true", k, ok)
	}
}

func TestDetectKindUnknown(t *testing.T) {
	fm := map[string]any{"tags": []any{"random"}}
	if _, ok := DetectKind(fm); ok {
		t.Error("expected DetectKind() to fail for unrecognized document")
	}
}

func TestValidateShortCode(t *testing.T) {
	valid := []string{"PROJ-V-0001", "PROJ-T-0001", "AB-A-12345", "A1-I-0042"}
	for _, code := range valid {
		if err := ValidateShortCode(code); err != nil {
			t.Errorf("ValidateShortCode(%q) unexpected error: %v", code, err)
		}
	}

	invalid := []string{"proj-v-0001", "PROJ-X-0001", "PROJ-V-1", "TOO-LONG-PREFIX-V-0001", ""}
	for _, code := range invalid {
		if err := ValidateShortCode(code); err == nil {
			t.Errorf("ValidateShortCode(%q) expected error, got nil", code)
		}
	}
}
