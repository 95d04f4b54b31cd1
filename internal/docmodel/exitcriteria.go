package docmodel

import (
	"regexp"
	"strings"
)

// ExitCriterion is one checklist item parsed from a document body.
type ExitCriterion struct {
	Text      string
	Completed bool
}

var exitHeading = regexp.MustCompile(`^#{1,6}\s+(Exit Criteria|Acceptance Criteria)\b`)
var headingLine = regexp.MustCompile(`^(#{1,6})\s`)
var checklistItem = regexp.MustCompile(`^[-*]\s+\[([ xX])\]\s*(.*)$`)

// ParseExitCriteria scans a document body for a heading matching
// "## Exit Criteria" or "## Acceptance Criteria" and collects every
// checklist bullet beneath it, stopping at the next heading of equal or
// higher depth (spec §4.2).
func ParseExitCriteria(body string) []ExitCriterion {
	lines := strings.Split(body, "\n")

	var criteria []ExitCriterion
	inSection := false
	sectionDepth := 0

	for _, line := range lines {
		if m := exitHeading.FindStringSubmatch(line); m != nil {
			sectionDepth = len(strings.SplitN(line, " ", 2)[0])
			inSection = true
			continue
		}

		if inSection {
			if hm := headingLine.FindStringSubmatch(line); hm != nil {
				depth := len(hm[1])
				if depth <= sectionDepth {
					inSection = false
					continue
				}
			}

			if cm := checklistItem.FindStringSubmatch(strings.TrimRight(line, " \t")); cm != nil {
				completed := cm[1] == "x" || cm[1] == "X"
				criteria = append(criteria, ExitCriterion{
					Text:      strings.TrimSpace(cm[2]),
					Completed: completed,
				})
			}
		}
	}

	return criteria
}

// ExitCriteriaMet implements the pure function
// exit_criteria_met == all(criterion.completed) (spec P5). A document with
// no checklist at all is vacuously met, mirroring documents (e.g. a fresh
// Vision) that have no exit criteria section yet.
func ExitCriteriaMet(criteria []ExitCriterion) bool {
	for _, c := range criteria {
		if !c.Completed {
			return false
		}
	}
	return true
}
