// Package phase implements the phase/transition service (C7): the
// forward-only state machine per document kind, exit-criteria gating, and
// the reassign-parent validation rules.
package phase

import (
	"fmt"

	"github.com/metis-io/metis/internal/docmodel"
	"github.com/metis-io/metis/internal/metiserr"
)

// table lists every valid (current -> target) transition per kind, per
// spec §4.3. Task is the only kind with a return transition (blocked).
var table = map[docmodel.Kind]map[string][]string{
	docmodel.KindVision: {
		"draft":     {"review"},
		"review":    {"published"},
		"published": {},
	},
	docmodel.KindStrategy: {
		"draft":     {"review"},
		"review":    {"published"},
		"published": {"active"},
		"active":    {"completed"},
		"completed": {},
	},
	docmodel.KindInitiative: {
		"discovery": {"design"},
		"design":    {"ready"},
		"ready":     {"decompose"},
		"decompose": {"active"},
		"active":    {"completed"},
		"completed": {},
	},
	docmodel.KindTask: {
		"backlog":   {"todo"},
		"todo":      {"active", "blocked"},
		"active":    {"completed", "blocked"},
		"blocked":   {"todo", "active"},
		"completed": {},
	},
	docmodel.KindADR: {
		"draft":       {"discussion"},
		"discussion":  {"decided"},
		"decided":     {"superseded"},
		"superseded":  {},
	},
}

// initial is the starting phase for a newly created document of each kind.
var initial = map[docmodel.Kind]string{
	docmodel.KindVision:     "draft",
	docmodel.KindStrategy:   "draft",
	docmodel.KindInitiative: "discovery",
	docmodel.KindTask:       "backlog",
	docmodel.KindADR:        "draft",
}

// terminal lists each kind's terminal phase (spec §4.3).
var terminal = map[docmodel.Kind]string{
	docmodel.KindVision:     "published",
	docmodel.KindStrategy:   "completed",
	docmodel.KindInitiative: "completed",
	docmodel.KindTask:       "completed",
	docmodel.KindADR:        "superseded",
}

// defaultNext is the single canonical "no target given" transition for a
// phase, where the table would otherwise be ambiguous (Task's todo and
// active each have two valid targets). Open question from spec §9: resolved
// by treating the in-table's first, non-blocked entry as the default
// forward step, and blocked's default as returning to todo. The phase a
// task held before it was blocked is not recorded, so a task blocked from
// active also defaults back to todo.
var defaultNext = map[docmodel.Kind]map[string]string{
	docmodel.KindTask: {
		"backlog": "todo",
		"todo":    "active",
		"active":  "completed",
		"blocked": "todo",
	},
}

// InitialPhase returns the starting phase for a newly created document.
func InitialPhase(kind docmodel.Kind) string {
	return initial[kind]
}

// IsTerminal reports whether phase is the terminal state for kind.
func IsTerminal(kind docmodel.Kind, phase string) bool {
	return terminal[kind] == phase
}

// Next computes the default next phase when no explicit target is given.
// Returns ("", false) if the kind/phase has no default (i.e. it is
// terminal, or unknown).
func Next(kind docmodel.Kind, current string) (string, bool) {
	if m, ok := defaultNext[kind]; ok {
		if next, ok := m[current]; ok {
			return next, true
		}
	}
	targets, ok := table[kind][current]
	if !ok || len(targets) == 0 {
		return "", false
	}
	return targets[0], true
}

// ValidTransition reports whether (current -> target) is a legal move for kind.
func ValidTransition(kind docmodel.Kind, current, target string) bool {
	targets, ok := table[kind][current]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == target {
			return true
		}
	}
	return false
}

// Transition executes steps 2-5 of spec §4.3's transition_phase procedure
// against an in-memory Document; it does not persist anything — callers
// (internal/core) own the write-through to filesystem and cache.
func Transition(doc *docmodel.Document, target string, force bool) error {
	if _, ok := table[doc.Kind]; !ok {
		return fmt.Errorf("phase: unknown kind %q", doc.Kind)
	}

	if target == "" {
		next, ok := Next(doc.Kind, doc.Phase)
		if !ok {
			return fmt.Errorf("%w: %s has no further phase", metiserr.ErrTerminalPhase, doc.ShortCode)
		}
		target = next
	}

	if !ValidTransition(doc.Kind, doc.Phase, target) {
		return fmt.Errorf("%w: %s: %s -> %s", metiserr.ErrInvalidTransition, doc.ShortCode, doc.Phase, target)
	}

	if !force {
		criteria := docmodel.ParseExitCriteria(doc.Body)
		if !docmodel.ExitCriteriaMet(criteria) {
			return fmt.Errorf("%w: %s", metiserr.ErrExitCriteriaNotMet, doc.ShortCode)
		}
	}

	doc.Phase = target
	doc.ExitCriteriaMet = docmodel.ExitCriteriaMet(docmodel.ParseExitCriteria(doc.Body))
	doc.Tags = replacePhaseTag(doc.Tags, target)

	return nil
}

// replacePhaseTag drops any existing #phase/* tag and appends the current one.
func replacePhaseTag(tags []string, phase string) []string {
	out := make([]string, 0, len(tags)+1)
	for _, t := range tags {
		if len(t) > len("#phase/") && t[:len("#phase/")] == "#phase/" {
			continue
		}
		out = append(out, t)
	}
	out = append(out, "#phase/"+phase)
	return out
}
