// Package shortcode implements C3: per-kind short-code allocation and the
// deterministic collision-resolution algorithm run during reconciliation
// (spec §4.4).
package shortcode

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/metis-io/metis/internal/docmodel"
)

var counterPattern = regexp.MustCompile(`-(\d+)$`)

// Format renders a short code from its parts, zero-padded to at least four
// digits (fmt's zero-padding naturally expands for larger counters).
func Format(prefix string, kind docmodel.Kind, n int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, kind.Letter(), n)
}

// ExtractCounter pulls the trailing numeric counter out of a short code.
func ExtractCounter(code string) (int, bool) {
	m := counterPattern.FindStringSubmatch(code)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Allocate implements the normal allocation path: next code is
// max(current_max_over_all_known_codes_for_kind, stored_counter) + 1. It
// returns the new code along with the counter value to persist.
func Allocate(prefix string, kind docmodel.Kind, knownCodes []string, storedCounter int) (string, int) {
	max := storedCounter
	for _, code := range knownCodes {
		k, err := docmodel.ShortCodeKind(code)
		if err != nil || k != kind {
			continue
		}
		if n, ok := ExtractCounter(code); ok && n > max {
			max = n
		}
	}
	next := max + 1
	return Format(prefix, kind, next), next
}

// RenumberedDocument records one renumbering performed by ResolveCollisions.
type RenumberedDocument struct {
	Document *docmodel.Document
	OldCode  string
	NewCode  string
}

// CollisionLog is the result of a collision-resolution pass.
type CollisionLog struct {
	Renumbered []RenumberedDocument
}

// ResolveCollisions implements spec §4.4's collision-resolution algorithm.
// docs is every live, short-coded document under consideration. For each
// renumbered document, siblingsOf supplies the documents whose `parent`
// reference and body text may mention the old code (tasks under the same
// initiative, initiatives under the same strategy, or peers in a flat pool) —
// the reconciler derives this from the current directory snapshot. Cross-
// group references are intentionally left stale, per spec §9's documented
// limitation.
//
// counters is mutated in place: each renumbering bumps its kind's counter, so
// the counter ends at the highest number issued (the "last issued" value that
// Allocate also takes).
func ResolveCollisions(prefix string, counters map[docmodel.Kind]int, docs []*docmodel.Document, siblingsOf func(*docmodel.Document) []*docmodel.Document) *CollisionLog {
	groups := map[string][]*docmodel.Document{}
	for _, d := range docs {
		if d.ShortCode == "" {
			continue
		}
		groups[d.ShortCode] = append(groups[d.ShortCode], d)
	}

	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	log := &CollisionLog{}

	for _, code := range codes {
		group := groups[code]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].FilePath < group[j].FilePath })

		kind, err := docmodel.ShortCodeKind(code)
		if err != nil {
			continue
		}

		for _, doc := range group[1:] {
			counters[kind]++
			oldCode := doc.ShortCode
			newCode := Format(prefix, kind, counters[kind])
			doc.ShortCode = newCode

			for _, sib := range siblingsOf(doc) {
				if sib.ParentShortCode == oldCode {
					sib.ParentShortCode = newCode
				}
				sib.Body = replaceWholeWord(sib.Body, oldCode, newCode)
			}

			log.Renumbered = append(log.Renumbered, RenumberedDocument{
				Document: doc,
				OldCode:  oldCode,
				NewCode:  newCode,
			})
		}
	}

	return log
}

func replaceWholeWord(body, old, new string) string {
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(old) + `\b`)
	if err != nil {
		return body
	}
	return pattern.ReplaceAllString(body, new)
}
