package docmodel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/metis-io/metis/internal/frontmatter"
	"github.com/metis-io/metis/internal/metiserr"
)

// Complexity is an Initiative's t-shirt size estimate (spec §3).
type Complexity string

const (
	ComplexityXS Complexity = "xs"
	ComplexityS  Complexity = "s"
	ComplexityM  Complexity = "m"
	ComplexityL  Complexity = "l"
	ComplexityXL Complexity = "xl"
)

// RiskLevel is a Strategy's risk rating.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// BacklogCategory classifies a standalone Task.
type BacklogCategory string

const (
	BacklogBug       BacklogCategory = "bug"
	BacklogFeature   BacklogCategory = "feature"
	BacklogTechDebt  BacklogCategory = "tech-debt"
	BacklogNone      BacklogCategory = "none"
)

// InitiativeAttrs holds Initiative-specific frontmatter.
type InitiativeAttrs struct {
	Complexity           Complexity
	EstimatedComplexity   string
}

// ADRAttrs holds ADR-specific frontmatter.
type ADRAttrs struct {
	DecisionMaker string
	DecisionDate  string
	Supersedes    string
	Number        int
}

// StrategyAttrs holds Strategy-specific frontmatter.
type StrategyAttrs struct {
	RiskLevel    RiskLevel
	Stakeholders []string
}

// TaskAttrs holds Task-specific frontmatter.
type TaskAttrs struct {
	BacklogCategory BacklogCategory
}

// Document is the typed, in-memory representation of one Markdown file
// under .metis/ (spec §3).
type Document struct {
	FilePath        string
	Kind            Kind
	ShortCode       string
	SlugID          string
	Title           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Archived        bool
	ExitCriteriaMet bool
	ContentHash     string
	ParentShortCode string // empty means no parent
	BlockedBy       []string
	Tags            []string
	Phase           string
	Body            string

	Initiative *InitiativeAttrs
	ADR        *ADRAttrs
	Strategy   *StrategyAttrs
	Task       *TaskAttrs
}

// ContentHash computes the spec's invariant 1 hash: SHA-256 of raw file bytes.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Parse decodes raw file bytes at filePath into a typed Document.
//
// It fails with metiserr.ErrMalformedDocument if the frontmatter does not
// identify a known kind, mirroring the teacher's DocumentToMarkdown /
// MarkdownToDocumentUpdate split between encode and decode.
func Parse(filePath string, raw []byte) (*Document, error) {
	fm, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, err
	}

	kind, ok := DetectKind(fm.Frontmatter)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no recognizable kind marker", metiserr.ErrMalformedDocument, filePath)
	}

	doc := &Document{
		FilePath:    filePath,
		Kind:        kind,
		Body:        fm.Body,
		ContentHash: ContentHash(raw),
	}

	doc.ShortCode, _ = getString(fm.Frontmatter, "short_code")
	doc.SlugID, _ = getString(fm.Frontmatter, "id")
	doc.Title, _ = getString(fm.Frontmatter, "title")
	doc.Phase, _ = getString(fm.Frontmatter, "phase")
	if kind == KindTask && doc.Phase == "doing" {
		// Historical data uses "doing" where the canonical table (spec
		// §4.3) uses "active"; treated as equivalent on read only, never
		// written back under that name.
		doc.Phase = "active"
	}
	doc.ParentShortCode, _ = getString(fm.Frontmatter, "parent")
	doc.Archived, _ = getBool(fm.Frontmatter, "archived")
	doc.ExitCriteriaMet, _ = getBool(fm.Frontmatter, "exit_criteria_met")
	doc.BlockedBy = stringList(fm.Frontmatter["blocked_by"])
	doc.Tags = stringList(fm.Frontmatter["tags"])
	doc.CreatedAt = getTime(fm.Frontmatter, "created_at")
	doc.UpdatedAt = getTime(fm.Frontmatter, "updated_at")

	if err := attachVariant(doc, fm.Frontmatter); err != nil {
		return nil, err
	}

	criteria := ParseExitCriteria(doc.Body)
	doc.ExitCriteriaMet = ExitCriteriaMet(criteria)

	if doc.ShortCode == "" {
		// assigned later by the short-code allocator during reconciliation
	} else if err := ValidateShortCode(doc.ShortCode); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", metiserr.ErrMalformedDocument, filePath, err)
	}

	return doc, nil
}

func attachVariant(doc *Document, fm map[string]any) error {
	switch doc.Kind {
	case KindInitiative:
		complexity, _ := getString(fm, "complexity")
		estimated, _ := getString(fm, "estimated_complexity")
		doc.Initiative = &InitiativeAttrs{
			Complexity:         Complexity(complexity),
			EstimatedComplexity: estimated,
		}
	case KindADR:
		dm, _ := getString(fm, "decision_maker")
		dd, _ := getString(fm, "decision_date")
		sup, _ := getString(fm, "supersedes")
		num, _ := getInt(fm, "number")
		doc.ADR = &ADRAttrs{DecisionMaker: dm, DecisionDate: dd, Supersedes: sup, Number: num}
	case KindStrategy:
		risk, _ := getString(fm, "risk_level")
		doc.Strategy = &StrategyAttrs{
			RiskLevel:    RiskLevel(risk),
			Stakeholders: stringList(fm["stakeholders"]),
		}
	case KindTask:
		cat, _ := getString(fm, "backlog_category")
		if cat == "" {
			cat = string(BacklogNone)
		}
		doc.Task = &TaskAttrs{BacklogCategory: BacklogCategory(cat)}
	}
	return nil
}

// Render encodes a Document back into Markdown bytes, given the original
// frontmatter.Document (so unrelated keys and key order round-trip, per C1).
func Render(doc *Document, fm *frontmatter.Document) ([]byte, error) {
	fm.Body = doc.Body
	fm.Set("id", doc.SlugID)
	fm.Set("level", string(doc.Kind))
	fm.Set("title", doc.Title)
	fm.Set("short_code", doc.ShortCode)
	fm.Set("created_at", doc.CreatedAt.UTC().Format(time.RFC3339))
	fm.Set("updated_at", doc.UpdatedAt.UTC().Format(time.RFC3339))
	if doc.ParentShortCode != "" {
		fm.Set("parent", doc.ParentShortCode)
	} else {
		fm.Delete("parent")
	}
	fm.Set("blocked_by", sortedCopy(doc.BlockedBy))
	fm.Set("archived", doc.Archived)
	fm.Set("tags", sortedCopy(doc.Tags))
	fm.Set("exit_criteria_met", doc.ExitCriteriaMet)
	fm.Set("phase", doc.Phase)

	switch doc.Kind {
	case KindInitiative:
		if doc.Initiative != nil {
			fm.Set("complexity", string(doc.Initiative.Complexity))
			fm.Set("estimated_complexity", doc.Initiative.EstimatedComplexity)
		}
	case KindADR:
		if doc.ADR != nil {
			fm.Set("decision_maker", doc.ADR.DecisionMaker)
			fm.Set("decision_date", doc.ADR.DecisionDate)
			if doc.ADR.Supersedes != "" {
				fm.Set("supersedes", doc.ADR.Supersedes)
			}
			fm.Set("number", doc.ADR.Number)
		}
	case KindStrategy:
		if doc.Strategy != nil {
			fm.Set("risk_level", string(doc.Strategy.RiskLevel))
			fm.Set("stakeholders", doc.Strategy.Stakeholders)
		}
	case KindTask:
		if doc.Task != nil {
			fm.Set("backlog_category", string(doc.Task.BacklogCategory))
		}
	}

	return frontmatter.Render(fm)
}

// NewSlugID generates a fresh identity for a newly created document.
func NewSlugID() string {
	return uuid.NewString()
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func getString(fm map[string]any, key string) (string, bool) {
	v, ok := fm[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getBool(fm map[string]any, key string) (bool, bool) {
	v, ok := fm[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func getInt(fm map[string]any, key string) (int, bool) {
	v, ok := fm[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func getTime(fm map[string]any, key string) time.Time {
	s, ok := getString(fm, key)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
