package frontmatter

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		wantFrontmatter map[string]any
		wantBody        string
		wantErr         bool
	}{
		{
			name:            "empty content",
			content:         "",
			wantFrontmatter: map[string]any{},
			wantBody:        "",
		},
		{
			name:            "body only - no frontmatter",
			content:         "Just a regular markdown document.\n\nWith multiple paragraphs.",
			wantFrontmatter: map[string]any{},
			wantBody:        "Just a regular markdown document.\n\nWith multiple paragraphs.",
		},
		{
			name:    "valid frontmatter with body",
			content: "---\ntitle: My Title\nphase: draft\n---\nBody content here.",
			wantFrontmatter: map[string]any{
				"title": "My Title",
				"phase": "draft",
			},
			wantBody: "Body content here.",
		},
		{
			name:    "frontmatter with array",
			content: "---\ntags:\n  - vision\n  - q3\n---\nDescription",
			wantFrontmatter: map[string]any{
				"tags": []any{"vision", "q3"},
			},
			wantBody: "Description",
		},
		{
			name:            "empty frontmatter",
			content:         "---\n---\nBody after empty frontmatter",
			wantFrontmatter: map[string]any{},
			wantBody:        "Body after empty frontmatter",
		},
		{
			name:    "unclosed frontmatter",
			content: "---\ntitle: Test\nNo closing delimiter",
			wantErr: true,
		},
		{
			name:    "invalid YAML in frontmatter",
			content: "---\ntitle: [invalid yaml\n---\nBody",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.content))

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}

			if len(doc.Frontmatter) != len(tt.wantFrontmatter) {
				t.Errorf("Parse() frontmatter len = %d, want %d", len(doc.Frontmatter), len(tt.wantFrontmatter))
			}
			for k, want := range tt.wantFrontmatter {
				got, ok := doc.Frontmatter[k]
				if !ok {
					t.Errorf("Parse() missing key %q", k)
					continue
				}
				if wantSlice, ok := want.([]any); ok {
					gotSlice, ok := got.([]any)
					if !ok || len(gotSlice) != len(wantSlice) {
						t.Errorf("Parse() frontmatter[%q] = %v, want %v", k, got, want)
						continue
					}
					for i, v := range wantSlice {
						if gotSlice[i] != v {
							t.Errorf("Parse() frontmatter[%q][%d] = %v, want %v", k, i, gotSlice[i], v)
						}
					}
				} else if got != want {
					t.Errorf("Parse() frontmatter[%q] = %v, want %v", k, got, want)
				}
			}

			if doc.Body != tt.wantBody {
				t.Errorf("Parse() body = %q, want %q", doc.Body, tt.wantBody)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name        string
		doc         *Document
		wantContain []string
	}{
		{
			name:        "body only",
			doc:         &Document{Frontmatter: map[string]any{}, Body: "Just body content"},
			wantContain: []string{"Just body content"},
		},
		{
			name: "frontmatter and body",
			doc: &Document{
				Frontmatter: map[string]any{"title": "Test Title", "phase": "review"},
				Body:        "Description here",
			},
			wantContain: []string{"---", "title: Test Title", "phase: review", "---", "Description here"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.doc)
			if err != nil {
				t.Fatalf("Render() unexpected error: %v", err)
			}
			result := string(got)
			for _, want := range tt.wantContain {
				if !strings.Contains(result, want) {
					t.Errorf("Render() result missing %q\nGot:\n%s", want, result)
				}
			}
		})
	}
}

func TestParseRenderRoundtrip(t *testing.T) {
	contents := []string{
		"---\ntitle: Test\nphase: draft\n---\nBody content",
		"---\ntitle: Test\n---\nLine 1\n\nLine 2\n\nLine 3",
	}

	for _, content := range contents {
		doc, err := Parse([]byte(content))
		if err != nil {
			t.Fatalf("Parse() error: %v", err)
		}

		rendered, err := Render(doc)
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}

		doc2, err := Parse(rendered)
		if err != nil {
			t.Fatalf("Parse() after render error: %v", err)
		}

		if len(doc.Frontmatter) != len(doc2.Frontmatter) {
			t.Errorf("roundtrip frontmatter len changed: %d -> %d", len(doc.Frontmatter), len(doc2.Frontmatter))
		}
		for k, v := range doc.Frontmatter {
			if doc2.Frontmatter[k] != v {
				t.Errorf("roundtrip frontmatter[%q] changed: %v -> %v", k, v, doc2.Frontmatter[k])
			}
		}
		if doc.Body != doc2.Body {
			t.Errorf("roundtrip body changed: %q -> %q", doc.Body, doc2.Body)
		}
	}
}

func TestRenderPreservesKeyOrderForUntouchedKeys(t *testing.T) {
	content := "---\nzeta: 1\nalpha: 2\nmid: 3\n---\nBody"
	doc, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	// Touch one key; the other two are untouched and must keep their order.
	doc.Set("mid", 4)

	rendered, err := Render(doc)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	result := string(rendered)
	zetaIdx := strings.Index(result, "zeta")
	alphaIdx := strings.Index(result, "alpha")
	midIdx := strings.Index(result, "mid")

	if !(zetaIdx < alphaIdx && alphaIdx < midIdx) {
		t.Errorf("expected original key order zeta, alpha, mid; got:\n%s", result)
	}
	if !strings.Contains(result, "mid: 4") {
		t.Errorf("expected updated value for mid, got:\n%s", result)
	}
}

func TestRenderAppendsNewKeysDeterministically(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: Test\n---\nBody"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	doc.Set("zz_new", "z")
	doc.Set("aa_new", "a")

	rendered, err := Render(doc)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	result := string(rendered)
	if strings.Index(result, "aa_new") > strings.Index(result, "zz_new") {
		t.Errorf("expected new keys appended in sorted order, got:\n%s", result)
	}
}
