// Package frontmatter splits a Markdown file into a YAML frontmatter map and
// a body, and serializes the pair back losslessly with respect to body text
// and the key order of untouched keys.
//
// It is the C1 component: every other package in this module reads and
// writes documents through here instead of touching YAML directly.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/metis-io/metis/internal/metiserr"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Document is a parsed Markdown file: its frontmatter and its body text.
//
// node holds the original YAML mapping node so that Render can update
// changed keys in place and leave the order of every other key untouched.
type Document struct {
	Frontmatter map[string]any
	Body        string

	node *yaml.Node
}

// Parse splits a Markdown document into frontmatter and body.
//
// A file with no leading "---" delimiter is treated as a bare body with
// empty frontmatter, matching documents authored before this codec existed.
func Parse(content []byte) (*Document, error) {
	str := string(content)

	if !strings.HasPrefix(str, delimiter) {
		return &Document{
			Frontmatter: make(map[string]any),
			Body:        str,
		}, nil
	}

	rest := str[len(delimiter):]
	idx := strings.Index(rest, "\n"+delimiter)
	if idx == -1 {
		return nil, fmt.Errorf("%w: unclosed frontmatter delimiter", metiserr.ErrInvalidFrontmatter)
	}

	fmYAML := rest[:idx]
	body := strings.TrimPrefix(rest[idx+len("\n"+delimiter):], "\n")

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(fmYAML), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", metiserr.ErrInvalidFrontmatter, err)
	}

	var mapping *yaml.Node
	if len(root.Content) > 0 {
		mapping = root.Content[0]
		if mapping.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: frontmatter is not a mapping", metiserr.ErrInvalidFrontmatter)
		}
	} else {
		mapping = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}

	var flat map[string]any
	if err := mapping.Decode(&flat); err != nil {
		return nil, fmt.Errorf("%w: %v", metiserr.ErrInvalidFrontmatter, err)
	}
	if flat == nil {
		flat = make(map[string]any)
	}

	return &Document{
		Frontmatter: flat,
		Body:        body,
		node:        mapping,
	}, nil
}

// Render combines frontmatter and body into Markdown bytes.
//
// If the document was produced by Parse, untouched keys keep their original
// position and style; keys present only in Frontmatter (added after Parse)
// are appended in sorted key order, for determinism.
func Render(doc *Document) ([]byte, error) {
	var buf bytes.Buffer

	node := doc.node
	if node == nil {
		node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	if err := syncNode(node, doc.Frontmatter); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}

	if len(node.Content) > 0 {
		buf.WriteString(delimiter)
		buf.WriteString("\n")

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		enc.Close()

		buf.WriteString(delimiter)
		buf.WriteString("\n")
	}

	buf.WriteString(doc.Body)

	return buf.Bytes(), nil
}

// Get returns a frontmatter value and whether it was present.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.Frontmatter[key]
	return v, ok
}

// Set assigns a frontmatter key, preserving its existing position if it
// already existed, or appending it otherwise.
func (d *Document) Set(key string, value any) {
	if d.Frontmatter == nil {
		d.Frontmatter = make(map[string]any)
	}
	d.Frontmatter[key] = value
}

// Delete removes a frontmatter key from both the map and, on the next
// Render, the underlying node.
func (d *Document) Delete(key string) {
	delete(d.Frontmatter, key)
}

// syncNode reconciles a mapping node against the authoritative map: values
// for existing keys are replaced in place (keeping position), keys removed
// from the map are dropped from the node, and new keys are appended in
// sorted order for determinism across runs.
func syncNode(node *yaml.Node, data map[string]any) error {
	if node.Kind != yaml.MappingNode {
		node.Kind = yaml.MappingNode
		node.Tag = "!!map"
		node.Content = nil
	}

	seen := make(map[string]bool, len(data))
	newContent := make([]*yaml.Node, 0, len(node.Content))

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		key := keyNode.Value
		value, ok := data[key]
		if !ok {
			continue // key deleted
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(value); err != nil {
			return err
		}
		newContent = append(newContent, keyNode, valNode)
		seen[key] = true
	}

	missing := make([]string, 0, len(data))
	for key := range data {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	sortStrings(missing)

	for _, key := range missing {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
		valNode := &yaml.Node{}
		if err := valNode.Encode(data[key]); err != nil {
			return err
		}
		newContent = append(newContent, keyNode, valNode)
	}

	node.Content = newContent
	return nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
