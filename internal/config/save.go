package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/textcore/internal/log"
)

// SaveValue sets a scalar at a dotted key such as "editor.tab_width" in the
// config file, creating intermediate sections as needed. Comments and
// formatting elsewhere in the file are preserved by editing the yaml.Node
// tree instead of re-marshaling a Config.
func SaveValue(configPath, key, value string) error {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid config key %q", key)
		}
	}

	doc, err := readDocument(configPath)
	if err != nil {
		return err
	}

	node := doc.Content[0]
	for _, p := range parts[:len(parts)-1] {
		child := lookup(node, p)
		if child == nil || child.Kind != yaml.MappingNode {
			fresh := &yaml.Node{Kind: yaml.MappingNode}
			setKey(node, p, fresh)
			child = fresh
		}
		node = child
	}
	setKey(node, parts[len(parts)-1], scalarNode(value))

	log.Debug(log.CatConfig, "Saving config value", "path", configPath, "key", key)
	return writeDocument(configPath, doc)
}

// SaveLanguages replaces the languages section of the config file.
func SaveLanguages(configPath string, langs []LanguageConfig) error {
	doc, err := readDocument(configPath)
	if err != nil {
		return err
	}
	setKey(doc.Content[0], "languages", buildLanguagesNode(langs))

	log.Debug(log.CatConfig, "Saving languages", "path", configPath, "count", len(langs))
	return writeDocument(configPath, doc)
}

// readDocument parses configPath into a document whose root is a mapping.
// A missing or empty file yields an empty document.
func readDocument(configPath string) (*yaml.Node, error) {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode}}
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing config: top level must be a mapping")
	}
	return &doc, nil
}

// writeDocument marshals doc and replaces configPath atomically.
func writeDocument(configPath string, doc *yaml.Node) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	// write to temp, then rename
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".textcore.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// lookup returns the value node for key in a mapping node.
func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i < len(m.Content)-1; i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setKey replaces the value for key in a mapping node, or appends it.
func setKey(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i < len(m.Content)-1; i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
}

// scalarNode builds a scalar, letting the encoder pick the tag so that
// numbers and booleans stay unquoted.
func scalarNode(value string) *yaml.Node {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(value), &n); err == nil &&
		len(n.Content) == 1 && n.Content[0].Kind == yaml.ScalarNode {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: n.Content[0].Tag, Value: n.Content[0].Value}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// buildLanguagesNode creates a yaml.Node representing the languages array.
func buildLanguagesNode(langs []LanguageConfig) *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(langs)),
	}

	for _, l := range langs {
		langNode := &yaml.Node{Kind: yaml.MappingNode}
		langNode.Content = append(langNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "name"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: l.Name},
		)
		if l.Lexer != "" {
			langNode.Content = append(langNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: "lexer"},
				&yaml.Node{Kind: yaml.ScalarNode, Value: l.Lexer},
			)
		}

		exts := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, ext := range l.Extensions {
			exts.Content = append(exts.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ext})
		}
		langNode.Content = append(langNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "extensions"},
			exts,
		)

		node.Content = append(node.Content, langNode)
	}
	return node
}
