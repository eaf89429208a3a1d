package records

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

// yaml.v3 statt des Standardformats, damit der Kopf als yaml.Node mit Schlüsselreihenfolge ankommt.
var yamlFrontMatter = frontmatter.NewFormat(frontMatterDelimiter, frontMatterDelimiter, yaml.Unmarshal)

// ReadFrontMatter liest eine Markdown-Datei mit YAML-Kopf. Die Felder des Kopfes
// bilden den Record, der Text danach landet unter bodyField (sofern nicht leer).
func ReadFrontMatter(r io.Reader, bodyField string) (*Record, error) {
	var node yaml.Node
	body, err := frontmatter.Parse(r, &node, yamlFrontMatter)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	// ohne schließenden Trenner liefert Parse die ganze Eingabe als Text
	if bytes.HasPrefix(bytes.TrimLeft(body, " \t\r\n"), []byte(frontMatterDelimiter)) {
		return nil, fmt.Errorf("front matter not terminated by %q", frontMatterDelimiter)
	}

	rec := &Record{fields: map[string]any{}}
	if len(node.Content) > 0 {
		mapping := node.Content[0]
		if mapping.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("front matter must be a mapping, got line %d", mapping.Line)
		}
		fields := map[string]any{}
		if err := node.Decode(&fields); err != nil {
			return nil, fmt.Errorf("decode front matter: %w", err)
		}
		// Reihenfolge aus dem Dokument übernehmen
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			key := mapping.Content[i].Value
			rec.Set(key, fields[key])
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		rec.Set(bodyField, text)
	}
	return rec, nil
}
