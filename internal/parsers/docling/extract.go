package docling

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// Extract builds a ParseResult from a docling markdown export and its
// document tree. Maps are visited in key order so output is stable.
func Extract(filename, markdown string, doc map[string]any) *domain.ParseResult {
	var items []map[string]any
	if len(doc) > 0 {
		walk(doc, func(item map[string]any) { items = append(items, item) })
	}

	result := &domain.ParseResult{
		TextBlocks: textBlocks(items, markdown),
		Tables:     tables(items),
		Images:     images(items, filename),
	}

	result.FullText = markdown
	result.TablesInText = markdown != ""
	if result.FullText == "" {
		var parts []string
		for _, b := range result.TextBlocks {
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		result.FullText = strings.Join(parts, "\n\n")
	}
	return result
}

// walk visits every map in the tree, parents before children.
func walk(node any, visit func(map[string]any)) {
	switch v := node.(type) {
	case map[string]any:
		visit(v)
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(v[k], visit)
		}
	case []any:
		for _, child := range v {
			walk(child, visit)
		}
	}
}

func textBlocks(items []map[string]any, markdown string) []domain.TextBlock {
	if len(items) == 0 {
		if markdown == "" {
			return nil
		}
		return []domain.TextBlock{{Text: markdown, BlockType: "text"}}
	}

	var blocks []domain.TextBlock
	for _, item := range items {
		t := itemType(item)
		if !strings.Contains(t, "text") && !strings.Contains(t, "paragraph") {
			continue
		}
		text := firstString(item, "text", "content")
		if text == "" {
			continue
		}
		blocks = append(blocks, domain.TextBlock{
			Text:         text,
			PageStart:    firstInt(item, "page", "page_start"),
			PageEnd:      firstInt(item, "page_end", "page"),
			BlockType:    "text",
			SectionTitle: firstString(item, "title", "section_title"),
			Meta:         scalarMeta(item, "text", "content"),
		})
	}

	if len(blocks) == 0 && markdown != "" {
		blocks = append(blocks, domain.TextBlock{Text: markdown, BlockType: "text"})
	}
	return blocks
}

func tables(items []map[string]any) []domain.Table {
	var out []domain.Table
	for _, item := range items {
		_, hasTable := item["table"]
		if !strings.Contains(itemType(item), "table") && !hasTable {
			continue
		}
		out = append(out, domain.Table{
			Markdown:  firstString(item, "markdown", "md", "text"),
			TableJSON: item,
			Page:      firstInt(item, "page", "page_start"),
			Title:     firstString(item, "title", "caption"),
			Meta:      scalarMeta(item, "markdown", "md", "text"),
		})
	}
	return out
}

// images decodes base64 payloads. Items without bytes are skipped and
// do not consume an index.
func images(items []map[string]any, filename string) []domain.Image {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	var out []domain.Image
	for _, item := range items {
		t := itemType(item)
		if !strings.Contains(t, "image") && !strings.Contains(t, "figure") {
			continue
		}
		raw := firstString(item, "data", "bytes", "image_bytes")
		if raw == "" {
			continue
		}
		content, err := base64.StdEncoding.DecodeString(raw)
		if err != nil || len(content) == 0 {
			continue
		}

		n := len(out) + 1
		index := firstInt(item, "image_index")
		if index == 0 {
			index = n
		}
		out = append(out, domain.Image{
			Content:    content,
			Filename:   fmt.Sprintf("%s_img_%d.png", base, n),
			Page:       firstInt(item, "page", "page_start"),
			ImageIndex: index,
			Caption:    firstString(item, "caption", "title"),
			Meta:       scalarMeta(item, "data", "bytes", "image_bytes"),
		})
	}
	return out
}

func itemType(item map[string]any) string {
	return strings.ToLower(firstString(item, "type", "item_type"))
}

// firstString returns the first non-empty string value among keys.
func firstString(item map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := item[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstInt returns the first non-zero number among keys. JSON numbers
// decode as float64.
func firstInt(item map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := item[k].(type) {
		case float64:
			if v != 0 {
				return int(v)
			}
		case int:
			if v != 0 {
				return v
			}
		}
	}
	return 0
}

// scalarMeta copies scalar values, leaving out the given keys.
func scalarMeta(item map[string]any, exclude ...string) map[string]any {
	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}
	meta := make(map[string]any)
	for k, v := range item {
		if skip[k] {
			continue
		}
		switch v.(type) {
		case string, float64, int, bool, nil:
			meta[k] = v
		}
	}
	return meta
}
