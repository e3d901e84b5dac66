package legacy

import (
	"html"
	"regexp"
	"strings"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

func extractPlainText(_ string, content []byte) (*domain.ParseResult, error) {
	text := strings.ToValidUTF8(string(content), "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return singleBlock("", strings.TrimSpace(text)), nil
}

var (
	mdCodeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode   = regexp.MustCompile("`([^`]+)`")
	mdImage        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading      = regexp.MustCompile(`(?m)^(#{1,6})\s+(.*)$`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s*`)
	mdRule         = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	mdListMarker   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	mdNumberedList = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	mdEmphasis     = regexp.MustCompile(`(\*\*|__|\*)`)
	multiNewlines  = regexp.MustCompile(`\n{3,}`)
)

// extractMarkdown splits a markdown file into one block per section.
// The first level-one heading becomes the title.
func extractMarkdown(_ string, content []byte) (*domain.ParseResult, error) {
	src := stripFrontMatter(strings.ReplaceAll(string(content), "\r\n", "\n"))

	result := &domain.ParseResult{}
	if m := mdHeading.FindStringSubmatch(src); m != nil && m[1] == "#" {
		result.Title = strings.TrimSpace(m[2])
	}

	var section string
	var body strings.Builder
	flush := func() {
		text := stripMarkdown(body.String())
		if text != "" {
			result.TextBlocks = append(result.TextBlocks, domain.TextBlock{
				Text:         text,
				BlockType:    "section",
				SectionTitle: section,
			})
		}
		body.Reset()
	}

	inFence := false
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if m := mdHeading.FindStringSubmatch(line); m != nil {
				flush()
				section = strings.TrimSpace(m[2])
			}
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return result, nil
}

// stripFrontMatter drops a leading YAML front matter block.
func stripFrontMatter(src string) string {
	if !strings.HasPrefix(src, "---\n") {
		return src
	}
	end := strings.Index(src[4:], "\n---")
	if end < 0 {
		return src
	}
	rest := src[4+end+4:]
	return strings.TrimPrefix(rest, "\n")
}

// stripMarkdown removes common markdown formatting and keeps the text.
func stripMarkdown(content string) string {
	content = mdCodeBlock.ReplaceAllString(content, "")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "$2")
	content = mdEmphasis.ReplaceAllString(content, "")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = mdListMarker.ReplaceAllString(content, "")
	content = mdNumberedList.ReplaceAllString(content, "")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

var (
	htmlTitle      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlDropBlocks = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)\b[^>]*>.*?</(script|style|noscript|head|svg)>`)
	htmlComments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlTable      = regexp.MustCompile(`(?is)<table[^>]*>(.*?)</table>`)
	htmlRow        = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	htmlCell       = regexp.MustCompile(`(?is)<t[hd][^>]*>(.*?)</t[hd]>`)
	htmlBlockOpen  = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|section|article)\b[^>]*>`)
	htmlBlockClose = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|section|article)>`)
	htmlBreaks     = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	htmlTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces    = regexp.MustCompile(`[ \t]+`)
)

// extractHTML strips markup, keeping block structure as line breaks.
// Tables are rendered as markdown and removed from the text.
func extractHTML(_ string, content []byte) (*domain.ParseResult, error) {
	src := string(content)

	var title string
	if m := htmlTitle.FindStringSubmatch(src); m != nil {
		title = strings.TrimSpace(html.UnescapeString(m[1]))
	}

	src = htmlDropBlocks.ReplaceAllString(src, "")
	src = htmlComments.ReplaceAllString(src, "")

	var tables []domain.Table
	src = htmlTable.ReplaceAllStringFunc(src, func(table string) string {
		if md := htmlTableMarkdown(table); md != "" {
			tables = append(tables, domain.Table{Markdown: md})
		}
		return "\n"
	})

	text := htmlText(src)
	result := singleBlock(title, text)
	result.Tables = tables
	return result, nil
}

func htmlText(src string) string {
	src = htmlBlockOpen.ReplaceAllString(src, "\n")
	src = htmlBlockClose.ReplaceAllString(src, "\n")
	src = htmlBreaks.ReplaceAllString(src, "\n")
	src = htmlTags.ReplaceAllString(src, "")
	src = html.UnescapeString(src)
	src = strings.ReplaceAll(src, "\u00a0", " ")
	src = multiSpaces.ReplaceAllString(src, " ")

	var lines []string
	for _, line := range strings.Split(src, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func htmlTableMarkdown(table string) string {
	var rows [][]string
	for _, row := range htmlRow.FindAllStringSubmatch(table, -1) {
		var cells []string
		for _, cell := range htmlCell.FindAllStringSubmatch(row[1], -1) {
			cells = append(cells, strings.ReplaceAll(htmlText(cell[1]), "\n", " "))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return markdownTable(rows)
}

// markdownTable renders rows with the first row as header.
func markdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	var b strings.Builder
	writeRow := func(r []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(r) {
				cell = strings.ReplaceAll(r[i], "|", `\|`)
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}

	writeRow(rows[0])
	b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
	for _, r := range rows[1:] {
		writeRow(r)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
