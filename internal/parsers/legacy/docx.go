package legacy

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

// documentXML is the subset of word/document.xml that carries text.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []run `xml:"r"`
}

type run struct {
	Text []struct {
		Content string `xml:",chardata"`
	} `xml:"t"`
}

type coreXML struct {
	Title string `xml:"title"`
}

func extractDocx(filename string, content []byte) (*domain.ParseResult, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a docx archive: %w", domain.ErrLoadDocument, filename, err)
	}

	body, err := readZipEntry(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLoadDocument, filename, err)
	}

	var doc documentXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLoadDocument, filename, err)
	}

	result := &domain.ParseResult{}
	if core, err := readZipEntry(reader, "docProps/core.xml"); err == nil {
		var props coreXML
		if xml.Unmarshal(core, &props) == nil {
			result.Title = strings.TrimSpace(props.Title)
		}
	}

	// Paragraphs with a heading style open a new section block.
	var section string
	var lines []string
	flush := func() {
		if text := strings.TrimSpace(strings.Join(lines, "\n")); text != "" {
			result.TextBlocks = append(result.TextBlocks, domain.TextBlock{
				Text:         text,
				BlockType:    "paragraph",
				SectionTitle: section,
			})
		}
		lines = lines[:0]
	}

	for _, p := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			continue
		}
		if isHeadingStyle(p.Props.Style.Val) {
			flush()
			section = text
		}
		lines = append(lines, text)
	}
	flush()

	return result, nil
}

func isHeadingStyle(style string) bool {
	s := strings.ToLower(style)
	return strings.HasPrefix(s, "heading") || s == "title"
}

func readZipEntry(reader *zip.Reader, name string) ([]byte, error) {
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing %s", name)
}
