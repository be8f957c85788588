package archive

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"HeatwaveScanner/internal/domain"
)

const frontMatterDelimiter = "---"

// RenderDocument composes the archived Markdown file for a discussion:
// YAML front matter, a fixed heading, source/extraction lines, then the body.
func RenderDocument(discussion domain.Discussion) (string, error) {
	front := domain.FrontMatter{
		Title:     domain.DocumentTitle,
		Source:    discussion.SourceURL,
		Extracted: discussion.ExtractedAt.Format(time.RFC3339),
	}

	header, err := yaml.Marshal(front)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontMatterDelimiter + "\n")
	b.Write(header)
	b.WriteString(frontMatterDelimiter + "\n\n")
	b.WriteString("# " + domain.DocumentTitle + "\n\n")
	fmt.Fprintf(&b, "**Source:** [%s](%s)  \n", discussion.SourceURL, discussion.SourceURL)
	fmt.Fprintf(&b, "**Extracted:** %s\n\n", front.Extracted)
	b.WriteString(frontMatterDelimiter + "\n\n")
	b.WriteString(discussion.Markdown + "\n")

	return b.String(), nil
}

// ParseDocument reads an archived file back into a Document, validating the
// front matter timestamp along the way.
func ParseDocument(raw []byte, path string) (domain.Document, error) {
	text := string(raw)
	if !strings.HasPrefix(text, frontMatterDelimiter+"\n") {
		return domain.Document{}, fmt.Errorf("document %s has no front matter", path)
	}

	rest := text[len(frontMatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelimiter+"\n")
	if end < 0 {
		return domain.Document{}, fmt.Errorf("document %s has unterminated front matter", path)
	}

	var front domain.FrontMatter
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &front); err != nil {
		return domain.Document{}, fmt.Errorf("parse front matter of %s: %w", path, err)
	}

	extractedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(front.Extracted))
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %s has unparseable extracted timestamp: %w", path, err)
	}

	doc := domain.Document{
		Title:        front.Title,
		SourceURL:    front.Source,
		ForecastDate: forecastDateFromName(path),
		ExtractedAt:  extractedAt,
		Body:         strings.TrimSpace(rest[end+len(frontMatterDelimiter)+2:]),
		Path:         path,
	}

	if err := doc.Validate(); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

func forecastDateFromName(path string) string {
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".md")
	if rest, ok := strings.CutPrefix(name, filePrefix); ok {
		return rest
	}
	return ""
}
