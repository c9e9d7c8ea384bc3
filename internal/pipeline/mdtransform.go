package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-pagesnap/internal/yamlutil"
)

// Highlight placeholders use Unicode Private Use Area characters.
// They pass through Goldmark unchanged and become <mark> tags afterwards.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(.*?)==`)
)

// FrontMatter is the optional YAML header of a Markdown CV.
type FrontMatter struct {
	Name     string `yaml:"name"`
	Title    string `yaml:"title"`
	Lang     string `yaml:"lang"`
	Filename string `yaml:"filename"`
}

// Source is a preprocessed Markdown document.
type Source struct {
	Meta FrontMatter
	Body string
}

// Preprocess normalizes line endings, splits off YAML front matter,
// marks ==highlights== and compresses runs of blank lines.
func Preprocess(ctx context.Context, content string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}

	content = normalizeLineEndings(content)
	meta, body, err := splitFrontMatter(content)
	if err != nil {
		return Source{}, err
	}
	body = convertHighlights(body)
	body = compressBlankLines(body)
	return Source{Meta: meta, Body: body}, nil
}

// splitFrontMatter extracts a leading "---" delimited YAML block.
// Content without one is returned unchanged.
func splitFrontMatter(content string) (FrontMatter, string, error) {
	var meta FrontMatter
	if !strings.HasPrefix(content, "---\n") {
		return meta, content, nil
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return meta, content, nil
	}
	header := rest[:end]
	body := strings.TrimPrefix(rest[end+len("\n---"):], "\n")

	if strings.TrimSpace(header) != "" {
		if err := yamlutil.Unmarshal([]byte(header), &meta); err != nil {
			return FrontMatter{}, "", fmt.Errorf("parsing front matter: %w", err)
		}
	}
	return meta, body, nil
}

func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// compressBlankLines limits consecutive blank lines to one.
func compressBlankLines(content string) string {
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

func convertHighlights(content string) string {
	return highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
}

// ConvertMarkPlaceholders turns highlight placeholders into <mark> tags
// once Goldmark has escaped everything else.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
