package report

import (
	"html"
	"html/template"
	"regexp"
	"strings"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern = regexp.MustCompile(`\*([^*]+?)\*`)

	recommendationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Decision:\s*(STRONG BUY|BUY|PASS)`),
		regexp.MustCompile(`(?i)Recommendation:\s*(STRONG BUY|BUY|PASS)`),
		regexp.MustCompile(`(?i)Action:\s*(STRONG BUY|BUY|PASS)`),
	}
	bareRecommendation = regexp.MustCompile(`(?i)\b(STRONG BUY|BUY|PASS)\b`)
)

// MarkdownToHTML converts the light markdown the model emits into email-safe
// HTML: bold, italics, two heading levels, and paragraph breaks. Raw HTML in
// the input is escaped first.
func MarkdownToHTML(text string) template.HTML {
	if text == "" {
		return ""
	}
	text = html.EscapeString(text)
	text = boldPattern.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicPattern.ReplaceAllString(text, "<em>$1</em>")

	paragraphs := splitParagraphs(text)
	blocks := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		switch {
		case strings.HasPrefix(para, "# "):
			blocks = append(blocks, "<h3>"+strings.TrimSpace(para[2:])+"</h3>")
		case strings.HasPrefix(para, "## "):
			blocks = append(blocks, "<h4>"+strings.TrimSpace(para[3:])+"</h4>")
		default:
			blocks = append(blocks, "<p>"+para+"</p>")
		}
	}
	return template.HTML(strings.Join(blocks, "\n"))
}

// splitParagraphs breaks on blank lines, falling back to single newlines
// when the text has no paragraph breaks at all.
func splitParagraphs(text string) []string {
	parts := nonEmpty(strings.Split(text, "\n\n"))
	if len(parts) == 0 {
		parts = nonEmpty(strings.Split(text, "\n"))
	}
	if len(parts) == 0 {
		parts = []string{strings.TrimSpace(text)}
	}
	return parts
}

func nonEmpty(parts []string) []string {
	var result []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ExtractRecommendation pulls the decision out of a summary. Labelled forms
// like "Decision: BUY" win over bare mentions; a summary with no verdict
// yields a dash.
func ExtractRecommendation(summary string) string {
	if summary == "" {
		return placeholder
	}
	for _, pattern := range recommendationPatterns {
		if m := pattern.FindStringSubmatch(summary); m != nil {
			return strings.ToUpper(m[1])
		}
	}
	if m := bareRecommendation.FindStringSubmatch(summary); m != nil {
		return strings.ToUpper(m[1])
	}
	return placeholder
}
