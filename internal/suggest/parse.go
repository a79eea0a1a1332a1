package suggest

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
)

const (
	maxSuggestions   = 5
	maxSuggestionLen = 200
)

// ParseSuggestions extracts suggestion strings from completion text. A JSON
// array of strings (optionally inside a markdown code fence) is preferred;
// otherwise the text is split into lines with bullets and numbering
// removed. At most five items are kept, each shorter than 200 characters,
// and every item is pattern-redacted.
func ParseSuggestions(content string) []string {
	items := parseJSONArray(content)
	if items == nil {
		items = parseLines(content)
	}

	out := make([]string, 0, maxSuggestions)
	for _, item := range items {
		item = strings.TrimSpace(phi.RedactPatterns(item))
		if item == "" || len(item) >= maxSuggestionLen {
			continue
		}
		out = append(out, item)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func parseJSONArray(content string) []string {
	text := stripFence(strings.TrimSpace(content))
	if !gjson.Valid(text) {
		start := strings.IndexByte(text, '[')
		end := strings.LastIndexByte(text, ']')
		if start < 0 || end <= start {
			return nil
		}
		text = text[start : end+1]
		if !gjson.Valid(text) {
			return nil
		}
	}

	result := gjson.Parse(text)
	if !result.IsArray() {
		return nil
	}
	var items []string
	result.ForEach(func(_, value gjson.Result) bool {
		if value.Type == gjson.String {
			items = append(items, value.String())
		}
		return true
	})
	if len(items) == 0 {
		return nil
	}
	return items
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func parseLines(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		line = trimBullet(strings.TrimSpace(line))
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// trimBullet removes list markers such as "-", "*", "•", "3." or "2)".
func trimBullet(line string) string {
	line = strings.TrimLeft(line, "-*•· \t")
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		line = line[i+1:]
	}
	return strings.TrimSpace(line)
}
