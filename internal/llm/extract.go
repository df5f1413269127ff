package llm

import "strings"

// ExtractJSON pulls the JSON payload out of a model reply, tolerating
// markdown code fences and surrounding prose. Arrays are preferred when the
// outermost brackets enclose the braces.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)

	firstBracket := strings.Index(content, "[")
	lastBracket := strings.LastIndex(content, "]")
	firstBrace := strings.Index(content, "{")
	lastBrace := strings.LastIndex(content, "}")

	if firstBracket != -1 && lastBracket > firstBracket {
		if firstBrace == -1 || (firstBracket <= firstBrace && lastBracket >= lastBrace) {
			return content[firstBracket : lastBracket+1]
		}
	}
	if firstBrace != -1 && lastBrace > firstBrace {
		return content[firstBrace : lastBrace+1]
	}

	// No braces or brackets found: fall back to trimming code fences.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}
