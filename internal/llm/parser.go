package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/7610venki/vehicle-data-mapper/internal/common"
)

// cleanMarkdownWrapper strips markdown code fences that models often wrap
// around JSON output.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}

// extractArray returns the outermost JSON array in content, or "" when no
// array is present.
func extractArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// recoverObjects scans content for balanced top-level JSON objects,
// tolerating the truncated or comma-mangled arrays some models produce.
// String contents are respected so braces inside values do not confuse
// the scan.
func recoverObjects(content string) []json.RawMessage {
	var objects []json.RawMessage
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidate := content[start : i+1]
					if json.Valid([]byte(candidate)) {
						objects = append(objects, json.RawMessage(candidate))
					}
					start = -1
				}
			}
		}
	}

	return objects
}

// parseObjectArray decodes a JSON array of objects from raw model output.
// It first tries a strict decode of the extracted array, then falls back
// to per-object recovery so one malformed item does not lose the rest of
// the batch.
func parseObjectArray[T any](content string) ([]T, error) {
	content = cleanMarkdownWrapper(content)

	arr := extractArray(content)
	if arr != "" {
		var items []T
		if err := json.Unmarshal([]byte(arr), &items); err == nil {
			return items, nil
		}
	}

	raw := recoverObjects(content)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no JSON array found", common.ErrMalformedResponse)
	}

	items := make([]T, 0, len(raw))
	for _, obj := range raw {
		var item T
		if err := json.Unmarshal(obj, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no decodable objects", common.ErrMalformedResponse)
	}
	return items, nil
}
