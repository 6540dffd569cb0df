package remoteocr

import (
	"fmt"
	"sort"
)

// extractText pulls plain text out of a generic OCR success payload. Several
// common response shapes are tried in order; the first string match wins.
// A miss reports the top-level keys seen to aid operator debugging.
func extractText(doc map[string]any) (string, error) {
	if text, ok := doc["text"].(string); ok {
		return text, nil
	}
	if text, ok := doc["content"].(string); ok {
		return text, nil
	}
	if text, ok := doc["ocr_text"].(string); ok {
		return text, nil
	}
	if result, ok := doc["result"]; ok {
		switch r := result.(type) {
		case string:
			return r, nil
		case map[string]any:
			if text, ok := r["text"].(string); ok {
				return text, nil
			}
		}
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "", fmt.Errorf("could not extract text from OCR response, response keys: %v", keys)
}
