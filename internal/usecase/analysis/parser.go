package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	ucerrors "github.com/johnquangdev/atc-shift-analyzer/internal/usecase/errors"
)

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ExtractJSON pulls the first JSON object out of free-form model text.
// A fenced code block wins over the surrounding text; inside it the object
// runs from the first '{' to its matching '}'. When the braces never balance
// the text is decoded as is. Nothing is repaired.
func ExtractJSON(text string) (map[string]interface{}, error) {
	text = strings.TrimSpace(text)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	text = balancedObject(text)

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ucerrors.ErrMalformedModelOutput, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ucerrors.ErrMalformedModelOutput)
	}
	return out, nil
}

// balancedObject cuts text to the first top-level {...} span. Braces inside
// strings are counted too.
func balancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return text
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text
}
