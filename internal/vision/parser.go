package vision

import (
	"encoding/json"
	"fmt"

	"github.com/battlelens/battlelens/internal/models"
)

// Parse extracts the first well-formed JSON object embedded in a reply's
// free text and decodes it into an AnalysisResult. When no candidate
// decodes, it returns the defined fallback: ParseError set, the raw text
// preserved, structured fields empty. It never returns an error; a
// non-deterministic text generator breaking its output contract is the
// expected degradation path, not an exception.
func Parse(raw string) *models.AnalysisResult {
	var result models.AnalysisResult
	if err := ExtractJSON(raw, &result); err != nil {
		return &models.AnalysisResult{
			RawResponse: raw,
			ParseError:  true,
			Notes:       "Could not parse structured data. See raw response.",
		}
	}
	return &result
}

// ParseReply parses a proxy reply and stamps the quota snapshot onto the
// result, fallback or not.
func ParseReply(reply *RawReply) *models.AnalysisResult {
	result := Parse(reply.Text)
	usage := reply.Usage
	result.Usage = &usage
	return result
}

// ExtractJSON scans text for balanced-brace candidate spans and strictly
// decodes each into v; the first successful decode wins.
func ExtractJSON(raw string, v interface{}) error {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}
		end, ok := balancedSpan(raw, start)
		if !ok {
			// No matching close brace exists beyond this point either.
			break
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no valid JSON object found in response")
}

// balancedSpan returns the index of the brace matching the one at start,
// skipping braces inside string literals.
func balancedSpan(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
