package safety

import (
	"errors"
	"fmt"
)

var (
	errNoJSONObject   = errors.New("no json object found in response")
	errAmbiguousJSON  = errors.New("multiple json object candidates in response")
	errUnbalancedJSON = errors.New("unbalanced json object in response")
)

// extractJSONObject returns the single top-level brace-balanced object
// embedded in s. Classifiers tend to wrap their answer in prose or markdown
// fences despite being told not to, so the surrounding text is ignored.
// Zero candidates, an unterminated object and more than one candidate are
// all reported as errors: guessing which object was meant is worse than
// failing the check.
func extractJSONObject(s string) (string, error) {
	const op = "safety.extractJSONObject"

	var (
		candidates []string
		depth      int
		start      int
		inString   bool
		escaped    bool
	)

	for i := 0; i < len(s); i++ {
		ch := s[i]

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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				candidates = append(candidates, s[start:i+1])
			}
		}
	}

	if depth != 0 {
		return "", fmt.Errorf("%s: %w", op, errUnbalancedJSON)
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%s: %w", op, errNoJSONObject)
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%s: %w", op, errAmbiguousJSON)
	}
}
