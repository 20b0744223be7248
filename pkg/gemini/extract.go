package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrNoJSON is returned when a reply holds no parseable JSON object or array.
var ErrNoJSON = errors.New("no json found in model reply")

var (
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// ExtractJSON returns the first JSON object or array embedded in a free-text
// reply. Prose and markdown fences around the payload are ignored.
func ExtractJSON(text string) ([]byte, error) {
	obj := objectPattern.FindStringIndex(text)
	arr := arrayPattern.FindStringIndex(text)

	var candidates [][]int
	switch {
	case obj != nil && arr != nil && arr[0] < obj[0]:
		candidates = [][]int{arr, obj}
	case obj != nil && arr != nil:
		candidates = [][]int{obj, arr}
	case obj != nil:
		candidates = [][]int{obj}
	case arr != nil:
		candidates = [][]int{arr}
	default:
		return nil, ErrNoJSON
	}

	for _, loc := range candidates {
		raw := []byte(text[loc[0]:loc[1]])
		if json.Valid(raw) {
			return raw, nil
		}
	}
	return nil, ErrNoJSON
}

// DecodeJSON extracts the embedded JSON and unmarshals it into v.
func DecodeJSON(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}
