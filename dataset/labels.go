package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// EncodeLabels maps label strings to dense integer codes. Classes are
// returned sorted so the encoding is stable across runs.
func EncodeLabels(values []string) ([]int, []string, error) {
	if len(values) == 0 {
		return nil, nil, errors.New("no labels")
	}
	seen := make(map[string]bool)
	for _, v := range values {
		if IsMissing(v) {
			return nil, nil, errors.New("missing value in label column")
		}
		seen[v] = true
	}
	classes := make([]string, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	codes := make(map[string]int, len(classes))
	for i, class := range classes {
		codes[class] = i
	}
	encoded := make([]int, len(values))
	for i, v := range values {
		encoded[i] = codes[v]
	}
	return encoded, classes, nil
}

// DecodeLabels maps integer codes back to class names.
func DecodeLabels(codes []int, classes []string) ([]string, error) {
	decoded := make([]string, len(codes))
	for i, code := range codes {
		if code < 0 || code >= len(classes) {
			return nil, fmt.Errorf("label code %d out of range", code)
		}
		decoded[i] = classes[code]
	}
	return decoded, nil
}

// SaveClasses persists the class list next to trained models so the
// standalone scorer can decode predictions.
func SaveClasses(path string, classes []string) error {
	if len(classes) == 0 {
		return errors.New("no classes")
	}
	payload, err := json.Marshal(classes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func LoadClasses(path string) ([]string, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var classes []string
	if err := json.Unmarshal(payload, &classes); err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, errors.New("empty class list")
	}
	return classes, nil
}
