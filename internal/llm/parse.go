package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/anigil002/trackerupdates/internal/models"
)

// extractJSON pulls the first {...} span out of a model response, which
// may arrive wrapped in markdown fences or prose.
func extractJSON(response string) ([]byte, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}
	return []byte(response[start : end+1]), true
}

// decodeFields parses the extraction response. Anything unparsable
// degrades to an empty mapping. Non-string scalars are stringified;
// nested values and empty strings are dropped.
func decodeFields(response string) models.ExtractedFields {
	fields := models.ExtractedFields{}
	raw, ok := extractJSON(response)
	if !ok {
		return fields
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fields
	}
	for key, value := range decoded {
		if s, ok := scalarString(value); ok {
			fields[strings.ToLower(strings.TrimSpace(key))] = s
		}
	}
	return fields
}

// decodeCommand parses the command response, degrading to a zero
// ParsedCommand when the model returned something unusable.
func decodeCommand(response string) models.ParsedCommand {
	raw, ok := extractJSON(response)
	if !ok {
		return models.ParsedCommand{}
	}
	var decoded struct {
		Action     string         `json:"action"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return models.ParsedCommand{}
	}
	if decoded.Parameters == nil {
		decoded.Parameters = map[string]any{}
	}
	return models.ParsedCommand{
		Action:     strings.ToLower(strings.TrimSpace(decoded.Action)),
		Parameters: decoded.Parameters,
	}
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed, trimmed != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
