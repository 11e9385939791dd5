package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	outputJSON = "json"
	outputYAML = "yaml"
	outputICS  = "ics"
)

// writeOutput encodes v to w as JSON or YAML.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "", outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		plain, err := jsonShape(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// jsonShape re-decodes v through its JSON encoding so YAML output uses the
// same field names as JSON, including for API types without yaml tags.
func jsonShape(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
