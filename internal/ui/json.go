package ui

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderJSON returns v as indented JSON, syntax highlighted unless Plain.
func RenderJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}
	if Plain {
		return string(data), nil
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, string(data), "json", "terminal256", "monokai"); err != nil {
		return string(data), nil
	}
	return buf.String(), nil
}

// PrintJSON writes v to Out as JSON.
func PrintJSON(v interface{}) error {
	out, err := RenderJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, out)
	return nil
}
