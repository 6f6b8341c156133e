package compactor

import (
	"bytes"
	"encoding/json"
	"strings"
)

// JSON minifies JSON documents. Uses the standard library's
// json.Compact, which exists precisely for this — removing it would mean
// hand-rolling a JSON tokenizer for no benefit.
type JSON struct{}

func (JSON) Supports(bundlePath string) bool {
	return strings.HasSuffix(bundlePath, ".json")
}

func (JSON) Compact(contents []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := json.Compact(&out, contents); err != nil {
		// Not valid JSON (or not parseable standalone, e.g. JSON5
		// dialects) — pass through unchanged rather than fail the
		// whole build over a non-critical minification step.
		return contents, nil
	}
	return out.Bytes(), nil
}
