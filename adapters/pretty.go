package adapters

import (
	"bytes"
	"encoding/json"
)

// JSONIndent reformats a JSON body with two-space indentation and a trailing newline.
// Bodies which are not valid JSON are returned as an error.
func JSONIndent(body []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(body)*2))
	if err := json.Indent(buf, body, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
