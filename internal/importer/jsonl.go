package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineBytes is the longest JSONL record accepted.
const maxLineBytes = 4 << 20

// ReadJSONL decodes one T per non-blank line of r and passes it to fn with
// its 1-based line number. A malformed line stops the read.
func ReadJSONL[T any](r io.Reader, fn func(line int, v T) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(line, v); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// WriteJSONL writes v as one JSON line.
func WriteJSONL(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
