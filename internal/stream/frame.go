package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for every frame timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

const (
	framePrefix    = "data: "
	frameSeparator = "\n\n"
)

// Event is a single greeting delivered to a client.
type Event struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Image     string `json:"image"`
}

// Connected is the first frame of every stream.
type Connected struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Timestamp formats t for a frame.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// EncodeFrame renders v as one text/event-stream frame: "data: <json>\n\n".
func EncodeFrame(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(framePrefix)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	// Encode terminates the value with a single newline.
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
