// Package logutil emits one-line JSON log entries through the standard logger.
package logutil

import (
	"encoding/json"
	"log"
	"time"
)

// Fields carries structured context for a log entry.
type Fields map[string]interface{}

// Info logs a structured info message.
func Info(msg string, fields Fields) {
	logJSON("info", msg, fields)
}

// Warn logs a structured warning.
func Warn(msg string, fields Fields) {
	logJSON("warn", msg, fields)
}

// Error logs a structured error message including the error string.
func Error(msg string, err error, fields Fields) {
	entry := Fields{}
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	logJSON("error", msg, entry)
}

func logJSON(level, msg string, fields Fields) {
	log.Printf("%s", format(level, msg, fields))
}

func format(level, msg string, fields Fields) []byte {
	entry := map[string]interface{}{}
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = level
	entry["message"] = msg
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)

	payload, err := json.Marshal(entry)
	if err != nil {
		payload, _ = json.Marshal(map[string]string{
			"level":   level,
			"message": msg,
			"error":   "unencodable fields: " + err.Error(),
		})
	}
	return payload
}
