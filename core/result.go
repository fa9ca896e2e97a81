package core

import (
	"bytes"
	"fmt"
	"sort"
	"time"
)

type Severity int

const (
	Info Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warn:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return ""
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Values map[string]interface{}

func (values Values) Keys() []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (values Values) String() string {
	buf := bytes.NewBuffer(nil)
	for _, key := range values.Keys() {
		if buf.Len() != 0 {
			buf.WriteString(" ")
		}
		fmt.Fprintf(buf, "%s=[%v]", key, values[key])
	}
	return buf.String()
}

// Meta describes one request attempt.
// StatusCode is 0 when no response was received; Err then holds the transport error.
type Meta struct {
	Endpoint         string
	URL              string
	StatusCode       int
	Size             int64
	RequestTimestamp time.Time
	Elapsed          time.Duration
	Err              error
}

// Status returns the status code as three digits, "000" when no response was received.
func (m *Meta) Status() string {
	return fmt.Sprintf("%03d", m.StatusCode)
}

func (m *Meta) OK() bool {
	return m.Err == nil && m.StatusCode >= 200 && m.StatusCode < 300
}

// Line returns the metadata line "<status> <seconds> <bytes>".
func (m *Meta) Line() string {
	return fmt.Sprintf("%s %.6f %d", m.Status(), m.Elapsed.Seconds(), m.Size)
}

func (m *Meta) Severity() Severity {
	switch {
	case m.Err != nil:
		return Error
	case m.StatusCode >= 200 && m.StatusCode < 300:
		return Info
	case m.StatusCode >= 300 && m.StatusCode < 400:
		return Warn
	}
	return Error
}

type Result struct {
	Meta
	// Path is the stored body file. Empty unless storage mode is enabled.
	Path string
}

// Summary counts the endpoints processed by one run.
type Summary struct {
	Total  int
	Failed int
}
