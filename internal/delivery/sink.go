package delivery

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/mqttsub/internal/session"
)

// Format selects how messages are rendered.
type Format string

// Output formats.
const (
	// FormatText prints "[(R) ]topic: payload", one line per message.
	FormatText Format = "text"

	// FormatJSON prints one JSON object per line.
	FormatJSON Format = "json"

	// FormatYAML prints one YAML document per message.
	FormatYAML Format = "yaml"
)

// RetainedMarker prefixes text lines of retained messages.
const RetainedMarker = "(R) "

// ParseFormat converts a case-insensitive name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q (want text, json, or yaml)", ErrUnknownFormat, s)
	}
}

// record is the structured rendering used by the json and yaml formats.
type record struct {
	Topic    string `json:"topic" yaml:"topic"`
	Payload  string `json:"payload" yaml:"payload"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	QoS      byte   `json:"qos" yaml:"qos"`
	Retained bool   `json:"retained" yaml:"retained"`
}

func newRecord(m session.Message) record {
	r := record{
		Topic:    m.Topic,
		QoS:      m.QoS,
		Retained: m.Retained,
	}
	if utf8.Valid(m.Payload) {
		r.Payload = string(m.Payload)
	} else {
		r.Payload = base64.StdEncoding.EncodeToString(m.Payload)
		r.Encoding = "base64"
	}
	return r
}

// WriterSink writes each message to an io.Writer with a single Write call.
type WriterSink struct {
	w      io.Writer
	format Format
}

// NewWriterSink creates a sink for the given format.
func NewWriterSink(w io.Writer, format Format) (*WriterSink, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatText
	}
	return &WriterSink{w: w, format: format}, nil
}

// Write implements Sink.
func (s *WriterSink) Write(m session.Message) error {
	line, err := s.render(m)
	if err != nil {
		return err
	}
	_, err = s.w.Write(line)
	return err
}

func (s *WriterSink) render(m session.Message) ([]byte, error) {
	switch s.format {
	case FormatJSON:
		b, err := json.Marshal(newRecord(m))
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(b, '\n'), nil

	case FormatYAML:
		b, err := yaml.Marshal(newRecord(m))
		if err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return append([]byte("---\n"), b...), nil

	default:
		var sb strings.Builder
		if m.Retained {
			sb.WriteString(RetainedMarker)
		}
		sb.WriteString(m.String())
		sb.WriteByte('\n')
		return []byte(sb.String()), nil
	}
}
