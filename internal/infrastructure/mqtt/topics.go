package mqtt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxTopicLength is the MQTT limit for a UTF-8 encoded topic string.
const maxTopicLength = 65535

// Topic filter wildcards.
const (
	wildcardSingle = "+"
	wildcardMulti  = "#"
	levelSeparator = "/"
)

// ValidateFilter checks a subscription topic filter against MQTT 3.1.1 rules.
//
// Rules:
//   - Non-empty, valid UTF-8, at most 65535 bytes, no NUL character
//   - "+" must occupy an entire level: "a/+/b" is valid, "a/b+" is not
//   - "#" must occupy an entire level and be the last one: "a/#" is valid, "a/#/b" is not
//
// Returns:
//   - error: ErrInvalidTopic describing the first violation, or nil
func ValidateFilter(filter string) error {
	if filter == "" {
		return fmt.Errorf("%w: filter cannot be empty", ErrInvalidTopic)
	}
	if len(filter) > maxTopicLength {
		return fmt.Errorf("%w: filter exceeds %d bytes", ErrInvalidTopic, maxTopicLength)
	}
	if !utf8.ValidString(filter) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidTopic, filter)
	}
	if strings.ContainsRune(filter, 0) {
		return fmt.Errorf("%w: %q contains a NUL character", ErrInvalidTopic, filter)
	}

	levels := strings.Split(filter, levelSeparator)
	for i, level := range levels {
		switch {
		case level == wildcardMulti:
			if i != len(levels)-1 {
				return fmt.Errorf("%w: %q: '#' must be the last level", ErrInvalidTopic, filter)
			}
		case level == wildcardSingle:
		case strings.ContainsAny(level, wildcardSingle+wildcardMulti):
			return fmt.Errorf("%w: %q: wildcards must occupy an entire level", ErrInvalidTopic, filter)
		}
	}

	return nil
}
