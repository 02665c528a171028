package codec

import (
	"fmt"
	"strings"
)

// ConfigParsingError reports every problem found in a configuration document.
// Reasons carry a "line N:" prefix whenever the position is known.
type ConfigParsingError struct {
	Reasons []string
}

func (e *ConfigParsingError) Error() string {
	return "invalid pipeline configuration: " + strings.Join(e.Reasons, "; ")
}

type reasons []string

func (r *reasons) add(line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if line > 0 {
		msg = fmt.Sprintf("line %d: %s", line, msg)
	}

	*r = append(*r, msg)
}

func (r reasons) err() error {
	if len(r) == 0 {
		return nil
	}

	return &ConfigParsingError{Reasons: r}
}
