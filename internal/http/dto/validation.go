package dto

import (
	"fmt"
	"strconv"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// ParseLimit reads a positive page size, using def when raw is empty and
// capping at maxLimit.
func ParseLimit(raw string, def, maxLimit int) (int, []ValidationError) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, []ValidationError{{Field: "limit", Message: "must be a number"}}
	}
	if n < 1 {
		return 0, []ValidationError{{Field: "limit", Message: "must be at least 1"}}
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
