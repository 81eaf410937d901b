package apiutil

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ParseDate validates a YYYY-MM-DD calendar date and returns it normalized.
func ParseDate(raw, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", FieldError{Field: field, Reason: "must be a valid YYYY-MM-DD date"}
	}
	return parsed.Format(dateLayout), nil
}

// ParseClock validates a 24-hour HH:MM value. The normalized form compares
// correctly as a string.
func ParseClock(raw, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	parsed, err := time.Parse(clockLayout, raw)
	if err != nil {
		return "", FieldError{Field: field, Reason: "must be a valid HH:MM time"}
	}
	return parsed.Format(clockLayout), nil
}

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be greater than 0"}
	}
	return value, nil
}

// IDFromPath parses the {id} path value as a positive integer.
func IDFromPath(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	if raw == "" {
		return 0, FieldError{Field: name, Reason: "is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, FieldError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

func ToNullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func ToNullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

// Today returns the current calendar date in the server's location, formatted
// for comparison against booking dates.
func Today() string {
	return time.Now().Format(dateLayout)
}
