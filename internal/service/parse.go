package service

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayLayout is the calendar-day format accepted and produced by the API.
const DayLayout = "2006-01-02"

const clockLayout = "15:04"

func parseObjectID(field, s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, invalid(field, "must be a valid id")
	}
	return id, nil
}

// parseDay accepts YYYY-MM-DD or RFC3339 and returns the UTC midnight of
// that calendar day.
func parseDay(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, invalid(field, "is required")
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, invalid(field, "must be YYYY-MM-DD or RFC3339")
		}
		t = t.UTC()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseOptionalDay is parseDay for filters; empty input yields nil.
func parseOptionalDay(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDay(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseClock(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(field, "is required")
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return "", invalid(field, "must be HH:mm")
	}
	return t.Format(clockLayout), nil
}
