package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyInput is returned when the shopping list has no usable entries.
	ErrEmptyInput = errors.New("shopping list is empty")

	// ErrEndOfResults signals that the site stopped returning pages for a search term.
	ErrEndOfResults = errors.New("end of results")
)

// ConfigError reports selector or HTML drift: the page no longer matches
// the configured selectors. The run is aborted and not retried.
type ConfigError struct {
	// Selectors or columns that are the likely cause.
	Subjects []string
	Reason   string
	Err      error
}

func (e *ConfigError) Error() string {
	quoted := make([]string, len(e.Subjects))
	for i, s := range e.Subjects {
		quoted[i] = "'" + s + "'"
	}
	msg := fmt.Sprintf("Warning: %s %s", strings.Join(quoted, ", "), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + ". Please check HTML selectors for changes, save the settings, and retry"
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SessionError reports that the browser session could not start or crashed.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session %s failed: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// TimeoutError reports that a bounded wait ran out.
type TimeoutError struct {
	What  string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.After, e.What)
}

// LocationError reports that the delivery location could not be set.
// It is logged and the run continues.
type LocationError struct {
	ZIP string
	Err error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("could not set location %q: %v", e.ZIP, e.Err)
}

func (e *LocationError) Unwrap() error { return e.Err }

// Retryable reports whether the user should simply try the run again.
func Retryable(err error) bool {
	var se *SessionError
	var te *TimeoutError
	return errors.As(err, &se) || errors.As(err, &te)
}

// UserMessage renders err the way it is shown to the person running the scrape.
func UserMessage(err error) string {
	var ce *ConfigError
	switch {
	case err == nil:
		return "Scraping successful"
	case errors.Is(err, ErrEmptyInput):
		return "Shopping list is empty"
	case errors.Is(err, context.Canceled):
		return "Scraping stopped"
	case errors.As(err, &ce):
		return ce.Error()
	case Retryable(err):
		return fmt.Sprintf("%v. Please retry", err)
	default:
		return fmt.Sprintf("Scraping unsuccessful: %v", err)
	}
}
