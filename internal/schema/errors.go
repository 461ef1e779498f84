package schema

import (
	"errors"
	"fmt"
)

// UnknownToolError is returned for a tool outside the registered set.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}

// UnknownGradeError is returned when a grade label is not registered for a tool.
type UnknownGradeError struct {
	Tool  string
	Grade string
}

func (e *UnknownGradeError) Error() string {
	return fmt.Sprintf("%s: unknown tolerance grade %q", e.Tool, e.Grade)
}

// OutOfRangeError reports a value outside an inclusive range.
type OutOfRangeError struct {
	Tool  string
	Field string
	Value float64
	Range NumericRange
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %s %v must be within the range %s", e.Tool, e.Field, e.Value, e.Range)
}

// ParseError reports non-numeric text in a numeric field.
type ParseError struct {
	Tool  string
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %q is not a number", e.Tool, e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFieldError reports a declared feature absent from the raw inputs.
type MissingFieldError struct {
	Tool  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing input %q", e.Tool, e.Field)
}

// InvalidChoiceError reports a fixed-choice field given something other than its value.
type InvalidChoiceError struct {
	Tool  string
	Field string
	Value string
	Want  string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("%s: %s must be %q, got %q", e.Tool, e.Field, e.Want, e.Value)
}

// ModelLoadError means a tool's model artifact could not be loaded.
type ModelLoadError struct {
	Tool  string
	Cause error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("error loading model for %s: %v", e.Tool, e.Cause)
}

func (e *ModelLoadError) Unwrap() error { return e.Cause }

// PredictionError means a tool's model failed to produce a usable prediction.
type PredictionError struct {
	Tool  string
	Cause error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction error for %s: %v", e.Tool, e.Cause)
}

func (e *PredictionError) Unwrap() error { return e.Cause }

// ErrModelUnavailable is the cause of a PredictionError for a tool whose model never loaded.
var ErrModelUnavailable = errors.New("model not loaded")

// Kind classifies err for API responses. Unrecognised errors are "internal".
func Kind(err error) string {
	var (
		unknownTool  *UnknownToolError
		unknownGrade *UnknownGradeError
		outOfRange   *OutOfRangeError
		parseErr     *ParseError
		missing      *MissingFieldError
		choice       *InvalidChoiceError
		loadErr      *ModelLoadError
		predictErr   *PredictionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &unknownTool):
		return "unknown_tool"
	case errors.As(err, &unknownGrade):
		return "unknown_grade"
	case errors.As(err, &outOfRange):
		return "out_of_range"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &missing):
		return "missing_field"
	case errors.As(err, &choice):
		return "invalid_choice"
	case errors.As(err, &loadErr):
		return "model_load"
	case errors.As(err, &predictErr):
		return "prediction"
	default:
		return "internal"
	}
}

// IsValidation reports whether err is a user input problem rather than a model fault.
func IsValidation(err error) bool {
	switch Kind(err) {
	case "unknown_grade", "out_of_range", "parse", "missing_field", "invalid_choice":
		return true
	}
	return false
}
