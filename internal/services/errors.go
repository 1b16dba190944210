package services

import (
	"errors"
	"strings"
)

// Markers classify failures. Every error built by Wrap matches exactly one of
// them with errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

var kindLabels = []struct {
	marker error
	label  string
}{
	{ErrTimeout, "timeout"},
	{ErrValidation, "validation"},
	{ErrConfiguration, "configuration"},
	{ErrNotFound, "not_found"},
	{ErrExternalTool, "external_tool"},
}

// StageError is a classified failure of one step of a download.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	Detail    string
	Err       error
}

func (e *StageError) Error() string {
	var parts []string
	for _, p := range []string{e.Stage, e.Operation, e.Detail} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	msg := e.Marker.Error() + ": "
	if len(parts) == 0 {
		msg += "service failure"
	} else {
		msg += strings.Join(parts, ": ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

// Wrap classifies err under marker (ErrTransient when nil) and records where
// it happened. err may be nil when the failure has no underlying cause.
func Wrap(marker error, stage, operation, detail string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &StageError{Marker: marker, Stage: stage, Operation: operation, Detail: detail, Err: err}
}

// Kind labels the marker carried by err for the error_kind log field and
// notifications. Unclassified errors are "transient".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindLabels {
		if errors.Is(err, k.marker) {
			return k.label
		}
	}
	return "transient"
}

// StageOf returns the stage of the outermost StageError in err, if any.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return strings.TrimSpace(se.Stage)
	}
	return ""
}
