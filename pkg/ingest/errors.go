package ingest

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownForm is returned for a form type outside the three supported schemas.
	ErrUnknownForm = errors.New("unknown form type")
	// ErrUnsupportedFile is returned when the file extension is neither xlsx nor csv.
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrMissingFields   = errors.New("missing required fields")
)

// MissingFieldsError lists the required fields a manual entry left out.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return ErrMissingFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingFields
}
