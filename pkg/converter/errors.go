package converter

import (
	"errors"
	"fmt"
)

// Error codes reported by the converter. Every failure of Execute carries
// one of them; match with errors.Is.
var (
	ErrNoSourceSpecified        = errors.New("no source or source directory specified")
	ErrNoSVGFilesInSrcDir       = errors.New("no SVG files in source directory")
	ErrDestinationConflict      = errors.New("destination file and destination directory are mutually exclusive")
	ErrCannotComputeDestination = errors.New("cannot compute destination for non-file source")
	ErrDuplicateDestination     = errors.New("several sources share a destination")
	ErrUnableToCreateOutputDir  = errors.New("unable to create output directory")
	ErrSourceSameAsDestination  = errors.New("source is the same as destination")
	ErrCannotReadSource         = errors.New("cannot read source")
	ErrCannotOpenSource         = errors.New("cannot open source")
	ErrCannotOpenOutputFile     = errors.New("cannot open output file")
	ErrWhileRasterizingFile     = errors.New("error while rasterizing file")
	ErrInvalidOptions           = errors.New("invalid conversion options")
)

// ConversionError describes a failure to convert one source, or a failure
// to set up the conversion at all.
type ConversionError struct {
	// Code is one of the Err values of this package.
	Code        error
	Source      string
	Destination string
	Err         error

	// Fatal errors abort the conversion regardless of the controller.
	Fatal bool
}

func (e *ConversionError) Error() string {
	msg := e.Code.Error()
	switch {
	case e.Source != "" && e.Destination != "":
		msg = fmt.Sprintf("%s: %s -> %s", msg, e.Source, e.Destination)
	case e.Source != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Source)
	case e.Destination != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Destination)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the code and the underlying cause to errors.Is and
// errors.As.
func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}

func newError(code error, src, dst string, cause error) *ConversionError {
	return &ConversionError{Code: code, Source: src, Destination: dst, Err: cause}
}
