package converter

import (
	"svgraster/pkg/api"
	"svgraster/pkg/destination"
)

// Task is the computed work of one Execute call.
type Task struct {
	Type         destination.Type
	Options      api.RenderOptions
	Encode       destination.EncodeOptions
	Sources      []Source
	Destinations []string
}

// Controller is consulted while a conversion runs. Sources are converted
// concurrently, so implementations must be safe for concurrent use.
type Controller interface {
	// ProceedWithComputedTask is called once before any source is
	// converted. Returning false ends Execute without error.
	ProceedWithComputedTask(task Task) bool

	// ProceedWithSourceTranscoding is called before each source. Returning
	// false skips it.
	ProceedWithSourceTranscoding(src Source, dst string) bool

	// ProceedOnSourceTranscodingFailure decides whether a non-fatal failure
	// is skipped (true) or aborts the conversion (false).
	ProceedOnSourceTranscodingFailure(src Source, dst string, err *ConversionError) bool

	// OnSourceTranscodingSuccess is called after each converted source.
	OnSourceTranscodingSuccess(src Source, dst string)
}

// DefaultController proceeds with everything.
type DefaultController struct{}

func (DefaultController) ProceedWithComputedTask(Task) bool { return true }

func (DefaultController) ProceedWithSourceTranscoding(Source, string) bool { return true }

func (DefaultController) ProceedOnSourceTranscodingFailure(Source, string, *ConversionError) bool {
	return true
}

func (DefaultController) OnSourceTranscodingSuccess(Source, string) {}
