package config

import (
	"errors"
	"fmt"
)

var ErrSizeLimit = errors.New("requested size exceeds limit")

type Validator struct {
	config *Configuration
}

func NewValidator(config *Configuration) *Validator {
	return &Validator{config: config}
}

// CheckRequestNewSize validates a requested output size against the
// configured limits. Unset dimensions are zero and always pass; a zero
// limit is unlimited.
func (v *Validator) CheckRequestNewSize(width, height float64) error {
	limits := v.config.Limits
	if limits.Width > 0 && width > limits.Width {
		return fmt.Errorf("%w: width cannot be higher than %g", ErrSizeLimit, limits.Width)
	}
	if limits.Height > 0 && height > limits.Height {
		return fmt.Errorf("%w: height cannot be higher than %g", ErrSizeLimit, limits.Height)
	}
	return nil
}
