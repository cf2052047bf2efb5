package rating

import (
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// ErrInvalidThresholds is returned when breakpoints are not strictly increasing
// within (0, 100).
var ErrInvalidThresholds = eris.New("rating: thresholds must satisfy 0 < tilt_max < lean_max < likely_max < 100")

var validate = validator.New()

// Thresholds holds the three margin-percentage breakpoints. Margins above
// LikelyMax are Safe. A set of thresholds is fixed for the duration of a pass.
type Thresholds struct {
	TiltMax   float64 `yaml:"tilt_max" mapstructure:"tilt_max" json:"tilt_max" validate:"gt=0,lt=100"`
	LeanMax   float64 `yaml:"lean_max" mapstructure:"lean_max" json:"lean_max" validate:"gtfield=TiltMax,lt=100"`
	LikelyMax float64 `yaml:"likely_max" mapstructure:"likely_max" json:"likely_max" validate:"gtfield=LeanMax,lt=100"`
}

// DefaultThresholds are the 3 / 7 / 12 point breakpoints.
func DefaultThresholds() Thresholds {
	return Thresholds{TiltMax: 3, LeanMax: 7, LikelyMax: 12}
}

// Validate rejects non-monotonic or out-of-range breakpoints. Call it when the
// thresholds are configured; Classify assumes valid input.
func (t Thresholds) Validate() error {
	if err := validate.Struct(t); err != nil {
		return eris.Wrap(ErrInvalidThresholds, err.Error())
	}
	return nil
}
