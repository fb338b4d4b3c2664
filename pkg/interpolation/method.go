package interpolation

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Method selects the interpolation kernel used when sampling a volume
type Method int

const (
	// Cubic is Keys cubic convolution. It is the zero value and the default.
	Cubic Method = iota
	Nearest
	Linear
	Spline
)

// DefaultMethod is used when the caller does not choose a method
const DefaultMethod = Cubic

// Methods lists every supported method in a stable order
var Methods = []Method{Nearest, Linear, Cubic, Spline}

func (m Method) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	case Spline:
		return "spline"
	default:
		return "unknown"
	}
}

// ParseMethod converts a method name into a Method. The empty string selects
// DefaultMethod.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultMethod, nil
	case "nearest":
		return Nearest, nil
	case "linear", "trilinear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	case "spline", "bspline":
		return Spline, nil
	}
	return DefaultMethod, errors.WithHint(
		errors.Newf("unknown interpolation method %q", name),
		"use one of nearest, linear, cubic, spline")
}
