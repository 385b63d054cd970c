package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Methodology identifies one complete forecast variant: which attribution
// source scaled the baseline and which growth source extended it. The two
// axes are carried explicitly rather than as a concatenated string so
// downstream classification never has to split labels apart.
type Methodology struct {
	Attribution string
	Growth      string
}

// String renders the methodology for output files, e.g. "lightcast_moody".
func (m Methodology) String() string {
	return strings.ToLower(m.Attribution) + "_" + strings.ToLower(m.Growth)
}

// ParseMethodology reads a rendered methodology label back into its axes.
// The split is at the first underscore: attribution names may not contain
// one (the run manifest rejects them), while growth names may.
func ParseMethodology(s string) (Methodology, error) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Methodology{}, eris.Errorf("model: malformed methodology %q", s)
	}
	return Methodology{Attribution: parts[0], Growth: parts[1]}, nil
}
