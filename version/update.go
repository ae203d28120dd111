package version

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Parse parses a release version, tolerating a leading "v"
func Parse(raw string) (*goversion.Version, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty version string")
	}
	v, err := goversion.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", raw, err)
	}
	return v, nil
}

// IsNewer reports whether candidate is strictly greater than current.
// A current version that cannot be parsed (e.g. a development build) is treated as 0.0.0.
func IsNewer(current, candidate string) (bool, error) {
	candidateVersion, err := Parse(candidate)
	if err != nil {
		return false, err
	}

	currentVersion, err := Parse(current)
	if err != nil {
		currentVersion, _ = goversion.NewVersion("0.0.0")
	}

	return candidateVersion.GreaterThan(currentVersion), nil
}

// Equal reports whether a and b name the same version. Unparsable versions are compared as strings.
func Equal(a, b string) bool {
	av, errA := Parse(a)
	bv, errB := Parse(b)
	if errA != nil || errB != nil {
		return strings.TrimPrefix(a, "v") == strings.TrimPrefix(b, "v")
	}
	return av.Equal(bv)
}
