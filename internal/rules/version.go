package rules

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckToolVersion reports an error when the rule set declares a minimum
// tool version the running build does not satisfy. Development builds
// ("dev") skip the check since they carry no comparable version.
func (r *Rules) CheckToolVersion(current string) error {
	if r.MinToolVersion == "" || current == "dev" {
		return nil
	}

	cv, err := parseSemver(current)
	if err != nil {
		return fmt.Errorf("parsing tool version %q: %w", current, err)
	}
	mv, err := parseSemver(r.MinToolVersion)
	if err != nil {
		return fmt.Errorf("parsing min_tool_version %q: %w", r.MinToolVersion, err)
	}

	if cv.Compare(mv) < 0 {
		return fmt.Errorf("rules file requires tool version %s or newer, this build is %s", r.MinToolVersion, current)
	}
	return nil
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
