package versions

import "github.com/Masterminds/semver/v3"

// RecordedIsNewer reports whether the version recorded in a data directory is a
// later release than current. Development builds (build-<sha>) have no order,
// so it is false whenever either side is not a semantic version.
func RecordedIsNewer(recorded, current string) bool {
	rec, err := semver.NewVersion(recorded)
	if err != nil {
		return false
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return rec.GreaterThan(cur)
}
