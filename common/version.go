package common

import "github.com/nspcc-dev/neo-go/pkg/interop/native/std"

const (
	major = 0
	minor = 1
	patch = 0

	// Version is the version of the contracts, encoded as
	// major*1_000_000 + minor*1_000 + patch.
	Version = major*1_000_000 + minor*1_000 + patch

	// PrevVersion is the oldest version the contracts can be updated from.
	// 0.1.0 is the first release, so it equals Version until the next one.
	PrevVersion = Version

	// ErrVersionMismatch is thrown by CheckVersion when the deployed contract
	// is older than PrevVersion.
	ErrVersionMismatch = "previous version mismatch"

	// ErrAlreadyUpdated is thrown by CheckVersion when the deployed contract
	// already has the current version.
	ErrAlreadyUpdated = "contract is already of the latest version"
)

// CheckVersion aborts an update from the given version if it is older than
// PrevVersion or equal to Version.
func CheckVersion(from int) {
	if from < PrevVersion {
		panic(ErrVersionMismatch + ": expected >=" + std.Itoa(PrevVersion, 10))
	}
	if from == Version {
		panic(ErrAlreadyUpdated + ": " + std.Itoa(Version, 10))
	}
}

// AppendVersion appends the current version to the update arguments, so
// _deploy of the new executable receives the version being replaced.
func AppendVersion(data any) []any {
	if data == nil {
		return []any{Version}
	}
	return append(data.([]any), Version)
}
