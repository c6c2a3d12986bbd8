// Package version holds build information set through ldflags:
//
//	go build -ldflags "-X github.com/rtpsquire/squire/internal/version.Version=1.0.0 \
//	                   -X github.com/rtpsquire/squire/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/squire
package version

var (
	// Version is the release tag.
	Version = "dev"

	// Commit is the short git hash.
	Commit = "unknown"
)

// String returns "version (commit)".
func String() string {
	return Version + " (" + Commit + ")"
}
