// Package version holds build information for revue.
package version

// Overridden at build time:
// go build -ldflags "-X revue/internal/version.Version=1.2.0 -X revue/internal/version.Commit=abc123"
var (
	Version = "2.0.0"

	// Commit is the git commit hash
	Commit = "unknown"

	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when known
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "revue version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
