package version

// Version is stamped at build time with
// -ldflags "-X github.com/uigen-dev/uigen/server/internal/version.Version=...".
var Version = "dev"

// Get returns the server version reported by /health and the startup log.
func Get() string {
	return Version
}
