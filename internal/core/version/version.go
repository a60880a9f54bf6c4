// Package version reports the build identity of socstream binaries
package version

// BuildInfo describes one build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build identity; the variables below are set with
// -ldflags "-X 'socstream/internal/core/version.version=v0.1.0' -X ...commit=abcd"
func Info() BuildInfo {
	return BuildInfo{
		Service: Service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// Service names the enrichment binary
const Service = "socstream-enrich"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// String renders "service version (commit, date)"
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}
