package version

import "strings"

// will be replaced with the release version when using goreleaser
var version = "development"

const developmentVersion = "development"

// Version returns the version of the running binary
func Version() string {
	return version
}

// IsDevelopment reports whether the binary was built without a release version
func IsDevelopment() bool {
	return IsDevelopmentVersion(version)
}

// IsDevelopmentVersion reports whether v names a local or unreleased build
func IsDevelopmentVersion(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "" || v == developmentVersion || v == "dev" || strings.HasSuffix(v, "-dev")
}
