package version

import (
	"fmt"
	"runtime"
)

const (
	manifestURL = "https://github.com/gitify-app/gitify/releases/latest/download/latest.json"
	downloadURL = "https://gitify.io"
)

// ManifestURL returns the default location of the release manifest
func ManifestURL() string {
	return manifestURL
}

// DownloadUrl return with the proper download link
func DownloadUrl() string {
	return downloadURL
}

// PlatformKey returns the manifest platform key of the running binary, e.g. "darwin-aarch64"
func PlatformKey() string {
	return platformKey(runtime.GOOS, runtime.GOARCH)
}

func platformKey(goos, goarch string) string {
	var arch string
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	case "arm":
		arch = "armv7"
	default:
		arch = goarch
	}
	return fmt.Sprintf("%s-%s", goos, arch)
}
