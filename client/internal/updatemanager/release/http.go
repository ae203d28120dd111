package release

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/internal/updatemanager/downloader"
	"github.com/gitify-app/updater/version"
)

const manifestSizeLimit = 1 << 20

// HTTPSource reads releases from a latest.json manifest served over HTTP
type HTTPSource struct {
	manifestURL   string
	platform      string
	client        *downloader.Client
	artifactLimit int64
}

// NewHTTPSource returns a Source for the manifest at manifestURL using client for all transfers
func NewHTTPSource(manifestURL string, client *downloader.Client, artifactLimit int64) *HTTPSource {
	if artifactLimit <= 0 {
		artifactLimit = downloader.DefaultArtifactLimit
	}
	return &HTTPSource{
		manifestURL:   manifestURL,
		platform:      version.PlatformKey(),
		client:        client,
		artifactLimit: artifactLimit,
	}
}

// WithPlatform overrides the platform key used to select the artifact
func (s *HTTPSource) WithPlatform(platform string) *HTTPSource {
	s.platform = platform
	return s
}

func (s *HTTPSource) Check(ctx context.Context, currentVersion string) (*Release, error) {
	log.Debugf("fetching release manifest from %s", s.manifestURL)

	data, err := s.client.Fetch(ctx, s.manifestURL, manifestSizeLimit)
	if err != nil {
		return nil, err
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	newer, err := version.IsNewer(currentVersion, manifest.Version)
	if err != nil {
		return nil, err
	}
	if !newer {
		log.Debugf("latest release %s is not newer than %s", manifest.Version, currentVersion)
		return nil, nil
	}

	rel, err := manifest.Release(s.platform)
	if err != nil {
		return nil, err
	}
	rel.CurrentVersion = currentVersion
	return rel, nil
}

func (s *HTTPSource) Download(ctx context.Context, rel *Release, progress ProgressFunc) ([]byte, error) {
	log.Infof("downloading %s", rel)

	report := func(downloaded, total int64) {
		if progress == nil {
			return
		}
		if total == 0 {
			total = rel.Size
		}
		progress(downloaded, total)
	}

	return s.client.DownloadToMemory(ctx, rel.URL, s.artifactLimit, report)
}
