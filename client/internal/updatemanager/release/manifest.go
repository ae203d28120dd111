package release

import (
	"encoding/json"
	"fmt"
	"time"

	nberrors "github.com/gitify-app/updater/client/errors"
	"github.com/gitify-app/updater/version"
)

// Manifest is the latest.json document published next to every release
type Manifest struct {
	Version   string              `json:"version"`
	Notes     string              `json:"notes,omitempty"`
	PubDate   string              `json:"pub_date,omitempty"`
	Platforms map[string]Platform `json:"platforms"`
}

// Platform is the artifact of one os-arch combination
type Platform struct {
	URL       string `json:"url"`
	Signature string `json:"signature,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

// ParseManifest decodes and validates a manifest document
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nberrors.Wrap(nberrors.ParseError, err, "invalid release manifest")
	}
	if _, err := version.Parse(m.Version); err != nil {
		return nil, nberrors.Wrap(nberrors.ParseError, err, "invalid release manifest version")
	}
	if len(m.Platforms) == 0 {
		return nil, nberrors.Errorf(nberrors.ParseError, "release manifest lists no platforms")
	}
	return &m, nil
}

// Release returns the release entry for the given platform key
func (m *Manifest) Release(platform string) (*Release, error) {
	p, ok := m.Platforms[platform]
	if !ok {
		return nil, nberrors.Errorf(nberrors.ParseError, "release %s has no artifact for platform %s", m.Version, platform)
	}
	if p.URL == "" {
		return nil, nberrors.Errorf(nberrors.ParseError, "release %s has an empty artifact url for platform %s", m.Version, platform)
	}

	rel := &Release{
		Version:   m.Version,
		Notes:     m.Notes,
		Size:      p.Size,
		URL:       p.URL,
		Signature: p.Signature,
	}
	if m.PubDate != "" {
		pubDate, err := time.Parse(time.RFC3339, m.PubDate)
		if err != nil {
			return nil, nberrors.Wrap(nberrors.ParseError, err, "invalid release pub_date %q", m.PubDate)
		}
		rel.PubDate = pubDate
	}
	return rel, nil
}

func (r *Release) String() string {
	return fmt.Sprintf("release %s (%s)", r.Version, r.URL)
}
