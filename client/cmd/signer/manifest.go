package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitify-app/updater/client/internal/updatemanager/release"
	"github.com/gitify-app/updater/util"
	"github.com/gitify-app/updater/version"
)

var (
	manifestFile        string
	manifestVersion     string
	manifestNotes       string
	manifestPlatform    string
	manifestURL         string
	manifestArtifact    string
	manifestPrivKeyFile string
)

var writeManifestCmd = &cobra.Command{
	Use:   "write-manifest",
	Short: "Add a signed platform artifact to a latest.json release manifest",
	Long: `Sign the artifact of one platform and record it in the release manifest.
Run it once per platform. An existing manifest of another version is replaced.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := handleWriteManifest(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		cmd.Printf("✅ %s lists %d platform(s) for version %s\n", manifestFile, len(m.Platforms), m.Version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeManifestCmd)

	writeManifestCmd.Flags().StringVar(&manifestFile, "manifest-file", "latest.json", "Path of the manifest to create or update")
	writeManifestCmd.Flags().StringVar(&manifestVersion, "version", "", "Release version")
	writeManifestCmd.Flags().StringVar(&manifestNotes, "notes", "", "Release notes")
	writeManifestCmd.Flags().StringVar(&manifestPlatform, "platform", version.PlatformKey(), "Platform key of the artifact, e.g. darwin-aarch64")
	writeManifestCmd.Flags().StringVar(&manifestURL, "url", "", "Download URL of the artifact")
	writeManifestCmd.Flags().StringVar(&manifestArtifact, "artifact-file", "", "Path to the artifact")
	writeManifestCmd.Flags().StringVar(&manifestPrivKeyFile, "artifact-priv-key-file", "", "Path to the artifact private key")

	for _, flag := range []string{"version", "url", "artifact-file", "artifact-priv-key-file"} {
		if err := writeManifestCmd.MarkFlagRequired(flag); err != nil {
			panic(fmt.Errorf("mark %s as required: %w", flag, err))
		}
	}
}

func handleWriteManifest(ctx context.Context) (*release.Manifest, error) {
	if _, err := version.Parse(manifestVersion); err != nil {
		return nil, fmt.Errorf("invalid --version: %w", err)
	}

	m, err := readManifest(manifestFile)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Version != manifestVersion {
		m = &release.Manifest{
			Version:   manifestVersion,
			Platforms: make(map[string]release.Platform),
		}
	}
	if manifestNotes != "" {
		m.Notes = manifestNotes
	}
	m.PubDate = time.Now().UTC().Format(time.RFC3339)

	signature, err := signArtifact(manifestPrivKeyFile, manifestArtifact)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(manifestArtifact)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	m.Platforms[manifestPlatform] = release.Platform{
		URL:       manifestURL,
		Signature: signature,
		Size:      info.Size(),
	}

	if err := util.WriteJson(ctx, manifestFile, m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}

func readManifest(path string) (*release.Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m release.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Platforms == nil {
		m.Platforms = make(map[string]release.Platform)
	}
	return &m, nil
}
