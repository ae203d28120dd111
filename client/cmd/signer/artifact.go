package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitify-app/updater/client/internal/updatemanager/sign"
)

var (
	signArtifactPrivKeyFile string
	signArtifactFile        string
)

var signArtifactCmd = &cobra.Command{
	Use:   "sign-artifact",
	Short: "Sign a release artifact",
	Long: `Sign a release artifact with an artifact private key.
The base64 encoded signature is written next to the artifact as <artifact>.sig.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigFile, err := handleSignArtifact(cmd, signArtifactPrivKeyFile, signArtifactFile)
		if err != nil {
			return fmt.Errorf("failed to sign artifact: %w", err)
		}
		cmd.Printf("✅ Signature written to %s\n", sigFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signArtifactCmd)

	signArtifactCmd.Flags().StringVar(&signArtifactPrivKeyFile, "artifact-priv-key-file", "", "Path to the artifact private key")
	signArtifactCmd.Flags().StringVar(&signArtifactFile, "artifact-file", "", "Path to the artifact to sign")

	if err := signArtifactCmd.MarkFlagRequired("artifact-priv-key-file"); err != nil {
		panic(fmt.Errorf("mark artifact-priv-key-file as required: %w", err))
	}
	if err := signArtifactCmd.MarkFlagRequired("artifact-file"); err != nil {
		panic(fmt.Errorf("mark artifact-file as required: %w", err))
	}
}

func handleSignArtifact(cmd *cobra.Command, privKeyFile, artifactFile string) (string, error) {
	encoded, err := signArtifact(privKeyFile, artifactFile)
	if err != nil {
		return "", err
	}

	sigFile := artifactFile + ".sig"
	if err := os.WriteFile(sigFile, []byte(encoded), 0o644); err != nil {
		return "", fmt.Errorf("write signature file (%s): %w", sigFile, err)
	}
	return sigFile, nil
}

// signArtifact returns the manifest encoding of the signature of artifactFile
func signArtifact(privKeyFile, artifactFile string) (string, error) {
	privKeyPEM, err := os.ReadFile(privKeyFile)
	if err != nil {
		return "", fmt.Errorf("read artifact private key file: %w", err)
	}

	artifactKey, err := sign.ParseArtifactKey(privKeyPEM)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(artifactFile)
	if err != nil {
		return "", fmt.Errorf("read artifact file: %w", err)
	}

	bundle, err := sign.SignData(artifactKey, data)
	if err != nil {
		return "", fmt.Errorf("sign artifact: %w", err)
	}
	return sign.EncodeSignature(bundle), nil
}
