package sign

import (
	"crypto/ed25519"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	nberrors "github.com/gitify-app/updater/client/errors"
)

const (
	maxClockSkew            = 5 * time.Minute
	maxArtifactSignatureAge = 10 * 365 * 24 * time.Hour
)

// Verifier checks artifact signatures against a set of trusted artifact keys
type Verifier struct {
	keys []PublicKey
	now  func() time.Time
}

// NewVerifier returns a Verifier trusting the keys of the given PEM bundles
func NewVerifier(pemBundles ...[]byte) (*Verifier, error) {
	var keys []PublicKey
	for _, bundle := range pemBundles {
		parsed, err := ParseArtifactPubKeys(bundle)
		if err != nil {
			return nil, fmt.Errorf("parse artifact public keys: %w", err)
		}
		keys = append(keys, parsed...)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no artifact public keys configured")
	}
	return &Verifier{keys: keys, now: time.Now}, nil
}

// Verify checks the base64 encoded signature bundle of a manifest entry against data
func (v *Verifier) Verify(data []byte, encodedSignature string) error {
	if encodedSignature == "" {
		return nberrors.Errorf(nberrors.VerificationError, "release artifact is not signed")
	}

	sig, err := DecodeSignature(encodedSignature)
	if err != nil {
		return nberrors.Wrap(nberrors.VerificationError, err, "invalid artifact signature")
	}

	if err := ValidateArtifact(v.keys, data, *sig, v.now().UTC()); err != nil {
		return nberrors.Wrap(nberrors.VerificationError, err, "artifact signature verification failed")
	}
	return nil
}

// ValidateArtifact verifies signature over data with the key it names
func ValidateArtifact(artifactPubKeys []PublicKey, data []byte, signature Signature, now time.Time) error {
	if signature.Timestamp.After(now.Add(maxClockSkew)) {
		err := fmt.Errorf("artifact signature timestamp is in the future: %v", signature.Timestamp)
		log.Debugf("failed to verify signature of artifact: %s", err)
		return err
	}
	if now.Sub(signature.Timestamp) > maxArtifactSignatureAge {
		return fmt.Errorf("artifact signature is too old: %v (created %v)",
			now.Sub(signature.Timestamp), signature.Timestamp)
	}

	h := NewArtifactHash()
	if _, err := h.Write(data); err != nil {
		return fmt.Errorf("failed to hash artifact: %w", err)
	}
	msg := signedMessage(h.Sum(nil), len(data), signature.Timestamp)

	for _, keyInfo := range artifactPubKeys {
		if keyInfo.Metadata.ID != signature.KeyID {
			continue
		}
		if keyInfo.Metadata.Expired(signature.Timestamp) {
			return fmt.Errorf("signing Key %s expired at %v, signature from %v",
				signature.KeyID, keyInfo.Metadata.ExpiresAt, signature.Timestamp)
		}

		if ed25519.Verify(keyInfo.Key, msg, signature.Signature) {
			log.Debugf("artifact verified successfully with Key: %s", signature.KeyID)
			return nil
		}
		return fmt.Errorf("signature verification failed for Key %s", signature.KeyID)
	}

	return fmt.Errorf("no signing Key found with ID %s", signature.KeyID)
}
