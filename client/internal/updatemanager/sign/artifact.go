package sign

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash"
	"time"

	"golang.org/x/crypto/blake2s"
)

const (
	tagArtifactPrivate = "ARTIFACT PRIVATE KEY"
	tagArtifactPublic  = "ARTIFACT PUBLIC KEY"
)

// ArtifactHash wraps a hash.Hash and counts bytes written
type ArtifactHash struct {
	hash.Hash
}

// NewArtifactHash returns an initialized ArtifactHash using BLAKE2s
func NewArtifactHash() *ArtifactHash {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic(err) // Should never happen with nil Key
	}
	return &ArtifactHash{Hash: h}
}

// ArtifactKey is a signing Key used to sign artifacts
type ArtifactKey struct {
	PrivateKey
}

func (k ArtifactKey) String() string {
	return fmt.Sprintf(
		"ArtifactKey[ID=%s, CreatedAt=%s, ExpiresAt=%s]",
		k.Metadata.ID,
		k.Metadata.CreatedAt.Format(time.RFC3339),
		k.Metadata.ExpiresAt.Format(time.RFC3339),
	)
}

// GenerateArtifactKey creates a new artifact key pair and returns it together with its PEM encodings.
// A zero expiration creates a key that never expires.
func GenerateArtifactKey(expiration time.Duration) (*ArtifactKey, []byte, []byte, error) {
	now := time.Now()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate ed25519 key: %w", err)
	}

	metadata := KeyMetadata{
		ID:        computeKeyID(pub),
		CreatedAt: now.UTC(),
	}
	if expiration > 0 {
		metadata.ExpiresAt = now.Add(expiration).UTC()
	}

	ak := &ArtifactKey{
		PrivateKey{
			Key:      priv,
			Metadata: metadata,
		},
	}

	privPEM, err := encodeKey(tagArtifactPrivate, priv, metadata)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	pubPEM, err := encodeKey(tagArtifactPublic, pub, metadata)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	return ak, privPEM, pubPEM, nil
}

func ParseArtifactKey(privKeyPEM []byte) (ArtifactKey, error) {
	pk, err := parsePrivateKey(privKeyPEM, tagArtifactPrivate)
	if err != nil {
		return ArtifactKey{}, fmt.Errorf("failed to parse artifact Key: %w", err)
	}
	return ArtifactKey{pk}, nil
}

// ParseArtifactPubKeys parses one or more concatenated PEM encoded artifact public keys
func ParseArtifactPubKeys(data []byte) ([]PublicKey, error) {
	return parsePublicKeyBundle(data, tagArtifactPublic)
}

// SignData signs data with the artifact key and returns the JSON signature bundle
func SignData(artifactKey ArtifactKey, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact length must be positive, got %d", len(data))
	}

	timestamp := time.Now().UTC()
	if artifactKey.Metadata.Expired(timestamp) {
		return nil, fmt.Errorf("artifact key expired at %v", artifactKey.Metadata.ExpiresAt)
	}

	h := NewArtifactHash()
	if _, err := h.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write artifact hash: %w", err)
	}

	msg := signedMessage(h.Sum(nil), len(data), timestamp)
	sig := ed25519.Sign(artifactKey.Key, msg)

	bundle := Signature{
		Signature: sig,
		Timestamp: timestamp,
		KeyID:     artifactKey.Metadata.ID,
		Algorithm: "ed25519",
		HashAlgo:  "blake2s",
	}

	return json.Marshal(bundle)
}

// signedMessage builds hash || length || timestamp
func signedMessage(hash []byte, length int, timestamp time.Time) []byte {
	msg := make([]byte, 0, len(hash)+8+8)
	msg = append(msg, hash...)
	msg = binary.LittleEndian.AppendUint64(msg, uint64(length))
	msg = binary.LittleEndian.AppendUint64(msg, uint64(timestamp.Unix()))
	return msg
}
