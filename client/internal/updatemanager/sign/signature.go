package sign

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Signature contains a signature with associated Metadata
type Signature struct {
	Signature []byte    `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
	KeyID     KeyID     `json:"key_id"`
	Algorithm string    `json:"algorithm"` // "ed25519"
	HashAlgo  string    `json:"hash_algo"` // "blake2s"
}

func ParseSignature(data []byte) (*Signature, error) {
	var signature Signature
	if err := json.Unmarshal(data, &signature); err != nil {
		return nil, err
	}

	return &signature, nil
}

// EncodeSignature turns a JSON signature bundle into the base64 form carried in release manifests
func EncodeSignature(bundle []byte) string {
	return base64.StdEncoding.EncodeToString(bundle)
}

// DecodeSignature parses the base64 signature bundle of a release manifest
func DecodeSignature(encoded string) (*Signature, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	sig, err := ParseSignature(raw)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}
	return sig, nil
}
