package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDefinition separates definition fingerprints from any other hash
// this module might compute.
const DomainDefinition = "quantq/definition/v" + Version

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DefinitionHash fingerprints a definition's structure, name included.
// Two registries built from the same registration calls produce the same
// fingerprints.
func DefinitionHash(def Definition) (string, error) {
	canonical, err := MarshalDefinition(def)
	if err != nil {
		return "", fmt.Errorf("DefinitionHash: %w", err)
	}
	return hashWithDomain(DomainDefinition, canonical), nil
}
