package hashutil

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA512 HashAlgo = "sha512"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// HashBytes returns the hash of bytes as a lowercase hex string using the
// specified algorithm. Supported algorithms: "sha512" and "blake3".
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA512:
		return hashBytesSha512(data), nil
	case HashAlgoBLAKE3:
		return hashBytesBlake3(data), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// SHA512Hex is HashBytes with HashAlgoSHA512 for callers that hash strings.
func SHA512Hex(s string) string {
	return hashBytesSha512([]byte(s))
}

// Blake3Hex is HashBytes with HashAlgoBLAKE3 for callers that hash strings.
func Blake3Hex(s string) string {
	return hashBytesBlake3([]byte(s))
}

func hashBytesSha512(data []byte) string {
	hash := sha512.Sum512(data)
	return hex.EncodeToString(hash[:])
}

func hashBytesBlake3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}
