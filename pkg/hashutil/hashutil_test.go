package hashutil_test

import (
	"encoding/hex"
	"testing"

	"github.com/rohmanhakim/cfcli/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestHashBytes_KnownVectors_SHA512(t *testing.T) {
	vectors := []struct {
		input    string
		expected string
	}{
		{
			input:    "",
			expected: "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		},
		{
			input:    "abc",
			expected: "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f",
		},
	}

	for _, v := range vectors {
		result, err := hashutil.HashBytes([]byte(v.input), hashutil.HashAlgoSHA512)
		require.NoError(t, err)
		assert.Equal(t, v.expected, result, "SHA512 hash mismatch for input: %q", v.input)
		assert.Equal(t, v.expected, hashutil.SHA512Hex(v.input))
	}
}

func TestHashBytes_BLAKE3(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty data", data: []byte{}},
		{name: "simple string", data: []byte("hello world")},
		{name: "binary data", data: []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe, 0xfd, 0xfc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := hashutil.HashBytes(tt.data, hashutil.HashAlgoBLAKE3)
			require.NoError(t, err)

			// Compute expected value using blake3 directly
			expectedHash := blake3.Sum256(tt.data)
			expected := hex.EncodeToString(expectedHash[:])

			assert.Equal(t, expected, result)
			assert.Equal(t, expected, hashutil.Blake3Hex(string(tt.data)))
		})
	}
}

func TestHashBytes_UnsupportedAlgorithm(t *testing.T) {
	result, err := hashutil.HashBytes([]byte("test data"), "unsupported")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported hash algorithm")
	assert.Empty(t, result)
}

func TestHashBytes_OutputLength(t *testing.T) {
	data := []byte("test")

	hash512, _ := hashutil.HashBytes(data, hashutil.HashAlgoSHA512)
	assert.Len(t, hash512, 128)

	hashBlake3, _ := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
	assert.Len(t, hashBlake3, 64)
}

func TestHashBytes_DifferentDataProducesDifferentHashes(t *testing.T) {
	a, _ := hashutil.HashBytes([]byte("data set 1"), hashutil.HashAlgoSHA512)
	b, _ := hashutil.HashBytes([]byte("data set 2"), hashutil.HashAlgoSHA512)
	assert.NotEqual(t, a, b)
}
