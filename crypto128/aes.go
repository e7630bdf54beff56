package crypto128

import (
	"crypto/aes"

	"github.com/newae-go/metrisca"
)

// EncryptBlock encrypts a single 16-byte plaintext block under key using the
// standard library's AES-128 implementation. Dataset synthesis uses this to
// derive the ciphertext column that distinguishers and scores condition on;
// it is never used inside a power model, which instead works directly off
// SBox/InvSBox so that the leakage model stays independent of any particular
// cipher implementation.
func EncryptBlock(key, plaintext []byte) ([]byte, error) {
	if len(key) != 16 {
		return nil, metrisca.Errorf(metrisca.InvalidArgument, "AES-128 key must be 16 bytes, got %d", len(key))
	}
	if len(plaintext) != 16 {
		return nil, metrisca.Errorf(metrisca.InvalidArgument, "AES-128 block must be 16 bytes, got %d", len(plaintext))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, metrisca.Wrap(metrisca.InvalidArgument, "constructing AES cipher", err)
	}
	out := make([]byte, 16)
	block.Encrypt(out, plaintext)
	return out, nil
}
