package cryptox

import "golang.org/x/crypto/argon2"

// argon2id parameters: 1 pass, 64 MiB memory, 4 lanes, 32-byte key.
// Changing these invalidates every stored verifier, so treat them as frozen.
func deriveArgon2id(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}
