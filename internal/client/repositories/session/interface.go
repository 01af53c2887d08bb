// Package session stores the small set of auth values kept on device:
// the sealed session blob and the offline-unlock material (salt, verifier,
// nonce), in the auth key-value table.
package session

import "context"

// Fixed keys of the auth table.
const (
	KeyUser     = "user"
	KeySalt     = "salt"
	KeyVerifier = "verifier"
	KeyNonce    = "nonce"
	KeyEmail    = "email"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
