// Package services contains the application services of the DriveOps client.
// This file defines authentication: online login/register against the remote,
// offline unlock of the cached session, and logout housekeeping.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"

	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/client/remote"
	"github.com/vinitafleet/driveops/internal/client/repositories/session"
	"github.com/vinitafleet/driveops/internal/common"
	"github.com/vinitafleet/driveops/internal/cryptox"
	"github.com/vinitafleet/driveops/internal/dbx"
)

// AuthService defines authentication operations for the client.
//
// Contract:
//   - Login: authenticate against the remote and cache the session locally,
//     sealed under a key derived from the password.
//   - OfflineUnlock: verify the password against locally cached material and
//     recover the session without network I/O.
//   - Register: create a new account on the remote.
//   - Logout: wipe all locally cached auth state.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (*models.Session, error)
	OfflineUnlock(ctx context.Context, email string, password []byte) (*models.Session, error)
	Register(ctx context.Context, p models.RegisterPayload) error
	Logout(ctx context.Context) error
}

type authService struct {
	gateway remote.Gateway
	db      *sql.DB
}

func NewAuthService(gateway remote.Gateway, db *sql.DB) AuthService {
	return &authService{gateway: gateway, db: db}
}

func (a *authService) getSessionRepo(db dbx.DBTX) session.Repository {
	return session.NewSQLiteRepository(db)
}

// loginResponse is the remote's envelope for a successful login.
type loginResponse struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	Token    string `json:"token"`
}

// Login authenticates against the remote, then persists the offline-unlock
// material (salt, verifier) and the sealed session in one transaction.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.Session, error) {
	p := models.LoginPayload{Email: email, Password: string(password)}

	var resp loginResponse
	if err := a.gateway.Query(ctx, models.KindLogin, p, "", &resp); err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	sess := &models.Session{
		UserID:   resp.UserID,
		Name:     resp.Name,
		Email:    resp.Email,
		Role:     resp.Role,
		Verified: resp.Verified,
		Token:    resp.Token,
	}

	if err := a.saveOfflineData(ctx, email, password, sess); err != nil {
		return nil, fmt.Errorf("offline data saving error: %w", err)
	}
	return sess, nil
}

// saveOfflineData seals the session under an argon2id key derived from the
// password and stores it with the salt and verifier needed for OfflineUnlock.
func (a *authService) saveOfflineData(ctx context.Context, email string, password []byte, sess *models.Session) error {
	salt := common.GenerateRandByteArray(32)
	key := cryptox.DeriveKey(password, salt)
	verifier := cryptox.MakeVerifier(key)

	sealed, nonce, err := cryptox.Seal(sess, key)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getSessionRepo(tx)
		for _, kv := range []struct {
			key   string
			value []byte
		}{
			{session.KeyEmail, []byte(email)},
			{session.KeySalt, salt},
			{session.KeyVerifier, verifier},
			{session.KeyNonce, nonce},
			{session.KeyUser, sealed},
		} {
			if err := repo.Set(ctx, kv.key, kv.value); err != nil {
				return err
			}
		}
		return nil
	})
}

// OfflineUnlock derives a key from (password, stored salt), verifies it in
// constant time against the stored verifier, and decrypts the cached session.
// Missing local data yields common.ErrNoSession; a wrong password or email
// yields common.ErrUnauthorized.
func (a *authService) OfflineUnlock(ctx context.Context, email string, password []byte) (*models.Session, error) {
	repo := a.getSessionRepo(a.db)

	savedEmail, err := repo.Get(ctx, session.KeyEmail)
	if err != nil {
		return nil, err
	}
	if savedEmail == nil {
		return nil, common.ErrNoSession
	}
	if string(savedEmail) != email {
		return nil, common.ErrUnauthorized
	}

	var salt, verifier, nonce, sealed []byte
	for _, kv := range []struct {
		key string
		dst *[]byte
	}{
		{session.KeySalt, &salt},
		{session.KeyVerifier, &verifier},
		{session.KeyNonce, &nonce},
		{session.KeyUser, &sealed},
	} {
		v, err := repo.Get(ctx, kv.key)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, common.ErrNoSession
		}
		*kv.dst = v
	}

	key := cryptox.DeriveKey(password, salt)
	if subtle.ConstantTimeCompare(verifier, cryptox.MakeVerifier(key)) == 0 {
		return nil, common.ErrUnauthorized
	}

	sess := &models.Session{}
	if err := cryptox.Open(sealed, nonce, key, sess); err != nil {
		return nil, fmt.Errorf("unsealing session: %w", err)
	}
	return sess, nil
}

// Register creates a new account on the remote. Nothing is cached locally
// until the first successful login.
func (a *authService) Register(ctx context.Context, p models.RegisterPayload) error {
	if p.Email == "" || p.Password == "" || p.Name == "" {
		return fmt.Errorf("%w: name, email and password are required", common.ErrInvalidInput)
	}
	if err := a.gateway.Query(ctx, models.KindRegister, p, "", nil); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return nil
}

// Logout wipes locally cached auth state.
func (a *authService) Logout(ctx context.Context) error {
	return a.getSessionRepo(a.db).Clear(ctx)
}
