package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/client/remote"
	"github.com/vinitafleet/driveops/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the new driver's details and creates the account on
// the remote. Registration is online-only; the user logs in afterwards.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter full name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Enter phone", os.Stdout)
	if err != nil {
		return err
	}
	license, err := getSimpleText(a.reader, "Enter license number", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p := models.RegisterPayload{
		Name:          name,
		Email:         email,
		Password:      string(password),
		Phone:         phone,
		LicenseNumber: license,
	}
	if err := a.auth.Register(ctx, p); err != nil {
		return err
	}

	fmt.Println("Registered. An admin will verify your account; log in once verified.")
	return nil
}

// Login prompts for credentials and authenticates.
//
// It first attempts an online login. When the remote is unreachable it falls
// back to the offline unlock of the cached session, so a driver without
// signal can still record trips. A failed offline unlock leaves the user
// logged out.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.auth.Login(ctx, email, password)
	if err != nil {
		var netErr *remote.NetworkError
		if !errors.As(err, &netErr) {
			return err
		}

		fmt.Println("Server unavailable, trying offline unlock...")
		sess, err = a.auth.OfflineUnlock(ctx, email, password)
		if err != nil {
			return fmt.Errorf("offline unlock failed: %w", err)
		}
		fmt.Printf("Welcome back, %s (offline)\n", sess.Name)
	} else {
		fmt.Printf("Welcome, %s\n", sess.Name)
	}

	a.setSession(sess)
	a.engine.Notify()
	return nil
}

// Logout wipes the cached session and offline-unlock material. Queued
// actions stay in the store and resume after the next login.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.setSession(nil)
	fmt.Println("Logged out.")
	return nil
}
