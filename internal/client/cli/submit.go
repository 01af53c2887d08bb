package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/vinitafleet/driveops/internal/client/models"
)

// queuedMsg confirms an offline-capable submission. The id doubles as the
// handle for retry/discard if delivery later fails.
func queuedMsg(a *models.PendingAction) string {
	return fmt.Sprintf("Queued %s (id %s). It will sync automatically.", a.Kind, a.ID)
}

func (a *App) Trip(ctx context.Context) error {
	amount, err := GetAmount(a.reader, "Trip earnings", os.Stdout)
	if err != nil {
		return err
	}
	distance, err := GetAmount(a.reader, "Distance (km)", os.Stdout)
	if err != nil {
		return err
	}
	toll, err := GetAmount(a.reader, "Toll paid (blank for none)", os.Stdout)
	if err != nil {
		return err
	}
	mode, err := getSimpleText(a.reader, "Payment mode (cash/online)", os.Stdout)
	if err != nil {
		return err
	}
	cash, err := GetAmount(a.reader, "Cash collected (blank for none)", os.Stdout)
	if err != nil {
		return err
	}

	action, err := a.ops.AddTrip(ctx, a.currentSession(), models.AddTripPayload{
		Amount:        amount,
		Distance:      distance,
		Toll:          toll,
		PaymentMode:   mode,
		CashCollected: cash,
	})
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}

func (a *App) Expense(ctx context.Context) error {
	typ, err := getSimpleText(a.reader, "Expense type (cng/repair/fine/other)", os.Stdout)
	if err != nil {
		return err
	}
	amount, err := GetAmount(a.reader, "Amount", os.Stdout)
	if err != nil {
		return err
	}
	mode, err := getSimpleText(a.reader, "Payment mode (cash/online)", os.Stdout)
	if err != nil {
		return err
	}

	action, err := a.ops.AddExpense(ctx, a.currentSession(), models.AddExpensePayload{
		Type:        typ,
		Amount:      amount,
		PaymentMode: mode,
	})
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}

func (a *App) Complaint(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category (vehicle/payment/other)", os.Stdout)
	if err != nil {
		return err
	}
	description, err := GetMultiline(a.reader, "Description", os.Stdout)
	if err != nil {
		return err
	}

	action, err := a.ops.AddComplaint(ctx, a.currentSession(), models.AddComplaintPayload{
		Title:       title,
		Category:    category,
		Description: description,
	})
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}

func (a *App) Repayment(ctx context.Context) error {
	amount, err := GetAmount(a.reader, "Repayment amount", os.Stdout)
	if err != nil {
		return err
	}
	notes, err := getSimpleText(a.reader, "Notes (optional)", os.Stdout)
	if err != nil {
		return err
	}

	action, err := a.ops.AddRepayment(ctx, a.currentSession(), models.AddRepaymentPayload{
		Amount: amount,
		Notes:  notes,
	})
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}

func (a *App) Attendance(ctx context.Context) error {
	action, err := a.ops.MarkAttendance(ctx, a.currentSession(), false)
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}

func (a *App) DayEnd(ctx context.Context) error {
	action, err := a.ops.MarkAttendance(ctx, a.currentSession(), true)
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}

// Profile reads an image file and submits it base64-encoded, the way the
// remote expects inline images.
func (a *App) Profile(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Path to profile image", os.Stdout)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	action, err := a.ops.UpdateProfileImage(ctx, a.currentSession(), base64.StdEncoding.EncodeToString(b))
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}

func (a *App) Odometer(ctx context.Context) error {
	reading, err := GetAmount(a.reader, "Odometer reading", os.Stdout)
	if err != nil {
		return err
	}

	action, err := a.ops.SubmitODReading(ctx, a.currentSession(), models.ODReadingPayload{
		Reading: reading,
	})
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}
