package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/common"
)

// listKinds maps the REPL's list argument to record kinds.
var listKinds = map[string]models.ActionKind{
	"trip":      models.KindAddTrip,
	"expense":   models.KindAddExpense,
	"complaint": models.KindAddComplaint,
	"repayment": models.KindAddRepayment,
}

// List prints the local records of the logged-in driver, newest first,
// optionally narrowed to one kind. Unsynced rows are flagged so the driver
// can tell what has not reached the office yet.
func (a *App) List(ctx context.Context, kind string) error {
	sess := a.currentSession()
	if sess == nil {
		return common.ErrNoSession
	}

	filter := models.RecordFilter{DriverID: sess.UserID}
	if kind != "" {
		k, ok := listKinds[kind]
		if !ok {
			return fmt.Errorf("%w: unknown kind %q (trip, expense, complaint, repayment)", common.ErrInvalidInput, kind)
		}
		filter.Kind = k
	}

	recs, err := a.ops.ListRecords(ctx, filter)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No records.")
		return nil
	}

	for _, r := range recs {
		mark := "synced"
		if !r.Synced {
			mark = "pending"
		}
		fmt.Printf("%s  %-20s %-8s %s\n", r.Date, r.Kind, mark, r.ID)
	}
	return nil
}

// Failed lists terminally failed submissions with the reason, so the user
// can retry or discard them by id.
func (a *App) Failed(ctx context.Context) error {
	failed, err := a.ops.ListFailed(ctx)
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		fmt.Println("No failed submissions.")
		return nil
	}

	for _, f := range failed {
		fmt.Printf("%s  %-20s attempts=%d  %s\n", f.Action.ID, f.Action.Kind, f.Action.Attempts, f.Action.LastError)
	}
	fmt.Println("Use 'retry <id>' or 'discard <id>'.")
	return nil
}

func (a *App) Retry(ctx context.Context, id string) error {
	if err := a.ops.RetryFailed(ctx, id); err != nil {
		return err
	}
	fmt.Println("Requeued.")
	return nil
}

func (a *App) Discard(ctx context.Context, id string) error {
	if err := a.ops.DiscardFailed(ctx, id); err != nil {
		return err
	}
	fmt.Println("Discarded.")
	return nil
}

// Sync forces a drain right now instead of waiting for the next wake-up.
func (a *App) Sync(ctx context.Context) error {
	if err := a.engine.Drain(ctx); err != nil {
		return err
	}
	n, err := a.ops.PendingCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("All caught up.")
	} else {
		fmt.Printf("%d action(s) still pending.\n", n)
	}
	return nil
}

// Status reports connectivity, the logged-in user, and queue depth.
func (a *App) Status(ctx context.Context) error {
	if a.monitor.IsOnline() {
		fmt.Println("Connectivity: online")
	} else {
		fmt.Println("Connectivity: offline")
	}

	if sess := a.currentSession(); sess != nil {
		fmt.Printf("Logged in as %s (%s)\n", sess.Name, sess.Role)
	} else {
		fmt.Println("Not logged in.")
	}

	n, err := a.ops.PendingCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Pending actions: %d\n", n)
	return nil
}

// Dashboard shows the driver summary, or the fleet rollup for admins.
// Both are online-only reads.
func (a *App) Dashboard(ctx context.Context) error {
	sess := a.currentSession()
	if sess == nil {
		return common.ErrNoSession
	}

	if sess.IsAdmin() {
		sum, err := a.ops.AdminDashboard(ctx, sess)
		if err != nil {
			return err
		}
		fmt.Printf("Drivers: %d (active today: %d)\n", sum.TotalDrivers, sum.ActiveToday)
		fmt.Printf("Pending approvals: %d\n", sum.PendingApprovals)
		fmt.Printf("Collections: %.2f  Expenses: %.2f\n", sum.TotalCollections, sum.TotalExpenses)
		return nil
	}

	d, err := a.ops.DriverDashboard(ctx, sess)
	if err != nil {
		return err
	}
	fmt.Printf("Trips: %d  Earnings: %.2f  Expenses: %.2f\n", d.TotalTrips, d.TotalEarnings, d.TotalExpenses)
	fmt.Printf("Outstanding repayments: %.2f  Cash to deposit: %.2f\n", d.OutstandingRepayments, d.CashToDeposit)
	return nil
}

// Approve is the admin decision on a submitted record.
func (a *App) Approve(ctx context.Context) error {
	recordType, err := getSimpleText(a.reader, "Record type (expense/complaint/repayment)", os.Stdout)
	if err != nil {
		return err
	}
	recordID, err := getSimpleText(a.reader, "Record id", os.Stdout)
	if err != nil {
		return err
	}
	status, err := getSimpleText(a.reader, "Decision (approved/rejected)", os.Stdout)
	if err != nil {
		return err
	}

	action, err := a.ops.UpdateApprovalStatus(ctx, a.currentSession(), models.ApprovalPayload{
		RecordType: recordType,
		RecordID:   recordID,
		Status:     status,
	})
	if err != nil {
		return err
	}
	fmt.Println(queuedMsg(action))
	return nil
}

// Report downloads the monthly export next to the working directory.
func (a *App) Report(ctx context.Context, month string) error {
	out := fmt.Sprintf("report-%s.csv", month)
	if err := a.ops.DownloadReport(ctx, a.currentSession(), month, out); err != nil {
		return err
	}
	fmt.Println("Saved", out)
	return nil
}
