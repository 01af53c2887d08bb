package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	admin    bool

	calls []string
	arg   string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) isAdmin() bool    { return f.admin }

func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}

func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}

func (f *fakeExec) Trip(ctx context.Context) error { f.calls = append(f.calls, "trip"); return nil }
func (f *fakeExec) Expense(ctx context.Context) error {
	f.calls = append(f.calls, "expense")
	return nil
}
func (f *fakeExec) Complaint(ctx context.Context) error {
	f.calls = append(f.calls, "complaint")
	return nil
}
func (f *fakeExec) Repayment(ctx context.Context) error {
	f.calls = append(f.calls, "repayment")
	return nil
}
func (f *fakeExec) Attendance(ctx context.Context) error {
	f.calls = append(f.calls, "attendance")
	return nil
}
func (f *fakeExec) DayEnd(ctx context.Context) error {
	f.calls = append(f.calls, "dayend")
	return nil
}
func (f *fakeExec) Odometer(ctx context.Context) error {
	f.calls = append(f.calls, "od")
	return nil
}

func (f *fakeExec) Profile(ctx context.Context) error {
	f.calls = append(f.calls, "profile")
	return nil
}

func (f *fakeExec) List(ctx context.Context, kind string) error {
	f.calls = append(f.calls, "list")
	f.arg = kind
	return nil
}

func (f *fakeExec) Failed(ctx context.Context) error {
	f.calls = append(f.calls, "failed")
	return nil
}

func (f *fakeExec) Retry(ctx context.Context, id string) error {
	f.calls = append(f.calls, "retry")
	f.arg = id
	return nil
}

func (f *fakeExec) Discard(ctx context.Context, id string) error {
	f.calls = append(f.calls, "discard")
	f.arg = id
	return nil
}

func (f *fakeExec) Sync(ctx context.Context) error { f.calls = append(f.calls, "sync"); return nil }
func (f *fakeExec) Dashboard(ctx context.Context) error {
	f.calls = append(f.calls, "dashboard")
	return nil
}
func (f *fakeExec) Approve(ctx context.Context) error {
	f.calls = append(f.calls, "approve")
	return nil
}

func (f *fakeExec) Report(ctx context.Context, month string) error {
	f.calls = append(f.calls, "report")
	f.arg = month
	return nil
}

func (f *fakeExec) Status(ctx context.Context) error {
	f.calls = append(f.calls, "status")
	return nil
}

func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}

func runScript(t *testing.T, f *fakeExec, lines ...string) {
	t.Helper()

	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	input := strings.NewReader(strings.Join(lines, "\n") + "\n")
	runREPL(context.Background(), f, func() string { return "(test)" }, bufio.NewScanner(input))
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	f := &fakeExec{}
	runScript(t, f,
		"login",
		"trip",
		"expense",
		"attendance",
		"dayend",
		"sync",
		"logout",
		"exit",
	)

	assert.Equal(t, []string{"login", "trip", "expense", "attendance", "dayend", "sync", "logout"}, f.calls)
}

func TestRunREPL_ArgsAndUsage(t *testing.T) {
	t.Run("retry forwards the id", func(t *testing.T) {
		f := &fakeExec{loggedIn: true}
		runScript(t, f, "retry abc-123", "quit")

		assert.Equal(t, []string{"retry"}, f.calls)
		assert.Equal(t, "abc-123", f.arg)
	})

	t.Run("retry without id prints usage, no dispatch", func(t *testing.T) {
		f := &fakeExec{loggedIn: true}
		runScript(t, f, "retry", "quit")

		assert.Empty(t, f.calls)
	})

	t.Run("list kind is optional", func(t *testing.T) {
		f := &fakeExec{loggedIn: true}
		runScript(t, f, "l trip", "list", "quit")

		assert.Equal(t, []string{"list", "list"}, f.calls)
	})

	t.Run("report forwards the month", func(t *testing.T) {
		f := &fakeExec{loggedIn: true}
		runScript(t, f, "report 2026-08", "quit")

		assert.Equal(t, "2026-08", f.arg)
	})
}

func TestRunREPL_UnknownAndEmptyInput(t *testing.T) {
	f := &fakeExec{}
	runScript(t, f,
		"",
		"   ",
		"frobnicate",
		"exit",
	)

	assert.Empty(t, f.calls)
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	f := &fakeExec{}

	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	runREPL(context.Background(), f, func() string { return "" }, bufio.NewScanner(strings.NewReader("")))
	assert.Empty(t, f.calls)
}
