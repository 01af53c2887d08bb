package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Trip(ctx context.Context) error
	Expense(ctx context.Context) error
	Complaint(ctx context.Context) error
	Repayment(ctx context.Context) error
	Attendance(ctx context.Context) error
	DayEnd(ctx context.Context) error
	Odometer(ctx context.Context) error
	Profile(ctx context.Context) error
	List(ctx context.Context, kind string) error
	Failed(ctx context.Context) error
	Retry(ctx context.Context, id string) error
	Discard(ctx context.Context, id string) error
	Sync(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Approve(ctx context.Context) error
	Report(ctx context.Context, month string) error
	Status(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL is the read-eval-print loop of the DriveOps CLI.
//
// It reads a line from the scanner, parses the first token as the command,
// and dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on scanner EOF or when the user types "exit" or
// "quit".
//
// Every submission command works offline: handlers enqueue and return, and
// the sync engine delivers in the background. Dashboard and report are the
// online-only exceptions.
//
// Errors returned by handlers are printed here, not swallowed inside the
// handlers, so the loop stays the single place that talks to the terminal.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("driveops %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			printHelp(a)

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "trip":
			err = a.Trip(ctx)

		case "expense":
			err = a.Expense(ctx)

		case "complaint":
			err = a.Complaint(ctx)

		case "repayment":
			err = a.Repayment(ctx)

		case "attendance":
			err = a.Attendance(ctx)

		case "dayend":
			err = a.DayEnd(ctx)

		case "od":
			err = a.Odometer(ctx)

		case "profile":
			err = a.Profile(ctx)

		case "l", "list":
			kind := ""
			if len(args) > 0 {
				kind = args[0]
			}
			err = a.List(ctx, kind)

		case "failed":
			err = a.Failed(ctx)

		case "retry":
			if len(args) == 0 {
				printlnFn("Usage: retry <id>")
				continue
			}
			err = a.Retry(ctx, args[0])

		case "discard":
			if len(args) == 0 {
				printlnFn("Usage: discard <id>")
				continue
			}
			err = a.Discard(ctx, args[0])

		case "sync":
			err = a.Sync(ctx)

		case "dashboard":
			err = a.Dashboard(ctx)

		case "approve":
			err = a.Approve(ctx)

		case "report":
			if len(args) == 0 {
				printlnFn("Usage: report <YYYY-MM>")
				continue
			}
			err = a.Report(ctx, args[0])

		case "status":
			err = a.Status(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}

func printHelp(a execIface) {
	if !a.isLoggedIn() {
		printlnFn("Available commands: register, login, exit")
		return
	}
	printlnFn("Available commands: trip, expense, complaint, repayment, attendance, dayend, od,")
	printlnFn("  (l)ist [trip|expense|complaint|repayment], failed, retry <id>, discard <id>,")
	printlnFn("  sync, dashboard, report <YYYY-MM>, profile, status, logout, exit")
	if a.isAdmin() {
		printlnFn("Admin commands: approve")
	}
}
