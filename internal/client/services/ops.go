package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/client/remote"
	"github.com/vinitafleet/driveops/internal/client/repositories/queue"
	"github.com/vinitafleet/driveops/internal/client/repositories/records"
	"github.com/vinitafleet/driveops/internal/common"
	"github.com/vinitafleet/driveops/internal/dbx"
)

// Notifier wakes the sync engine after an enqueue. The engine satisfies it;
// tests substitute a recorder.
type Notifier interface {
	Notify()
}

// FailedSubmission pairs a terminally failed queue row with its decoded
// payload so the user can inspect what exactly did not go through.
type FailedSubmission struct {
	Action  models.PendingAction
	Payload models.Payload
}

// DriverDashboard is the driver-facing summary the remote computes over the
// spreadsheet.
type DriverDashboard struct {
	TotalTrips            int     `json:"totalTrips"`
	TotalEarnings         float64 `json:"totalEarnings"`
	TotalExpenses         float64 `json:"totalExpenses"`
	OutstandingRepayments float64 `json:"outstandingRepayments"`
	CashToDeposit         float64 `json:"cashToDeposit"`
}

// AdminSummary is the fleet-wide rollup available to admins.
type AdminSummary struct {
	TotalDrivers     int     `json:"totalDrivers"`
	ActiveToday      int     `json:"activeToday"`
	PendingApprovals int     `json:"pendingApprovals"`
	TotalCollections float64 `json:"totalCollections"`
	TotalExpenses    float64 `json:"totalExpenses"`
}

// AttendanceStatus reports whether today's attendance is already marked.
type AttendanceStatus struct {
	Marked bool   `json:"marked"`
	Time   string `json:"time,omitempty"`
}

// OpsService covers the day-to-day operations of the client: queued
// submissions (trips, expenses, complaints, repayments, attendance, OD
// readings), local record listing, failed-submission management, and the
// online-only reads (dashboards, attendance check, report download).
//
// Every mutating method validates its input, persists optimistic local state
// where a record kind exists for it, enqueues the action, and returns without
// touching the network. Delivery is the engine's job.
type OpsService interface {
	AddTrip(ctx context.Context, sess *models.Session, p models.AddTripPayload) (*models.PendingAction, error)
	AddExpense(ctx context.Context, sess *models.Session, p models.AddExpensePayload) (*models.PendingAction, error)
	AddComplaint(ctx context.Context, sess *models.Session, p models.AddComplaintPayload) (*models.PendingAction, error)
	AddRepayment(ctx context.Context, sess *models.Session, p models.AddRepaymentPayload) (*models.PendingAction, error)
	MarkAttendance(ctx context.Context, sess *models.Session, logout bool) (*models.PendingAction, error)
	SubmitODReading(ctx context.Context, sess *models.Session, p models.ODReadingPayload) (*models.PendingAction, error)
	UpdateApprovalStatus(ctx context.Context, sess *models.Session, p models.ApprovalPayload) (*models.PendingAction, error)
	UpdateProfileImage(ctx context.Context, sess *models.Session, image string) (*models.PendingAction, error)

	ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.Record, error)
	PendingCount(ctx context.Context) (int, error)

	ListFailed(ctx context.Context) ([]FailedSubmission, error)
	RetryFailed(ctx context.Context, id string) error
	DiscardFailed(ctx context.Context, id string) error

	DriverDashboard(ctx context.Context, sess *models.Session) (*DriverDashboard, error)
	AdminDashboard(ctx context.Context, sess *models.Session) (*AdminSummary, error)
	CheckAttendance(ctx context.Context, sess *models.Session) (*AttendanceStatus, error)
	DownloadReport(ctx context.Context, sess *models.Session, month, outPath string) error
}

type opsService struct {
	db       *sql.DB
	gateway  remote.Gateway
	notifier Notifier
	now      func() time.Time
}

func NewOpsService(db *sql.DB, gateway remote.Gateway, notifier Notifier) OpsService {
	return &opsService{db: db, gateway: gateway, notifier: notifier, now: time.Now}
}

func (s *opsService) getQueueRepo(db dbx.DBTX) queue.Repository {
	return queue.NewSQLiteRepository(db)
}

func (s *opsService) getRecordsRepo(db dbx.DBTX) records.Repository {
	return records.NewSQLiteRepository(db)
}

func requireSession(sess *models.Session, now time.Time) error {
	if sess == nil {
		return common.ErrNoSession
	}
	if sess.TokenExpired(now) {
		return common.ErrTokenExpired
	}
	return nil
}

// today formats the current date the way the spreadsheet keys its rows.
func (s *opsService) today() string {
	return s.now().Format("2006-01-02")
}

// enqueue persists an action, and when withRecord is set, the optimistic
// record alongside it in the same transaction. The engine is notified after
// the transaction commits, never inside it.
func (s *opsService) enqueue(ctx context.Context, p models.Payload, rec *models.Record) (*models.PendingAction, error) {
	raw, err := models.EncodePayload(p)
	if err != nil {
		return nil, err
	}

	var action *models.PendingAction
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		recordRef := ""
		if rec != nil {
			if err := s.getRecordsRepo(tx).Insert(ctx, rec); err != nil {
				return err
			}
			recordRef = rec.ID
		}
		a, err := s.getQueueRepo(tx).Enqueue(ctx, p.Kind(), raw, recordRef)
		if err != nil {
			return err
		}
		action = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enqueueing %s: %w", p.Kind(), err)
	}

	s.notifier.Notify()
	return action, nil
}

func (s *opsService) newRecord(p models.Payload, driverID, date string) (*models.Record, error) {
	raw, err := models.EncodePayload(p)
	if err != nil {
		return nil, err
	}
	return &models.Record{
		ID:        uuid.NewString(),
		Kind:      p.Kind(),
		DriverID:  driverID,
		Date:      date,
		Payload:   raw,
		CreatedAt: s.now(),
	}, nil
}

func (s *opsService) AddTrip(ctx context.Context, sess *models.Session, p models.AddTripPayload) (*models.PendingAction, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: trip amount must be positive", common.ErrInvalidInput)
	}
	if p.Distance < 0 || p.Toll < 0 || p.CashCollected < 0 {
		return nil, fmt.Errorf("%w: distance, toll and cash collected cannot be negative", common.ErrInvalidInput)
	}
	p.DriverID = sess.UserID
	if p.Date == "" {
		p.Date = s.today()
	}

	rec, err := s.newRecord(p, p.DriverID, p.Date)
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, p, rec)
}

func (s *opsService) AddExpense(ctx context.Context, sess *models.Session, p models.AddExpensePayload) (*models.PendingAction, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: expense amount must be positive", common.ErrInvalidInput)
	}
	if p.Type == "" {
		return nil, fmt.Errorf("%w: expense type is required", common.ErrInvalidInput)
	}
	p.DriverID = sess.UserID
	if p.Date == "" {
		p.Date = s.today()
	}

	rec, err := s.newRecord(p, p.DriverID, p.Date)
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, p, rec)
}

func (s *opsService) AddComplaint(ctx context.Context, sess *models.Session, p models.AddComplaintPayload) (*models.PendingAction, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if p.Title == "" || p.Description == "" {
		return nil, fmt.Errorf("%w: complaint title and description are required", common.ErrInvalidInput)
	}
	p.DriverID = sess.UserID
	if p.Date == "" {
		p.Date = s.today()
	}

	rec, err := s.newRecord(p, p.DriverID, p.Date)
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, p, rec)
}

func (s *opsService) AddRepayment(ctx context.Context, sess *models.Session, p models.AddRepaymentPayload) (*models.PendingAction, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: repayment amount must be positive", common.ErrInvalidInput)
	}
	p.DriverID = sess.UserID
	if p.Date == "" {
		p.Date = s.today()
	}

	rec, err := s.newRecord(p, p.DriverID, p.Date)
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, p, rec)
}

// MarkAttendance queues the morning mark, or the end-of-day logout when
// logout is set. Attendance has no local record: the remote is the source of
// truth and CheckAttendance reads it back.
func (s *opsService) MarkAttendance(ctx context.Context, sess *models.Session, logout bool) (*models.PendingAction, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	now := s.now()
	p := models.AttendancePayload{
		DriverID: sess.UserID,
		Date:     now.Format("2006-01-02"),
		Time:     now.Format("15:04:05"),
		Logout:   logout,
	}
	return s.enqueue(ctx, p, nil)
}

func (s *opsService) SubmitODReading(ctx context.Context, sess *models.Session, p models.ODReadingPayload) (*models.PendingAction, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if p.Reading <= 0 {
		return nil, fmt.Errorf("%w: odometer reading must be positive", common.ErrInvalidInput)
	}
	p.DriverID = sess.UserID
	if p.Date == "" {
		p.Date = s.today()
	}
	return s.enqueue(ctx, p, nil)
}

func (s *opsService) UpdateApprovalStatus(ctx context.Context, sess *models.Session, p models.ApprovalPayload) (*models.PendingAction, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if !sess.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	if p.RecordID == "" || p.RecordType == "" {
		return nil, fmt.Errorf("%w: record type and id are required", common.ErrInvalidInput)
	}
	if p.Status != "approved" && p.Status != "rejected" {
		return nil, fmt.Errorf("%w: status must be approved or rejected", common.ErrInvalidInput)
	}
	return s.enqueue(ctx, p, nil)
}

func (s *opsService) UpdateProfileImage(ctx context.Context, sess *models.Session, image string) (*models.PendingAction, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if image == "" {
		return nil, fmt.Errorf("%w: image data is required", common.ErrInvalidInput)
	}
	p := models.ProfileImagePayload{DriverID: sess.UserID, Image: image}
	return s.enqueue(ctx, p, nil)
}

func (s *opsService) ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.Record, error) {
	return s.getRecordsRepo(s.db).List(ctx, filter)
}

func (s *opsService) PendingCount(ctx context.Context) (int, error) {
	return s.getQueueRepo(s.db).CountPending(ctx)
}

func (s *opsService) ListFailed(ctx context.Context) ([]FailedSubmission, error) {
	actions, err := s.getQueueRepo(s.db).ListFailed(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]FailedSubmission, 0, len(actions))
	for _, a := range actions {
		p, err := models.DecodePayload(a.Kind, a.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, FailedSubmission{Action: a, Payload: p})
	}
	return out, nil
}

// RetryFailed puts a failed action back in line with a fresh attempt budget
// and wakes the engine.
func (s *opsService) RetryFailed(ctx context.Context, id string) error {
	if err := s.getQueueRepo(s.db).Requeue(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify()
	return nil
}

// DiscardFailed drops an action and its optimistic record, if any. The queue
// row may be in any state: cancelling a still-pending submission must not
// leave its record behind either.
func (s *opsService) DiscardFailed(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		q := s.getQueueRepo(tx)
		a, err := q.Get(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := q.Discard(ctx, id); err != nil {
			return err
		}
		if a.RecordRef != "" {
			return s.getRecordsRepo(tx).Delete(ctx, a.RecordRef)
		}
		return nil
	})
}

func (s *opsService) DriverDashboard(ctx context.Context, sess *models.Session) (*DriverDashboard, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	body := map[string]string{"driverId": sess.UserID}
	var out DriverDashboard
	if err := s.gateway.Query(ctx, models.KindDriverDashboard, body, sess.Token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *opsService) AdminDashboard(ctx context.Context, sess *models.Session) (*AdminSummary, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	if !sess.IsAdmin() {
		return nil, common.ErrAdminRequired
	}
	var out AdminSummary
	if err := s.gateway.Query(ctx, models.KindDashboardSummary, map[string]string{}, sess.Token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *opsService) CheckAttendance(ctx context.Context, sess *models.Session) (*AttendanceStatus, error) {
	if err := requireSession(sess, s.now()); err != nil {
		return nil, err
	}
	body := map[string]string{"driverId": sess.UserID, "date": s.today()}
	var out AttendanceStatus
	if err := s.gateway.Query(ctx, models.KindCheckAttendance, body, sess.Token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadReport fetches the monthly export and writes it to outPath.
func (s *opsService) DownloadReport(ctx context.Context, sess *models.Session, month, outPath string) error {
	if err := requireSession(sess, s.now()); err != nil {
		return err
	}
	if month == "" {
		return fmt.Errorf("%w: month is required (YYYY-MM)", common.ErrInvalidInput)
	}
	body := map[string]string{"month": month, "driverId": sess.UserID}
	b, err := s.gateway.Download(ctx, models.KindGenerateReport, body, sess.Token)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
