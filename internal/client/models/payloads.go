package models

import (
	"encoding/json"
	"fmt"

	"github.com/vinitafleet/driveops/internal/common"
)

// Payload is implemented by every kind-specific action payload. The concrete
// struct defines the wire fields; Kind ties it to its action tag.
type Payload interface {
	Kind() ActionKind
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (LoginPayload) Kind() ActionKind { return KindLogin }

type RegisterPayload struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"licenseNumber"`
}

func (RegisterPayload) Kind() ActionKind { return KindRegister }

type AddTripPayload struct {
	DriverID      string  `json:"driverId"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	Distance      float64 `json:"distance"`
	Toll          float64 `json:"toll"`
	PaymentMode   string  `json:"paymentMode"`
	CashCollected float64 `json:"cashCollected"`
}

func (AddTripPayload) Kind() ActionKind { return KindAddTrip }

type AddExpensePayload struct {
	DriverID     string  `json:"driverId"`
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	PaymentMode  string  `json:"paymentMode"`
	ReceiptImage string  `json:"receiptImage,omitempty"`
}

func (AddExpensePayload) Kind() ActionKind { return KindAddExpense }

type AddComplaintPayload struct {
	DriverID    string `json:"driverId"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (AddComplaintPayload) Kind() ActionKind { return KindAddComplaint }

type AddRepaymentPayload struct {
	DriverID string  `json:"driverId"`
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes,omitempty"`
}

func (AddRepaymentPayload) Kind() ActionKind { return KindAddRepayment }

// AttendancePayload covers both the morning mark and the end-of-day logout;
// the Logout flag selects the wire action.
type AttendancePayload struct {
	DriverID string `json:"driverId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Logout   bool   `json:"-"`
}

func (p AttendancePayload) Kind() ActionKind {
	if p.Logout {
		return KindMarkLogout
	}
	return KindMarkAttendance
}

type ODReadingPayload struct {
	DriverID string  `json:"driverId"`
	Date     string  `json:"date"`
	Reading  float64 `json:"odReading"`
	Image    string  `json:"odImage,omitempty"`
}

func (ODReadingPayload) Kind() ActionKind { return KindSubmitODReading }

// ApprovalPayload is the admin-side approve/reject decision for a submitted
// expense, complaint or repayment record.
type ApprovalPayload struct {
	RecordType string `json:"recordType"`
	RecordID   string `json:"recordId"`
	Status     string `json:"status"`
}

func (ApprovalPayload) Kind() ActionKind { return KindUpdateApprovalStatus }

type ProfileImagePayload struct {
	DriverID string `json:"driverId"`
	Image    string `json:"profileImage"`
}

func (ProfileImagePayload) Kind() ActionKind { return KindUpdateProfileImage }

// EncodePayload serializes a payload for durable queue storage.
func EncodePayload(p Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", p.Kind(), err)
	}
	return raw, nil
}

// DecodePayload restores the typed payload for a stored action. It is used
// when rendering failed submissions back to the user.
func DecodePayload(kind ActionKind, raw json.RawMessage) (Payload, error) {
	var (
		p   Payload
		err error
	)

	switch kind {
	case KindLogin:
		p, err = decodeInto[LoginPayload](raw)
	case KindRegister:
		p, err = decodeInto[RegisterPayload](raw)
	case KindAddTrip:
		p, err = decodeInto[AddTripPayload](raw)
	case KindAddExpense:
		p, err = decodeInto[AddExpensePayload](raw)
	case KindAddComplaint:
		p, err = decodeInto[AddComplaintPayload](raw)
	case KindAddRepayment:
		p, err = decodeInto[AddRepaymentPayload](raw)
	case KindMarkAttendance:
		p, err = decodeInto[AttendancePayload](raw)
	case KindMarkLogout:
		var a AttendancePayload
		if err = json.Unmarshal(raw, &a); err == nil {
			a.Logout = true
			p = a
		}
	case KindSubmitODReading:
		p, err = decodeInto[ODReadingPayload](raw)
	case KindUpdateApprovalStatus:
		p, err = decodeInto[ApprovalPayload](raw)
	case KindUpdateProfileImage:
		p, err = decodeInto[ProfileImagePayload](raw)
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownAction, kind)
	}

	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
	}
	return p, nil
}

func decodeInto[T Payload](raw json.RawMessage) (Payload, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
