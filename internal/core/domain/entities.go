package domain

import "math"

// Role represents user role in the system
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// LoanStatus is the canonical loan state. PENDING and APPROVED are
// non-terminal; REJECTED and CLOSED are terminal.
type LoanStatus string

const (
	LoanPending  LoanStatus = "PENDING"
	LoanApproved LoanStatus = "APPROVED"
	LoanRejected LoanStatus = "REJECTED"
	LoanClosed   LoanStatus = "CLOSED"
)

// loanStatusDisplay is the single bidirectional mapping between the storage
// form and the member-facing (Indonesian) form of a status.
var loanStatusDisplay = map[LoanStatus]string{
	LoanPending:  "Dalam Pemeriksaan",
	LoanApproved: "Disetujui",
	LoanRejected: "Ditolak",
	LoanClosed:   "Lunas",
}

var loanStatusFromDisplay = func() map[string]LoanStatus {
	m := make(map[string]LoanStatus, len(loanStatusDisplay))
	for k, v := range loanStatusDisplay {
		m[v] = k
	}
	return m
}()

// Display returns the member-facing form of the status.
func (s LoanStatus) Display() string {
	return loanStatusDisplay[s]
}

// IsTerminal reports whether no transition may leave this status.
func (s LoanStatus) IsTerminal() bool {
	return s == LoanRejected || s == LoanClosed
}

// Valid reports whether s is one of the four canonical statuses.
func (s LoanStatus) Valid() bool {
	_, ok := loanStatusDisplay[s]
	return ok
}

// ParseLoanStatus accepts either the canonical or the display form.
// Unknown strings are rejected, never defaulted.
func ParseLoanStatus(s string) (LoanStatus, error) {
	if st := LoanStatus(s); st.Valid() {
		return st, nil
	}
	if st, ok := loanStatusFromDisplay[s]; ok {
		return st, nil
	}
	return "", ErrUnknownStatus
}

// SavingType is a savings category: principal, mandatory or voluntary.
type SavingType string

const (
	SavingPokok    SavingType = "POKOK"
	SavingWajib    SavingType = "WAJIB"
	SavingSukarela SavingType = "SUKARELA"
)

var savingTypeDisplay = map[SavingType]string{
	SavingPokok:    "pokok",
	SavingWajib:    "wajib",
	SavingSukarela: "sukarela",
}

// Display returns the lowercase form used by clients.
func (t SavingType) Display() string {
	return savingTypeDisplay[t]
}

// Valid reports whether t is a known saving type.
func (t SavingType) Valid() bool {
	_, ok := savingTypeDisplay[t]
	return ok
}

// ParseSavingType accepts either form; unknown strings are rejected.
func ParseSavingType(s string) (SavingType, error) {
	if t := SavingType(s); t.Valid() {
		return t, nil
	}
	for t, d := range savingTypeDisplay {
		if d == s {
			return t, nil
		}
	}
	return "", ErrUnknownSavingType
}

// Opening deposits seeded at registration (IDR).
const (
	OpeningPokok int64 = 100_000
	OpeningWajib int64 = 50_000
)

// Installment computes the flat-rate monthly installment:
// ceil(amount * (1 + ratePercent/100) / tenor).
func Installment(amount int64, ratePercent float64, tenor int) int64 {
	if amount <= 0 || tenor <= 0 {
		return 0
	}
	total := float64(amount) * (1 + ratePercent/100)
	return int64(math.Ceil(total / float64(tenor)))
}

// Outstanding applies a payment against a balance. Overpayment is clamped to
// zero, never carried as credit.
func Outstanding(before, payment int64) int64 {
	after := before - payment
	if after < 0 {
		return 0
	}
	return after
}
