package models

import "time"

// ChallanStatus tracks a fee challan's payment state.
type ChallanStatus string

const (
	ChallanStatusPending ChallanStatus = "PENDING"
	ChallanStatusPaid    ChallanStatus = "PAID"
)

// Challan is one fee payment slip issued to a student. Number carries the
// generated CH-{millis}-{suffix} identifier printed on the slip.
type Challan struct {
	ID                 string        `db:"id" json:"id"`
	Number             string        `db:"number" json:"number"`
	StudentID          string        `db:"student_id" json:"studentId"`
	RegistrationNumber string        `db:"registration_number" json:"registrationNumber"`
	StudentName        string        `db:"student_name" json:"studentName"`
	HostelName         string        `db:"hostel_name" json:"hostelName"`
	Semester           string        `db:"semester" json:"semester"`
	Amount             float64       `db:"amount" json:"amount"`
	Status             ChallanStatus `db:"status" json:"status"`
	IssuedAt           time.Time     `db:"issued_at" json:"issuedAt"`
	PaidAt             *time.Time    `db:"paid_at" json:"paidAt,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
}

// ChallanFilter captures filtering criteria for listing challans.
type ChallanFilter struct {
	StudentID string
	Hostel    string
	Status    *ChallanStatus
	Search    string
	Page      int
	PageSize  int
}
