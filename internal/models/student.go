package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Fee status values held in a student's fee table, keyed by semester
// ("sem1".."sem8").
const (
	FeeStatusPaid    = "paid"
	FeeStatusPending = "pending"
)

// Student represents a resident registered in a hostel.
type Student struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	FatherName         string    `db:"father_name" json:"fatherName"`
	RegistrationNumber string    `db:"registration_number" json:"registrationNumber"`
	Department         string    `db:"department" json:"department"`
	Batch              string    `db:"batch" json:"batch"`
	District           string    `db:"district" json:"district"`
	Phone              string    `db:"phone" json:"phone"`
	HostelName         string    `db:"hostel_name" json:"hostelName"`
	RoomNumber         string    `db:"room_number" json:"roomNumber"`
	HostelFee          float64   `db:"hostel_fee" json:"hostelFee"`
	FeeTable           FeeTable  `db:"fee_table" json:"feeTable"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// HasOverdueFees reports whether the student owes anything: an empty fee
// table counts as overdue, as does any pending semester.
func (s *Student) HasOverdueFees() bool {
	if len(s.FeeTable) == 0 {
		return true
	}
	for _, status := range s.FeeTable {
		if status == FeeStatusPending {
			return true
		}
	}
	return false
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	Hostel     string
	Department string
	Batch      string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// FeeTable maps semester keys to fee status, persisted as JSONB.
type FeeTable map[string]string

// Value marshals the fee table to JSON for persistence.
func (f FeeTable) Value() (driver.Value, error) {
	if f == nil {
		f = FeeTable{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal fee table: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the fee table.
func (f *FeeTable) Scan(value interface{}) error {
	if value == nil {
		*f = FeeTable{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for FeeTable", value)
	}
	if len(data) == 0 {
		*f = FeeTable{}
		return nil
	}
	if err := json.Unmarshal(data, f); err != nil {
		return fmt.Errorf("unmarshal fee table: %w", err)
	}
	return nil
}
