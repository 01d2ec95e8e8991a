package models

import "time"

// RoomAssignment is one student's current placement, written by the service
// layer whenever a student is created or moved. Assignments for a room are
// rebuilt wholesale from the live registry rather than patched in place.
type RoomAssignment struct {
	ID                 string    `db:"id" json:"id"`
	HostelID           string    `db:"hostel_id" json:"hostelId"`
	HostelName         string    `db:"hostel_name" json:"hostelName"`
	RoomID             string    `db:"room_id" json:"roomId"`
	StudentID          string    `db:"student_id" json:"studentId"`
	StudentName        string    `db:"student_name" json:"studentName"`
	RegistrationNumber string    `db:"registration_number" json:"registrationNumber"`
	Department         string    `db:"department" json:"department"`
	AssignedAt         time.Time `db:"assigned_at" json:"assignedAt"`
}

// LegacyAllotment is an imported historical allocation record. Legacy rows
// are the lowest-precedence roster source and are never mutated after
// import.
type LegacyAllotment struct {
	ID                 string    `db:"id" json:"id"`
	HostelName         string    `db:"hostel_name" json:"hostelName"`
	RoomID             string    `db:"room_id" json:"roomId"`
	StudentName        string    `db:"student_name" json:"studentName"`
	RegistrationNumber string    `db:"registration_number" json:"registrationNumber"`
	Department         string    `db:"department" json:"department"`
	ImportedAt         time.Time `db:"imported_at" json:"importedAt"`
}
