package dto

import "github.com/hms-go/hms-api/internal/models"

// CreateStudentRequest registers a resident. RoomNumber is free text and is
// normalized server-side; when empty the service auto-assigns the first
// room with spare capacity.
type CreateStudentRequest struct {
	Name               string  `json:"name" validate:"required"`
	FatherName         string  `json:"fatherName"`
	RegistrationNumber string  `json:"registrationNumber" validate:"required"`
	Department         string  `json:"department" validate:"required"`
	Batch              string  `json:"batch"`
	District           string  `json:"district"`
	Phone              string  `json:"phone"`
	HostelName         string  `json:"hostelName" validate:"required"`
	RoomNumber         string  `json:"roomNumber"`
	HostelFee          float64 `json:"hostelFee" validate:"omitempty,min=0"`
}

// UpdateStudentRequest carries partial student updates; nil fields are left
// untouched. Changing hostel or room triggers a wholesale rebuild of both
// affected rooms' assignments.
type UpdateStudentRequest struct {
	Name               *string  `json:"name,omitempty"`
	FatherName         *string  `json:"fatherName,omitempty"`
	RegistrationNumber *string  `json:"registrationNumber,omitempty"`
	Department         *string  `json:"department,omitempty"`
	Batch              *string  `json:"batch,omitempty"`
	District           *string  `json:"district,omitempty"`
	Phone              *string  `json:"phone,omitempty"`
	HostelName         *string  `json:"hostelName,omitempty"`
	RoomNumber         *string  `json:"roomNumber,omitempty"`
	HostelFee          *float64 `json:"hostelFee,omitempty" validate:"omitempty,min=0"`
}

// BatchDeleteStudentsRequest removes every student of a department whose
// batch contains the given substring.
type BatchDeleteStudentsRequest struct {
	Department string `json:"department" validate:"required"`
	Batch      string `json:"batch" validate:"required"`
}

// StudentListResponse wraps a student page with pagination metadata.
type StudentListResponse struct {
	Students   []models.Student  `json:"students"`
	Pagination models.Pagination `json:"pagination"`
}
