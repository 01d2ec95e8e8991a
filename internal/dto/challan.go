package dto

import "github.com/hms-go/hms-api/internal/models"

// MarkChallanPaidRequest settles a challan against a semester of the
// student's fee table.
type MarkChallanPaidRequest struct {
	Semester string `json:"semester" validate:"required"`
}

// ChallanListResponse wraps a challan page with pagination metadata.
type ChallanListResponse struct {
	Challans   []models.Challan  `json:"challans"`
	Pagination models.Pagination `json:"pagination"`
}

// FeeStructureResponse is a student's per-semester fee state.
type FeeStructureResponse struct {
	RegistrationNumber string          `json:"registrationNumber"`
	Name               string          `json:"name"`
	HostelName         string          `json:"hostelName"`
	HostelFee          float64         `json:"hostelFee"`
	FeeTable           models.FeeTable `json:"feeTable"`
}
