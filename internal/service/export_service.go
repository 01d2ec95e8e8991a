package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hms-go/hms-api/internal/allocation"
	"github.com/hms-go/hms-api/internal/models"
	appErrors "github.com/hms-go/hms-api/pkg/errors"
	"github.com/hms-go/hms-api/pkg/export"
)

var studentExportHeaders = []string{"Name", "Registration", "Department", "Batch", "District", "Hostel", "Room", "Fee"}

type exportStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter, hostels []string) ([]models.Student, int, error)
	ListByHostelVariants(ctx context.Context, variants []string) ([]models.Student, error)
}

// ExportService renders student and fee datasets as CSV or PDF downloads.
type ExportService struct {
	students exportStudentRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(students exportStudentRepository, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{students: students, csv: csv, pdf: pdf, logger: logger}
}

// StudentsCSV renders the student roll as CSV. An empty hostel exports
// everyone within the actor's scope.
func (s *ExportService) StudentsCSV(ctx context.Context, hostel string, actor *models.JWTClaims) ([]byte, string, error) {
	students, err := s.loadStudents(ctx, hostel, actor)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(studentDataset(students))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, exportFilename("students", hostel, "csv"), nil
}

// StudentsPDF renders the student roll as a tabular PDF.
func (s *ExportService) StudentsPDF(ctx context.Context, hostel string, actor *models.JWTClaims) ([]byte, string, error) {
	students, err := s.loadStudents(ctx, hostel, actor)
	if err != nil {
		return nil, "", err
	}
	title := "Student Roll"
	if hostel != "" {
		title = fmt.Sprintf("Student Roll - %s", hostel)
	}
	payload, err := s.pdf.Render(studentDataset(students), title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, exportFilename("students", hostel, "pdf"), nil
}

// FeeReportPDF renders per-student fee standing as a PDF.
func (s *ExportService) FeeReportPDF(ctx context.Context, hostel string, actor *models.JWTClaims) ([]byte, string, error) {
	students, err := s.loadStudents(ctx, hostel, actor)
	if err != nil {
		return nil, "", err
	}

	headers := []string{"Name", "Registration", "Hostel", "Fee", "Paid Semesters", "Pending Semesters", "Standing"}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		paid, pending := 0, 0
		for _, status := range st.FeeTable {
			if status == models.FeeStatusPaid {
				paid++
			} else if status == models.FeeStatusPending {
				pending++
			}
		}
		standing := "clear"
		if st.HasOverdueFees() {
			standing = "overdue"
		}
		rows = append(rows, map[string]string{
			"Name":              st.Name,
			"Registration":      st.RegistrationNumber,
			"Hostel":            st.HostelName,
			"Fee":               strconv.FormatFloat(st.HostelFee, 'f', 0, 64),
			"Paid Semesters":    strconv.Itoa(paid),
			"Pending Semesters": strconv.Itoa(pending),
			"Standing":          standing,
		})
	}

	title := "Fee Report"
	if hostel != "" {
		title = fmt.Sprintf("Fee Report - %s", hostel)
	}
	payload, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, exportFilename("fees", hostel, "pdf"), nil
}

func (s *ExportService) loadStudents(ctx context.Context, hostel string, actor *models.JWTClaims) ([]models.Student, error) {
	if hostel != "" {
		if !actorCanAccessHostel(actor, hostel) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "hostel is not assigned to you")
		}
		students, err := s.students.ListByHostelVariants(ctx, allocation.HostelNameVariants(hostel))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
		}
		return students, nil
	}
	students, _, err := s.students.List(ctx, models.StudentFilter{PageSize: 100, SortBy: "name", SortOrder: "ASC"}, wardenHostels(actor))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	return students, nil
}

func studentDataset(students []models.Student) export.Dataset {
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"Name":         st.Name,
			"Registration": st.RegistrationNumber,
			"Department":   st.Department,
			"Batch":        st.Batch,
			"District":     st.District,
			"Hostel":       st.HostelName,
			"Room":         st.RoomNumber,
			"Fee":          strconv.FormatFloat(st.HostelFee, 'f', 0, 64),
		})
	}
	return export.Dataset{Headers: studentExportHeaders, Rows: rows}
}

func exportFilename(kind, hostel, ext string) string {
	if hostel == "" {
		return fmt.Sprintf("%s.%s", kind, ext)
	}
	slug := strings.ToLower(strings.Join(strings.Fields(hostel), "-"))
	return fmt.Sprintf("%s-%s.%s", kind, slug, ext)
}
