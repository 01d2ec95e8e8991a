package models

// CascadeResult summarizes what a student or hostel deletion removed.
// AuditSweepError carries a non-fatal cleanup failure; deletion itself
// already succeeded by the time the sweep runs.
type CascadeResult struct {
	StudentsDeleted    int    `json:"studentsDeleted"`
	ChallansDeleted    int    `json:"challansDeleted"`
	AssignmentsDeleted int    `json:"assignmentsDeleted"`
	AuditEntriesSwept  int    `json:"auditEntriesSwept"`
	AuditSweepError    string `json:"auditSweepError,omitempty"`
}
