package dto

// DashboardResponse aggregates the landing metrics. VacantPlaces is the
// aggregate capacity minus registered students, floored at zero so
// overflowed hostels never report negative vacancy.
type DashboardResponse struct {
	TotalHostels    int `json:"totalHostels"`
	TotalStudents   int `json:"totalStudents"`
	TotalCapacity   int `json:"totalCapacity"`
	VacantPlaces    int `json:"vacantPlaces"`
	ActiveUsers     int `json:"activeUsers"`
	OverdueStudents int `json:"overdueStudents"`
	PendingChallans int `json:"pendingChallans"`
}
