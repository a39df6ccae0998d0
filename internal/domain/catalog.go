package domain

// Priority is immutable reference data ranking ticket urgency.
// Higher Level means more urgent.
type Priority struct {
	ID    string
	Name  string
	Level int
	Color string
}

// Status is immutable reference data for ticket workflow stages.
type Status struct {
	ID    string
	Name  string
	Color string
}

// Well-known catalog names. StatusClosed is the only status treated as
// terminal by listing filters; everything else counts as open.
const (
	StatusNew        = "New"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

// StatusRank orders statuses for the triage listing: New first, then
// In Progress, then Resolved, then everything else (including Closed).
func StatusRank(name string) int {
	switch name {
	case StatusNew:
		return 1
	case StatusInProgress:
		return 2
	case StatusResolved:
		return 3
	default:
		return 4
	}
}
