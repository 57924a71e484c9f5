// Package domain holds the pure lead outreach rules: status lifecycle and
// the fixed touch-point schedule. No I/O, no framework imports.
package domain

// Status is the outreach lifecycle state of a lead.
type Status string

const (
	// StatusNew is a freshly admitted lead that has not been contacted yet.
	StatusNew Status = "new"
	// StatusContacted means at least one touch point has been delivered.
	StatusContacted Status = "contacted"
	// StatusChatActive is terminal: the customer responded and outreach stops.
	StatusChatActive Status = "chat_active"
	// StatusLost is terminal: the sequence exhausted without a response.
	StatusLost Status = "lost"
)

// IsValid reports whether s is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusChatActive, StatusLost:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether a lead in this status is excluded from outreach.
func (s Status) IsTerminal() bool {
	return s == StatusChatActive || s == StatusLost
}

// FollowUpStatuses are the statuses eligible for touch-point processing.
// Terminal statuses never re-enter outreach.
var FollowUpStatuses = []Status{StatusNew, StatusContacted}
