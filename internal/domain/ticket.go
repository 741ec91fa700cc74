package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The set is flat: no
// transition graph restricts which status may follow which, and closed
// tickets may be reopened.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// ValidTicketStatus reports membership in the closed status set.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// ValidTicketPriority reports membership in the closed priority set.
func ValidTicketPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketResponse is an immutable entry in a ticket's response log. Appending
// one also moves the ticket to the status it carries.
type TicketResponse struct {
	Message         string       `json:"message"`
	Status          TicketStatus `json:"status"`
	TechnicianName  string       `json:"technicianName,omitempty"`
	TechnicianEmail string       `json:"technicianEmail,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}

// Attachment records upload metadata supplied by the upload collaborator.
// The core appends these verbatim and never inspects file contents.
type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Ticket is the aggregate for support requests. Client fields are a snapshot
// of the creating actor's profile taken at creation time; they are not
// re-synced when the profile later changes.
type Ticket struct {
	ID                      string
	TicketID                string
	Title                   string
	Description             string
	Status                  TicketStatus
	Priority                TicketPriority
	Category                string
	SubCategory             string
	ClientName              string
	ClientEmail             string
	ClientPhone             string
	Department              string
	AssignedTo              *string
	AssignedTechnicianName  string
	AssignedTechnicianEmail string
	Responses               []TicketResponse
	Attachments             []Attachment
	DynamicFields           map[string]FieldValue
	LastResponseBy          string
	LastResponseAt          *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
