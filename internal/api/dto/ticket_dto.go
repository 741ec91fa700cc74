package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string                       `json:"title"`
	Description   string                       `json:"description"`
	Priority      domain.TicketPriority        `json:"priority"`
	Category      string                       `json:"category"`
	SubCategory   string                       `json:"subCategory"`
	DynamicFields map[string]domain.FieldValue `json:"dynamicFields"`
	Attachments   []domain.Attachment          `json:"attachments"`
}

// UpdateTicketRequest payload; nil fields are left untouched.
type UpdateTicketRequest struct {
	Title         *string                      `json:"title"`
	Description   *string                      `json:"description"`
	Status        *domain.TicketStatus         `json:"status"`
	Priority      *domain.TicketPriority       `json:"priority"`
	Category      *string                      `json:"category"`
	SubCategory   *string                      `json:"subCategory"`
	DynamicFields map[string]domain.FieldValue `json:"dynamicFields"`
}

// AddResponseRequest payload.
type AddResponseRequest struct {
	Message string              `json:"message"`
	Status  domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	TechnicianID    string `json:"technicianId"`
	TechnicianName  string `json:"technicianName"`
	TechnicianEmail string `json:"technicianEmail"`
}

// TicketResponse is the full wire representation of a ticket.
type TicketResponse struct {
	TicketID                string                       `json:"ticketId"`
	Title                   string                       `json:"title"`
	Description             string                       `json:"description"`
	Status                  domain.TicketStatus          `json:"status"`
	Priority                domain.TicketPriority        `json:"priority"`
	Category                string                       `json:"category"`
	SubCategory             string                       `json:"subCategory,omitempty"`
	ClientName              string                       `json:"clientName"`
	ClientEmail             string                       `json:"clientEmail"`
	ClientPhone             string                       `json:"clientPhone,omitempty"`
	Department              string                       `json:"department,omitempty"`
	AssignedTo              *string                      `json:"assignedTo,omitempty"`
	AssignedTechnicianName  string                       `json:"assignedTechnicianName,omitempty"`
	AssignedTechnicianEmail string                       `json:"assignedTechnicianEmail,omitempty"`
	Responses               []domain.TicketResponse      `json:"responses"`
	Attachments             []domain.Attachment          `json:"attachments"`
	DynamicFields           map[string]domain.FieldValue `json:"dynamicFields,omitempty"`
	LastResponseBy          string                       `json:"lastResponseBy,omitempty"`
	LastResponseAt          *time.Time                   `json:"lastResponseAt,omitempty"`
	CreatedAt               time.Time                    `json:"createdAt"`
	UpdatedAt               time.Time                    `json:"updatedAt"`
}

// GroupCountResponse is one row of a grouped statistic.
type GroupCountResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// StatsResponse aggregates the three stat groupings.
type StatsResponse struct {
	StatusStats   []GroupCountResponse `json:"statusStats"`
	PriorityStats []GroupCountResponse `json:"priorityStats"`
	CategoryStats []GroupCountResponse `json:"categoryStats"`
}
