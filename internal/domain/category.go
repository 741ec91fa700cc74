package domain

import "time"

// FieldType enumerates the dynamic form field kinds a category may declare.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTel      FieldType = "tel"
	FieldTypeDate     FieldType = "date"
	FieldTypeDatetime FieldType = "datetime"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeFile     FieldType = "file"
)

// FieldOption is a selectable choice for select/radio/checkbox fields.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldDef declares one dynamic form field on a sub-issue.
type FieldDef struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Type        FieldType     `json:"type"`
	Required    bool          `json:"required,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
}

// SubIssue is one entry of a category's sub-issue map.
type SubIssue struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Fields      []FieldDef `json:"fields,omitempty"`
}

// Category is a taxonomy entry classifying a ticket's subject matter. It is
// soft-deletable: once referenced by a ticket it is never hard-deleted, only
// flagged inactive.
type Category struct {
	ID          string
	CategoryID  string
	Label       string
	Description string
	SubIssues   map[string]SubIssue
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
