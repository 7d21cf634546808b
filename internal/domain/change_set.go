package domain

// FieldChange records the before and after value of one field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeSet describes what an administrator update actually changed. Only
// populated fields are reported to stakeholders.
type ChangeSet struct {
	State       *FieldChange `json:"state,omitempty"`
	Priority    *FieldChange `json:"priority,omitempty"`
	Assignee    *FieldChange `json:"assignee,omitempty"`
	Comment     string       `json:"comment,omitempty"`
	Attachments []string     `json:"attachments,omitempty"`
}

// IsEmpty reports whether nothing changed.
func (c ChangeSet) IsEmpty() bool {
	return c.State == nil && c.Priority == nil && c.Assignee == nil && c.Comment == "" && len(c.Attachments) == 0
}

// Recipient is a notification target.
type Recipient struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}
