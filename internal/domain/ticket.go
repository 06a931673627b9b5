package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusProcessing TicketStatus = "Processing"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusProcessing, TicketStatusClosed}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusProcessing, TicketStatusClosed:
		return true
	}
	return false
}

// ParseTicketStatus matches a status case-insensitively.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	for _, s := range TicketStatuses {
		if strings.EqualFold(string(s), strings.TrimSpace(raw)) {
			return s, true
		}
	}
	return "", false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// TicketPriorities lists every priority from most to least urgent.
var TicketPriorities = []TicketPriority{TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow}

// Valid reports whether p is one of the known priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities for sorting: High 0, Medium 1, Low 2.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityHigh:
		return 0
	case TicketPriorityMedium:
		return 1
	case TicketPriorityLow:
		return 2
	}
	return 3
}

// ParseTicketPriority matches a priority case-insensitively.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	for _, p := range TicketPriorities {
		if strings.EqualFold(string(p), strings.TrimSpace(raw)) {
			return p, true
		}
	}
	return "", false
}

// Tag is a ticket category identifier.
type Tag string

const (
	TagHardware Tag = "hardware"
	TagSoftware Tag = "software"
	TagNetwork  Tag = "network"
	TagPrinter  Tag = "printer"
	TagAccount  Tag = "account"
	TagOther    Tag = "other"
)

// Tags is the fixed tag enumeration.
var Tags = []Tag{TagHardware, TagSoftware, TagNetwork, TagPrinter, TagAccount, TagOther}

// Valid reports whether t belongs to the enumeration.
func (t Tag) Valid() bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}

const (
	// MaxTitleLength caps ticket titles, in characters.
	MaxTitleLength = 100
	// MaxImages caps attachments per ticket on the client.
	MaxImages = 5
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string         `json:"ticket_id"`
	UserID      string         `json:"user_id,omitempty"`
	UserEmail   string         `json:"user_email,omitempty"`
	UserName    string         `json:"user_name,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	Tags        []Tag          `json:"tags,omitempty"`
	Images      []string       `json:"images,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

// timestamp layouts seen from backends, most specific first.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CreatedTime parses CreatedAt. Unparsable values yield the zero time.
func (t Ticket) CreatedTime() time.Time {
	for _, layout := range createdAtLayouts {
		if parsed, err := time.Parse(layout, t.CreatedAt); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// CreatorName is the best available display name for the creator.
func (t Ticket) CreatorName() string {
	switch {
	case t.UserName != "":
		return t.UserName
	case t.UserID != "":
		return t.UserID
	}
	return t.UserEmail
}

// HasTag reports whether the ticket carries tag.
func (t Ticket) HasTag(tag Tag) bool {
	for _, own := range t.Tags {
		if own == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with t.
func (t Ticket) Clone() Ticket {
	out := t
	if t.Tags != nil {
		out.Tags = append([]Tag(nil), t.Tags...)
	}
	if t.Images != nil {
		out.Images = append([]string(nil), t.Images...)
	}
	return out
}

// Normalize fills backend defaults and drops unknown tags. It reports false when
// status or priority carry a value outside their enumeration.
func (t Ticket) Normalize() (Ticket, bool) {
	out := t.Clone()
	if out.Status == "" {
		out.Status = TicketStatusOpen
	}
	if out.Priority == "" {
		out.Priority = TicketPriorityLow
	}
	if !out.Status.Valid() || !out.Priority.Valid() {
		return out, false
	}
	if len(out.Tags) > 0 {
		kept := out.Tags[:0]
		for _, tag := range out.Tags {
			if tag.Valid() {
				kept = append(kept, tag)
			}
		}
		out.Tags = kept
	}
	return out, true
}

// NewTicket carries the fields submitted when creating a ticket.
type NewTicket struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    TicketPriority `json:"priority"`
	UserEmail   string         `json:"user_email"`
	UserName    string         `json:"user_name,omitempty"`
	Tags        []Tag          `json:"tags,omitempty"`
	Images      []string       `json:"images,omitempty"`
}

// TicketPatch is a partial update. Nil fields are left untouched.
type TicketPatch struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Priority    *TicketPriority `json:"priority,omitempty"`
	Status      *TicketStatus   `json:"status,omitempty"`
	Tags        *[]Tag          `json:"tags,omitempty"`
	Images      *[]string       `json:"images,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TicketPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.Tags == nil && p.Images == nil
}

// Apply overlays the patch on t.
func (p TicketPatch) Apply(t Ticket) Ticket {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Tags != nil {
		out.Tags = append([]Tag{}, (*p.Tags)...)
	}
	if p.Images != nil {
		out.Images = append([]string{}, (*p.Images)...)
	}
	return out
}

// StatusPatch builds a patch restricted to the status field.
func StatusPatch(status TicketStatus) TicketPatch {
	return TicketPatch{Status: &status}
}

// ImageUpload is a local file queued for upload.
type ImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
}
