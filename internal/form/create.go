package form

import (
	"strings"

	"github.com/labdesk/helpdesk/internal/domain"
)

// CreateForm is the draft for a new ticket.
type CreateForm struct {
	title       string
	description string
	priority    domain.TicketPriority
	tags        tagSet
	images      []domain.ImageUpload
}

// NewCreateForm returns an empty draft with priority Medium.
func NewCreateForm() *CreateForm {
	return &CreateForm{priority: domain.TicketPriorityMedium, tags: tagSet{}}
}

// SetTitle stores the title, capped at domain.MaxTitleLength characters.
func (f *CreateForm) SetTitle(title string) { f.title = capTitle(title) }

func (f *CreateForm) Title() string { return f.title }

func (f *CreateForm) SetDescription(description string) { f.description = description }

func (f *CreateForm) Description() string { return f.description }

func (f *CreateForm) SetPriority(priority domain.TicketPriority) { f.priority = priority }

func (f *CreateForm) Priority() domain.TicketPriority { return f.priority }

// ToggleTag adds tag when absent and removes it when present. It reports
// whether the tag is selected afterwards.
func (f *CreateForm) ToggleTag(tag domain.Tag) bool { return f.tags.toggle(tag) }

// Tags lists the selected tags in enumeration order.
func (f *CreateForm) Tags() []domain.Tag { return f.tags.list() }

// AddImages queues image files up to the cap and returns the ones it refused.
func (f *CreateForm) AddImages(files ...domain.ImageUpload) []Rejection {
	accepted, rejected := admitImages(len(f.images), files)
	f.images = append(f.images, accepted...)
	return rejected
}

// RemoveImage drops a queued file by name.
func (f *CreateForm) RemoveImage(name string) bool {
	for i, img := range f.images {
		if img.Name == name {
			f.images = append(f.images[:i], f.images[i+1:]...)
			return true
		}
	}
	return false
}

// Images returns the queued files.
func (f *CreateForm) Images() []domain.ImageUpload {
	return append([]domain.ImageUpload(nil), f.images...)
}

// Validate checks the draft before submission.
func (f *CreateForm) Validate() error {
	return check("invalid ticket", ticketInput{
		Title:       strings.TrimSpace(f.title),
		Description: strings.TrimSpace(f.description),
		Priority:    string(f.priority),
		Tags:        tagStrings(f.tags.list()),
		Images:      len(f.images),
	})
}

// Submission validates the draft and builds the gateway input for the
// signed-in user along with the files to upload.
func (f *CreateForm) Submission(session domain.Session) (domain.NewTicket, []domain.ImageUpload, error) {
	if err := f.Validate(); err != nil {
		return domain.NewTicket{}, nil, err
	}
	ticket := domain.NewTicket{
		Title:       strings.TrimSpace(f.title),
		Description: strings.TrimSpace(f.description),
		Priority:    f.priority,
		UserEmail:   session.Email,
		UserName:    session.Name,
		Tags:        f.tags.list(),
	}
	return ticket, f.Images(), nil
}

// Reset clears the draft after a successful submit.
func (f *CreateForm) Reset() {
	*f = *NewCreateForm()
}

func capTitle(title string) string {
	runes := []rune(title)
	if len(runes) > domain.MaxTitleLength {
		return string(runes[:domain.MaxTitleLength])
	}
	return title
}

type tagSet map[domain.Tag]bool

func newTagSet(tags []domain.Tag) tagSet {
	set := make(tagSet, len(tags))
	for _, tag := range tags {
		set[tag] = true
	}
	return set
}

func (s tagSet) toggle(tag domain.Tag) bool {
	if s[tag] {
		delete(s, tag)
		return false
	}
	s[tag] = true
	return true
}

// list returns known tags in enumeration order, then any unknown ones.
func (s tagSet) list() []domain.Tag {
	out := make([]domain.Tag, 0, len(s))
	for _, tag := range domain.Tags {
		if s[tag] {
			out = append(out, tag)
		}
	}
	for tag := range s {
		if !tag.Valid() {
			out = append(out, tag)
		}
	}
	return out
}

func (s tagSet) equal(other tagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for tag := range s {
		if !other[tag] {
			return false
		}
	}
	return true
}

func tagStrings(tags []domain.Tag) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = string(tag)
	}
	return out
}
