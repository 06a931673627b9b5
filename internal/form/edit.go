package form

import (
	"strings"

	"github.com/labdesk/helpdesk/internal/domain"
)

// ImageDiff splits the edited attachment set into persisted references kept or
// removed and new files still to upload.
type ImageDiff struct {
	Kept    []string
	Removed []string
	Added   []domain.ImageUpload
}

// Changed reports whether the attachment set differs from the ticket's.
func (d ImageDiff) Changed() bool {
	return len(d.Removed) > 0 || len(d.Added) > 0
}

// EditForm is a draft over an existing ticket. The ticket itself is never
// modified; Patch describes what a save should send.
type EditForm struct {
	original    domain.Ticket
	title       string
	description string
	priority    domain.TicketPriority
	tags        tagSet
	kept        []string
	removed     []string
	added       []domain.ImageUpload
}

// NewEditForm starts a draft from t.
func NewEditForm(t domain.Ticket) *EditForm {
	f := &EditForm{original: t.Clone()}
	f.Cancel()
	return f
}

// Cancel reverts every field to the ticket's values and drops queued files.
func (f *EditForm) Cancel() {
	f.title = f.original.Title
	f.description = f.original.Description
	f.priority = f.original.Priority
	f.tags = newTagSet(f.original.Tags)
	f.kept = append([]string(nil), f.original.Images...)
	f.removed = nil
	f.added = nil
}

// Original returns the ticket the draft started from.
func (f *EditForm) Original() domain.Ticket { return f.original.Clone() }

func (f *EditForm) SetTitle(title string) { f.title = capTitle(title) }

func (f *EditForm) Title() string { return f.title }

func (f *EditForm) SetDescription(description string) { f.description = description }

func (f *EditForm) Description() string { return f.description }

func (f *EditForm) SetPriority(priority domain.TicketPriority) { f.priority = priority }

func (f *EditForm) Priority() domain.TicketPriority { return f.priority }

func (f *EditForm) ToggleTag(tag domain.Tag) bool { return f.tags.toggle(tag) }

func (f *EditForm) Tags() []domain.Tag { return f.tags.list() }

// RemoveImage marks a persisted image reference for removal.
func (f *EditForm) RemoveImage(ref string) bool {
	for i, kept := range f.kept {
		if kept == ref {
			f.kept = append(f.kept[:i], f.kept[i+1:]...)
			f.removed = append(f.removed, ref)
			return true
		}
	}
	return false
}

// AddImages queues new files. Kept references count towards the cap.
func (f *EditForm) AddImages(files ...domain.ImageUpload) []Rejection {
	accepted, rejected := admitImages(len(f.kept)+len(f.added), files)
	f.added = append(f.added, accepted...)
	return rejected
}

// DropNewImage unqueues a new file by name.
func (f *EditForm) DropNewImage(name string) bool {
	for i, img := range f.added {
		if img.Name == name {
			f.added = append(f.added[:i], f.added[i+1:]...)
			return true
		}
	}
	return false
}

// Diff reports the attachment changes made so far.
func (f *EditForm) Diff() ImageDiff {
	return ImageDiff{
		Kept:    append([]string{}, f.kept...),
		Removed: append([]string(nil), f.removed...),
		Added:   append([]domain.ImageUpload(nil), f.added...),
	}
}

// Validate checks the draft before saving.
func (f *EditForm) Validate() error {
	return check("invalid ticket", ticketInput{
		Title:       strings.TrimSpace(f.title),
		Description: strings.TrimSpace(f.description),
		Priority:    string(f.priority),
		Tags:        tagStrings(f.tags.list()),
		Images:      len(f.kept) + len(f.added),
	})
}

// Patch returns only the fields that differ from the ticket. When attachments
// changed, Images holds the kept references; uploaded files are appended by
// the gateway.
func (f *EditForm) Patch() domain.TicketPatch {
	var patch domain.TicketPatch
	if title := strings.TrimSpace(f.title); title != f.original.Title {
		patch.Title = &title
	}
	if description := strings.TrimSpace(f.description); description != f.original.Description {
		patch.Description = &description
	}
	if f.priority != f.original.Priority {
		priority := f.priority
		patch.Priority = &priority
	}
	if !f.tags.equal(newTagSet(f.original.Tags)) {
		tags := f.tags.list()
		patch.Tags = &tags
	}
	if diff := f.Diff(); diff.Changed() {
		kept := diff.Kept
		patch.Images = &kept
	}
	return patch
}

// Submission validates the draft and returns the patch and files for a save.
func (f *EditForm) Submission() (domain.TicketPatch, []domain.ImageUpload, error) {
	if err := f.Validate(); err != nil {
		return domain.TicketPatch{}, nil, err
	}
	return f.Patch(), f.Diff().Added, nil
}
