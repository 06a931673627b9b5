// Package detail presents a single ticket to a viewer: what they may do with it
// and the guarded actions behind those permissions.
package detail

import (
	"context"
	"errors"

	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/form"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// ErrDeleteDeclined is returned when the confirmation step is refused.
var ErrDeleteDeclined = errors.New("delete not confirmed")

// Actions are the mutations the presenter forwards, normally a *store.Store.
type Actions interface {
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	DeleteTicket(ctx context.Context, id string) error
	EditTicket(ctx context.Context, id string, patch domain.TicketPatch, files []domain.ImageUpload) (domain.TicketPatch, error)
}

// Confirm asks the user to approve deleting t.
type Confirm func(ctx context.Context, t domain.Ticket) (bool, error)

// StatusAction is one entry of the admin status menu.
type StatusAction struct {
	Status  domain.TicketStatus
	Current bool
}

// Presenter binds one ticket to one viewer.
type Presenter struct {
	ticket  domain.Ticket
	viewer  domain.Viewer
	perms   domain.Permissions
	actions Actions
}

// New evaluates the viewer's permissions on t.
func New(t domain.Ticket, viewer domain.Viewer, actions Actions) *Presenter {
	return &Presenter{
		ticket:  t.Clone(),
		viewer:  viewer,
		perms:   domain.PermissionsFor(viewer, t),
		actions: actions,
	}
}

func (p *Presenter) Ticket() domain.Ticket { return p.ticket.Clone() }

func (p *Presenter) Permissions() domain.Permissions { return p.perms }

// StatusActions lists every status with the current one marked. Non-admins get
// none.
func (p *Presenter) StatusActions() []StatusAction {
	if !p.perms.CanChangeStatus {
		return nil
	}
	out := make([]StatusAction, 0, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		out = append(out, StatusAction{Status: status, Current: status == p.ticket.Status})
	}
	return out
}

// ChangeStatus moves the ticket to status. Selecting the current status is a
// no-op.
func (p *Presenter) ChangeStatus(ctx context.Context, status domain.TicketStatus) error {
	if !p.perms.CanChangeStatus {
		return apperrors.NewForbidden("only administrators can change ticket status")
	}
	if !status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
	}
	if status == p.ticket.Status {
		return nil
	}
	if err := p.actions.UpdateStatus(ctx, p.ticket.ID, status); err != nil {
		return err
	}
	p.ticket.Status = status
	return nil
}

// Delete removes the ticket once confirm approves. A refusal returns
// ErrDeleteDeclined without contacting the backend.
func (p *Presenter) Delete(ctx context.Context, confirm Confirm) error {
	if !p.perms.CanDelete {
		return apperrors.NewForbidden("only the ticket owner or an administrator can delete it")
	}
	if confirm == nil {
		return ErrDeleteDeclined
	}
	ok, err := confirm(ctx, p.ticket.Clone())
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeleteDeclined
	}
	return p.actions.DeleteTicket(ctx, p.ticket.ID)
}

// EditForm opens an edit draft when the viewer may edit.
func (p *Presenter) EditForm() (*form.EditForm, error) {
	if !p.perms.CanEdit {
		return nil, apperrors.NewForbidden("only the ticket owner or an administrator can edit it")
	}
	return form.NewEditForm(p.ticket), nil
}

// Save submits an edit draft. An unchanged draft sends nothing.
func (p *Presenter) Save(ctx context.Context, draft *form.EditForm) error {
	if !p.perms.CanEdit {
		return apperrors.NewForbidden("only the ticket owner or an administrator can edit it")
	}
	patch, files, err := draft.Submission()
	if err != nil {
		return err
	}
	if patch.IsEmpty() && len(files) == 0 {
		return nil
	}
	sent, err := p.actions.EditTicket(ctx, p.ticket.ID, patch, files)
	if err != nil {
		return err
	}
	p.ticket = sent.Apply(p.ticket)
	return nil
}
