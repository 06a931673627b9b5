package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/labdesk/helpdesk/internal/app"
	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/form"
	"github.com/labdesk/helpdesk/internal/store"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

func listCmd(a *app.App, tio *IO) *cobra.Command {
	var status, tag, search, sortBy, view string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets with filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			actions, err := listActions(status, tag, search, sortBy, view)
			if err != nil {
				return err
			}
			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			state := a.Store.State()
			for _, action := range actions {
				state = a.Store.Dispatch(action)
			}

			tio.printf("%s\n\n%s\n", renderStats(a.Store.Stats()), renderTickets(store.Visible(state), state.ViewMode))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", string(store.StatusAll), "All, Open, Processing or Closed")
	cmd.Flags().StringVar(&tag, "tag", string(store.TagAll), "tag to filter on, or all")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text search")
	cmd.Flags().StringVar(&sortBy, "sort", string(store.SortNewest), "newest, oldest, priority or title")
	cmd.Flags().StringVar(&view, "view", string(store.ViewGrid), "grid or list")
	return cmd
}

func listActions(status, tag, search, sortBy, view string) ([]store.Action, error) {
	details := map[string]any{}
	var actions []store.Action

	switch {
	case strings.EqualFold(status, string(store.StatusAll)):
		actions = append(actions, store.SetFilterStatus{Status: store.StatusAll})
	default:
		if parsed, ok := domain.ParseTicketStatus(status); ok {
			actions = append(actions, store.SetFilterStatus{Status: store.StatusFilter(parsed)})
		} else {
			details["status"] = "must be All, Open, Processing or Closed"
		}
	}

	tag = strings.ToLower(strings.TrimSpace(tag))
	switch {
	case tag == string(store.TagAll):
		actions = append(actions, store.SetFilterTag{Tag: store.TagAll})
	case domain.Tag(tag).Valid():
		actions = append(actions, store.SetFilterTag{Tag: store.TagFilter(tag)})
	default:
		details["tag"] = "unknown tag"
	}

	if order := store.SortOrder(sortBy); order.Valid() {
		actions = append(actions, store.SetSort{Order: order})
	} else {
		details["sort"] = "must be newest, oldest, priority or title"
	}

	switch mode := store.ViewMode(view); mode {
	case store.ViewGrid, store.ViewList:
		actions = append(actions, store.SetViewMode{Mode: mode})
	default:
		details["view"] = "must be grid or list"
	}

	actions = append(actions, store.SetSearch{Query: search})
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid list options", details)
	}
	return actions, nil
}

func showCmd(a *app.App, tio *IO) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			p, err := a.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tio.printf("%s", renderDetail(p))
			return nil
		},
	}
}

func createCmd(a *app.App, tio *IO) *cobra.Command {
	var title, description, priority string
	var tags, images []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new ticket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			draft := form.NewCreateForm()
			draft.SetTitle(title)
			draft.SetDescription(description)
			if p, ok := domain.ParseTicketPriority(priority); ok {
				draft.SetPriority(p)
			} else {
				draft.SetPriority(domain.TicketPriority(priority))
			}
			for _, tag := range tags {
				draft.ToggleTag(domain.Tag(strings.ToLower(tag)))
			}
			if err := attachImages(tio, images, draft.AddImages); err != nil {
				return err
			}

			sess, _ := a.Session.Session()
			ticket, files, err := draft.Submission(sess)
			if err != nil {
				return err
			}
			id, err := a.Store.CreateTicket(cmd.Context(), ticket, files)
			if err != nil {
				return err
			}
			tio.printf("Created ticket %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "short summary (max 100 characters)")
	cmd.Flags().StringVar(&description, "description", "", "what is wrong")
	cmd.Flags().StringVar(&priority, "priority", string(domain.TicketPriorityMedium), "Low, Medium or High")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to add, repeatable")
	cmd.Flags().StringSliceVar(&images, "image", nil, "image file to attach, repeatable")
	return cmd
}

func editCmd(a *app.App, tio *IO) *cobra.Command {
	var title, description, priority string
	var toggleTags, removeImages, images []string
	cmd := &cobra.Command{
		Use:   "edit <ticket-id>",
		Short: "Edit a ticket you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			p, err := a.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			draft, err := p.EditForm()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				draft.SetTitle(title)
			}
			if flags.Changed("description") {
				draft.SetDescription(description)
			}
			if flags.Changed("priority") {
				if parsed, ok := domain.ParseTicketPriority(priority); ok {
					draft.SetPriority(parsed)
				} else {
					draft.SetPriority(domain.TicketPriority(priority))
				}
			}
			for _, tag := range toggleTags {
				draft.ToggleTag(domain.Tag(strings.ToLower(tag)))
			}
			for _, ref := range removeImages {
				if !draft.RemoveImage(ref) {
					return apperrors.NewValidationError(fmt.Sprintf("ticket has no image %s", ref), nil)
				}
			}
			if err := attachImages(tio, images, draft.AddImages); err != nil {
				return err
			}

			if err := p.Save(cmd.Context(), draft); err != nil {
				return err
			}
			tio.printf("Saved ticket %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&priority, "priority", "", "Low, Medium or High")
	cmd.Flags().StringSliceVar(&toggleTags, "toggle-tag", nil, "add or remove a tag, repeatable")
	cmd.Flags().StringSliceVar(&removeImages, "remove-image", nil, "image reference to remove, repeatable")
	cmd.Flags().StringSliceVar(&images, "image", nil, "image file to attach, repeatable")
	return cmd
}

func statusCmd(a *app.App, tio *IO) *cobra.Command {
	return &cobra.Command{
		Use:   "status <ticket-id> <Open|Processing|Closed>",
		Short: "Change a ticket's status (administrators)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := domain.ParseTicketStatus(args[1])
			if !ok {
				return apperrors.NewValidationError("unknown status "+args[1], map[string]any{"status": "must be Open, Processing or Closed"})
			}
			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			p, err := a.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := p.ChangeStatus(cmd.Context(), status); err != nil {
				return err
			}
			tio.printf("Ticket %s is now %s\n", args[0], statusBadge(status))
			return nil
		},
	}
}

func deleteCmd(a *app.App, tio *IO) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <ticket-id>",
		Short: "Delete a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(cmd.Context(), a); err != nil {
				return err
			}
			p, err := a.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			confirm := func(_ context.Context, t domain.Ticket) (bool, error) {
				if yes {
					return true, nil
				}
				answer, err := tio.Prompt(fmt.Sprintf("Delete ticket %q? This cannot be undone. [y/N] ", t.Title))
				if err != nil {
					return false, err
				}
				answer = strings.ToLower(answer)
				return answer == "y" || answer == "yes", nil
			}
			if err := p.Delete(cmd.Context(), confirm); err != nil {
				return err
			}
			tio.printf("Deleted ticket %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func attachImages(tio *IO, paths []string, add func(...domain.ImageUpload) []form.Rejection) error {
	var files []domain.ImageUpload
	for _, path := range paths {
		img, err := form.LoadImage(path)
		if err != nil {
			return err
		}
		files = append(files, img)
	}
	for _, rejected := range add(files...) {
		tio.printf("skipped %s\n", rejected.Error())
	}
	return nil
}
