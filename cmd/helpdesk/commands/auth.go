package commands

import (
	"github.com/spf13/cobra"

	"github.com/labdesk/helpdesk/internal/app"
	"github.com/labdesk/helpdesk/internal/form"
	"github.com/labdesk/helpdesk/internal/session"
)

func loginCmd(a *app.App, tio *IO) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var err error
			if email == "" {
				if email, err = tio.Prompt("Email: "); err != nil {
					return err
				}
			}
			password, err := tio.secret("Password: ")
			if err != nil {
				return err
			}

			view, err := a.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if view == session.ViewNewPassword {
				tio.printf("A new password is required for this account.\n")
				newPassword, err := readNewPassword(tio)
				if err != nil {
					return err
				}
				if _, err := a.CompleteNewPassword(ctx, newPassword); err != nil {
					return err
				}
			}
			return printWhoami(a, tio)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	return cmd
}

func logoutCmd(a *app.App, tio *IO) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.Logout(cmd.Context()); err != nil {
				return err
			}
			tio.printf("Signed out.\n")
			return nil
		},
	}
}

func registerCmd(a *app.App, tio *IO) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = tio.Prompt("Email: "); err != nil {
					return err
				}
			}
			if name == "" {
				if name, err = tio.Prompt("Full name: "); err != nil {
					return err
				}
			}
			password, err := readNewPassword(tio)
			if err != nil {
				return err
			}
			if err := a.Session.Register(cmd.Context(), email, password, name); err != nil {
				return err
			}
			tio.printf("Registration successful. Check %s for a confirmation code, then run `helpdesk confirm --email %s`.\n",
				a.Session.PendingEmail(), a.Session.PendingEmail())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func confirmCmd(a *app.App, tio *IO) *cobra.Command {
	var email, code string
	var resend bool
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm a new account with the e-mailed code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = tio.Prompt("Email: "); err != nil {
					return err
				}
			}
			a.Session.StartConfirmation(email)

			if resend {
				if err := a.Session.ResendCode(cmd.Context()); err != nil {
					return err
				}
				tio.printf("A new code was sent to %s.\n", email)
				return nil
			}
			if code == "" {
				if code, err = tio.Prompt("Confirmation code: "); err != nil {
					return err
				}
			}
			if err := a.Session.ConfirmSignUp(cmd.Context(), code); err != nil {
				return err
			}
			tio.printf("Account confirmed. You can now run `helpdesk login`.\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&code, "code", "", "confirmation code")
	cmd.Flags().BoolVar(&resend, "resend", false, "send a new confirmation code")
	return cmd
}

func whoamiCmd(a *app.App, tio *IO) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.Session.CheckSession(cmd.Context()); err != nil {
				return ErrNotSignedIn
			}
			return printWhoami(a, tio)
		},
	}
}

func printWhoami(a *app.App, tio *IO) error {
	sess, ok := a.Session.Session()
	if !ok {
		return ErrNotSignedIn
	}
	role := "user"
	if sess.IsAdmin {
		role = "admin"
	}
	tio.printf("Signed in as %s <%s> (%s)\n", titleStyle.Render(sess.Name), sess.Email, role)
	return nil
}

func readNewPassword(tio *IO) (string, error) {
	password, err := tio.secret("New password: ")
	if err != nil {
		return "", err
	}
	confirm, err := tio.secret("Confirm password: ")
	if err != nil {
		return "", err
	}
	if err := form.ValidatePassword(password, confirm); err != nil {
		return "", err
	}
	return password, nil
}
