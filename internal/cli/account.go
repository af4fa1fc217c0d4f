package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quiz-client/internal/credentials"
	"quiz-client/internal/domain"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and keep the session token",
		Args:  cobra.MaximumNArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			username, err := rt.prompt.askArg(args, 0, "Username")
			if err != nil {
				return err
			}
			password, err := rt.prompt.ask("Password")
			if err != nil {
				return err
			}

			auth := rt.authController()
			defer auth.Close()
			auth.Login(username, password)
			if _, err := await(cmd.Context(), auth.LoginState()); err != nil {
				return err
			}
			name, _ := rt.store.Username(cmd.Context())
			fmt.Fprintf(rt.out, "Logged in as %s\n", name)
			return nil
		}),
	}
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account and sign in",
		Args:  cobra.MaximumNArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			username, err := rt.prompt.askArg(args, 0, "Username")
			if err != nil {
				return err
			}
			password, err := rt.prompt.ask("Password")
			if err != nil {
				return err
			}

			auth := rt.authController()
			defer auth.Close()
			auth.Register(username, password)
			if _, err := await(cmd.Context(), auth.RegisterState()); err != nil {
				return err
			}
			name, _ := rt.store.Username(cmd.Context())
			fmt.Fprintf(rt.out, "Account created. Logged in as %s\n", name)
			return nil
		}),
	}
}

func newForgotPasswordCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password [username]",
		Short: "Ask the server to send a password reset token",
		Args:  cobra.MaximumNArgs(1),
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			username, err := rt.prompt.askArg(args, 0, "Username")
			if err != nil {
				return err
			}
			auth := rt.authController()
			defer auth.Close()
			auth.ForgotPassword(username)
			if _, err := await(cmd.Context(), auth.ForgotPasswordState()); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "If the account exists, a reset token is on its way.")
			return nil
		}),
	}
}

func newResetPasswordCmd(opts *rootOptions) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			var err error
			if token == "" {
				if token, err = rt.prompt.ask("Reset token"); err != nil {
					return err
				}
			}
			password, err := rt.prompt.ask("New password")
			if err != nil {
				return err
			}
			auth := rt.authController()
			defer auth.Close()
			auth.ResetPassword(token, password)
			if _, err := await(cmd.Context(), auth.ResetPasswordState()); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "Password reset. You can log in now.")
			return nil
		}),
	}
	cmd.Flags().StringVar(&token, "token", "", "reset token received by email")
	return cmd
}

func newChangePasswordCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change the password of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			if !rt.store.IsLoggedIn(cmd.Context()) {
				return errNotLoggedIn
			}
			current, err := rt.prompt.ask("Current password")
			if err != nil {
				return err
			}
			next, err := rt.prompt.ask("New password")
			if err != nil {
				return err
			}
			auth := rt.authController()
			defer auth.Close()
			auth.ChangePassword(current, next)
			if _, err := await(cmd.Context(), auth.ChangePasswordState()); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "Password changed.")
			return nil
		}),
	}
}

func newDeleteAccountCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the signed-in account and its history on the server",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			if !rt.store.IsLoggedIn(cmd.Context()) {
				return errNotLoggedIn
			}
			if !yes && !rt.prompt.confirm("Delete your account permanently?") {
				fmt.Fprintln(rt.out, "Aborted.")
				return nil
			}
			auth := rt.authController()
			defer auth.Close()
			auth.DeleteAccount()
			if _, err := await(cmd.Context(), auth.DeleteAccountState()); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "Account deleted.")
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			auth := rt.authController()
			defer auth.Close()
			if err := auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "Logged out.")
			return nil
		}),
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(cmd *cobra.Command, args []string, rt *runtime) error {
			creds, err := rt.store.Get(cmd.Context())
			if errors.Is(err, domain.ErrNoCredentials) {
				fmt.Fprintln(rt.out, "Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}
			username := creds.Username
			if username == "" {
				username = "(unknown)"
			}
			fmt.Fprintf(rt.out, "Username: %s\nUser ID:  %d\n", username, creds.UserID)
			if exp, ok := credentials.TokenExpiry(creds.Token); ok {
				state := "valid"
				if time.Now().After(exp) {
					state = "expired"
				}
				fmt.Fprintf(rt.out, "Token:    %s until %s\n", state, exp.Local().Format(time.DateTime))
			}
			return nil
		}),
	}
}
