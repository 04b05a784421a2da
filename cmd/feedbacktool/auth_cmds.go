package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/soaringjerry/feedbacktool/internal/models"
	"github.com/soaringjerry/feedbacktool/internal/services"
	"github.com/soaringjerry/feedbacktool/internal/utils"
)

// passwordFlag reads -password, falling back to FEEDBACKTOOL_PASSWORD so it can stay out of
// shell history.
func passwordFlag(fs *flag.FlagSet) *string {
	return fs.String("password", utils.SafeEnv("FEEDBACKTOOL_PASSWORD", ""), "password (or FEEDBACKTOOL_PASSWORD)")
}

func printUser(w io.Writer, u *models.User) {
	if u == nil {
		return
	}
	fmt.Fprintf(w, "%s <%s> role=%s\n", u.Name, u.Email, u.Role)
}

func runLogin(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "account email")
	password := passwordFlag(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	res, err := a.Session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	printUser(a.Out, res.User)
	return nil
}

func runRegister(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := passwordFlag(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	res, err := a.Session.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	printUser(a.Out, res.User)
	return nil
}

func runLogout(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	a.Session.Logout(ctx)
	fmt.Fprintln(a.Out, utils.T(a.Locale, "auth.logged_out"))
	return nil
}

func runWhoami(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	if err := parse(fs, args); err != nil {
		return err
	}
	u, err := a.Session.RefreshUser(ctx)
	if err != nil {
		return err
	}
	printUser(a.Out, u)
	return nil
}

func runForgotPassword(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	email := fs.String("email", "", "account email")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.Session.ForgotPassword(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "If the address is registered, a reset link is on its way.")
	return nil
}

func runResetPassword(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	token := fs.String("token", "", "reset token from the email")
	password := passwordFlag(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	valid, err := a.Session.ValidateResetToken(ctx, *token)
	if err != nil {
		return err
	}
	if !valid {
		return services.NewInvalidError("Invalid or expired reset token")
	}
	if err := a.Session.ResetPassword(ctx, *token, *password); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "Password updated. You can now log in.")
	return nil
}
