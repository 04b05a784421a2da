package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/soaringjerry/feedbacktool/internal/models"
	"github.com/soaringjerry/feedbacktool/internal/services"
	"github.com/soaringjerry/feedbacktool/internal/utils"
)

type command struct {
	name  string
	usage string
	// session restores and verifies the stored session before running.
	session bool
	// guarded commands require a verified session; role narrows it further.
	guarded bool
	role    models.Role
	run     func(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error
}

var commands = []command{
	{name: "login", usage: "login -email <email> -password <password>", run: runLogin},
	{name: "register", usage: "register -name <name> -email <email> -password <password>", run: runRegister},
	{name: "logout", usage: "logout", session: true, run: runLogout},
	{name: "whoami", usage: "whoami", session: true, guarded: true, run: runWhoami},
	{name: "forgot-password", usage: "forgot-password -email <email>", run: runForgotPassword},
	{name: "reset-password", usage: "reset-password -token <token> -password <password>", run: runResetPassword},
	{name: "surveys", usage: "surveys [-status ACTIVE|INACTIVE|DRAFT]", session: true, guarded: true, role: models.RoleAdmin, run: runSurveys},
	{name: "template", usage: "template [-list] -name <template> [-out file.yaml]", run: runTemplate},
	{name: "validate", usage: "validate -file draft.yaml", run: runValidate},
	{name: "edit", usage: "edit -survey <id> [-out file.yaml]", session: true, guarded: true, role: models.RoleAdmin, run: runEdit},
	{name: "create", usage: "create (-file draft.yaml | -resume <key>) [-publish]", session: true, guarded: true, role: models.RoleAdmin, run: runCreate},
	{name: "drafts", usage: "drafts [-discard <key>]", run: runDrafts},
	{name: "respond", usage: "respond -survey <id> [-answers answers.yaml] [-anonymous]", session: true, run: runRespond},
	{name: "analytics", usage: "analytics -survey <id>", session: true, guarded: true, role: models.RoleAdmin, run: runAnalytics},
	{name: "export", usage: "export -survey <id> [-kind responses|analytics|summary] [-format csv|xlsx] [-out dir]", session: true, guarded: true, role: models.RoleAdmin, run: runExport},
	{name: "improve", usage: "improve -text <text> [-kind title|description|question|option|general] [-type RATING] [-n 3]", run: runImprove},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: feedbacktool [-config file] [-v] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %s\n", c.usage)
	}
}

// execute restores the session when the command needs one, applies the guard and runs it.
func (a *App) execute(ctx context.Context, c command, args []string) error {
	if c.session || c.guarded {
		if err := a.Session.Initialize(ctx); err != nil {
			return err
		}
	}
	if c.guarded {
		err := services.Require(a.Session, c.role)
		switch {
		case services.IsCode(err, services.ErrorUnauthorized):
			return services.NewUnauthorizedError(utils.T(a.Locale, "auth.login_required"))
		case services.IsCode(err, services.ErrorForbidden):
			return services.NewForbiddenError(utils.T(a.Locale, "auth.access_denied"))
		case err != nil:
			return err
		}
	}
	signedIn := a.Session.IsAuthenticated()
	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	err := c.run(ctx, a, fs, args)
	var ue *usageError
	switch {
	case errors.As(err, &ue):
		return usagef("%s\nusage: feedbacktool %s", ue.msg, c.usage)
	case signedIn && services.IsCode(err, services.ErrorUnauthorized) && !a.Session.IsAuthenticated():
		a.Log.Info("command ended with an expired session", "command", c.name)
		return services.NewUnauthorizedError(utils.T(a.Locale, "auth.expired"))
	}
	return err
}

// usageError reports bad command-line input.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usagef("%s: %v", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return usagef("%s: unexpected argument %q", fs.Name(), fs.Arg(0))
	}
	return nil
}

// describe renders err for the terminal, including per-field messages.
func (a *App) describe(err error) string {
	var choice *services.AuthChoiceError
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, services.ErrSurveyClosed):
		return utils.T(a.Locale, "survey.closed") + "\n" + utils.T(a.Locale, "survey.closed.body")
	case errors.As(err, &choice):
		return utils.T(a.Locale, "respond.auth_choice")
	}
	var b strings.Builder
	b.WriteString(err.Error())
	fields := services.FieldErrors(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, fields[k])
	}
	return b.String()
}

func exitCode(err error) int {
	var ue *usageError
	switch {
	case errors.As(err, &ue):
		return 2
	case services.IsCode(err, services.ErrorUnauthorized), services.IsCode(err, services.ErrorForbidden):
		return 3
	}
	return 1
}
