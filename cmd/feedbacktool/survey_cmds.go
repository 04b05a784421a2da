package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/soaringjerry/feedbacktool/internal/models"
	"github.com/soaringjerry/feedbacktool/internal/services"
)

func runSurveys(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	status := fs.String("status", "", "only list surveys with this status")
	if err := parse(fs, args); err != nil {
		return err
	}
	all, err := a.Surveys.ListAdminSurveys(ctx)
	if err != nil {
		return err
	}
	want := models.SurveyStatus(strings.ToUpper(strings.TrimSpace(*status)))
	var list []models.Survey
	for _, sv := range all {
		if want == "" || sv.Status == want {
			list = append(list, sv)
		}
	}

	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tRESPONSES\tCOMPLETION\tCREATED\tTITLE")
	for _, sv := range list {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d%%\t%s\t%s\n",
			sv.ID, sv.Status, sv.TotalResponses, sv.CompletionRate, sv.CreatedAt.Local().Format("2006-01-02"), sv.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	st := services.CalculateStats(all, time.Now())
	fmt.Fprintf(a.Out, "\n%d surveys, %d active, %d responses, %d%% average completion, %d new this month\n",
		st.TotalSurveys, st.ActiveSurveys, st.TotalResponses, st.AvgCompletionRate, st.NewSurveysThisMonth)
	buckets := services.GroupByStatus(all)
	parts := make([]string, 0, len(buckets))
	for _, b := range buckets {
		parts = append(parts, fmt.Sprintf("%s %d", b.Name, b.Value))
	}
	if len(parts) > 0 {
		fmt.Fprintln(a.Out, strings.Join(parts, " · "))
	}
	return nil
}

// writeOut writes through fn to path, or to the command output when path is empty.
func writeOut(a *App, path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(a.Out)
	}
	f, err := os.Create(path) // #nosec G304 -- operator supplied
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func loadDraftFile(a *App, path string) (*services.SurveyDraft, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return services.LoadDraftYAML(f, a.Config.Builder.RatingCreation, a.Config.Builder.RatingEdit)
}

func runTemplate(_ context.Context, a *App, fs *flag.FlagSet, args []string) error {
	list := fs.Bool("list", false, "list the built-in templates")
	name := fs.String("name", "", "template name")
	out := fs.String("out", "", "write the draft here instead of stdout")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *list {
		for _, n := range services.TemplateNames() {
			fmt.Fprintln(a.Out, n)
		}
		scales := make([]string, len(services.RatingScales))
		for i, v := range services.RatingScales {
			scales[i] = strconv.Itoa(v)
		}
		fmt.Fprintf(a.Out, "\nrating scales: %s\n", strings.Join(scales, ", "))
		return nil
	}
	if *name == "" {
		return usagef("template: -name or -list is required")
	}
	d, err := services.NewDraftFromTemplate(*name, a.Config.Builder.RatingCreation)
	if err != nil {
		return err
	}
	return writeOut(a, *out, func(w io.Writer) error { return services.WriteDraftYAML(w, d) })
}

func runValidate(_ context.Context, a *App, fs *flag.FlagSet, args []string) error {
	file := fs.String("file", "", "draft YAML file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return usagef("validate: -file is required")
	}
	d, err := loadDraftFile(a, *file)
	if err != nil {
		return err
	}
	if res := d.Validate(); !res.Valid() {
		return services.NewFieldError("Please fix the highlighted fields", res)
	}
	fmt.Fprintf(a.Out, "%s: ok, %d questions\n", *file, len(d.Questions))
	return nil
}

func runEdit(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	id := fs.Int64("survey", 0, "survey id")
	out := fs.String("out", "", "write the draft here instead of stdout")
	if err := parse(fs, args); err != nil {
		return err
	}
	d, err := a.Builder.LoadForEdit(ctx, *id)
	if err != nil {
		return err
	}
	return writeOut(a, *out, func(w io.Writer) error {
		if d.Locked {
			if _, err := fmt.Fprintf(w, "# %s\n", services.LockedBanner); err != nil {
				return err
			}
		}
		return services.WriteDraftYAML(w, d)
	})
}

func runCreate(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	file := fs.String("file", "", "draft YAML file")
	resume := fs.String("resume", "", "resume the autosaved draft with this key")
	publish := fs.Bool("publish", false, "publish instead of saving as draft")
	unpublish := fs.Bool("unpublish", false, "take an edited survey offline")
	if err := parse(fs, args); err != nil {
		return err
	}
	if (*file == "") == (*resume == "") {
		return usagef("create: exactly one of -file or -resume is required")
	}
	if *publish && *unpublish {
		return usagef("create: -publish and -unpublish are exclusive")
	}

	creation, edit := a.Config.Builder.RatingCreation, a.Config.Builder.RatingEdit
	var (
		d   *services.SurveyDraft
		key = *resume
		err error
	)
	if *resume != "" {
		d, err = services.NewAutosaver(a.Store, key, nil, 0, a.Log).Restore(ctx, creation, edit)
		if err != nil {
			return err
		}
		if d == nil {
			return services.NewNotFoundError(fmt.Sprintf("no saved draft %q", key))
		}
	} else {
		if d, err = loadDraftFile(a, *file); err != nil {
			return err
		}
		key = services.DraftKey(d.SurveyID)
	}

	snapshot := d.Clone()
	saver := services.NewAutosaver(a.Store, key, func() *services.SurveyDraft { return snapshot }, a.Config.Builder.AutosaveInterval, a.Log)
	if _, err := saver.SaveNow(ctx); err != nil {
		a.Log.Warn("initial autosave failed", "key", key, "error", err)
	}
	saver.Start(ctx)

	status := models.StatusDraft
	if *publish || (d.Mode == services.ModeEdit && d.Status == models.StatusActive && !*unpublish) {
		status = models.StatusActive
	}
	verb := "Created"
	if d.Mode == services.ModeEdit {
		verb = "Updated"
	}
	sv, err := a.Builder.Submit(ctx, d, status)
	saver.Stop()
	if err != nil {
		fmt.Fprintf(a.Out, "Draft kept. Resume with: feedbacktool create -resume %s\n", key)
		return err
	}
	if err := saver.Discard(ctx); err != nil {
		a.Log.Warn("failed to discard draft", "key", key, "error", err)
	}

	id := d.SurveyID
	if sv != nil && sv.ID != 0 {
		id = sv.ID
	}
	fmt.Fprintf(a.Out, "%s survey #%d (%s)\n", verb, id, status)
	return nil
}

func runDrafts(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	discard := fs.String("discard", "", "delete the saved draft with this key")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *discard != "" {
		return a.Store.DeleteDraft(ctx, *discard)
	}
	drafts, err := a.Store.ListDrafts(ctx)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Fprintln(a.Out, "No saved drafts.")
		return nil
	}
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSAVES\tUPDATED")
	for _, info := range drafts {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Key, info.Seq, info.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
