package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/feedbacktool/internal/models"
	"github.com/soaringjerry/feedbacktool/internal/services"
	"github.com/soaringjerry/feedbacktool/internal/utils"
)

func previewSurvey(a *App, sv *models.Survey) {
	fmt.Fprintln(a.Out, sv.Title)
	if sv.Description != "" {
		fmt.Fprintln(a.Out, sv.Description)
	}
	fmt.Fprintln(a.Out)
	for i, q := range sv.Questions {
		mark := ""
		if q.Required {
			mark = " *"
		}
		fmt.Fprintf(a.Out, "%d. %s%s\n", i+1, q.QuestionText, mark)
		switch q.Type {
		case models.QuestionRating:
			fmt.Fprintf(a.Out, "   rating %d-%d\n", services.MinRatingAnswer, services.MaxRatingAnswer)
		case models.QuestionMultipleChoice:
			for _, o := range q.Choices() {
				fmt.Fprintf(a.Out, "   - %s\n", o)
			}
		case models.QuestionLongText:
			fmt.Fprintln(a.Out, "   long text")
		}
	}
}

// readAnswers loads a YAML map of question number to answer.
func readAnswers(path string) (map[int]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied
	if err != nil {
		return nil, err
	}
	answers := map[int]string{}
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, services.NewInvalidError(fmt.Sprintf("parse answers: %v", err))
	}
	return answers, nil
}

func runRespond(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	id := fs.Int64("survey", 0, "survey id")
	answersFile := fs.String("answers", "", "YAML file mapping question number to answer")
	anonymous := fs.Bool("anonymous", false, "continue anonymously on private surveys")
	if err := parse(fs, args); err != nil {
		return err
	}
	form, err := a.Respondent.Open(ctx, *id)
	if err != nil {
		return err
	}
	if form.Closed(time.Now()) {
		return services.ErrSurveyClosed
	}
	if *answersFile == "" {
		previewSurvey(a, form.Survey)
		return nil
	}

	answers, err := readAnswers(*answersFile)
	if err != nil {
		return err
	}
	qs := form.Survey.Questions
	for n, v := range answers {
		if n < 1 || n > len(qs) {
			return services.NewInvalidError(fmt.Sprintf("question %d does not exist, the survey has %d", n, len(qs)))
		}
		if err := form.SetAnswer(qs[n-1].ID, v); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.Out, utils.Tf(a.Locale, "respond.progress", form.Progress()))

	choice := services.ChoiceNone
	if *anonymous {
		choice = services.ChoiceContinueAnonymously
	}
	if err := a.Respondent.Submit(ctx, form, choice); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, utils.T(a.Locale, "respond.thanks"))
	return nil
}

func runAnalytics(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	id := fs.Int64("survey", 0, "survey id")
	if err := parse(fs, args); err != nil {
		return err
	}
	an, err := a.Analytics.SurveyAnalytics(ctx, *id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(an)
}

func runExport(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	id := fs.Int64("survey", 0, "survey id")
	kind := fs.String("kind", string(services.ExportResponses), "responses, analytics or summary")
	format := fs.String("format", string(services.FormatCSV), "csv or xlsx")
	dir := fs.String("out", ".", "output directory")
	if err := parse(fs, args); err != nil {
		return err
	}
	res, err := a.Export.Export(ctx, services.ExportParams{
		SurveyID: *id,
		Kind:     services.ExportKind(strings.ToLower(*kind)),
		Format:   services.ExportFormat(strings.ToLower(*format)),
	})
	if err != nil {
		return err
	}
	path := filepath.Join(*dir, res.Filename)
	if err := os.WriteFile(path, res.Data, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintln(a.Out, utils.Tf(a.Locale, "export.written", path))
	return nil
}

func runImprove(ctx context.Context, a *App, fs *flag.FlagSet, args []string) error {
	text := fs.String("text", "", "text to improve")
	kind := fs.String("kind", string(services.KindGeneral), "title, description, question, option or general")
	qtype := fs.String("type", "", "question type, for -kind question")
	n := fs.Int("n", 0, "return this many alternatives instead of one")
	model := fs.String("model", "", "override the configured model")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *model != "" {
		a.Phrasing.WithModel(*model)
	}
	k := services.TextKind(strings.ToLower(*kind))
	switch {
	case *n > 0:
		out, err := a.Phrasing.Suggestions(ctx, *text, k, *n)
		if err != nil {
			return err
		}
		for i, s := range out {
			fmt.Fprintf(a.Out, "%d. %s\n", i+1, s)
		}
		return nil
	case k == services.KindQuestion && *qtype != "":
		t, ok := models.ParseQuestionType(*qtype)
		if !ok {
			return usagef("improve: unknown question type %q", *qtype)
		}
		out, err := a.Phrasing.ImproveQuestion(ctx, *text, t)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Out, out)
		return nil
	case k == services.KindOption:
		out, err := a.Phrasing.ImproveOption(ctx, *text)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Out, out)
		return nil
	}
	out, err := a.Phrasing.ImproveFor(ctx, *text, k, services.ImproveOptions{})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, out)
	return nil
}
