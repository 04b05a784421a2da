package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

const noResponse = "No response"

// Table is a rectangular export: one header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// EncodeCSV renders the table with standard CSV quoting.
func EncodeCSV(t *Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// EncodeXLSX renders the table into a single-sheet workbook.
func EncodeXLSX(t *Table, sheet string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if sheet == "" {
		sheet = "Sheet1"
	}
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	writeRow := func(r int, vals []string) error {
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			row[i] = v
		}
		return f.SetSheetRow(sheet, cell, &row)
	}
	if err := writeRow(1, t.Headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, vals := range t.Rows {
		if err := writeRow(i+2, vals); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

var filenameUnsafe = regexp.MustCompile(`(?i)[^a-z0-9]`)

// ExportFilename builds <title>_<kind>_<YYYY-MM-DD>.<ext> using the UTC date.
func ExportFilename(title, kind, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s.%s", filenameUnsafe.ReplaceAllString(title, "_"), kind, now.UTC().Format("2006-01-02"), ext)
}

func orderedQuestions(sv *models.Survey) []models.Question {
	qs := append([]models.Question(nil), sv.Questions...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderNumber < qs[j].OrderNumber })
	return qs
}

func questionNumber(q models.Question, i int) int {
	if q.OrderNumber > 0 {
		return q.OrderNumber
	}
	return i + 1
}

func questionHeader(q models.Question, i int) string {
	n := questionNumber(q, i)
	text := q.QuestionText
	if text == "" {
		text = fmt.Sprintf("Question %d", n)
	}
	return fmt.Sprintf("Q%d: %s", n, text)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ResponsesTable has one row per response and one column per question.
func ResponsesTable(sv *models.Survey, rs *models.SurveyResponses, loc *time.Location) *Table {
	if loc == nil {
		loc = time.Local
	}
	qs := orderedQuestions(sv)
	t := &Table{Headers: []string{
		"Response ID", "Respondent Name", "Respondent Email", "Is Anonymous", "Submitted At", "Completion Status",
	}}
	for i, q := range qs {
		t.Headers = append(t.Headers, questionHeader(q, i))
	}
	if rs == nil {
		return t
	}
	for _, r := range rs.Responses {
		submitted := notAvailable
		if r.SubmittedAt != nil {
			submitted = r.SubmittedAt.In(loc).Format("2006-01-02 15:04:05")
		}
		status := "Incomplete"
		if r.IsComplete {
			status = "Complete"
		}
		row := []string{
			orDefault(r.ResponseID, notAvailable),
			orDefault(r.RespondentName, "Anonymous"),
			orDefault(r.RespondentEmail, "Not provided"),
			yesNo(r.IsAnonymous),
			submitted,
			status,
		}
		for _, q := range qs {
			row = append(row, answerCell(q, r.Answers))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func answerCell(q models.Question, answers []models.ResponseAnswer) string {
	for _, a := range answers {
		if a.QuestionID != q.ID && (a.QuestionText == "" || a.QuestionText != q.QuestionText) {
			continue
		}
		v := a.Value()
		if q.Type == models.QuestionRating && v.Number != nil {
			return v.String() + "/5"
		}
		return v.String()
	}
	return noResponse
}

// AnalyticsTable has one row per question with figures from the analytics computation.
func AnalyticsTable(sv *models.Survey, an *SurveyAnalytics) *Table {
	t := &Table{Headers: []string{
		"Question Number", "Question Text", "Question Type", "Total Responses",
		"Completion Rate (%)", "Most Popular Answer", "Average Rating", "Response Count",
	}}
	for i, q := range orderedQuestions(sv) {
		n := questionNumber(q, i)
		qa := findQuestionAnalytics(an, q.ID, n)
		if qa == nil {
			qa = &QuestionAnalytics{MostPopular: notAvailable, AverageRating: notApplicable}
			if q.Type == models.QuestionRating {
				qa.AverageRating = notAvailable
			}
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(n),
			orDefault(q.QuestionText, notAvailable),
			orDefault(string(q.Type), notAvailable),
			strconv.Itoa(qa.TotalAnswers),
			strconv.Itoa(qa.CompletionRate),
			qa.MostPopular,
			qa.AverageRating,
			strconv.Itoa(qa.TotalAnswers),
		})
	}
	return t
}

func findQuestionAnalytics(an *SurveyAnalytics, id int64, number int) *QuestionAnalytics {
	if an == nil {
		return nil
	}
	for i := range an.Questions {
		if id != 0 && an.Questions[i].QuestionID == id {
			return &an.Questions[i]
		}
	}
	for i := range an.Questions {
		if an.Questions[i].Number == number {
			return &an.Questions[i]
		}
	}
	return nil
}

// SummaryTable lists headline metrics for the survey.
func SummaryTable(sv *models.Survey, rs *models.SurveyResponses, an *SurveyAnalytics, loc *time.Location) *Table {
	if loc == nil {
		loc = time.Local
	}
	total := 0
	if rs != nil {
		total = len(rs.Responses)
	}
	var resp RespondentAnalysis
	if an != nil {
		resp = an.Respondents
	}
	created := notAvailable
	if !sv.CreatedAt.IsZero() {
		created = sv.CreatedAt.In(loc).Format("2006-01-02")
	}
	rate := "0%"
	if total > 0 {
		rate = fmt.Sprintf("%d%%", percent(resp.Authenticated, total))
	}
	return &Table{
		Headers: []string{"Metric", "Value", "Description"},
		Rows: [][]string{
			{"Survey Title", orDefault(sv.Title, notAvailable), "Title of the survey"},
			{"Survey Status", orDefault(string(sv.Status), notAvailable), "Current status of the survey"},
			{"Created Date", created, "Date when survey was created"},
			{"Total Questions", strconv.Itoa(len(sv.Questions)), "Number of questions in the survey"},
			{"Total Responses", strconv.Itoa(total), "Total number of responses received"},
			{"Authenticated Users", strconv.Itoa(resp.Authenticated), "Number of responses from authenticated users"},
			{"Anonymous Users", strconv.Itoa(resp.Anonymous), "Number of responses from anonymous users"},
			{"Authentication Rate", rate, "Percentage of authenticated responses"},
		},
	}
}
