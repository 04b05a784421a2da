package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

const (
	notAvailable  = "N/A"
	notApplicable = "Not applicable"
)

// ResultsAPI is the slice of the REST client used for analytics and exports.
type ResultsAPI interface {
	GetSurvey(ctx context.Context, id int64) (*models.Survey, error)
	GetSurveyResults(ctx context.Context, id int64) (*models.SurveyResults, error)
	GetSurveyResponses(ctx context.Context, id int64) (*models.SurveyResponses, error)
}

type QuestionAnalytics struct {
	Number         int                 `json:"number"`
	QuestionID     int64               `json:"questionId"`
	Text           string              `json:"text"`
	Type           models.QuestionType `json:"type"`
	TotalAnswers   int                 `json:"totalAnswers"`
	CompletionRate int                 `json:"completionRate"`
	MostPopular    string              `json:"mostPopular"`
	AverageRating  string              `json:"averageRating"`
	// Histogram counts rating answers 0..5; nil for other types.
	Histogram []int `json:"histogram,omitempty"`
}

type RespondentAnalysis struct {
	Total         int `json:"total"`
	Authenticated int `json:"authenticated"`
	Anonymous     int `json:"anonymous"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type SurveyAnalytics struct {
	SurveyID       int64               `json:"surveyId"`
	Title          string              `json:"title"`
	TotalResponses int                 `json:"totalResponses"`
	Questions      []QuestionAnalytics `json:"questions"`
	Respondents    RespondentAnalysis  `json:"respondents"`
	Trend          []TrendPoint        `json:"trend"`
	// RatingAlpha is Cronbach's alpha across rating questions, 0 when undefined.
	RatingAlpha float64 `json:"ratingAlpha"`
	AlphaN      int     `json:"alphaN"`
}

type AnalyticsService struct {
	api ResultsAPI
}

func NewAnalyticsService(api ResultsAPI) *AnalyticsService {
	return &AnalyticsService{api: api}
}

func (s *AnalyticsService) SurveyAnalytics(ctx context.Context, surveyID int64) (*SurveyAnalytics, error) {
	if surveyID <= 0 {
		return nil, NewInvalidError("survey id required")
	}
	res, err := s.api.GetSurveyResults(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, NewNotFoundError("survey results not found")
	}
	return AnalyzeResults(res), nil
}

// AnalyzeResults derives per-question and respondent figures from a results payload.
func AnalyzeResults(res *models.SurveyResults) *SurveyAnalytics {
	qrs := append([]models.QuestionResult(nil), res.QuestionResults...)
	sort.SliceStable(qrs, func(i, j int) bool { return qrs[i].OrderNumber < qrs[j].OrderNumber })

	out := &SurveyAnalytics{
		SurveyID:       res.SurveyID,
		Title:          res.SurveyTitle,
		TotalResponses: res.TotalResponses,
		Questions:      make([]QuestionAnalytics, 0, len(qrs)),
	}
	for i, qr := range qrs {
		num := qr.OrderNumber
		if num == 0 {
			num = i + 1
		}
		qa := QuestionAnalytics{
			Number:         num,
			QuestionID:     qr.QuestionID,
			Text:           qr.QuestionText,
			Type:           qr.QuestionType,
			TotalAnswers:   qr.TotalAnswers,
			CompletionRate: percent(qr.TotalAnswers, res.TotalResponses),
			MostPopular:    mostPopular(qr.Answers),
			AverageRating:  notApplicable,
		}
		if qr.QuestionType == models.QuestionRating {
			qa.AverageRating, qa.Histogram = ratingFigures(qr.Answers)
		}
		out.Questions = append(out.Questions, qa)
	}

	days := map[string]int{}
	for _, r := range res.Respondents {
		out.Respondents.Total++
		if r.IsAnonymous {
			out.Respondents.Anonymous++
		} else {
			out.Respondents.Authenticated++
		}
		if !r.FirstSubmissionAt.IsZero() {
			days[r.FirstSubmissionAt.UTC().Format("2006-01-02")]++
		}
	}
	out.Trend = trend(days)
	out.RatingAlpha, out.AlphaN = ratingAlpha(qrs)
	return out
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

// mostPopular returns the most frequent non-blank answer; ties go to the first seen.
func mostPopular(answers []models.AnswerSummary) string {
	counts := map[string]int{}
	var order []string
	for _, a := range answers {
		v := strings.TrimSpace(a.AnswerText)
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best, bestN := "", 0
	for _, v := range order {
		if counts[v] > bestN {
			best, bestN = v, counts[v]
		}
	}
	if bestN == 0 {
		return notAvailable
	}
	return best
}

func ratingFigures(answers []models.AnswerSummary) (string, []int) {
	hist := make([]int, MaxRatingAnswer-MinRatingAnswer+1)
	var sum float64
	n := 0
	for _, a := range answers {
		v, err := strconv.ParseFloat(strings.TrimSpace(a.AnswerText), 64)
		if err != nil {
			continue
		}
		sum += v
		n++
		if iv := int(v); float64(iv) == v && iv >= MinRatingAnswer && iv <= MaxRatingAnswer {
			hist[iv-MinRatingAnswer]++
		}
	}
	if n == 0 {
		return notAvailable, hist
	}
	return fmt.Sprintf("%.1f", sum/float64(n)), hist
}

func trend(days map[string]int) []TrendPoint {
	keys := make([]string, 0, len(days))
	for d := range days {
		keys = append(keys, d)
	}
	sort.Strings(keys)
	out := make([]TrendPoint, 0, len(keys))
	for _, d := range keys {
		out = append(out, TrendPoint{Date: d, Count: days[d]})
	}
	return out
}

// ratingAlpha builds a respondent x rating-question matrix from complete respondents only.
func ratingAlpha(qrs []models.QuestionResult) (float64, int) {
	var cols []int64
	byRespondent := map[string]map[int64]float64{}
	for _, qr := range qrs {
		if qr.QuestionType != models.QuestionRating {
			continue
		}
		cols = append(cols, qr.QuestionID)
		for _, a := range qr.Answers {
			v, err := strconv.ParseFloat(strings.TrimSpace(a.AnswerText), 64)
			if err != nil || a.Respondent.RespondentID == "" {
				continue
			}
			if byRespondent[a.Respondent.RespondentID] == nil {
				byRespondent[a.Respondent.RespondentID] = map[int64]float64{}
			}
			byRespondent[a.Respondent.RespondentID][qr.QuestionID] = v
		}
	}
	if len(cols) < 2 {
		return 0, 0
	}
	ids := make([]string, 0, len(byRespondent))
	for id := range byRespondent {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	matrix := make([][]float64, 0, len(ids))
	for _, id := range ids {
		row := make([]float64, 0, len(cols))
		for _, q := range cols {
			v, ok := byRespondent[id][q]
			if !ok {
				row = nil
				break
			}
			row = append(row, v)
		}
		if row != nil {
			matrix = append(matrix, row)
		}
	}
	return CronbachAlpha(matrix), len(matrix)
}

// DashboardStats summarises the admin survey list.
type DashboardStats struct {
	TotalSurveys        int `json:"totalSurveys"`
	ActiveSurveys       int `json:"activeSurveys"`
	TotalResponses      int `json:"totalResponses"`
	AvgCompletionRate   int `json:"avgCompletionRate"`
	NewSurveysThisMonth int `json:"newSurveysThisMonth"`
}

func CalculateStats(surveys []models.Survey, now time.Time) DashboardStats {
	st := DashboardStats{TotalSurveys: len(surveys)}
	completion := 0
	y, m, _ := now.Date()
	for _, sv := range surveys {
		if sv.Status == models.StatusActive {
			st.ActiveSurveys++
		}
		st.TotalResponses += sv.TotalResponses
		completion += sv.CompletionRate
		if cy, cm, _ := sv.CreatedAt.In(now.Location()).Date(); cy == y && cm == m {
			st.NewSurveysThisMonth++
		}
	}
	if len(surveys) > 0 {
		st.AvgCompletionRate = int(math.Round(float64(completion) / float64(len(surveys))))
	}
	return st
}

type StatusBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// GroupByStatus counts surveys per status in Active, Inactive, Draft order, skipping zeros.
func GroupByStatus(surveys []models.Survey) []StatusBucket {
	counts := map[models.SurveyStatus]int{}
	for _, sv := range surveys {
		counts[sv.Status]++
	}
	out := []StatusBucket{}
	for _, b := range []struct {
		name   string
		status models.SurveyStatus
	}{
		{"Active", models.StatusActive},
		{"Inactive", models.StatusInactive},
		{"Draft", models.StatusDraft},
	} {
		if n := counts[b.status]; n > 0 {
			out = append(out, StatusBucket{Name: b.name, Value: n})
		}
	}
	return out
}
