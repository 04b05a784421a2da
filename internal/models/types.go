package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Role is the account role returned by the auth endpoints.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User is the authoritative profile of a signed-in account.
type User struct {
	ID        int64     `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// LoginResponse is the payload of /auth/login and /users/create.
type LoginResponse struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	UserID int64  `json:"userId"`
}

// User converts the embedded login data into a profile.
func (l *LoginResponse) User() *User {
	if l == nil {
		return nil
	}
	return &User{ID: l.UserID, Name: l.Name, Email: l.Email, Role: l.Role, Token: l.Token}
}

type SurveyStatus string

const (
	StatusDraft    SurveyStatus = "DRAFT"
	StatusActive   SurveyStatus = "ACTIVE"
	StatusInactive SurveyStatus = "INACTIVE"
)

type QuestionType string

const (
	QuestionText           QuestionType = "TEXT"
	QuestionLongText       QuestionType = "LONG_TEXT"
	QuestionRating         QuestionType = "RATING"
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
)

// Valid reports whether t is one of the four supported kinds.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionLongText, QuestionRating, QuestionMultipleChoice:
		return true
	}
	return false
}

// ParseQuestionType accepts both upper and lower case names ("rating", "LONG_TEXT").
func ParseQuestionType(s string) (QuestionType, bool) {
	t := QuestionType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Question is the server representation of a survey question.
type Question struct {
	ID           int64        `json:"id,omitempty"`
	Type         QuestionType `json:"type"`
	QuestionText string       `json:"questionText"`
	OptionsJSON  *string      `json:"optionsJson"`
	OrderNumber  int          `json:"orderNumber"`
	Required     bool         `json:"required"`
	// Options is only filled by backends that pre-decode optionsJson; most send optionsJson alone.
	Options []string `json:"options,omitempty"`
}

// Choices returns the options of a multiple choice question, decoding OptionsJSON when
// Options is empty. Other types and undecodable payloads yield nil.
func (q *Question) Choices() []string {
	if q.Type != QuestionMultipleChoice {
		return nil
	}
	if len(q.Options) > 0 {
		return q.Options
	}
	if q.OptionsJSON == nil {
		return nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(*q.OptionsJSON), &opts); err != nil {
		return nil
	}
	return opts
}

// Survey is the server representation of a survey, admin or public.
type Survey struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         SurveyStatus `json:"status"`
	IsPrivate      bool         `json:"isPrivate,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt,omitempty"`
	EndDate        *time.Time   `json:"endDate,omitempty"`
	Questions      []Question   `json:"questions,omitempty"`
	TotalQuestions int          `json:"totalQuestions,omitempty"`
	TotalResponses int          `json:"totalResponses,omitempty"`
	CompletionRate int          `json:"completionRate,omitempty"`
	HasResponses   bool         `json:"hasResponses,omitempty"`
}

// QuestionPayload is a question as sent on create/update.
type QuestionPayload struct {
	Type         QuestionType `json:"type"`
	QuestionText string       `json:"questionText"`
	OptionsJSON  *string      `json:"optionsJson"`
	OrderNumber  int          `json:"orderNumber"`
	Required     bool         `json:"required"`
}

// CreateSurveyRequest is the body of POST /surveys.
type CreateSurveyRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      SurveyStatus      `json:"status"`
	EndDate     *time.Time        `json:"endDate"`
	Questions   []QuestionPayload `json:"questions"`
}

// UpdateSurveyRequest is the body of PUT /surveys/{id}.
type UpdateSurveyRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Active      bool              `json:"active"`
	EndDate     *time.Time        `json:"endDate"`
	Questions   []QuestionPayload `json:"questions"`
}

// AnswerDTO carries one answer. Exactly one of AnswerValue or RatingValue is set.
type AnswerDTO struct {
	QuestionID  int64   `json:"questionId"`
	AnswerValue *string `json:"answerValue,omitempty"`
	RatingValue *int    `json:"ratingValue,omitempty"`
}

type SubmitResponseRequest struct {
	Answers []AnswerDTO `json:"answers"`
}

// AnswerValue is an answer as returned by the responses endpoint: a string, a number or a
// list of selections.
type AnswerValue struct {
	Text    string
	Number  *float64
	List    []string
	present bool
}

func (a *AnswerValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = AnswerValue{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AnswerValue{Text: s, present: true}
	case '[':
		var l []string
		if err := json.Unmarshal(b, &l); err != nil {
			return err
		}
		*a = AnswerValue{List: l, present: true}
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*a = AnswerValue{Number: &f, present: true}
	}
	return nil
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch {
	case !a.present:
		return []byte("null"), nil
	case a.Number != nil:
		return json.Marshal(*a.Number)
	case a.List != nil:
		return json.Marshal(a.List)
	default:
		return json.Marshal(a.Text)
	}
}

// TextAnswer builds a present string answer.
func TextAnswer(s string) AnswerValue { return AnswerValue{Text: s, present: true} }

// NumberAnswer builds a present numeric answer.
func NumberAnswer(f float64) AnswerValue { return AnswerValue{Number: &f, present: true} }

// ListAnswer builds a present multi-selection answer.
func ListAnswer(l []string) AnswerValue { return AnswerValue{List: l, present: true} }

// IsZero reports whether the answer carried no value.
func (a AnswerValue) IsZero() bool {
	if !a.present {
		return true
	}
	return a.Number == nil && len(a.List) == 0 && a.Text == ""
}

// String renders the answer for tabular output; lists are joined with "; ".
func (a AnswerValue) String() string {
	switch {
	case a.Number != nil:
		return strconv.FormatFloat(*a.Number, 'f', -1, 64)
	case a.List != nil:
		return strings.Join(a.List, "; ")
	default:
		return a.Text
	}
}

// ResponseAnswer is one answer inside a ResponseRecord.
type ResponseAnswer struct {
	QuestionID   int64       `json:"questionId"`
	QuestionText string      `json:"questionText,omitempty"`
	AnswerText   AnswerValue `json:"answerText"`
	Answer       AnswerValue `json:"answer"`
}

// Value prefers answerText and falls back to answer.
func (r ResponseAnswer) Value() AnswerValue {
	if !r.AnswerText.IsZero() {
		return r.AnswerText
	}
	return r.Answer
}

// ResponseRecord is one respondent submission from /responses/survey/{id}.
type ResponseRecord struct {
	ResponseID      string           `json:"responseId"`
	RespondentName  string           `json:"respondentName"`
	RespondentEmail string           `json:"respondentEmail"`
	IsAnonymous     bool             `json:"isAnonymous"`
	SubmittedAt     *time.Time       `json:"submittedAt"`
	IsComplete      bool             `json:"isComplete"`
	Answers         []ResponseAnswer `json:"answers"`
}

type SurveyResponses struct {
	SurveyID  int64            `json:"surveyId"`
	Responses []ResponseRecord `json:"responses"`
}

// RespondentInfo identifies who gave an answer.
type RespondentInfo struct {
	RespondentID string `json:"respondentId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	IsAnonymous  bool   `json:"isAnonymous"`
}

type AnswerSummary struct {
	AnswerID    int64          `json:"answerId"`
	AnswerText  string         `json:"answerText"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Respondent  RespondentInfo `json:"respondent"`
}

type QuestionResult struct {
	QuestionID   int64           `json:"questionId"`
	QuestionText string          `json:"questionText"`
	QuestionType QuestionType    `json:"questionType"`
	OrderNumber  int             `json:"orderNumber"`
	Required     bool            `json:"required"`
	TotalAnswers int             `json:"totalAnswers"`
	Answers      []AnswerSummary `json:"answers"`
}

type Respondent struct {
	RespondentID          string    `json:"respondentId"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	IsAnonymous           bool      `json:"isAnonymous"`
	TotalAnswersSubmitted int       `json:"totalAnswersSubmitted"`
	FirstSubmissionAt     time.Time `json:"firstSubmissionAt"`
}

// SurveyResults is the payload of /surveys/{id}/results.
type SurveyResults struct {
	SurveyID          int64            `json:"surveyId"`
	SurveyTitle       string           `json:"surveyTitle"`
	SurveyDescription string           `json:"surveyDescription"`
	SurveyCreatedAt   time.Time        `json:"surveyCreatedAt"`
	TotalResponses    int              `json:"totalResponses"`
	TotalQuestions    int              `json:"totalQuestions"`
	QuestionResults   []QuestionResult `json:"questionResults"`
	Respondents       []Respondent     `json:"respondents"`
}
