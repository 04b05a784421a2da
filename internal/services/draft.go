package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

const (
	MinChoiceOptions = 2
	MaxChoiceOptions = 8

	// DescriptionSoftLimit is shown as a counter only; it is never a validation error.
	DescriptionSoftLimit = 500
	// QuestionTextSoftLimit is shown as a counter only.
	QuestionTextSoftLimit = 200

	defaultRatingMinLabel = "Poor"
	defaultRatingMaxLabel = "Excellent"
	tempIDPrefix          = "tmp-"
)

// DraftMode tells whether a draft creates a new survey or edits an existing one.
type DraftMode int

const (
	ModeCreate DraftMode = iota
	ModeEdit
)

// RatingPolicy bounds the rating scale. Creation and edit use different policies: creation
// lets the author pick a 3-10 scale, edit pins a 6-point (0-5) scale and only labels change.
type RatingPolicy struct {
	DefaultScale int  `yaml:"default_scale"`
	MinScale     int  `yaml:"min_scale"`
	MaxScale     int  `yaml:"max_scale"`
	FixedScale   bool `yaml:"fixed_scale"`
}

var (
	CreationRatingPolicy = RatingPolicy{DefaultScale: 5, MinScale: 3, MaxScale: 10}
	EditRatingPolicy     = RatingPolicy{DefaultScale: 6, MinScale: 3, MaxScale: 10, FixedScale: true}
)

// RatingScales are the choices offered in the creation flow.
var RatingScales = []int{5, 7, 10}

type RatingLabels struct {
	Min string `json:"min" yaml:"min"`
	Max string `json:"max" yaml:"max"`
}

type RatingConfig struct {
	Scale  int          `json:"scale" yaml:"scale"`
	Labels RatingLabels `json:"labels" yaml:"labels"`
}

// DraftQuestion is a question under construction. The type-specific payload is held typed;
// OptionsJSON serialises it on demand.
type DraftQuestion struct {
	ID          string
	Type        models.QuestionType
	Text        string
	Required    bool
	OrderNumber int
	Rating      *RatingConfig
	Choices     []string

	// malformed holds a server payload that could not be decoded for Type.
	malformed *string
}

// Persisted reports whether the question has a server-assigned id.
func (q *DraftQuestion) Persisted() bool {
	return q.ID != "" && !strings.HasPrefix(q.ID, tempIDPrefix)
}

// ServerID returns the numeric id assigned by the server, or 0 for unsaved questions.
func (q *DraftQuestion) ServerID() int64 {
	if !q.Persisted() {
		return 0
	}
	n, _ := strconv.ParseInt(q.ID, 10, 64)
	return n
}

// OptionsJSON renders the payload as sent to the server. Text questions have none.
func (q *DraftQuestion) OptionsJSON() *string {
	var b []byte
	switch q.Type {
	case models.QuestionRating:
		if q.Rating == nil {
			return q.malformed
		}
		b, _ = json.Marshal(q.Rating)
	case models.QuestionMultipleChoice:
		if q.Choices == nil {
			return q.malformed
		}
		b, _ = json.Marshal(q.Choices)
	default:
		return nil
	}
	s := string(b)
	return &s
}

func (q *DraftQuestion) clone() DraftQuestion {
	c := *q
	if q.Rating != nil {
		r := *q.Rating
		c.Rating = &r
	}
	if q.Choices != nil {
		c.Choices = append([]string(nil), q.Choices...)
	}
	return c
}

// resetPayload installs the default payload for the current type.
func (q *DraftQuestion) resetPayload(policy RatingPolicy) {
	q.Rating = nil
	q.Choices = nil
	q.malformed = nil
	switch q.Type {
	case models.QuestionRating:
		q.Rating = &RatingConfig{Scale: policy.DefaultScale, Labels: RatingLabels{Min: defaultRatingMinLabel, Max: defaultRatingMaxLabel}}
	case models.QuestionMultipleChoice:
		q.Choices = []string{"Option 1", "Option 2"}
	}
}

// SurveyDraft is the in-memory survey being created or edited.
type SurveyDraft struct {
	SurveyID    int64
	Mode        DraftMode
	Title       string
	Description string
	Status      models.SurveyStatus
	EndDate     *time.Time
	Questions   []DraftQuestion
	// Locked is set in edit mode when the survey already has responses.
	Locked bool
	Policy RatingPolicy

	newID func() string
}

// NewDraft starts an empty draft in creation mode.
func NewDraft() *SurveyDraft {
	return &SurveyDraft{Mode: ModeCreate, Status: models.StatusDraft, Policy: CreationRatingPolicy}
}

func (d *SurveyDraft) tempID() string {
	if d.newID != nil {
		return d.newID()
	}
	return tempIDPrefix + uuid.Must(uuid.NewV7()).String()
}

func (d *SurveyDraft) checkUnlocked() error {
	if d.Locked {
		return ErrQuestionsLocked
	}
	return nil
}

func (d *SurveyDraft) checkIndex(i int) error {
	if i < 0 || i >= len(d.Questions) {
		return NewInvalidError(fmt.Sprintf("question index %d out of range", i))
	}
	return nil
}

func (d *SurveyDraft) renumber() {
	for i := range d.Questions {
		d.Questions[i].OrderNumber = i + 1
	}
}

// AddQuestion appends a question of type t (TEXT when empty) and returns its index.
func (d *SurveyDraft) AddQuestion(t models.QuestionType) (int, error) {
	if err := d.checkUnlocked(); err != nil {
		return -1, err
	}
	if t == "" {
		t = models.QuestionText
	}
	if !t.Valid() {
		return -1, NewInvalidError(fmt.Sprintf("unsupported question type %q", t))
	}
	q := DraftQuestion{ID: d.tempID(), Type: t, OrderNumber: len(d.Questions) + 1}
	q.resetPayload(d.Policy)
	d.Questions = append(d.Questions, q)
	return len(d.Questions) - 1, nil
}

// RemoveQuestion deletes the question at index and renumbers the rest.
func (d *SurveyDraft) RemoveQuestion(index int) error {
	if err := d.checkUnlocked(); err != nil {
		return err
	}
	if err := d.checkIndex(index); err != nil {
		return err
	}
	d.Questions = append(d.Questions[:index], d.Questions[index+1:]...)
	d.renumber()
	return nil
}

// UpdateQuestion applies a single mutation to the question at index.
func (d *SurveyDraft) UpdateQuestion(index int, m QuestionMutation) error {
	if err := d.checkUnlocked(); err != nil {
		return err
	}
	if err := d.checkIndex(index); err != nil {
		return err
	}
	if m == nil {
		return NewInvalidError("mutation required")
	}
	return m.apply(&d.Questions[index], d.Policy)
}

// Reorder moves the question at from so that it lands where the drop target to points.
// Dropping downwards lands one slot before to because removal shifts the tail left.
func (d *SurveyDraft) Reorder(from, to int) error {
	if err := d.checkUnlocked(); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if err := d.checkIndex(from); err != nil {
		return err
	}
	if to < 0 || to > len(d.Questions) {
		return NewInvalidError(fmt.Sprintf("target index %d out of range", to))
	}
	target := to
	if from < to {
		target = to - 1
	}
	q := d.Questions[from]
	rest := append(d.Questions[:from:from], d.Questions[from+1:]...)
	out := make([]DraftQuestion, 0, len(d.Questions))
	out = append(out, rest[:target]...)
	out = append(out, q)
	out = append(out, rest[target:]...)
	d.Questions = out
	d.renumber()
	return nil
}

// MoveUp and MoveDown are the keyboard equivalents of a one-step drag.
func (d *SurveyDraft) MoveUp(index int) error {
	if index <= 0 {
		return d.checkIndex(index)
	}
	return d.Reorder(index, index-1)
}

func (d *SurveyDraft) MoveDown(index int) error {
	if index >= len(d.Questions)-1 {
		return d.checkIndex(index)
	}
	return d.Reorder(index, index+2)
}

// Clone returns a deep copy, used for autosave snapshots.
func (d *SurveyDraft) Clone() *SurveyDraft {
	c := *d
	if d.EndDate != nil {
		t := *d.EndDate
		c.EndDate = &t
	}
	c.Questions = make([]DraftQuestion, len(d.Questions))
	for i := range d.Questions {
		c.Questions[i] = d.Questions[i].clone()
	}
	return &c
}

// DescriptionRemaining is the counter shown next to the description.
func (d *SurveyDraft) DescriptionRemaining() int {
	return DescriptionSoftLimit - len([]rune(d.Description))
}

// QuestionPayloads serialises questions without UI-only fields.
func (d *SurveyDraft) QuestionPayloads() []models.QuestionPayload {
	out := make([]models.QuestionPayload, 0, len(d.Questions))
	for i := range d.Questions {
		q := &d.Questions[i]
		out = append(out, models.QuestionPayload{
			Type:         q.Type,
			QuestionText: strings.TrimSpace(q.Text),
			OptionsJSON:  q.OptionsJSON(),
			OrderNumber:  q.OrderNumber,
			Required:     q.Required,
		})
	}
	return out
}

// DraftFromSurvey converts a server survey into an edit-mode draft.
func DraftFromSurvey(sv *models.Survey, policy RatingPolicy) *SurveyDraft {
	d := &SurveyDraft{
		SurveyID:    sv.ID,
		Mode:        ModeEdit,
		Title:       sv.Title,
		Description: sv.Description,
		Status:      sv.Status,
		Locked:      sv.HasResponses || sv.TotalResponses > 0,
		Policy:      policy,
	}
	if sv.EndDate != nil {
		t := *sv.EndDate
		d.EndDate = &t
	}
	for _, q := range sv.Questions {
		d.Questions = append(d.Questions, questionFromWire(q))
	}
	sortByOrder(d.Questions)
	d.renumber()
	return d
}

func questionFromWire(q models.Question) DraftQuestion {
	dq := DraftQuestion{
		ID:          strconv.FormatInt(q.ID, 10),
		Type:        q.Type,
		Text:        q.QuestionText,
		Required:    q.Required,
		OrderNumber: q.OrderNumber,
	}
	switch q.Type {
	case models.QuestionRating:
		var rc RatingConfig
		if q.OptionsJSON == nil || json.Unmarshal([]byte(*q.OptionsJSON), &rc) != nil {
			dq.malformed = orEmptyJSON(q.OptionsJSON, "{}")
		} else {
			dq.Rating = &rc
		}
	case models.QuestionMultipleChoice:
		var opts []string
		switch {
		case q.OptionsJSON != nil && json.Unmarshal([]byte(*q.OptionsJSON), &opts) == nil:
			dq.Choices = opts
		case q.OptionsJSON == nil && len(q.Options) > 0:
			dq.Choices = append([]string(nil), q.Options...)
		default:
			dq.malformed = orEmptyJSON(q.OptionsJSON, "[]")
		}
	}
	return dq
}

func orEmptyJSON(s *string, empty string) *string {
	if s != nil {
		v := *s
		return &v
	}
	return &empty
}

func sortByOrder(qs []DraftQuestion) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderNumber < qs[j].OrderNumber })
}
