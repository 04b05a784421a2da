package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

// DraftDocument is the serialisable form of a draft, used for YAML files and autosave.
type DraftDocument struct {
	SurveyID    int64               `json:"surveyId,omitempty" yaml:"survey_id,omitempty"`
	Mode        string              `json:"mode,omitempty" yaml:"mode,omitempty"`
	Title       string              `json:"title" yaml:"title"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Status      models.SurveyStatus `json:"status,omitempty" yaml:"status,omitempty"`
	EndDate     *time.Time          `json:"endDate,omitempty" yaml:"end_date,omitempty"`
	Locked      bool                `json:"locked,omitempty" yaml:"locked,omitempty"`
	Questions   []QuestionDocument  `json:"questions" yaml:"questions"`
}

type QuestionDocument struct {
	ID       string        `json:"id,omitempty" yaml:"id,omitempty"`
	Type     string        `json:"type" yaml:"type"`
	Text     string        `json:"text" yaml:"text"`
	Required bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Rating   *RatingConfig `json:"rating,omitempty" yaml:"rating,omitempty"`
	Options  []string      `json:"options,omitempty" yaml:"options,omitempty"`
}

const (
	modeCreate = "create"
	modeEdit   = "edit"
)

// Document snapshots the draft.
func (d *SurveyDraft) Document() DraftDocument {
	doc := DraftDocument{
		SurveyID:    d.SurveyID,
		Mode:        modeCreate,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Locked:      d.Locked,
		Questions:   make([]QuestionDocument, 0, len(d.Questions)),
	}
	if d.Mode == ModeEdit {
		doc.Mode = modeEdit
	}
	if d.EndDate != nil {
		t := *d.EndDate
		doc.EndDate = &t
	}
	for i := range d.Questions {
		q := d.Questions[i].clone()
		doc.Questions = append(doc.Questions, QuestionDocument{
			ID:       q.ID,
			Type:     string(q.Type),
			Text:     q.Text,
			Required: q.Required,
			Rating:   q.Rating,
			Options:  q.Choices,
		})
	}
	return doc
}

// DraftFromDocument rebuilds a draft. Missing payloads get the type's defaults; the
// question order is the document order.
func DraftFromDocument(doc DraftDocument, creation, edit RatingPolicy) (*SurveyDraft, error) {
	d := NewDraft()
	d.Policy = creation
	switch strings.ToLower(doc.Mode) {
	case "", modeCreate:
	case modeEdit:
		if doc.SurveyID <= 0 {
			return nil, NewInvalidError("edit drafts need a survey id")
		}
		d.Mode = ModeEdit
		d.Policy = edit
	default:
		return nil, NewInvalidError(fmt.Sprintf("unknown draft mode %q", doc.Mode))
	}
	d.SurveyID = doc.SurveyID
	d.Title = doc.Title
	d.Description = doc.Description
	d.Locked = doc.Locked
	if doc.Status != "" {
		d.Status = doc.Status
	}
	if doc.EndDate != nil {
		t := *doc.EndDate
		d.EndDate = &t
	}
	for i, qd := range doc.Questions {
		t := models.QuestionText
		if qd.Type != "" {
			var ok bool
			if t, ok = models.ParseQuestionType(qd.Type); !ok {
				return nil, NewInvalidError(fmt.Sprintf("question %d: unsupported type %q", i+1, qd.Type))
			}
		}
		q := DraftQuestion{ID: qd.ID, Type: t, Text: qd.Text, Required: qd.Required, OrderNumber: i + 1}
		if q.ID == "" {
			q.ID = d.tempID()
		}
		q.resetPayload(d.Policy)
		if qd.Rating != nil && t == models.QuestionRating {
			r := *qd.Rating
			q.Rating = &r
		}
		if qd.Options != nil && t == models.QuestionMultipleChoice {
			q.Choices = append([]string(nil), qd.Options...)
		}
		d.Questions = append(d.Questions, q)
	}
	return d, nil
}

// LoadDraftYAML reads a draft document from YAML.
func LoadDraftYAML(r io.Reader, creation, edit RatingPolicy) (*SurveyDraft, error) {
	var doc DraftDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, NewInvalidError("draft file is empty")
		}
		return nil, NewInvalidError(fmt.Sprintf("parse draft: %v", err))
	}
	return DraftFromDocument(doc, creation, edit)
}

// WriteDraftYAML writes the draft as YAML.
func WriteDraftYAML(w io.Writer, d *SurveyDraft) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d.Document()); err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return enc.Close()
}

type templateQuestion struct {
	t       models.QuestionType
	text    string
	scale   int
	options []string
}

type surveyTemplate struct {
	title       string
	description string
	questions   []templateQuestion
}

var surveyTemplates = map[string]surveyTemplate{
	"customer-satisfaction": {
		title:       "Customer Satisfaction",
		description: "Standard customer feedback survey",
		questions: []templateQuestion{
			{t: models.QuestionRating, text: "How satisfied are you with our service?", scale: 5},
			{t: models.QuestionMultipleChoice, text: "How likely are you to recommend us?", options: []string{"Very likely", "Likely", "Neutral", "Unlikely", "Very unlikely"}},
			{t: models.QuestionLongText, text: "What can we improve?"},
		},
	},
	"event-feedback": {
		title:       "Event Feedback",
		description: "Gather feedback about events",
		questions: []templateQuestion{
			{t: models.QuestionRating, text: "How would you rate the event overall?", scale: 10},
			{t: models.QuestionMultipleChoice, text: "Which session was most valuable?", options: []string{"Session 1", "Session 2", "Session 3", "Networking"}},
			{t: models.QuestionLongText, text: "Additional comments"},
		},
	},
	"employee-engagement": {
		title:       "Employee Engagement",
		description: "Internal team satisfaction survey",
		questions: []templateQuestion{
			{t: models.QuestionRating, text: "How engaged do you feel at work?", scale: 7},
			{t: models.QuestionMultipleChoice, text: "What motivates you most?", options: []string{"Recognition", "Growth opportunities", "Compensation", "Work-life balance"}},
			{t: models.QuestionLongText, text: "How can we improve your work experience?"},
		},
	},
}

// TemplateNames lists the built-in templates.
func TemplateNames() []string {
	return []string{"customer-satisfaction", "event-feedback", "employee-engagement"}
}

// NewDraftFromTemplate returns a creation draft pre-filled from a built-in template.
func NewDraftFromTemplate(name string, policy RatingPolicy) (*SurveyDraft, error) {
	tpl, ok := surveyTemplates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, NewNotFoundError(fmt.Sprintf("unknown template %q", name))
	}
	d := NewDraft()
	d.Policy = policy
	d.Title = tpl.title
	d.Description = tpl.description
	for _, tq := range tpl.questions {
		i, err := d.AddQuestion(tq.t)
		if err != nil {
			return nil, err
		}
		q := &d.Questions[i]
		q.Text = tq.text
		if tq.scale > 0 && q.Rating != nil {
			q.Rating.Scale = tq.scale
		}
		if tq.options != nil {
			q.Choices = append([]string(nil), tq.options...)
		}
	}
	return d, nil
}
