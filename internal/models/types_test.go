package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestQuestionChoices(t *testing.T) {
	fromJSON := Question{Type: QuestionMultipleChoice, OptionsJSON: strPtr(`["Yes","No"]`)}
	assert.Equal(t, []string{"Yes", "No"}, fromJSON.Choices())

	decoded := Question{Type: QuestionMultipleChoice, OptionsJSON: strPtr(`["ignored"]`), Options: []string{"A", "B"}}
	assert.Equal(t, []string{"A", "B"}, decoded.Choices())

	broken := Question{Type: QuestionMultipleChoice, OptionsJSON: strPtr(`{"scale":5}`)}
	assert.Nil(t, broken.Choices())

	rating := Question{Type: QuestionRating, OptionsJSON: strPtr(`["x"]`)}
	assert.Nil(t, rating.Choices())
	assert.Nil(t, (&Question{Type: QuestionMultipleChoice}).Choices())
}
