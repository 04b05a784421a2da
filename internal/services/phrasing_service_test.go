package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/feedbacktool/internal/ai"
	"github.com/soaringjerry/feedbacktool/internal/models"
)

type stubGenerator struct {
	out  string
	err  error
	last ai.Request
}

func (g *stubGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	g.last = req
	return g.out, g.err
}

func TestImproveBuildsPromptAndSettings(t *testing.T) {
	gen := &stubGenerator{out: `"Quarterly Team Check-in"`}
	svc := NewPhrasingService(gen, nil)

	out, err := svc.ImproveFor(context.Background(), "q3 checkin", KindTitle, ImproveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Team Check-in", out)

	assert.Equal(t, float32(0.7), gen.last.Temperature)
	assert.Equal(t, 40, gen.last.MaxTokens)
	assert.Equal(t, kindConfigs[KindTitle].systemPrompt, gen.last.SystemPrompt)
	assert.True(t, strings.HasPrefix(gen.last.Prompt, "Please improve the following title:\n\n\"q3 checkin\"\n\n"))
	assert.Contains(t, gen.last.Prompt, "Instructions: Make it catchy but professional, clear and concise. ")
	assert.Contains(t, gen.last.Prompt, "Keep it under 80 characters. ")
	assert.Contains(t, gen.last.Prompt, "Use a professional tone. ")
	assert.Contains(t, gen.last.Prompt, "Context: This is a survey title that should be engaging and clear. ")
	assert.True(t, strings.HasSuffix(gen.last.Prompt, "Return only the improved text without any additional explanation or formatting."))
}

func TestImproveOptionUsesOverriddenModel(t *testing.T) {
	gen := &stubGenerator{out: "Very satisfied"}
	svc := NewPhrasingService(gen, nil).WithModel("gpt-4o-mini")

	out, err := svc.ImproveOption(context.Background(), "v satisfied")
	require.NoError(t, err)
	assert.Equal(t, "Very satisfied", out)
	assert.Equal(t, "gpt-4o-mini", gen.last.Model)
	assert.Equal(t, kindConfigs[KindOption].systemPrompt, gen.last.SystemPrompt)
	assert.Contains(t, gen.last.Prompt, "Please improve the following option:")
	assert.Contains(t, gen.last.Prompt, "clear and distinct from other options")
}

func TestImprovePreserveLengthAndUnknownKind(t *testing.T) {
	gen := &stubGenerator{out: "fine"}
	svc := NewPhrasingService(gen, nil)

	_, err := svc.Improve(context.Background(), "abcdef", "haiku", ImproveOptions{PreserveLength: true, Tone: "casual"})
	require.NoError(t, err)
	assert.Contains(t, gen.last.Prompt, "Please improve the following general:")
	assert.Contains(t, gen.last.Prompt, "Keep the length similar to the original (around 6 characters). ")
	assert.Contains(t, gen.last.Prompt, "Use a casual tone. ")
	assert.Equal(t, 150, gen.last.MaxTokens)
}

func TestImproveSanitizesAndTruncates(t *testing.T) {
	long := strings.Repeat("word ", 30) // 150 chars
	gen := &stubGenerator{out: "<b>" + long + "</b>"}
	svc := NewPhrasingService(gen, nil)

	out, err := svc.Improve(context.Background(), "x", KindOption, ImproveOptions{})
	require.NoError(t, err)
	assert.NotContains(t, out, "<b>")
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.LessOrEqual(t, len([]rune(out)), 100+3)
}

func TestTruncateAtWord(t *testing.T) {
	assert.Equal(t, "short", truncateAtWord("short", 10))
	// last space at index 9 of 10 is past 80%
	assert.Equal(t, "abcd efgh...", truncateAtWord("abcd efgh ijkl", 10))
	// no late space: hard cut
	assert.Equal(t, "abcdefghij", truncateAtWord("abcdefghijklmnop", 10))
	assert.Equal(t, "ab cdefghi", truncateAtWord("ab cdefghijk", 10))
}

func TestImproveEntitiesSurviveSanitizing(t *testing.T) {
	svc := NewPhrasingService(&stubGenerator{out: "Q&A for R&D"}, nil)
	out, err := svc.Improve(context.Background(), "qa", KindTitle, ImproveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Q&A for R&D", out)
}

func TestImproveQuestionContext(t *testing.T) {
	gen := &stubGenerator{out: "How satisfied are you?"}
	svc := NewPhrasingService(gen, nil)
	_, err := svc.ImproveQuestion(context.Background(), "satisfied?", models.QuestionRating)
	require.NoError(t, err)
	assert.Contains(t, gen.last.Prompt, "This is a rating question that asks users to rate something on a scale.")

	assert.Equal(t, "This is a survey question that should be clear, neutral, and unbiased. Make it engaging but neutral.", questionContext(""))
}

func TestSuggestions(t *testing.T) {
	gen := &stubGenerator{out: "One\n\n  Two  \nThree\nFour"}
	svc := NewPhrasingService(gen, nil)

	got, err := svc.Suggestions(context.Background(), "hello", KindTitle, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two", "Three"}, got)
	assert.Equal(t, float32(0.8), gen.last.Temperature)
	assert.Equal(t, suggestionSystemPrompt, gen.last.SystemPrompt)

	_, err = svc.Suggestions(context.Background(), " ", KindTitle, 3)
	assert.True(t, IsCode(err, ErrorInvalid))
}

func TestOptionSuggestions(t *testing.T) {
	gen := &stubGenerator{out: "Daily\nWeekly\nMonthly\nNever\nYearly"}
	svc := NewPhrasingService(gen, nil)

	got, err := svc.OptionSuggestions(context.Background(), "How often do you exercise?", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Daily", "Weekly", "Monthly", "Never"}, got)
	assert.Equal(t, 250, gen.last.MaxTokens)
	assert.Contains(t, gen.last.Prompt, "Please improve the following option:")
}

func TestPhrasingErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{ai.ErrNotConfigured, ErrorInvalid},
		{ai.ErrNoText, ErrorBadGateway},
		{&ai.ProviderError{Provider: "openai", StatusCode: 429}, ErrorTooManyRequests},
		{&ai.ProviderError{Provider: "gemini"}, ErrorBadGateway},
	}
	for _, tc := range cases {
		svc := NewPhrasingService(&stubGenerator{err: tc.err}, nil)
		_, err := svc.Improve(context.Background(), "text", KindGeneral, ImproveOptions{})
		assert.True(t, IsCode(err, tc.code), "%v", tc.err)
	}

	svc := NewPhrasingService(&stubGenerator{err: context.Canceled}, nil)
	_, err := svc.Improve(context.Background(), "text", KindGeneral, ImproveOptions{})
	assert.ErrorIs(t, err, context.Canceled)

	svc = NewPhrasingService(&stubGenerator{out: `""`}, nil)
	_, err = svc.Improve(context.Background(), "text", KindGeneral, ImproveOptions{})
	assert.True(t, IsCode(err, ErrorBadGateway))

	_, err = NewPhrasingService(nil, nil).Improve(context.Background(), "text", KindGeneral, ImproveOptions{})
	assert.True(t, IsCode(err, ErrorInvalid))
}
