package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/soaringjerry/feedbacktool/internal/ai"
	"github.com/soaringjerry/feedbacktool/internal/models"
)

type TextKind string

const (
	KindTitle       TextKind = "title"
	KindDescription TextKind = "description"
	KindQuestion    TextKind = "question"
	KindOption      TextKind = "option"
	KindGeneral     TextKind = "general"
)

type kindConfig struct {
	maxLength    int
	systemPrompt string
	instructions string
}

var kindConfigs = map[TextKind]kindConfig{
	KindTitle: {
		maxLength:    80,
		systemPrompt: "You are an expert at creating clear, engaging, and concise titles. Your task is to improve the user's title while keeping it short, impactful, and professional. Focus on clarity, engagement, and brevity.",
		instructions: "Make it catchy but professional, clear and concise",
	},
	KindDescription: {
		maxLength:    500,
		systemPrompt: "You are an expert at writing clear, informative descriptions. Your task is to improve the user's description while maintaining clarity and engagement. Focus on being informative, clear, and well-structured.",
		instructions: "Make it clear, informative, and well-structured",
	},
	KindQuestion: {
		maxLength:    200,
		systemPrompt: "You are an expert at creating clear, unbiased survey questions. Your task is to improve the user's question while ensuring it's clear, neutral, and easy to understand. Focus on clarity, neutrality, and avoiding leading questions.",
		instructions: "Make it clear, neutral, and easy to understand",
	},
	KindOption: {
		maxLength:    100,
		systemPrompt: "You are an expert at creating clear, concise option text. Your task is to improve the user's option while keeping it brief and clear. Focus on clarity and brevity.",
		instructions: "Make it clear and concise",
	},
	KindGeneral: {
		maxLength:    300,
		systemPrompt: "You are an expert at improving text clarity and engagement. Your task is to enhance the user's text while maintaining its original intent. Focus on clarity, flow, and readability.",
		instructions: "Make it clear, well-written, and engaging",
	},
}

// kindContexts are the default contexts for the typed helpers.
var kindContexts = map[TextKind]string{
	KindTitle:       "This is a survey title that should be engaging and clear",
	KindDescription: "This is a survey description that explains the purpose and instructions",
	KindQuestion:    "This is a survey question that should be clear and unbiased",
	KindOption:      "This is a multiple choice option that should be clear and concise",
}

const suggestionSystemPrompt = "You are an expert copywriter who creates multiple variations of text improvements. Focus on providing diverse, high-quality alternatives that maintain the original intent."

// ImproveOptions tune a single improvement. Zero values use the kind defaults.
type ImproveOptions struct {
	MaxLength      int
	Context        string
	Tone           string
	PreserveLength bool
}

// PhrasingService rewrites survey text through a text generator.
type PhrasingService struct {
	gen      ai.Generator
	log      *slog.Logger
	sanitize *bluemonday.Policy
	model    string
}

func NewPhrasingService(gen ai.Generator, log *slog.Logger) *PhrasingService {
	if gen == nil {
		gen = ai.Disabled{}
	}
	return &PhrasingService{gen: gen, log: orDiscard(log), sanitize: bluemonday.StrictPolicy()}
}

// WithModel overrides the provider's default model.
func (s *PhrasingService) WithModel(model string) *PhrasingService {
	s.model = model
	return s
}

func configFor(kind TextKind) (TextKind, kindConfig) {
	if cfg, ok := kindConfigs[kind]; ok {
		return kind, cfg
	}
	return KindGeneral, kindConfigs[KindGeneral]
}

func buildImprovePrompt(text string, kind TextKind, cfg kindConfig, opts ImproveOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please improve the following %s:\n\n\"%s\"\n\n", kind, text)
	fmt.Fprintf(&b, "Instructions: %s. ", cfg.instructions)
	if opts.PreserveLength {
		fmt.Fprintf(&b, "Keep the length similar to the original (around %d characters). ", len([]rune(text)))
	} else {
		fmt.Fprintf(&b, "Keep it under %d characters. ", cfg.maxLength)
	}
	fmt.Fprintf(&b, "Use a %s tone. ", opts.Tone)
	if opts.Context != "" {
		fmt.Fprintf(&b, "Context: %s. ", opts.Context)
	}
	b.WriteString("\n\nReturn only the improved text without any additional explanation or formatting.")
	return b.String()
}

// Improve rewrites text for the given kind. Unknown kinds fall back to general.
func (s *PhrasingService) Improve(ctx context.Context, text string, kind TextKind, opts ImproveOptions) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", NewInvalidError("Text is required for improvement")
	}
	kind, cfg := configFor(kind)
	if opts.MaxLength > 0 {
		cfg.maxLength = opts.MaxLength
	}
	if opts.Tone == "" {
		opts.Tone = "professional"
	}
	out, err := s.gen.Generate(ctx, ai.Request{
		Prompt:       buildImprovePrompt(text, kind, cfg, opts),
		SystemPrompt: cfg.systemPrompt,
		Model:        s.model,
		Temperature:  0.7,
		MaxTokens:    int(math.Ceil(float64(cfg.maxLength) / 2)),
	})
	if err != nil {
		return "", s.generationError("improve", err)
	}
	cleaned := s.clean(out)
	if cleaned == "" {
		return "", s.generationError("improve", ai.ErrNoText)
	}
	final := truncateAtWord(cleaned, cfg.maxLength)
	s.log.Debug("text improved", "kind", kind, "original_len", len([]rune(text)), "improved_len", len([]rune(final)))
	return final, nil
}

// ImproveFor applies the kind's default context unless opts sets one.
func (s *PhrasingService) ImproveFor(ctx context.Context, text string, kind TextKind, opts ImproveOptions) (string, error) {
	if opts.Context == "" {
		opts.Context = kindContexts[kind]
	}
	return s.Improve(ctx, text, kind, opts)
}

// ImproveQuestion adds context describing the question type.
func (s *PhrasingService) ImproveQuestion(ctx context.Context, text string, qt models.QuestionType) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", NewInvalidError("Question text is required")
	}
	return s.Improve(ctx, text, KindQuestion, ImproveOptions{Context: questionContext(qt)})
}

func questionContext(qt models.QuestionType) string {
	c := "This is a survey question that should be clear, neutral, and unbiased."
	switch qt {
	case models.QuestionRating:
		return c + " This is a rating question that asks users to rate something on a scale."
	case models.QuestionMultipleChoice:
		return c + " This is a multiple choice question with predefined options."
	case models.QuestionText:
		return c + " This is a text input question that allows open-ended responses."
	case models.QuestionLongText:
		return c + " This is a long text question for detailed responses."
	}
	return c + " Make it engaging but neutral."
}

// ImproveOption rewrites a multiple choice option.
func (s *PhrasingService) ImproveOption(ctx context.Context, text string) (string, error) {
	return s.Improve(ctx, text, KindOption, ImproveOptions{
		Context: "This is a multiple choice option that should be clear and distinct from other options.",
	})
}

// Suggestions asks for n alternative versions of text.
func (s *PhrasingService) Suggestions(ctx context.Context, text string, kind TextKind, n int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInvalidError("Text is required for generating suggestions")
	}
	if n <= 0 {
		n = 3
	}
	kind, _ = configFor(kind)
	prompt := fmt.Sprintf("Generate %d different improved versions of this %s:\n\n\"%s\"\n\nRequirements:\n"+
		"- Each version should be distinct and offer a different approach\n"+
		"- Maintain the original meaning and intent\n"+
		"- Focus on clarity, engagement, and professionalism\n"+
		"- Return only the suggestions, one per line, without numbering or additional text", n, kind, text)
	out, err := s.gen.Generate(ctx, ai.Request{
		Prompt:       prompt,
		SystemPrompt: suggestionSystemPrompt,
		Model:        s.model,
		Temperature:  0.8,
	})
	if err != nil {
		return nil, s.generationError("suggestions", err)
	}
	return splitLines(s.sanitizeText(out), n), nil
}

// OptionSuggestions proposes n answer options for a multiple choice question.
func (s *PhrasingService) OptionSuggestions(ctx context.Context, question string, n int) ([]string, error) {
	if strings.TrimSpace(question) == "" {
		return nil, NewInvalidError("Question text is required for generating option suggestions")
	}
	if n <= 0 {
		n = 4
	}
	prompt := fmt.Sprintf("Generate %d appropriate multiple choice options for this question: \"%s\"\n\nRequirements:\n"+
		"- Options should be mutually exclusive and comprehensive\n"+
		"- Cover the most likely responses\n"+
		"- Be concise and clear\n"+
		"- Avoid overlapping meanings\n"+
		"- Return only the options, one per line, without numbering or formatting", n, question)
	out, err := s.Improve(ctx, prompt, KindOption, ImproveOptions{Context: "Generate multiple choice options", MaxLength: 500})
	if err != nil {
		return nil, err
	}
	return splitLines(out, n), nil
}

func (s *PhrasingService) sanitizeText(out string) string {
	return html.UnescapeString(s.sanitize.Sanitize(out))
}

var edgeQuotes = regexp.MustCompile(`^["']|["']$`)

// clean strips markup, surrounding whitespace and one pair of wrapping quotes.
func (s *PhrasingService) clean(out string) string {
	return edgeQuotes.ReplaceAllString(strings.TrimSpace(s.sanitizeText(out)), "")
}

// truncateAtWord cuts text to max runes, preferring a word boundary past 80% of max.
func truncateAtWord(text string, max int) string {
	r := []rune(text)
	if max <= 0 || len(r) <= max {
		return text
	}
	cut := r[:max]
	last := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] == ' ' {
			last = i
			break
		}
	}
	if float64(last) > float64(max)*0.8 {
		return string(cut[:last]) + "..."
	}
	return string(cut)
}

func splitLines(s string, n int) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
		if len(out) == n {
			break
		}
	}
	return out
}

// generationError maps provider failures onto service errors.
func (s *PhrasingService) generationError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ai.ErrNotConfigured):
		return NewInvalidError("AI assistance is not configured")
	case errors.Is(err, ai.ErrNoText):
		return NewBadGatewayError("No text generated from AI")
	}
	s.log.Warn("text generation failed", "op", op, "error", err)
	var pe *ai.ProviderError
	if errors.As(err, &pe) && pe.StatusCode == 429 {
		return NewTooManyRequestsError("AI service is busy. Please try again.")
	}
	return NewBadGatewayError("Failed to improve text. Please try again.")
}
