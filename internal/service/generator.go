package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atlas-learn/atlasai/internal/domain"
)

// CompletionClient defines the interface for LLM completions.
type CompletionClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// maxSourceChars caps how much source text goes into a single prompt,
// bounding token cost regardless of document size.
const maxSourceChars = 6000

const conceptSystemPrompt = `You are a knowledge-mapping assistant. Given source text, produce a JSON object with exactly these top-level keys: "concepts", "timeline", "actionPlan".

Rules:
- "concepts" has "nodes" and "edges". Each node: {"id", "label", "description", "excerpt"}. Each edge: {"source", "target", "label"} where source and target are node ids. Never create an edge whose endpoints are not in nodes. No self-loops.
- "timeline" has "events". Each event: {"id", "date", "title", "description", "category", "importance"}. If the source has no chronology, return an empty events array.
- "actionPlan" has "phases". Each phase: {"id", "name", "description", "steps"} and each step: {"id", "text", "effort", "priority"} with priority one of "low", "medium", "high".
- Identify 5 to 15 key concepts. Prefer specific concepts over generic ones.
- Respond with JSON only.

Example output:
{"concepts":{"nodes":[{"id":"1","label":"Photosynthesis","description":"Conversion of light to chemical energy","excerpt":"plants convert sunlight"},{"id":"2","label":"Chlorophyll","description":"Light-absorbing pigment","excerpt":"green pigment"}],"edges":[{"source":"2","target":"1","label":"enables"}]},"timeline":{"events":[{"id":"1","date":"1771","title":"Priestley's experiment","description":"Plants restore air","category":"discovery","importance":"high"}]},"actionPlan":{"phases":[{"id":"1","name":"Foundations","description":"Core terminology","steps":[{"id":"1","text":"Review the light reactions","effort":"30m","priority":"high"}]}]}}`

const quizSystemPrompt = `You are a quiz generator. Given source text, produce a JSON object: {"questions":[{"id","question","options","answerIndex","explanation"}]}. Each question has exactly 4 options and answerIndex is the 0-based index of the correct one. Questions must be answerable from the source text alone. Respond with JSON only.`

const chatSystemPrompt = `You are a study assistant. Answer the user's question using the provided context excerpts from their documents. When the context does not cover the question, say so briefly rather than inventing an answer. Keep answers concise.`

// GeneratedContent is the full artifact set produced from one source text.
type GeneratedContent struct {
	Concepts   domain.ConceptGraph `json:"concepts"`
	Timeline   domain.Timeline     `json:"timeline"`
	ActionPlan domain.ActionPlan   `json:"actionPlan"`
}

// GeneratorService turns extracted source text into concept graphs,
// timelines, action plans, quizzes, and chat replies.
type GeneratorService struct {
	llm CompletionClient
}

// NewGeneratorService creates a new GeneratorService instance.
func NewGeneratorService(llm CompletionClient) *GeneratorService {
	return &GeneratorService{llm: llm}
}

// GenerateContent produces the concept graph, timeline, and action plan for
// one source text. The result is always normalized: absent nodes, edges,
// events, and phases come back as empty arrays, never nil.
func (s *GeneratorService) GenerateContent(ctx context.Context, source string) (*GeneratedContent, error) {
	prompt := "Source text:\n\n" + truncateSource(source, maxSourceChars)

	raw, err := s.llm.CompleteJSON(ctx, conceptSystemPrompt, prompt)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "completion failed", err)
	}

	var content GeneratedContent
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &content); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "model output is not valid JSON", err)
	}

	content.Concepts.Normalize()
	content.Timeline.Normalize()
	content.ActionPlan.Normalize()

	return &content, nil
}

// GenerateRepoActionPlan builds an onboarding plan for a repository. Unlike
// the other generation paths this one never fails: any completion or parse
// error substitutes a static default plan so the response stays non-empty.
func (s *GeneratorService) GenerateRepoActionPlan(ctx context.Context, repoSummary string) domain.ActionPlan {
	const system = `You are an engineering onboarding assistant. Given a repository summary, produce a JSON object {"phases":[{"id","name","description","steps":[{"id","text","effort","priority"}]}]} describing how a new contributor should approach the codebase. Respond with JSON only.`

	raw, err := s.llm.CompleteJSON(ctx, system, "Repository summary:\n\n"+truncateSource(repoSummary, maxSourceChars))
	if err != nil {
		return defaultRepoActionPlan()
	}

	var plan domain.ActionPlan
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &plan); err != nil {
		return defaultRepoActionPlan()
	}

	plan.Normalize()
	if len(plan.Phases) == 0 {
		return defaultRepoActionPlan()
	}
	return plan
}

// GenerateQuiz produces a multiple-choice quiz from stored chunk content.
// The question count is clamped to [1, 20] and difficulty defaults to medium.
func (s *GeneratorService) GenerateQuiz(ctx context.Context, source, difficulty string, questionCount int) (*domain.Quiz, error) {
	if questionCount < 1 {
		questionCount = 5
	}
	if questionCount > 20 {
		questionCount = 20
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	prompt := fmt.Sprintf("Generate %d %s-difficulty questions from this source text:\n\n%s",
		questionCount, difficulty, truncateSource(source, maxSourceChars))

	raw, err := s.llm.CompleteJSON(ctx, quizSystemPrompt, prompt)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "quiz completion failed", err)
	}

	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &quiz); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "model output is not valid JSON", err)
	}

	quiz.Normalize()
	return &quiz, nil
}

// GenerateChatReply answers a user message grounded on retrieved chunk text.
func (s *GeneratorService) GenerateChatReply(ctx context.Context, contextText, message string) (string, error) {
	var b strings.Builder
	if strings.TrimSpace(contextText) != "" {
		b.WriteString("Context:\n")
		b.WriteString(truncateSource(contextText, maxSourceChars))
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(message)

	reply, err := s.llm.Complete(ctx, chatSystemPrompt, b.String())
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "chat completion failed", err)
	}
	return reply, nil
}

func defaultRepoActionPlan() domain.ActionPlan {
	plan := domain.ActionPlan{
		Phases: []domain.ActionPhase{
			{
				ID:          "1",
				Name:        "Orient",
				Description: "Understand what the repository does and how it is laid out",
				Steps: []domain.ActionStep{
					{ID: "1", Text: "Read the README and any top-level docs", Effort: "30m", Priority: domain.StepPriorityHigh},
					{ID: "2", Text: "Map the directory structure to the main components", Effort: "30m", Priority: domain.StepPriorityMedium},
				},
			},
			{
				ID:          "2",
				Name:        "Run it",
				Description: "Get the project building and its tests passing locally",
				Steps: []domain.ActionStep{
					{ID: "1", Text: "Install dependencies and build the project", Effort: "1h", Priority: domain.StepPriorityHigh},
					{ID: "2", Text: "Run the test suite and note any failures", Effort: "30m", Priority: domain.StepPriorityMedium},
				},
			},
			{
				ID:          "3",
				Name:        "Contribute",
				Description: "Make a first change end to end",
				Steps: []domain.ActionStep{
					{ID: "1", Text: "Trace one recent commit through the codebase", Effort: "1h", Priority: domain.StepPriorityMedium},
					{ID: "2", Text: "Pick a small issue and open a pull request", Effort: "2h", Priority: domain.StepPriorityLow},
				},
			},
		},
	}
	plan.Normalize()
	return plan
}

// truncateSource bounds prompt size, cutting on a rune boundary.
func truncateSource(text string, maxChars int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxChars {
		return string(runes)
	}
	return string(runes[:maxChars])
}

// stripCodeFences removes a Markdown code-fence wrapper when the model adds
// one despite JSON mode.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
