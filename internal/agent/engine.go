package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/llm"
	"github.com/notiva/notiva-agent/internal/research"
	"github.com/notiva/notiva-agent/internal/store"
)

// Sentinel errors the transport layer maps to status codes.
var (
	ErrModelCall   = errors.New("model call failed")
	ErrPersistence = errors.New("persisting changes failed")
)

// Researcher is the research pipeline as the engine sees it. Both methods
// are best-effort: they degrade, they never fail the request.
type Researcher interface {
	Run(ctx context.Context, query string) research.Result
	FetchMany(ctx context.Context, urls []string, maxURLs int) []research.FetchResult
}

const (
	// Combined content below this length is "thin" for a substantive
	// request and triggers the single expansion retry.
	thinThreshold = 400

	fallbackReply = "Sorry, ik kon geen goed antwoord genereren. Probeer het opnieuw."

	emptyNoteReply = "Je notitie is nog leeg. Ik kan helpen zodra je wat tekst hebt toegevoegd, of ik kan online zoeken als je de web search aanzet. Waar gaat je notitie over?"

	expansionInstruction = "Dit is te kort voor mijn vraag. Kun je meer details geven? Voeg context, voorbeelden of next steps toe."
)

var substantivePattern = regexp.MustCompile(`analyseer|rapport|marktanalyse|onderzoek.*uitgebreid|deep|diep`)

var agentGenerateOptions = llm.GenerateOptions{
	Temperature: 0.4,
	MaxTokens:   4000,
	ForceJSON:   true,
}

type Engine struct {
	provider    llm.Provider
	researcher  Researcher
	store       store.Store
	log         *zap.Logger
	maxOpenURLs int
}

func NewEngine(provider llm.Provider, researcher Researcher, st store.Store, log *zap.Logger, maxOpenURLs int) *Engine {
	if maxOpenURLs <= 0 {
		maxOpenURLs = 2
	}
	return &Engine{
		provider:    provider,
		researcher:  researcher,
		store:       st,
		log:         log,
		maxOpenURLs: maxOpenURLs,
	}
}

type RunInput struct {
	UserID  string
	Note    *store.Note
	Request Request
}

type RunOutput struct {
	Response      Response
	Sources       []research.Source
	Executed      bool
	UpdatedNote   *store.Note
	CreatedNoteID string
}

// Run drives one co-pilot request: classify intent, gather research, build
// the prompt, call the model, validate or fall back, retry once when thin,
// and execute validated actions when asked to.
func (e *Engine) Run(ctx context.Context, in RunInput) (*RunOutput, error) {
	message := strings.TrimSpace(in.Request.Message)
	mode, detail := ResolveIntent(message, in.Request.Mode, in.Request.Detail)

	noteIsEmpty := len(strings.TrimSpace(in.Note.Content)) < 10

	// An empty note plus a content-dependent ask gets a helpful nudge
	// instead of a model call.
	if noteIsEmpty && !in.Request.Web && needsNoteContent(message) {
		return &RunOutput{Response: Response{
			Reply:       emptyNoteReply,
			Actions:     []Action{},
			Assumptions: []string{},
		}}, nil
	}

	var researchResult research.Result
	researchContext := ""
	if in.Request.Web {
		query := research.GenerateSearchQuery(message, in.Note.Title)
		e.log.Info("agent: research pipeline", zap.String("query", query))
		researchResult = e.researcher.Run(ctx, query)
		researchContext = research.FormatForPrompt(researchResult)

		if len(researchResult.Sources) > 0 {
			urls := make([]string, 0, len(researchResult.Sources))
			for _, source := range researchResult.Sources {
				urls = append(urls, source.URL)
			}
			fetched := e.researcher.FetchMany(ctx, urls, e.maxOpenURLs)
			if snippet := research.ContentSnippet(fetched); snippet != "" {
				researchContext += "\n\n" + snippet
			}
		}
	}

	messages := BuildAgentMessages(MessageOptions{
		NoteTitle:       in.Note.Title,
		NoteContent:     in.Note.Content,
		UserMessage:     message,
		Detail:          detail,
		Mode:            mode,
		WebEnabled:      in.Request.Web,
		ResearchContext: researchContext,
	})

	response, err := e.generate(ctx, messages, message)
	if err != nil {
		return nil, err
	}

	out := &RunOutput{Response: *response}
	if in.Request.Web {
		out.Sources = researchResult.Sources
	}

	if in.Request.Execute && len(response.Actions) > 0 {
		updated, createdNoteID, err := e.executeActions(ctx, in.UserID, in.Note, response.Actions)
		if err != nil {
			return nil, err
		}
		out.Executed = true
		out.UpdatedNote = updated
		out.CreatedNoteID = createdNoteID
	}

	return out, nil
}

// generationState tracks the bounded retry machine: a generated response is
// either accepted as-is or expanded through exactly one retry transition.
type generationState int

const (
	stateGenerated generationState = iota
	stateRetried
	stateAccepted
)

func (e *Engine) generate(ctx context.Context, messages []llm.Message, userMessage string) (*Response, error) {
	content, err := e.provider.Generate(ctx, messages, agentGenerateOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelCall, err)
	}

	response := ValidateResponse(content)
	if response == nil {
		// Malformed model output is recovered locally, never escalated.
		e.log.Warn("agent: invalid JSON from model", zap.Int("rawLength", len(content)))
		return fallbackResponse(), nil
	}

	for state := stateGenerated; state != stateAccepted; {
		switch state {
		case stateGenerated:
			if !e.seemsThin(response, userMessage) {
				state = stateAccepted
				continue
			}
			e.log.Info("agent: thin response for substantive request, retrying once")
			if expanded := e.retryExpansion(ctx, messages, content); expanded != nil {
				response = expanded
			}
			state = stateRetried
		case stateRetried:
			state = stateAccepted
		}
	}

	return response, nil
}

// retryExpansion issues the single expansion round-trip. Any failure keeps
// the original response; this is best-effort enhancement.
func (e *Engine) retryExpansion(ctx context.Context, messages []llm.Message, priorContent string) *Response {
	retryMessages := append(append([]llm.Message{}, messages...),
		llm.Message{Role: "assistant", Content: priorContent},
		llm.Message{Role: "user", Content: expansionInstruction},
	)

	content, err := e.provider.Generate(ctx, retryMessages, agentGenerateOptions)
	if err != nil {
		e.log.Warn("agent: expansion retry failed", zap.Error(err))
		return nil
	}
	expanded := ValidateResponse(content)
	if expanded == nil {
		e.log.Warn("agent: expansion retry did not validate, keeping original")
		return nil
	}
	return expanded
}

// seemsThin reports whether a validated response is too shallow for a
// substantive request.
func (e *Engine) seemsThin(response *Response, message string) bool {
	if !substantivePattern.MatchString(strings.ToLower(message)) {
		return false
	}

	contentLength := 0
	if response.Result != nil {
		contentLength = len(response.Result.Content)
	}
	for _, action := range response.Actions {
		switch a := action.(type) {
		case AppendToNote:
			contentLength += len(a.Text)
		case ReplaceNote:
			contentLength += len(a.Content)
		case CreateNote:
			contentLength += len(a.Content)
		case UpdateTitle, SetLabels:
			// carry no body text
		}
	}
	return contentLength < thinThreshold
}

func needsNoteContent(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "samenva") ||
		strings.Contains(lower, "bullet") ||
		strings.Contains(lower, "herschrijf alles")
}

func fallbackResponse() *Response {
	return &Response{
		Reply:       fallbackReply,
		Actions:     []Action{},
		Assumptions: []string{},
	}
}
