package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/notiva/notiva-agent/internal/llm"
)

const maxNoteContext = 6000

// MessageOptions carries everything the assembler needs for one agent call.
type MessageOptions struct {
	NoteTitle       string
	NoteContent     string
	UserMessage     string
	Detail          string
	Mode            string
	WebEnabled      bool
	ResearchContext string
}

// BuildAgentMessages assembles the ordered instruction sequence: charter →
// output contract → mode template (omitted for general) → detail guidance →
// research context or web-disabled notice → note context + user message.
// Truncation points are fixed budgets, not adaptive.
func BuildAgentMessages(opts MessageOptions) []llm.Message {
	trimmedContent := truncate(opts.NoteContent, maxNoteContext)
	isEmpty := strings.TrimSpace(trimmedContent) == "" || len(strings.TrimSpace(trimmedContent)) < 10

	title := opts.NoteTitle
	if title == "" {
		title = "Zonder titel"
	}

	var noteContext string
	if isEmpty {
		noteContext = fmt.Sprintf("NOTITIE: %q (nog leeg - help de gebruiker starten)", title)
	} else {
		noteContext = fmt.Sprintf("NOTITIE: %q\n\n%s", title, trimmedContent)
	}

	messages := []llm.Message{
		{Role: "system", Content: agentCharter},
		{Role: "system", Content: agentOutputContract},
	}

	if opts.Mode != ModeGeneral {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: fmt.Sprintf("MODE: %s\n%s", opts.Mode, modeTemplates[opts.Mode]),
		})
	}

	messages = append(messages, llm.Message{Role: "system", Content: detailInstructions[opts.Detail]})

	if opts.WebEnabled && opts.ResearchContext != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: fmt.Sprintf("WEB SEARCH RESULTATEN:\n%s\n\nGebruik deze bronnen in je antwoord en vermeld ze.", opts.ResearchContext),
		})
	} else if !opts.WebEnabled {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: "Web search staat UIT. Werk met de notitie-inhoud + algemene kennis. Als de user om online info vraagt, bied aan om web search aan te zetten.",
		})
	}

	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("%s\n\n---\n\n%s", noteContext, strings.TrimSpace(opts.UserMessage)),
	})

	return messages
}

func BuildChatMessages(noteTitle string, noteContent string, userMessage string) []llm.Message {
	title := noteTitle
	if title == "" {
		title = "(geen titel)"
	}
	content := truncate(noteContent, maxNoteContext)
	if content == "" {
		content = "(leeg)"
	}
	noteContext := fmt.Sprintf("NOTITIE TITEL: %s\n\nNOTITIE INHOUD:\n%s", title, content)

	return []llm.Message{
		{Role: "system", Content: baseSystemPrompt},
		{Role: "system", Content: chatOutputRules},
		{Role: "user", Content: fmt.Sprintf("%s\n\n---\n\nGEBRUIKER VRAAGT: %s", noteContext, strings.TrimSpace(userMessage))},
	}
}

func BuildLabelMessages(noteTitle string, noteContent string) []llm.Message {
	title := noteTitle
	if title == "" {
		title = "(geen titel)"
	}
	content := truncate(noteContent, 1500)
	if content == "" {
		content = "(leeg)"
	}
	noteContext := fmt.Sprintf("Genereer labels voor deze notitie:\n\nTITEL: %s\n\nINHOUD:\n%s", title, content)

	return []llm.Message{
		{Role: "system", Content: baseSystemPrompt},
		{Role: "system", Content: labelOutputRules},
		{Role: "user", Content: noteContext},
	}
}

func BuildConversationMessages(transcript string) []llm.Message {
	context := fmt.Sprintf("Verwerk deze gesprekstranscriptie:\n\n%s", truncate(transcript, 8000))

	return []llm.Message{
		{Role: "system", Content: baseSystemPrompt},
		{Role: "system", Content: conversationOutputRules},
		{Role: "user", Content: strings.TrimSpace(context)},
	}
}

// truncate bounds s to max bytes without erroring on short input. Budgets
// in this package are byte counts over what is effectively markdown text;
// the cut backs up to a rune boundary so the result stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
