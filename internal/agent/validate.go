package agent

import (
	"encoding/json"
	"strings"
)

// Field budgets for validated model output.
const (
	maxReplySources   = 10
	maxAssumptions    = 5
	maxActions        = 3
	maxActionText     = 40000
	maxTitleLength    = 200
	maxLabels         = 6
	maxLabelLength    = 20
	maxProposalLength = 40000
)

// ValidateResponse parses raw model text claimed to be JSON and coerces it
// into a bounded Response. It is total: any structural deviation yields nil,
// never a panic or an error. Per-field failures are independent — a bad
// action element is dropped, a bad result field coerces to empty — except a
// missing or blank reply, which fails the whole response.
func ValidateResponse(raw string) *Response {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}

	reply := strings.TrimSpace(asString(obj["reply"]))
	if reply == "" {
		return nil
	}

	var result *ResultData
	if r, ok := obj["result"].(map[string]any); ok {
		result = &ResultData{
			Title:   asString(r["title"]),
			Content: asString(r["content"]),
			Sources: []SourceRef{},
		}
		if sources, ok := r["sources"].([]any); ok {
			for _, raw := range sources {
				entry, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				source := SourceRef{Title: asString(entry["title"]), URL: asString(entry["url"])}
				if !strings.HasPrefix(source.URL, "http") {
					continue
				}
				result.Sources = append(result.Sources, source)
				if len(result.Sources) == maxReplySources {
					break
				}
			}
		}
	}

	assumptions := []string{}
	if values, ok := obj["assumptions"].([]any); ok {
		for _, value := range values {
			if s, ok := value.(string); ok {
				assumptions = append(assumptions, s)
				if len(assumptions) == maxAssumptions {
					break
				}
			}
		}
	}

	actions := []Action{}
	if values, ok := obj["actions"].([]any); ok {
		for _, value := range values {
			action := decodeAction(value)
			if action == nil {
				continue
			}
			actions = append(actions, action)
			if len(actions) == maxActions {
				break
			}
		}
	}

	// Fail-safe default: never silently grant unconfirmed risky edits.
	requiresConfirm := true
	if flag, ok := obj["requiresConfirm"].(bool); ok {
		requiresConfirm = flag
	}
	for _, action := range actions {
		if action.ActionType() == ActionReplaceNote {
			requiresConfirm = true
		}
	}

	return &Response{
		Reply:           reply,
		Result:          result,
		Actions:         actions,
		RequiresConfirm: requiresConfirm,
		Assumptions:     assumptions,
	}
}

// decodeAction turns one untyped array element into a concrete Action.
// Elements with an unknown type or a payload missing its required fields
// decode to nil and are dropped, not fatal to the batch.
func decodeAction(value any) Action {
	entry, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	kind, ok := entry["type"].(string)
	if !ok {
		return nil
	}
	data, ok := entry["data"].(map[string]any)
	if !ok {
		return nil
	}

	switch ActionType(kind) {
	case ActionAppendToNote:
		text, ok := data["text"].(string)
		if !ok {
			return nil
		}
		position := "end"
		if data["position"] == "start" {
			position = "start"
		}
		return AppendToNote{Text: truncate(text, maxActionText), Position: position}

	case ActionReplaceNote:
		content, ok := data["content"].(string)
		if !ok {
			return nil
		}
		return ReplaceNote{Content: truncate(content, maxActionText)}

	case ActionUpdateTitle:
		title, ok := data["title"].(string)
		if !ok {
			return nil
		}
		return UpdateTitle{Title: truncate(title, maxTitleLength)}

	case "add_labels", ActionSetLabels:
		// add_labels normalizes to set_labels: a label action always
		// replaces the whole label set, never merges.
		raw, ok := data["labels"].([]any)
		if !ok {
			return nil
		}
		labels := []string{}
		for _, value := range raw {
			label, ok := value.(string)
			if !ok {
				continue
			}
			label = strings.TrimSpace(label)
			if label == "" || len(label) > maxLabelLength {
				continue
			}
			labels = append(labels, label)
			if len(labels) == maxLabels {
				break
			}
		}
		return SetLabels{Labels: labels}

	case ActionCreateNote:
		title, ok := data["title"].(string)
		if !ok {
			return nil
		}
		content, ok := data["content"].(string)
		if !ok {
			return nil
		}
		return CreateNote{Title: truncate(title, maxTitleLength), Content: truncate(content, maxActionText)}

	default:
		return nil
	}
}

// ValidateChatResponse is the chat endpoint's lighter decoder: reply plus an
// optional edit proposal.
func ValidateChatResponse(raw string) *ChatResponse {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}

	reply := strings.TrimSpace(asString(obj["reply"]))
	if reply == "" {
		return nil
	}

	var proposal *EditProposal
	if p, ok := obj["editProposal"].(map[string]any); ok {
		title := strings.TrimSpace(asString(p["title"]))
		content := strings.TrimSpace(asString(p["content"]))
		if title != "" || content != "" {
			proposal = &EditProposal{Title: title, Content: truncate(content, maxProposalLength)}
		}
	}

	return &ChatResponse{Reply: reply, EditProposal: proposal}
}

// ValidateLabels extracts a bounded label list; any failure yields the
// empty list.
func ValidateLabels(raw string) []string {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return []string{}
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return []string{}
	}
	values, ok := obj["labels"].([]any)
	if !ok {
		return []string{}
	}

	labels := []string{}
	for _, value := range values {
		label, ok := value.(string)
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if label == "" || len(label) > maxLabelLength {
			continue
		}
		labels = append(labels, label)
		if len(labels) == maxLabels {
			break
		}
	}
	return labels
}

// ValidateConversation decodes the diarization response. "Gesprek" is always
// forced to be the first label.
func ValidateConversation(raw string) *ConversationResponse {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return nil
	}

	dialogue := strings.TrimSpace(asString(obj["dialogue"]))
	summary := strings.TrimSpace(asString(obj["summary"]))
	if dialogue == "" || summary == "" {
		return nil
	}
	values, ok := obj["labels"].([]any)
	if !ok {
		return nil
	}

	labels := []string{}
	for _, value := range values {
		label, ok := value.(string)
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if label == "" || len(label) > maxLabelLength {
			continue
		}
		labels = append(labels, label)
		if len(labels) == maxLabels {
			break
		}
	}

	filtered := []string{"Gesprek"}
	for _, label := range labels {
		if label != "Gesprek" {
			filtered = append(filtered, label)
		}
	}
	if len(filtered) > maxLabels {
		filtered = filtered[:maxLabels]
	}

	return &ConversationResponse{Dialogue: dialogue, Summary: summary, Labels: filtered}
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}
