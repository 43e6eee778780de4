package agent

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateResponse_NotJSON(t *testing.T) {
	if got := ValidateResponse("not json at all"); got != nil {
		t.Fatalf("ValidateResponse = %+v, want nil", got)
	}
	if got := ValidateResponse(`["array"]`); got != nil {
		t.Fatalf("ValidateResponse on array = %+v, want nil", got)
	}
}

func TestValidateResponse_MissingReplyIsFatal(t *testing.T) {
	if got := ValidateResponse(`{"actions": []}`); got != nil {
		t.Fatalf("ValidateResponse = %+v, want nil", got)
	}
	if got := ValidateResponse(`{"reply": "   "}`); got != nil {
		t.Fatalf("ValidateResponse with blank reply = %+v, want nil", got)
	}
}

func TestValidateResponse_MinimalReply(t *testing.T) {
	got := ValidateResponse(`{"reply": " Prima. "}`)
	if got == nil {
		t.Fatal("ValidateResponse = nil")
	}
	if got.Reply != "Prima." {
		t.Errorf("Reply = %q, want trimmed", got.Reply)
	}
	if got.Result != nil {
		t.Errorf("Result = %+v, want nil", got.Result)
	}
	if len(got.Actions) != 0 || len(got.Assumptions) != 0 {
		t.Errorf("Actions/Assumptions not empty: %+v", got)
	}
	if !got.RequiresConfirm {
		t.Error("RequiresConfirm should default to true")
	}
}

func TestValidateResponse_ResultSourcesFiltered(t *testing.T) {
	raw := `{
		"reply": "ok",
		"result": {
			"title": "T",
			"content": "C",
			"sources": [
				{"title": "goed", "url": "https://example.com/a"},
				{"title": "ook goed", "url": "http://example.com/b"},
				{"title": "fout", "url": "ftp://example.com"},
				"geen object"
			]
		}
	}`
	got := ValidateResponse(raw)
	if got == nil || got.Result == nil {
		t.Fatalf("ValidateResponse = %+v", got)
	}
	if len(got.Result.Sources) != 2 {
		t.Fatalf("Sources = %+v, want 2 http(s) entries", got.Result.Sources)
	}
}

func TestValidateResponse_BadActionDroppedOthersKept(t *testing.T) {
	raw := `{
		"reply": "ok",
		"actions": [
			{"type": "append_to_note", "data": {"text": "eerste"}},
			{"type": "append_to_note", "data": {"position": "end"}},
			{"type": "onbekend", "data": {"x": 1}},
			{"type": "update_title", "data": {"title": "Nieuw"}}
		]
	}`
	got := ValidateResponse(raw)
	if got == nil {
		t.Fatal("ValidateResponse = nil")
	}
	if len(got.Actions) != 2 {
		t.Fatalf("Actions = %+v, want 2", got.Actions)
	}
	if got.Actions[0].ActionType() != ActionAppendToNote {
		t.Errorf("first action = %v", got.Actions[0].ActionType())
	}
	if got.Actions[1].ActionType() != ActionUpdateTitle {
		t.Errorf("second action = %v", got.Actions[1].ActionType())
	}
}

func TestValidateResponse_ActionCap(t *testing.T) {
	raw := `{"reply": "ok", "actions": [
		{"type": "update_title", "data": {"title": "1"}},
		{"type": "update_title", "data": {"title": "2"}},
		{"type": "update_title", "data": {"title": "3"}},
		{"type": "update_title", "data": {"title": "4"}}
	]}`
	got := ValidateResponse(raw)
	if got == nil || len(got.Actions) != maxActions {
		t.Fatalf("Actions = %d, want %d", len(got.Actions), maxActions)
	}
}

func TestValidateResponse_AppendPositionDefaultsToEnd(t *testing.T) {
	got := ValidateResponse(`{"reply": "ok", "actions": [{"type": "append_to_note", "data": {"text": "x", "position": "midden"}}]}`)
	if got == nil || len(got.Actions) != 1 {
		t.Fatalf("ValidateResponse = %+v", got)
	}
	appendAction := got.Actions[0].(AppendToNote)
	if appendAction.Position != "end" {
		t.Errorf("Position = %q, want end", appendAction.Position)
	}
}

func TestValidateResponse_AddLabelsNormalizesToSetLabels(t *testing.T) {
	raw := `{"reply": "ok", "actions": [{"type": "add_labels", "data": {"labels": [" idee ", "", "dit-label-is-veel-te-lang-voor-ons", "werk"]}}]}`
	got := ValidateResponse(raw)
	if got == nil || len(got.Actions) != 1 {
		t.Fatalf("ValidateResponse = %+v", got)
	}
	if got.Actions[0].ActionType() != ActionSetLabels {
		t.Fatalf("action = %v, want set_labels", got.Actions[0].ActionType())
	}
	labels := got.Actions[0].(SetLabels).Labels
	if len(labels) != 2 || labels[0] != "idee" || labels[1] != "werk" {
		t.Errorf("Labels = %+v", labels)
	}
}

func TestValidateResponse_ReplaceNoteForcesConfirm(t *testing.T) {
	raw := `{"reply": "ok", "requiresConfirm": false, "actions": [{"type": "replace_note", "data": {"content": "nieuw"}}]}`
	got := ValidateResponse(raw)
	if got == nil {
		t.Fatal("ValidateResponse = nil")
	}
	if !got.RequiresConfirm {
		t.Error("replace_note must force RequiresConfirm")
	}
}

func TestValidateResponse_TextBudgets(t *testing.T) {
	long := strings.Repeat("a", maxActionText+100)
	raw := `{"reply": "ok", "actions": [{"type": "replace_note", "data": {"content": "` + long + `"}}]}`
	got := ValidateResponse(raw)
	if got == nil || len(got.Actions) != 1 {
		t.Fatalf("ValidateResponse = %+v", got)
	}
	if n := len(got.Actions[0].(ReplaceNote).Content); n != maxActionText {
		t.Errorf("content length = %d, want %d", n, maxActionText)
	}
}

func TestValidateResponse_AssumptionsCapped(t *testing.T) {
	raw := `{"reply": "ok", "assumptions": ["1", "2", 3, "4", "5", "6", "7"]}`
	got := ValidateResponse(raw)
	if got == nil {
		t.Fatal("ValidateResponse = nil")
	}
	if len(got.Assumptions) != maxAssumptions {
		t.Errorf("Assumptions = %+v, want %d strings", got.Assumptions, maxAssumptions)
	}
}

func TestActionMarshalRoundTrip(t *testing.T) {
	action := Action(AppendToNote{Text: "hoi", Position: "start"})
	raw, err := json.Marshal(action)
	if err != nil {
		t.Fatal(err)
	}
	var envelope struct {
		Type string `json:"type"`
		Data struct {
			Text     string `json:"text"`
			Position string `json:"position"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Type != "append_to_note" || envelope.Data.Text != "hoi" || envelope.Data.Position != "start" {
		t.Errorf("marshalled envelope = %s", raw)
	}
}

func TestValidateChatResponse(t *testing.T) {
	if got := ValidateChatResponse(`{"editProposal": {"title": "x"}}`); got != nil {
		t.Fatalf("missing reply should fail, got %+v", got)
	}

	got := ValidateChatResponse(`{"reply": "hoi", "editProposal": {"title": " Titel ", "content": " inhoud "}}`)
	if got == nil || got.EditProposal == nil {
		t.Fatalf("ValidateChatResponse = %+v", got)
	}
	if got.EditProposal.Title != "Titel" || got.EditProposal.Content != "inhoud" {
		t.Errorf("EditProposal = %+v", got.EditProposal)
	}

	// An all-blank proposal collapses to none.
	got = ValidateChatResponse(`{"reply": "hoi", "editProposal": {"title": " ", "content": ""}}`)
	if got == nil || got.EditProposal != nil {
		t.Fatalf("ValidateChatResponse = %+v, want nil proposal", got)
	}
}

func TestValidateLabels(t *testing.T) {
	if got := ValidateLabels("kapot"); len(got) != 0 {
		t.Errorf("ValidateLabels on junk = %+v", got)
	}
	got := ValidateLabels(`{"labels": ["a", " b ", "", 7, "c", "d", "e", "f", "g"]}`)
	if len(got) != maxLabels {
		t.Fatalf("labels = %+v, want %d", got, maxLabels)
	}
	if got[1] != "b" {
		t.Errorf("labels[1] = %q, want trimmed", got[1])
	}
}

func TestValidateConversation(t *testing.T) {
	if got := ValidateConversation(`{"dialogue": "x", "summary": ""}`); got != nil {
		t.Fatalf("missing summary should fail, got %+v", got)
	}
	if got := ValidateConversation(`{"dialogue": "x", "summary": "y"}`); got != nil {
		t.Fatalf("missing labels should fail, got %+v", got)
	}

	got := ValidateConversation(`{"dialogue": "Spreker A: hoi", "summary": "Kort gesprek", "labels": ["werk", "Gesprek", "planning"]}`)
	if got == nil {
		t.Fatal("ValidateConversation = nil")
	}
	if got.Labels[0] != "Gesprek" {
		t.Errorf("labels = %+v, want Gesprek first", got.Labels)
	}
	if len(got.Labels) != 3 {
		t.Errorf("labels = %+v, want 3 without duplicates", got.Labels)
	}
}
