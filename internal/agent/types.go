package agent

import "encoding/json"

const (
	DetailShort  = "short"
	DetailNormal = "normal"
	DetailDeep   = "deep"

	ModeGeneral        = "general"
	ModeResearch       = "research"
	ModeMarketAnalysis = "market_analysis"
)

func validDetail(detail string) bool {
	return detail == DetailShort || detail == DetailNormal || detail == DetailDeep
}

func validMode(mode string) bool {
	return mode == ModeGeneral || mode == ModeResearch || mode == ModeMarketAnalysis
}

// Request is one co-pilot invocation. NoteID is required: the model must
// ground every claim in a note the caller actually owns.
type Request struct {
	NoteID  string `json:"noteId"`
	Message string `json:"message"`
	Execute bool   `json:"execute"`
	Web     bool   `json:"web"`
	Detail  string `json:"detail"`
	Mode    string `json:"mode"`
}

type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type ResultData struct {
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Sources []SourceRef `json:"sources"`
}

// Response is the validated shape of a model reply. Every field is bounded
// by the validator before a Response exists.
type Response struct {
	Reply           string      `json:"reply"`
	Result          *ResultData `json:"result"`
	Actions         []Action    `json:"actions"`
	RequiresConfirm bool        `json:"requiresConfirm"`
	Assumptions     []string    `json:"assumptions"`
}

type ActionType string

const (
	ActionAppendToNote ActionType = "append_to_note"
	ActionReplaceNote  ActionType = "replace_note"
	ActionUpdateTitle  ActionType = "update_title"
	ActionSetLabels    ActionType = "set_labels"
	ActionCreateNote   ActionType = "create_note"
)

// Action is a closed sum: one concrete type per kind, constructed only by
// the validator. sealed() keeps outside packages from adding cases, so the
// executor's type switch stays exhaustive.
type Action interface {
	ActionType() ActionType
	sealed()
}

type AppendToNote struct {
	Text     string `json:"text"`
	Position string `json:"position"`
}

type ReplaceNote struct {
	Content string `json:"content"`
}

type UpdateTitle struct {
	Title string `json:"title"`
}

type SetLabels struct {
	Labels []string `json:"labels"`
}

type CreateNote struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (AppendToNote) ActionType() ActionType { return ActionAppendToNote }
func (ReplaceNote) ActionType() ActionType  { return ActionReplaceNote }
func (UpdateTitle) ActionType() ActionType  { return ActionUpdateTitle }
func (SetLabels) ActionType() ActionType    { return ActionSetLabels }
func (CreateNote) ActionType() ActionType   { return ActionCreateNote }

func (AppendToNote) sealed() {}
func (ReplaceNote) sealed()  {}
func (UpdateTitle) sealed()  {}
func (SetLabels) sealed()    {}
func (CreateNote) sealed()   {}

type actionEnvelope struct {
	Type ActionType `json:"type"`
	Data any        `json:"data"`
}

func (a AppendToNote) MarshalJSON() ([]byte, error) {
	type data AppendToNote
	return json.Marshal(actionEnvelope{Type: ActionAppendToNote, Data: data(a)})
}

func (a ReplaceNote) MarshalJSON() ([]byte, error) {
	type data ReplaceNote
	return json.Marshal(actionEnvelope{Type: ActionReplaceNote, Data: data(a)})
}

func (a UpdateTitle) MarshalJSON() ([]byte, error) {
	type data UpdateTitle
	return json.Marshal(actionEnvelope{Type: ActionUpdateTitle, Data: data(a)})
}

func (a SetLabels) MarshalJSON() ([]byte, error) {
	type data SetLabels
	return json.Marshal(actionEnvelope{Type: ActionSetLabels, Data: data(a)})
}

func (a CreateNote) MarshalJSON() ([]byte, error) {
	type data CreateNote
	return json.Marshal(actionEnvelope{Type: ActionCreateNote, Data: data(a)})
}

// EditProposal is the chat endpoint's lighter edit suggestion.
type EditProposal struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

type ChatResponse struct {
	Reply        string        `json:"reply"`
	EditProposal *EditProposal `json:"editProposal"`
}

type ConversationResponse struct {
	Dialogue string   `json:"dialogue"`
	Summary  string   `json:"summary"`
	Labels   []string `json:"labels"`
}
