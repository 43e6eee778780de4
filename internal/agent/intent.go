package agent

import (
	"regexp"
	"strings"
)

// Intent is a mode/detail pair inferred from the raw message text.
type Intent struct {
	Mode   string
	Detail string
}

var (
	marketPattern    = regexp.MustCompile(`marktanalyse|concurrenten|pricing|tam.?sam.?som|markt.?onderzoek`)
	researchPattern  = regexp.MustCompile(`zoek\s+(op|naar|online)|onderzoek|bronnen|research`)
	shortTaskPattern = regexp.MustCompile(`^(maak\s+)?bullets?$|^vat\s+samen$|^samenvatten$`)
)

// DetectIntent runs the ordered keyword tests against the lowercased
// message. First match wins; nil means "no override".
func DetectIntent(message string) *Intent {
	lower := strings.ToLower(message)

	// Market analysis only for explicit requests
	if marketPattern.MatchString(lower) {
		return &Intent{Mode: ModeMarketAnalysis, Detail: DetailDeep}
	}

	if researchPattern.MatchString(lower) {
		return &Intent{Mode: ModeResearch, Detail: DetailNormal}
	}

	// Short responses for quick tasks
	if shortTaskPattern.MatchString(lower) {
		return &Intent{Mode: ModeGeneral, Detail: DetailShort}
	}

	return nil
}

// ResolveIntent merges the caller-supplied mode/detail with the detected
// intent. Explicit user choices win except the general/normal defaults: a
// detected mode only replaces a caller mode that is "general" or invalid,
// and a detected "short" detail only replaces a caller detail of exactly
// "normal".
func ResolveIntent(message string, mode string, detail string) (string, string) {
	// An omitted detail is the "normal" default, so it is eligible for the
	// short override like an explicit "normal".
	if detail == "" {
		detail = DetailNormal
	}

	actualMode := mode
	if !validMode(actualMode) {
		actualMode = ModeGeneral
	}
	actualDetail := detail
	if !validDetail(actualDetail) {
		actualDetail = DetailNormal
	}

	detected := DetectIntent(message)
	if detected != nil {
		if mode == ModeGeneral || !validMode(mode) {
			actualMode = detected.Mode
		}
		if detected.Detail == DetailShort && detail == DetailNormal {
			actualDetail = DetailShort
		}
	}
	return actualMode, actualDetail
}
