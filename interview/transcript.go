package interview

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var modelRoleSynonyms = map[string]struct{}{
	"ai":        {},
	"model":     {},
	"assistant": {},
	"agent":     {},
}

// CanonicalRole folds any role tag to one of the two canonical roles.
// Unknown tags are the human party.
func CanonicalRole(tag string) Role {
	if _, ok := modelRoleSynonyms[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return RoleModel
	}
	return RoleUser
}

// NormalizeHistory relabels roles and keeps length and order.
func NormalizeHistory(history []Message) []Message {
	out := make([]Message, len(history))
	for i, m := range history {
		out[i] = Message{Role: CanonicalRole(string(m.Role)), Text: m.Text}
	}
	return out
}

var markupStripper = strings.NewReplacer("*", "", "#", "")

// StripMarkup removes emphasis characters the speech UI would read aloud.
func StripMarkup(s string) string {
	return markupStripper.Replace(s)
}

func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
