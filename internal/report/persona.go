package report

import "strings"

// DefaultPersona is used when the requested persona is unknown.
const DefaultPersona = "balanced"

var personaStyles = map[string]string{
	"balanced": "You are a balanced, neutral equity analyst. " +
		"You weigh upside and downside in a calm, data-driven way.",
	"skeptic": "You are a skeptical analyst who focuses on risks, red flags, and reasons " +
		"the investment might underperform.",
	"optimist": "You are an optimistic growth-oriented analyst who emphasizes long-term " +
		"opportunity and positive narratives, while still acknowledging risks.",
	"risk_taker": "You are a high-risk, high-reward oriented trader focused on volatility, " +
		"big moves, and speculative upside.",
}

// NormalizePersona lowercases the requested persona and falls back to the
// balanced style for unknown values.
func NormalizePersona(persona string) string {
	key := strings.ToLower(strings.TrimSpace(persona))
	if _, ok := personaStyles[key]; !ok {
		return DefaultPersona
	}
	return key
}

// StyleFor returns the analyst instructions for a normalized persona.
func StyleFor(persona string) string {
	if style, ok := personaStyles[persona]; ok {
		return style
	}
	return personaStyles[DefaultPersona]
}
