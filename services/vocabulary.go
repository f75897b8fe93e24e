package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Vocabulary is a fixed term list whose matches become 0/1 feature columns
// named Prefix + normalised term.
type Vocabulary struct {
	Name   string
	Prefix string
	Terms  []string
	// MatchCategories also sets the flag when the term appears in categories.
	MatchCategories bool
}

// Columns returns the feature column of every term, in term order.
func (v Vocabulary) Columns() []string {
	cols := make([]string, len(v.Terms))
	for i, term := range v.Terms {
		cols[i] = ColumnName(v.Prefix, term)
	}
	return cols
}

var (
	AITechniques = Vocabulary{
		Name:   "ai_techniques",
		Prefix: "has_",
		Terms: []string{
			"AI", "ML", "machine learning", "neural", "NLP", "computer vision",
			"chatbot", "language model", "LLM", "GPT", "generative", "transformer",
			"deep learning", "artificial intelligence", "automation", "robot", "cognitive",
			"predictive", "analytics", "big data",
		},
	}

	BusinessModels = Vocabulary{
		Name:   "business_models",
		Prefix: "is_",
		Terms: []string{
			"B2B", "B2C", "SaaS", "API", "open-source", "subscription",
			"freemium", "enterprise", "marketplace", "platform", "infrastructure",
			"consulting", "on-premise", "cloud",
		},
		MatchCategories: true,
	}

	GTMMotions = Vocabulary{
		Name:   "gtm_motions",
		Prefix: "gtm_",
		Terms: []string{
			"product-led", "sales-led", "marketing-led", "community",
			"viral", "content marketing", "partner", "channel", "direct sales",
		},
	}

	UseCases = Vocabulary{
		Name:   "use_cases",
		Prefix: "use_",
		Terms: []string{
			"content generation", "code", "data analysis", "automation", "customer service",
			"personalization", "recommendation", "security", "healthcare", "finance",
			"marketing", "sales", "hr", "legal", "education",
		},
	}
)

// Vocabularies lists the term vocabularies in the order their columns are added.
var Vocabularies = []Vocabulary{AITechniques, BusinessModels, GTMMotions, UseCases}

// ColumnName lower-cases term and maps spaces and hyphens to underscores.
func ColumnName(prefix, term string) string {
	t := strings.ToLower(strings.TrimSpace(term))
	t = strings.NewReplacer(" ", "_", "-", "_").Replace(t)
	return prefix + t
}

// displayNames covers columns whose label is not the vocabulary term itself.
var displayNames = map[string]string{
	"has_free_tier":    "Free tier",
	"has_enterprise":   "Enterprise plan",
	"has_startup_plan": "Startup plan",
	"has_subscription": "Subscription pricing",
	"has_usage_based":  "Usage-based pricing",
	"has_tiered":       "Tiered pricing",
	"has_freemium":     "Freemium pricing",
	"size_micro":       "Micro teams",
	"size_small":       "Small teams",
	"size_medium":      "Mid-size",
	"size_large":       "Large companies",
	"size_unknown":     "Unknown size",
	"funding_amount":   "Funding",
	"min_price":        "Entry price",
	"max_price":        "Top price",
	"price_tiers":      "Price tiers",
}

var termDisplay = func() map[string]string {
	m := make(map[string]string)
	for _, v := range Vocabularies {
		for _, term := range v.Terms {
			m[ColumnName(v.Prefix, term)] = capitalise(term)
		}
	}
	return m
}()

// DisplayName renders a feature column as a human-readable label.
func DisplayName(col string) string {
	if name, ok := displayNames[col]; ok {
		return name
	}
	if name, ok := termDisplay[col]; ok {
		return name
	}
	if strings.HasPrefix(col, "kw_") {
		return capitalise(strings.TrimPrefix(col, "kw_"))
	}
	for _, p := range []string{"has_", "is_", "gtm_", "use_"} {
		if strings.HasPrefix(col, p) {
			col = strings.TrimPrefix(col, p)
			break
		}
	}
	return capitalise(strings.ReplaceAll(col, "_", " "))
}

// capitalise upper-cases the first rune, leaving acronyms such as "LLM" intact.
func capitalise(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
