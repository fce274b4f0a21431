package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/sales.txt
	salesRaw string

	//go:embed template/talent.txt
	talentRaw string

	//go:embed template/analytics.txt
	analyticsRaw string

	//go:embed template/degraded.txt
	degradedRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Sales     string
	Talent    string
	Analytics string
	Degraded  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to
// call concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Sales:     strings.TrimSpace(salesRaw),
		Talent:    strings.TrimSpace(talentRaw),
		Analytics: strings.TrimSpace(analyticsRaw),
		Degraded:  strings.TrimSpace(degradedRaw),
	}
}
