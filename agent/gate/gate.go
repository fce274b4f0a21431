// Package gate enforces access policy before any orchestration happens.
// Role violations block the whole request; insufficient sensitivity
// clearance redacts the matched terms and lets the rest proceed. Any
// internal failure resolves to block, never to pass-through.
package gate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	logx "github.com/corvid-labs/atlas/pkg/logger"
)

type Outcome string

const (
	OutcomeAllow  Outcome = "allow"
	OutcomeRedact Outcome = "redact"
	OutcomeBlock  Outcome = "block"
)

const redactedMark = "[restricted]"

// Decision records what the gate did and why, for logging and response
// metadata.
type Decision struct {
	Outcome       Outcome  `json:"outcome"`
	Reason        string   `json:"reason,omitempty"`
	Topic         string   `json:"topic,omitempty"`
	RequiredRole  string   `json:"required_role,omitempty"`
	RedactedTerms []string `json:"redacted_terms,omitempty"`
}

type Gate struct {
	policy Policy
	log    zerolog.Logger
}

func New(policy Policy) *Gate {
	return &Gate{
		policy: policy,
		log:    logx.Component("gate"),
	}
}

// Filter validates the query against the caller's role and clearance.
// It returns a new sanitized query; the input query is never mutated.
func (g *Gate) Filter(q contractx.Query, uc contractx.UserContext) (contractx.Query, Decision, error) {
	// Fail-secure: a malformed context blocks rather than passing through.
	if uc.RoleLevel < minRoleLevel || uc.RoleLevel > maxRoleLevel ||
		uc.Clearance < minClearance || uc.Clearance > maxClearance {
		dec := Decision{Outcome: OutcomeBlock, Reason: "malformed user context"}
		g.logDecision(dec, uc)
		return contractx.Query{}, dec, fmt.Errorf("%w: user context is malformed", contractx.ErrPermissionDenied)
	}

	lower := strings.ToLower(q.Text)

	for _, rule := range g.policy.Topics {
		if !matchesAny(lower, rule.Keywords) {
			continue
		}
		if uc.RoleLevel > rule.MinRole {
			dec := Decision{
				Outcome:      OutcomeBlock,
				Reason:       "role below topic minimum",
				Topic:        rule.Topic,
				RequiredRole: RoleName(rule.MinRole),
			}
			g.logDecision(dec, uc)
			return contractx.Query{}, dec, fmt.Errorf(
				"%w: topic %q requires the %s tier or above",
				contractx.ErrPermissionDenied, rule.Topic, RoleName(rule.MinRole),
			)
		}
	}

	filtered := q
	var redacted []string
	for _, rule := range g.policy.Sensitivity {
		if uc.Clearance >= rule.Tier {
			continue
		}
		text, changed := replaceFold(filtered.Text, rule.Keyword, redactedMark)
		if !changed {
			continue
		}
		filtered.Text = text
		redacted = append(redacted, rule.Keyword)
	}

	dec := Decision{Outcome: OutcomeAllow}
	if len(redacted) > 0 {
		dec = Decision{
			Outcome:       OutcomeRedact,
			Reason:        "clearance below sensitivity tier",
			RedactedTerms: redacted,
		}
	}
	g.logDecision(dec, uc)
	return filtered, dec, nil
}

func matchesAny(lowerText string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerText, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// replaceFold replaces every case-insensitive occurrence of old in s and
// reports whether anything changed. The scan folds rune by rune over the
// original string, so a rune whose lowercase form has a different byte
// width can never misalign the splice.
func replaceFold(s, old, mark string) (string, bool) {
	if old == "" {
		return s, false
	}
	var b strings.Builder
	changed := false
	for i := 0; i < len(s); {
		if n, ok := foldPrefixLen(s[i:], old); ok {
			b.WriteString(mark)
			changed = true
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String(), changed
}

// foldPrefixLen reports whether s starts with a case-insensitive match of
// old, and how many bytes of s that match spans.
func foldPrefixLen(s, old string) (int, bool) {
	n := 0
	for _, or := range old {
		sr, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 || !foldEq(sr, or) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func foldEq(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// logDecision records the outcome without the query text: blocked
// content must never reach the logs.
func (g *Gate) logDecision(dec Decision, uc contractx.UserContext) {
	g.log.Info().
		Str("outcome", string(dec.Outcome)).
		Str("reason", dec.Reason).
		Str("topic", dec.Topic).
		Strs("redacted_terms", dec.RedactedTerms).
		Int("role_level", uc.RoleLevel).
		Int("clearance", uc.Clearance).
		Msg("gate decision")
}
