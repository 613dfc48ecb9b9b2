package services

import (
	"regexp"
	"strings"

	"phalanx/internal/domain/models"
	"phalanx/pkg/logger"
)

// RuleEngine evaluates user-defined allow/block overrides. ALLOW always
// outranks BLOCK; priority only breaks ties within the same action.
type RuleEngine struct {
	log *logger.Logger
}

func NewRuleEngine(log *logger.Logger) *RuleEngine {
	return &RuleEngine{log: log.WithComponent("rule_engine")}
}

// Evaluate runs every rule against the message attributes and returns the
// combined decision. Rule order does not matter.
func (e *RuleEngine) Evaluate(rules []models.AllowBlockRule, domain, sender, body string) models.RuleDecision {
	const unset = -1 << 31
	bestAllow, bestBlock := unset, unset

	normalizedSender := normalizeSender(sender)
	for _, rule := range rules {
		if !e.matches(rule, domain, normalizedSender, body) {
			continue
		}
		switch rule.Action {
		case models.RuleActionAllow:
			if rule.Priority > bestAllow {
				bestAllow = rule.Priority
			}
		case models.RuleActionBlock:
			if rule.Priority > bestBlock {
				bestBlock = rule.Priority
			}
		}
	}

	switch {
	case bestAllow != unset:
		return models.DecisionAllow
	case bestBlock != unset:
		return models.DecisionBlock
	}
	return models.DecisionNone
}

func (e *RuleEngine) matches(rule models.AllowBlockRule, domain, normalizedSender, body string) bool {
	switch rule.Type {
	case models.RuleTypeDomain:
		return domainMatches(domain, rule.Value)
	case models.RuleTypeSender:
		return normalizedSender != "" && normalizedSender == normalizeSender(rule.Value)
	case models.RuleTypePattern:
		re, err := regexp.Compile("(?i)" + rule.Value)
		if err != nil {
			// Malformed patterns never match.
			e.log.Debug().Err(err).Str("pattern", rule.Value).Msg("invalid rule pattern")
			return false
		}
		return re.MatchString(body)
	}
	return false
}

// domainMatches reports whether domain equals value or is a subdomain of it.
func domainMatches(domain, value string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	value = strings.ToLower(strings.TrimSpace(value))
	if domain == "" || value == "" {
		return false
	}
	return domain == value || strings.HasSuffix(domain, "."+value)
}

// normalizeSender strips everything except digits and '+'.
func normalizeSender(sender string) string {
	var b strings.Builder
	for _, r := range sender {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
