package services

import (
	"testing"

	"phalanx/internal/domain/models"
)

func domainRule(action models.RuleAction, value string, priority int) models.AllowBlockRule {
	return models.AllowBlockRule{Type: models.RuleTypeDomain, Value: value, Action: action, Priority: priority}
}

func TestRuleEngineAllowBeatsBlock(t *testing.T) {
	e := NewRuleEngine(testLogger())

	rules := []models.AllowBlockRule{
		domainRule(models.RuleActionBlock, "example.com", 100),
		domainRule(models.RuleActionAllow, "example.com", 0),
	}
	if got := e.Evaluate(rules, "example.com", "", ""); got != models.DecisionAllow {
		t.Errorf("Evaluate = %s, want ALLOW despite higher-priority BLOCK", got)
	}
}

func TestRuleEngineDecisions(t *testing.T) {
	e := NewRuleEngine(testLogger())

	tests := []struct {
		name   string
		rules  []models.AllowBlockRule
		domain string
		sender string
		body   string
		want   models.RuleDecision
	}{
		{
			name:   "no rules",
			domain: "example.com",
			want:   models.DecisionNone,
		},
		{
			name:   "block on exact domain",
			rules:  []models.AllowBlockRule{domainRule(models.RuleActionBlock, "evil.com", 0)},
			domain: "evil.com",
			want:   models.DecisionBlock,
		},
		{
			name:   "block matches subdomain",
			rules:  []models.AllowBlockRule{domainRule(models.RuleActionBlock, "evil.com", 0)},
			domain: "login.evil.com",
			want:   models.DecisionBlock,
		},
		{
			name:   "no match on suffix overlap",
			rules:  []models.AllowBlockRule{domainRule(models.RuleActionBlock, "evil.com", 0)},
			domain: "notevil.com",
			want:   models.DecisionNone,
		},
		{
			name: "sender match ignores formatting",
			rules: []models.AllowBlockRule{{
				Type: models.RuleTypeSender, Value: "+1 (555) 123-4567", Action: models.RuleActionAllow,
			}},
			sender: "+15551234567",
			want:   models.DecisionAllow,
		},
		{
			name: "empty sender never matches",
			rules: []models.AllowBlockRule{{
				Type: models.RuleTypeSender, Value: "unknown", Action: models.RuleActionBlock,
			}},
			sender: "",
			want:   models.DecisionNone,
		},
		{
			name: "pattern matches case-insensitively",
			rules: []models.AllowBlockRule{{
				Type: models.RuleTypePattern, Value: "free\\s+prize", Action: models.RuleActionBlock,
			}},
			body: "You won a FREE  Prize!",
			want: models.DecisionBlock,
		},
		{
			name: "invalid pattern never matches",
			rules: []models.AllowBlockRule{{
				Type: models.RuleTypePattern, Value: "([unclosed", Action: models.RuleActionBlock,
			}},
			body: "([unclosed",
			want: models.DecisionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Evaluate(tt.rules, tt.domain, tt.sender, tt.body); got != tt.want {
				t.Errorf("Evaluate = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeSender(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+1 (555) 123-4567", "+15551234567"},
		{"555.123.4567", "5551234567"},
		{"SHORTCODE", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeSender(tt.in); got != tt.want {
			t.Errorf("normalizeSender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
