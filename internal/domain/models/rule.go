package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleType selects which message attribute a rule matches against.
type RuleType string

const (
	RuleTypeDomain  RuleType = "domain"
	RuleTypeSender  RuleType = "sender"
	RuleTypePattern RuleType = "pattern"
)

// RuleAction is the effect of a matching rule.
type RuleAction string

const (
	RuleActionAllow RuleAction = "allow"
	RuleActionBlock RuleAction = "block"
)

// RuleDecision is the outcome of evaluating a rule set against a message.
type RuleDecision string

const (
	DecisionAllow RuleDecision = "allow"
	DecisionBlock RuleDecision = "block"
	DecisionNone  RuleDecision = "none"
)

// AllowBlockRule is a user-defined override. Rules are independent of one
// another; priority only breaks ties within the same action.
type AllowBlockRule struct {
	ID        uuid.UUID  `json:"id"`
	Type      RuleType   `json:"type"`
	Value     string     `json:"value"`
	Action    RuleAction `json:"action"`
	Priority  int        `json:"priority"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
