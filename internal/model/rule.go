package model

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// RuleField selects which normalized source field a condition tests.
type RuleField string

// RuleOperator is the comparison a condition performs.
type RuleOperator string

// Rule condition constants.
const (
	FieldMake  RuleField = "make"
	FieldModel RuleField = "model"

	OperatorContains RuleOperator = "contains"
	OperatorEquals   RuleOperator = "equals"
)

// RuleCondition is a single test against a record's normalized make or
// model text. Values are stored lowercase.
type RuleCondition struct {
	Field    RuleField    `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    string       `json:"value"`
}

// RuleAction is the reference identity a matching rule assigns.
type RuleAction struct {
	SetMake  string `json:"setMake"`
	SetModel string `json:"setModel"`
}

// LearnedRule is a conjunctive condition set with a fixed action, mined
// from past high-confidence matches. Rules are global, not per-user.
type LearnedRule struct {
	Conditions []RuleCondition `json:"conditions"`
	Action     RuleAction      `json:"actions"`
}

// Hash returns a stable content hash of the rule's logic, used to
// deduplicate identical rules in the store.
func (r LearnedRule) Hash() string {
	payload, err := json.Marshal(struct {
		C []RuleCondition `json:"c"`
		A RuleAction      `json:"a"`
	}{r.Conditions, r.Action})
	if err != nil {
		// Marshaling a plain struct of strings cannot fail in practice.
		payload = []byte(fmt.Sprintf("%v|%v", r.Conditions, r.Action))
	}
	return fmt.Sprintf("%x", sha256.Sum256(payload))
}

// Validate checks the structural shape of a rule. Safety validation
// (condition length, action similarity) lives in the rule package.
func (r LearnedRule) Validate() error {
	if len(r.Conditions) == 0 {
		return fmt.Errorf("rule has no conditions")
	}
	for i, c := range r.Conditions {
		if c.Field != FieldMake && c.Field != FieldModel {
			return fmt.Errorf("condition %d: invalid field %q", i, c.Field)
		}
		if c.Operator != OperatorContains && c.Operator != OperatorEquals {
			return fmt.Errorf("condition %d: invalid operator %q", i, c.Operator)
		}
		if c.Value == "" {
			return fmt.Errorf("condition %d: empty value", i)
		}
	}
	if r.Action.SetMake == "" || r.Action.SetModel == "" {
		return fmt.Errorf("rule has no action")
	}
	return nil
}

// RuleExample is one confirmed match used as input to rule mining.
type RuleExample struct {
	SourceMake   string
	SourceModel  string
	MatchedMake  string
	MatchedModel string
}
