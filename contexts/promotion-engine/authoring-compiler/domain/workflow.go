package domain

import "fmt"

// Rule is one compiled (tier, group) entry in a Workflow (spec.md §6
// "Workflow JSON").
type Rule struct {
	RuleName           string `json:"RuleName"`
	SuccessEvent        string `json:"SuccessEvent"`
	RuleExpressionType  string `json:"RuleExpressionType"`
	Expression          string `json:"Expression"`
}

// Workflow is the compiled, evaluable form of a version's rules
// (spec.md GLOSSARY).
type Workflow struct {
	WorkflowName string `json:"WorkflowName"`
	Rules        []Rule `json:"Rules"`
}

// WorkflowName is promo:{promotionId}:country:{COUNTRY}.
func WorkflowName(promotionID, countryISO string) string {
	return fmt.Sprintf("promo:%s:country:%s", promotionID, countryISO)
}

// RuleName is tier:{T}:group:{G}.
func RuleName(tierLevel, groupOrder int) string {
	return fmt.Sprintf("tier:%d:group:%d", tierLevel, groupOrder)
}

// SuccessEvent is {T}:{G}.
func SuccessEvent(tierLevel, groupOrder int) string {
	return fmt.Sprintf("%d:%d", tierLevel, groupOrder)
}
