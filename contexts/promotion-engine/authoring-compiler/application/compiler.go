package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"promoengine/contexts/promotion-engine/authoring-compiler/domain"
	"promoengine/contexts/promotion-engine/authoring-compiler/ports"
)

// Compiler is the authoring compiler: validates a draft request
// against the catalog and lowers its expression trees into a Workflow
// (spec.md §4.4).
type Compiler struct {
	catalog ports.CatalogReader
}

func NewCompiler(catalog ports.CatalogReader) *Compiler {
	return &Compiler{catalog: catalog}
}

// CompileResult is the compiler's (Workflow, warnings) output, plus
// the (tier, group order) pairs that made it into the workflow; it
// assigns no group ids.
type CompileResult struct {
	Workflow       domain.Workflow
	Warnings       []string
	CompiledGroups []CompiledGroup
}

// CompiledGroup records which (tier, group) pairs actually made it
// into the workflow, for the caller to persist store rows against.
type CompiledGroup struct {
	TierLevel int
	Order     int
	Included  bool
}

// Compile lowers every tier's groups, in (tier-level, order) then
// (group order) sequence. Per spec.md §9 "the top-level compiler
// aggregates Skipped into warnings": a group-level Skipped/Abort
// outcome never fails the whole compile, it just omits that rule and
// appends a warning. The whole compile only fails (CompileOutcome =
// Abort) when zero rules survive (spec.md §6: "400 on compile failure
// with zero rules").
func (c *Compiler) Compile(ctx context.Context, promotionID, countryISO string, tiers []domain.TierInput) (CompileResult, domain.CompileOutcome) {
	sortedTiers := append([]domain.TierInput(nil), tiers...)
	sort.SliceStable(sortedTiers, func(i, j int) bool {
		if sortedTiers[i].TierLevel != sortedTiers[j].TierLevel {
			return sortedTiers[i].TierLevel < sortedTiers[j].TierLevel
		}
		return sortedTiers[i].Order < sortedTiers[j].Order
	})

	var (
		warnings []string
		rules    []domain.Rule
		compiled []CompiledGroup
	)

	for _, tier := range sortedTiers {
		groups := append([]domain.ExpressionGroupInput(nil), tier.Groups...)
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Order < groups[j].Order })

		for _, group := range groups {
			outcome := c.compileGroupInput(ctx, group)
			switch outcome.Kind {
			case domain.OutcomeSuccess:
				warnings = append(warnings, outcome.Warnings...)
				rules = append(rules, domain.Rule{
					RuleName:          domain.RuleName(tier.TierLevel, group.Order),
					SuccessEvent:       domain.SuccessEvent(tier.TierLevel, group.Order),
					RuleExpressionType: "LambdaExpression",
					Expression:         outcome.Expression,
				})
				compiled = append(compiled, CompiledGroup{TierLevel: tier.TierLevel, Order: group.Order, Included: true})
			case domain.OutcomeSkipped:
				warnings = append(warnings, fmt.Sprintf("tier %d group %d skipped: %s", tier.TierLevel, group.Order, outcome.Reason))
				compiled = append(compiled, CompiledGroup{TierLevel: tier.TierLevel, Order: group.Order, Included: false})
			}
		}
	}

	workflow := domain.Workflow{
		WorkflowName: domain.WorkflowName(promotionID, countryISO),
		Rules:        rules,
	}
	result := CompileResult{Workflow: workflow, Warnings: warnings, CompiledGroups: compiled}

	if len(rules) == 0 {
		return result, domain.Abort("compile produced zero rules")
	}
	return result, domain.Success("", warnings)
}

// compileGroupInput compiles a single tier's RuleExpressionGroup root
// node into a CompileOutcome, per spec.md §4.4.1's group-level
// semantics.
func (c *Compiler) compileGroupInput(ctx context.Context, group domain.ExpressionGroupInput) domain.CompileOutcome {
	if group.Root == nil {
		return domain.Skipped("empty root expression")
	}
	expression, warnings, err := c.compileNode(ctx, group.Root)
	if err != nil {
		return domain.Skipped(err.Error())
	}
	return domain.Success(expression, warnings)
}

// MarshalWorkflow renders the workflow as the persisted JSON payload
// (spec.md §6 "Workflow JSON").
func MarshalWorkflow(workflow domain.Workflow) ([]byte, error) {
	return json.Marshal(workflow)
}
