package application

import (
	"context"
	"testing"

	catalogdomain "promoengine/contexts/promotion-engine/catalog/domain"
	"promoengine/contexts/promotion-engine/authoring-compiler/domain"
)

type fakeCatalog struct {
	attributes map[string]catalogdomain.Attribute
	operators  map[string]catalogdomain.Operator
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		attributes: map[string]catalogdomain.Attribute{
			"attr_spend": {
				AttributeID: "attr_spend", EntityName: "order", AttributeName: "total_spend",
				DataType: catalogdomain.DataTypeNumber,
			},
			"attr_country": {
				AttributeID: "attr_country", EntityName: "contact", AttributeName: "country",
				DataType: catalogdomain.DataTypeString,
			},
		},
		operators: map[string]catalogdomain.Operator{
			"op_gte": {
				OperatorID: "op_gte", Code: catalogdomain.OpGreaterThanOrEq, Active: true,
				SupportedTypes: map[catalogdomain.DataType]bool{catalogdomain.DataTypeNumber: true},
			},
			"op_eq": {
				OperatorID: "op_eq", Code: catalogdomain.OpEquals, Active: true,
				SupportedTypes: map[catalogdomain.DataType]bool{catalogdomain.DataTypeString: true},
			},
			"op_eq_number": {
				OperatorID: "op_eq_number", Code: catalogdomain.OpEquals, Active: true,
				SupportedTypes: map[catalogdomain.DataType]bool{catalogdomain.DataTypeString: true},
			},
		},
	}
}

func (c *fakeCatalog) GetAttribute(ctx context.Context, attributeID string) (catalogdomain.Attribute, bool, error) {
	a, ok := c.attributes[attributeID]
	return a, ok, nil
}

func (c *fakeCatalog) GetOperator(ctx context.Context, operatorID string) (catalogdomain.Operator, bool, error) {
	o, ok := c.operators[operatorID]
	return o, ok, nil
}

func TestCompileSingleClauseGroup(t *testing.T) {
	compiler := NewCompiler(newFakeCatalog())
	tiers := []domain.TierInput{
		{
			TierLevel: 1,
			Order:     0,
			Groups: []domain.ExpressionGroupInput{
				{
					Order: 0,
					Root: domain.Clause{
						AttributeID: "attr_spend", OperatorID: "op_gte", ValueRaw: "100", Order: 0,
					},
				},
			},
		},
	}

	result, outcome := compiler.Compile(context.Background(), "promo_1", "US", tiers)
	if outcome.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Kind, outcome.Reason)
	}
	if len(result.Workflow.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(result.Workflow.Rules))
	}
	if want := "ctx.total_spend >= 100"; result.Workflow.Rules[0].Expression != want {
		t.Fatalf("expected %q, got %q", want, result.Workflow.Rules[0].Expression)
	}
	if result.Workflow.WorkflowName != "promo:promo_1:country:US" {
		t.Fatalf("unexpected workflow name %q", result.Workflow.WorkflowName)
	}
}

func TestCompileEmptyGroupIsTrue(t *testing.T) {
	compiler := NewCompiler(newFakeCatalog())
	tiers := []domain.TierInput{
		{
			TierLevel: 1,
			Groups: []domain.ExpressionGroupInput{
				{Order: 0, Root: domain.Group{BoolOp: domain.BoolOpAnd}},
			},
		},
	}

	result, outcome := compiler.Compile(context.Background(), "promo_1", "US", tiers)
	if outcome.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s", outcome.Kind)
	}
	if result.Workflow.Rules[0].Expression != "true" {
		t.Fatalf("expected empty group to compile to true, got %q", result.Workflow.Rules[0].Expression)
	}
}

func TestCompileAndOrNestingOrdersChildren(t *testing.T) {
	compiler := NewCompiler(newFakeCatalog())
	tiers := []domain.TierInput{
		{
			TierLevel: 1,
			Groups: []domain.ExpressionGroupInput{
				{
					Order: 0,
					Root: domain.Group{
						BoolOp: domain.BoolOpOr,
						Children: []domain.Node{
							domain.Clause{AttributeID: "attr_country", OperatorID: "op_eq", ValueRaw: "US", Order: 1},
							domain.Clause{AttributeID: "attr_spend", OperatorID: "op_gte", ValueRaw: "50", Order: 0},
						},
					},
				},
			},
		},
	}

	result, outcome := compiler.Compile(context.Background(), "promo_1", "US", tiers)
	if outcome.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s", outcome.Kind)
	}
	want := `(ctx.total_spend >= 50 || ctx.country == "US")`
	if got := result.Workflow.Rules[0].Expression; got != want {
		t.Fatalf("expected children reordered by Order, got %q, want %q", got, want)
	}
}

func TestCompileSkipsGroupOnUnknownAttributeButKeepsOthers(t *testing.T) {
	compiler := NewCompiler(newFakeCatalog())
	tiers := []domain.TierInput{
		{
			TierLevel: 1,
			Groups: []domain.ExpressionGroupInput{
				{Order: 0, Root: domain.Clause{AttributeID: "missing_attr", OperatorID: "op_eq", ValueRaw: "x"}},
				{Order: 1, Root: domain.Clause{AttributeID: "attr_spend", OperatorID: "op_gte", ValueRaw: "1", Order: 0}},
			},
		},
	}

	result, outcome := compiler.Compile(context.Background(), "promo_1", "US", tiers)
	if outcome.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected overall success since one group survives, got %s", outcome.Kind)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected a warning for the skipped group")
	}
	if len(result.Workflow.Rules) != 1 {
		t.Fatalf("expected only the surviving group's rule, got %d", len(result.Workflow.Rules))
	}
	if len(result.CompiledGroups) != 2 {
		t.Fatalf("expected both groups recorded, got %d", len(result.CompiledGroups))
	}
}

func TestCompileAbortsWhenZeroRulesSurvive(t *testing.T) {
	compiler := NewCompiler(newFakeCatalog())
	tiers := []domain.TierInput{
		{
			TierLevel: 1,
			Groups: []domain.ExpressionGroupInput{
				{Order: 0, Root: domain.Clause{AttributeID: "missing_attr", OperatorID: "op_eq", ValueRaw: "x"}},
			},
		},
	}

	_, outcome := compiler.Compile(context.Background(), "promo_1", "US", tiers)
	if outcome.Kind != domain.OutcomeAbort {
		t.Fatalf("expected abort when no rules survive, got %s", outcome.Kind)
	}
}

func TestCompileEmptyRootIsSkippedNotAborted(t *testing.T) {
	compiler := NewCompiler(newFakeCatalog())
	tiers := []domain.TierInput{
		{
			TierLevel: 1,
			Groups: []domain.ExpressionGroupInput{
				{Order: 0, Root: nil},
				{Order: 1, Root: domain.Clause{AttributeID: "attr_spend", OperatorID: "op_gte", ValueRaw: "1", Order: 0}},
			},
		},
	}

	result, outcome := compiler.Compile(context.Background(), "promo_1", "US", tiers)
	if outcome.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s", outcome.Kind)
	}
	if len(result.Workflow.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(result.Workflow.Rules))
	}
}

func TestCompileUnsupportedOperatorAttributeCombinationWarnsButCompiles(t *testing.T) {
	compiler := NewCompiler(newFakeCatalog())
	tiers := []domain.TierInput{
		{
			TierLevel: 1,
			Groups: []domain.ExpressionGroupInput{
				{
					Order: 0,
					Root: domain.Clause{
						AttributeID: "attr_spend", OperatorID: "op_eq_number", ValueRaw: "10", Order: 0,
					},
				},
			},
		},
	}

	result, outcome := compiler.Compile(context.Background(), "promo_1", "US", tiers)
	if outcome.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s", outcome.Kind)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected an uncatalogued-combination warning")
	}
}
