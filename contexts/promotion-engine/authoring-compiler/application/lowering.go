package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	catalogdomain "promoengine/contexts/promotion-engine/catalog/domain"
	"promoengine/contexts/promotion-engine/authoring-compiler/domain"
)

// compileNode lowers one expression node into target-language boolean
// text. Any failure anywhere in the subtree aborts the whole group the
// node belongs to (spec.md §4.4.1: clause/catalog failures "abort that
// clause" which in turn skips the containing group).
func (c *Compiler) compileNode(ctx context.Context, node domain.Node) (string, []string, error) {
	switch n := node.(type) {
	case domain.Group:
		return c.compileGroup(ctx, n)
	case domain.Clause:
		return c.compileClause(ctx, n)
	default:
		return "", nil, fmt.Errorf("unknown expression node type %T", node)
	}
}

// compileGroup implements spec.md §4.4.1's Group rule: empty compiles
// to the literal true; otherwise children are parenthesized and
// joined by && (And) or || (Or), visited in ascending order.
func (c *Compiler) compileGroup(ctx context.Context, group domain.Group) (string, []string, error) {
	if len(group.Children) == 0 {
		return "true", nil, nil
	}

	children := append([]domain.Node(nil), group.Children...)
	sort.SliceStable(children, func(i, j int) bool { return children[i].NodeOrder() < children[j].NodeOrder() })

	joiner := " && "
	if group.BoolOp == domain.BoolOpOr {
		joiner = " || "
	}

	var warnings []string
	parts := make([]string, 0, len(children))
	for _, child := range children {
		text, childWarnings, err := c.compileNode(ctx, child)
		if err != nil {
			return "", nil, err
		}
		warnings = append(warnings, childWarnings...)
		parts = append(parts, text)
	}
	return "(" + strings.Join(parts, joiner) + ")", warnings, nil
}

// compileClause implements spec.md §4.4.1's Clause rule.
func (c *Compiler) compileClause(ctx context.Context, clause domain.Clause) (string, []string, error) {
	attribute, found, err := c.catalog.GetAttribute(ctx, clause.AttributeID)
	if err != nil {
		return "", nil, err
	}
	if !found {
		return "", nil, fmt.Errorf("unknown attribute %q", clause.AttributeID)
	}
	operator, found, err := c.catalog.GetOperator(ctx, clause.OperatorID)
	if err != nil {
		return "", nil, err
	}
	if !found {
		return "", nil, fmt.Errorf("unknown operator %q", clause.OperatorID)
	}

	var warnings []string
	if !operator.Supports(attribute.DataType) {
		warnings = append(warnings, fmt.Sprintf(
			"operator %q is not catalogued for attribute %q (type %s); compiling anyway",
			operator.Code, attribute.AttributeName, attribute.DataType))
	}

	fieldName := attribute.CanonicalFieldName()
	text, err := lowerByType(attribute.DataType, operator.Code, fieldName, clause.ValueRaw)
	if err != nil {
		return "", nil, err
	}
	return text, warnings, nil
}

func lowerByType(dataType catalogdomain.DataType, operatorCode, fieldName, valueRaw string) (string, error) {
	switch dataType {
	case catalogdomain.DataTypeNumber:
		symbol, err := binarySymbol(operatorCode)
		if err != nil {
			return "", err
		}
		literal, ok := domain.NormalizeNumberLiteral(valueRaw)
		if !ok {
			return "", fmt.Errorf("value %q is not a valid number literal", valueRaw)
		}
		return fmt.Sprintf("ctx.%s %s %s", fieldName, symbol, literal), nil

	case catalogdomain.DataTypeBool:
		symbol, err := binarySymbol(operatorCode)
		if err != nil {
			return "", err
		}
		literal, ok := domain.NormalizeBoolLiteral(valueRaw)
		if !ok {
			return "", fmt.Errorf("value %q is not a valid bool literal", valueRaw)
		}
		return fmt.Sprintf("ctx.%s %s %s", fieldName, symbol, literal), nil

	case catalogdomain.DataTypeDate:
		symbol, err := binarySymbol(operatorCode)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("ctx.%s %s %s", fieldName, symbol, domain.QuoteDateLiteral(valueRaw)), nil

	case catalogdomain.DataTypeString:
		switch operatorCode {
		case catalogdomain.OpEquals:
			return fmt.Sprintf("ctx.%s == %s", fieldName, domain.QuoteStringLiteral(valueRaw)), nil
		case catalogdomain.OpContains:
			return fmt.Sprintf("ctx.%s.Contains(%s)", fieldName, domain.QuoteStringLiteral(valueRaw)), nil
		default:
			return "", fmt.Errorf("operator %q is not supported on string attributes", operatorCode)
		}

	case catalogdomain.DataTypeStringArray:
		if operatorCode != catalogdomain.OpIn {
			return "", fmt.Errorf("operator %q is not supported on string-array attributes", operatorCode)
		}
		return fmt.Sprintf("ctx.%s.Contains(%s)", fieldName, domain.QuoteStringLiteral(valueRaw)), nil

	default:
		return "", fmt.Errorf("unsupported attribute data type %q", dataType)
	}
}

func binarySymbol(operatorCode string) (string, error) {
	switch operatorCode {
	case catalogdomain.OpGreaterThan:
		return ">", nil
	case catalogdomain.OpGreaterThanOrEq:
		return ">=", nil
	case catalogdomain.OpLessThan:
		return "<", nil
	case catalogdomain.OpLessThanOrEq:
		return "<=", nil
	case catalogdomain.OpEquals:
		return "==", nil
	case catalogdomain.OpNotEquals:
		return "!=", nil
	default:
		return "", fmt.Errorf("operator %q has no binary form", operatorCode)
	}
}
