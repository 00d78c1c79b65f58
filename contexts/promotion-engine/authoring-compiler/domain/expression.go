// Package domain models the authoring compiler's input expression tree
// and its compiled output (spec.md §4.4).
package domain

// BoolOp is the boolean combinator a Group applies to its children.
type BoolOp string

const (
	BoolOpAnd BoolOp = "And"
	BoolOpOr  BoolOp = "Or"
)

// Node is the recursive sum spec.md §4.4 describes: every node is
// either a Clause or a Group.
type Node interface {
	NodeOrder() int
}

// Clause is a leaf comparison against one catalogued attribute.
type Clause struct {
	AttributeID string
	OperatorID  string
	ValueRaw    string
	Order       int
}

func (c Clause) NodeOrder() int { return c.Order }

// Group combines children with a boolean operator. Children are
// lazily ordered by Order when compiling (spec.md §4.4).
type Group struct {
	BoolOp   BoolOp
	Children []Node
	Order    int
}

func (g Group) NodeOrder() int { return g.Order }

// ExpressionGroupInput is one tier's RuleExpressionGroup as submitted
// by an authoring draft request: an order, a reward pool, and a root
// expression node (nil means the group supplied no expression at all,
// distinct from an explicit empty Group which compiles to `true`).
type ExpressionGroupInput struct {
	Order     int
	RewardIDs []string
	Root      Node
}

// TierInput is one tier as submitted by a draft request.
type TierInput struct {
	TierLevel    int
	Order        int
	CooldownDays *int
	Groups       []ExpressionGroupInput
}
