// Package domain holds the attribute and operator catalogs the authoring
// compiler validates draft expressions against.
package domain

import "strings"

// DataType is the set of value shapes an Attribute can hold.
type DataType string

const (
	DataTypeString       DataType = "String"
	DataTypeNumber       DataType = "Number"
	DataTypeDate         DataType = "Date"
	DataTypeBool         DataType = "Bool"
	DataTypeGuid         DataType = "Guid"
	DataTypeStringArray  DataType = "StringArray"
	DataTypeNumberArray  DataType = "NumberArray"
)

// Attribute is a typed named field that a clause may reference.
type Attribute struct {
	AttributeID    string
	EntityName     string // lowercase
	AttributeName  string // lowercase
	DisplayName    string
	DataType       DataType
	Exposed        bool
}

// CanonicalFieldName is the ctx.<name> form used by compiled expressions:
// spaces and dashes normalize to underscores.
func (a Attribute) CanonicalFieldName() string {
	name := strings.TrimSpace(a.AttributeName)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// Operator is a named comparison/test the compiler can lower into code.
type Operator struct {
	OperatorID      string
	Code            string // lowercase, unique
	DisplayName     string
	Active          bool
	SupportedTypes  map[DataType]bool
}

// Supports reports whether this operator is catalogued as valid for dt.
// A missing entry does not abort compilation — callers emit a warning
// and keep going (spec: "missing combination emits a warning but does
// NOT fail the compile").
func (o Operator) Supports(dt DataType) bool {
	if o.SupportedTypes == nil {
		return false
	}
	return o.SupportedTypes[dt]
}

// Well-known operator codes the compiler's lowering switch recognizes.
const (
	OpGreaterThan       = "gt"
	OpGreaterThanOrEq   = "gte"
	OpLessThan          = "lt"
	OpLessThanOrEq      = "lte"
	OpEquals            = "eq"
	OpNotEquals         = "neq"
	OpContains          = "contains"
	OpIn                = "in"
)
