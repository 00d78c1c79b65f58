package ports

import (
	"context"

	"promoengine/contexts/promotion-engine/catalog/domain"
)

// Reader is the read path the authoring compiler depends on. Catalogs
// are slow-changing reference data; callers may cache results in
// process for the lifetime of one compile.
type Reader interface {
	GetAttribute(ctx context.Context, attributeID string) (domain.Attribute, bool, error)
	GetOperator(ctx context.Context, operatorID string) (domain.Operator, bool, error)
}

// Writer lets authoring tooling (out of scope HTTP surface, but the
// interface is part of the store) seed and update catalog entries.
type Writer interface {
	PutAttribute(ctx context.Context, attribute domain.Attribute) error
	PutOperator(ctx context.Context, operator domain.Operator) error
}

type ReadWriter interface {
	Reader
	Writer
}
