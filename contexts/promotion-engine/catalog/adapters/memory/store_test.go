package memory

import (
	"context"
	"testing"

	"promoengine/contexts/promotion-engine/catalog/domain"
)

func TestGetAttributeTrimsID(t *testing.T) {
	store := NewStore()
	_ = store.PutAttribute(context.Background(), domain.Attribute{AttributeID: "attr-gasto"})

	a, found, err := store.GetAttribute(context.Background(), " attr-gasto ")
	if err != nil {
		t.Fatalf("get attribute failed: %v", err)
	}
	if !found {
		t.Fatal("expected attribute to be found after trimming")
	}
	if a.AttributeID != "attr-gasto" {
		t.Fatalf("unexpected attribute %v", a)
	}
}

func TestGetOperatorMissingReportsNotFound(t *testing.T) {
	store := NewStore()
	_, found, err := store.GetOperator(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("get operator failed: %v", err)
	}
	if found {
		t.Fatal("expected operator to be reported missing")
	}
}

func TestNewSeededStoreCoversComparisonOperators(t *testing.T) {
	store := NewSeededStore()

	op, found, err := store.GetOperator(context.Background(), "op-"+domain.OpGreaterThanOrEq)
	if err != nil || !found {
		t.Fatalf("expected seeded gte operator, err=%v found=%v", err, found)
	}
	if !op.Supports(domain.DataTypeNumber) {
		t.Fatal("expected gte to support Number")
	}

	attr, found, err := store.GetAttribute(context.Background(), "attr-gasto")
	if err != nil || !found {
		t.Fatalf("expected seeded gasto attribute, err=%v found=%v", err, found)
	}
	if attr.DataType != domain.DataTypeNumber {
		t.Fatalf("expected gasto to be a Number attribute, got %s", attr.DataType)
	}
}
