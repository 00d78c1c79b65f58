package memory

import (
	"context"
	"strings"
	"sync"

	"promoengine/contexts/promotion-engine/catalog/domain"
)

// Store is an in-process catalog, used both for local boot and as the
// seed/test double the way the teacher's finance-core memory stores are.
type Store struct {
	mu         sync.RWMutex
	attributes map[string]domain.Attribute
	operators  map[string]domain.Operator
}

func NewStore() *Store {
	return &Store{
		attributes: make(map[string]domain.Attribute),
		operators:  make(map[string]domain.Operator),
	}
}

// NewSeededStore builds a store pre-populated with the attribute and
// operator catalog the evaluate scenarios in spec.md §8 exercise
// (gasto, club, esVip, eventId) plus the full comparison operator set.
func NewSeededStore() *Store {
	s := NewStore()
	for _, a := range []domain.Attribute{
		{AttributeID: "attr-gasto", EntityName: "event", AttributeName: "gasto", DisplayName: "Gasto", DataType: domain.DataTypeNumber, Exposed: true},
		{AttributeID: "attr-club", EntityName: "event", AttributeName: "club", DisplayName: "Club", DataType: domain.DataTypeString, Exposed: true},
		{AttributeID: "attr-esvip", EntityName: "event", AttributeName: "esVip", DisplayName: "Es Vip", DataType: domain.DataTypeBool, Exposed: true},
		{AttributeID: "attr-eventid", EntityName: "event", AttributeName: "eventId", DisplayName: "Event Id", DataType: domain.DataTypeGuid, Exposed: false},
	} {
		_ = s.PutAttribute(context.Background(), a)
	}
	for code, types := range map[string][]domain.DataType{
		domain.OpGreaterThan:     {domain.DataTypeNumber, domain.DataTypeDate},
		domain.OpGreaterThanOrEq: {domain.DataTypeNumber, domain.DataTypeDate},
		domain.OpLessThan:        {domain.DataTypeNumber, domain.DataTypeDate},
		domain.OpLessThanOrEq:    {domain.DataTypeNumber, domain.DataTypeDate},
		domain.OpEquals:          {domain.DataTypeNumber, domain.DataTypeDate, domain.DataTypeBool, domain.DataTypeString},
		domain.OpNotEquals:       {domain.DataTypeNumber, domain.DataTypeDate, domain.DataTypeBool},
		domain.OpContains:        {domain.DataTypeString},
		domain.OpIn:              {domain.DataTypeStringArray},
	} {
		supported := make(map[domain.DataType]bool, len(types))
		for _, t := range types {
			supported[t] = true
		}
		_ = s.PutOperator(context.Background(), domain.Operator{
			OperatorID:     "op-" + code,
			Code:           code,
			DisplayName:    strings.ToUpper(code[:1]) + code[1:],
			Active:         true,
			SupportedTypes: supported,
		})
	}
	return s
}

func (s *Store) GetAttribute(_ context.Context, attributeID string) (domain.Attribute, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attributes[strings.TrimSpace(attributeID)]
	return a, ok, nil
}

func (s *Store) GetOperator(_ context.Context, operatorID string) (domain.Operator, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.operators[strings.TrimSpace(operatorID)]
	return o, ok, nil
}

func (s *Store) PutAttribute(_ context.Context, attribute domain.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[strings.TrimSpace(attribute.AttributeID)] = attribute
	return nil
}

func (s *Store) PutOperator(_ context.Context, operator domain.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators[strings.TrimSpace(operator.OperatorID)] = operator
	return nil
}
