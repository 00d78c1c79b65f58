package postgresadapter

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"promoengine/contexts/promotion-engine/catalog/domain"
)

// Repository persists attribute and operator catalogs in the
// catalog.attribute_catalog / catalog.operator_catalog /
// catalog.operator_supported_type tables named in spec.md §6.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetAttribute(ctx context.Context, attributeID string) (domain.Attribute, bool, error) {
	var row attributeModel
	err := r.db.WithContext(ctx).
		Where("attribute_id = ?", strings.TrimSpace(attributeID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Attribute{}, false, nil
		}
		return domain.Attribute{}, false, err
	}
	return row.toDomain(), true, nil
}

func (r *Repository) GetOperator(ctx context.Context, operatorID string) (domain.Operator, bool, error) {
	var row operatorModel
	err := r.db.WithContext(ctx).
		Where("operator_id = ?", strings.TrimSpace(operatorID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Operator{}, false, nil
		}
		return domain.Operator{}, false, err
	}

	var supportRows []operatorSupportedTypeModel
	if err := r.db.WithContext(ctx).
		Where("operator_id = ?", row.OperatorID).
		Find(&supportRows).Error; err != nil {
		return domain.Operator{}, false, err
	}
	supported := make(map[domain.DataType]bool, len(supportRows))
	for _, sr := range supportRows {
		supported[domain.DataType(sr.DataType)] = true
	}
	return row.toDomain(supported), true, nil
}

func (r *Repository) PutAttribute(ctx context.Context, attribute domain.Attribute) error {
	row := attributeModelFromDomain(attribute)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attribute_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

func (r *Repository) PutOperator(ctx context.Context, operator domain.Operator) error {
	row := operatorModelFromDomain(operator)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "operator_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error; err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).
		Where("operator_id = ?", row.OperatorID).
		Delete(&operatorSupportedTypeModel{}).Error; err != nil {
		return err
	}
	supportRows := make([]operatorSupportedTypeModel, 0, len(operator.SupportedTypes))
	for dt, ok := range operator.SupportedTypes {
		if !ok {
			continue
		}
		supportRows = append(supportRows, operatorSupportedTypeModel{
			OperatorID: row.OperatorID,
			DataType:   string(dt),
		})
	}
	if len(supportRows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&supportRows).Error
}

type attributeModel struct {
	AttributeID   string `gorm:"column:attribute_id;primaryKey"`
	EntityName    string `gorm:"column:entity_logical_name"`
	AttributeName string `gorm:"column:attribute_logical_name"`
	DisplayName   string `gorm:"column:display_name"`
	DataType      string `gorm:"column:data_type"`
	Exposed       bool   `gorm:"column:exposed"`
}

func (attributeModel) TableName() string { return "catalog.attribute_catalog" }

func attributeModelFromDomain(a domain.Attribute) attributeModel {
	return attributeModel{
		AttributeID:   strings.TrimSpace(a.AttributeID),
		EntityName:    strings.ToLower(strings.TrimSpace(a.EntityName)),
		AttributeName: strings.ToLower(strings.TrimSpace(a.AttributeName)),
		DisplayName:   a.DisplayName,
		DataType:      string(a.DataType),
		Exposed:       a.Exposed,
	}
}

func (m attributeModel) toDomain() domain.Attribute {
	return domain.Attribute{
		AttributeID:   m.AttributeID,
		EntityName:    m.EntityName,
		AttributeName: m.AttributeName,
		DisplayName:   m.DisplayName,
		DataType:      domain.DataType(m.DataType),
		Exposed:       m.Exposed,
	}
}

type operatorModel struct {
	OperatorID  string `gorm:"column:operator_id;primaryKey"`
	Code        string `gorm:"column:code"`
	DisplayName string `gorm:"column:display_name"`
	Active      bool   `gorm:"column:active"`
}

func (operatorModel) TableName() string { return "catalog.operator_catalog" }

func operatorModelFromDomain(o domain.Operator) operatorModel {
	return operatorModel{
		OperatorID:  strings.TrimSpace(o.OperatorID),
		Code:        strings.ToLower(strings.TrimSpace(o.Code)),
		DisplayName: o.DisplayName,
		Active:      o.Active,
	}
}

func (m operatorModel) toDomain(supported map[domain.DataType]bool) domain.Operator {
	return domain.Operator{
		OperatorID:     m.OperatorID,
		Code:           m.Code,
		DisplayName:    m.DisplayName,
		Active:         m.Active,
		SupportedTypes: supported,
	}
}

type operatorSupportedTypeModel struct {
	OperatorID string `gorm:"column:operator_id;primaryKey"`
	DataType   string `gorm:"column:data_type;primaryKey"`
}

func (operatorSupportedTypeModel) TableName() string { return "catalog.operator_supported_type" }
