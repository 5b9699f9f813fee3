package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ProductionStatus is the lifecycle of a production batch or custom order
type ProductionStatus string

const (
	ProductionDraft        ProductionStatus = "draft"
	ProductionInProduction ProductionStatus = "in_production"
	ProductionCancelled    ProductionStatus = "cancelled"
)

func (s ProductionStatus) String() string {
	return string(s)
}

func (s ProductionStatus) IsValid() bool {
	switch s {
	case ProductionDraft, ProductionInProduction, ProductionCancelled:
		return true
	}
	return false
}

func (s *ProductionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if !ProductionStatus(str).IsValid() {
		return fmt.Errorf("unknown production status %q", str)
	}
	*s = ProductionStatus(str)
	return nil
}

func (s ProductionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *ProductionStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ProductionDraft
		return nil
	}
	return scanString(value, (*string)(s))
}

// BOMOwnerType is the kind of record a bill of materials belongs to
type BOMOwnerType string

const (
	BOMOwnerProduct     BOMOwnerType = "product"
	BOMOwnerCustomOrder BOMOwnerType = "custom_order"
)

func (o BOMOwnerType) IsValid() bool {
	return o == BOMOwnerProduct || o == BOMOwnerCustomOrder
}

func (o BOMOwnerType) Value() (driver.Value, error) {
	return string(o), nil
}

func (o *BOMOwnerType) Scan(value interface{}) error {
	return scanString(value, (*string)(o))
}

// ReferenceType maps a BOM owner to the ledger reference it produces
func (o BOMOwnerType) ReferenceType() ReferenceType {
	if o == BOMOwnerCustomOrder {
		return ReferenceCustomOrder
	}
	return ReferenceProductionBatch
}
