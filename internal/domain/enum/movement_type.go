package enum

import (
	"database/sql/driver"
	"fmt"
)

// MovementType is the direction of a stock transaction
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether m is a known direction
func (m MovementType) IsValid() bool {
	return m == MovementIn || m == MovementOut
}

// Opposite returns the compensating direction
func (m MovementType) Opposite() MovementType {
	if m == MovementIn {
		return MovementOut
	}
	return MovementIn
}

// Sign is +1 for in and -1 for out
func (m MovementType) Sign() int64 {
	if m == MovementIn {
		return 1
	}
	return -1
}

func (m MovementType) Value() (driver.Value, error) {
	return string(m), nil
}

func (m *MovementType) Scan(value interface{}) error {
	return scanString(value, (*string)(m))
}

// ReferenceType identifies what caused a stock transaction
type ReferenceType string

const (
	ReferenceProductionBatch ReferenceType = "production_batch"
	ReferenceCustomOrder     ReferenceType = "custom_order"
	ReferenceManual          ReferenceType = "manual"
	ReferenceReversal        ReferenceType = "reversal"
)

func (r ReferenceType) String() string {
	return string(r)
}

func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceProductionBatch, ReferenceCustomOrder, ReferenceManual, ReferenceReversal:
		return true
	}
	return false
}

func (r ReferenceType) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *ReferenceType) Scan(value interface{}) error {
	return scanString(value, (*string)(r))
}

// TransactionStatus marks whether a ledger row has been reversed
type TransactionStatus string

const (
	TransactionActive    TransactionStatus = "active"
	TransactionCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) String() string {
	return string(s)
}

func (s TransactionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *TransactionStatus) Scan(value interface{}) error {
	if value == nil {
		*s = TransactionActive
		return nil
	}
	return scanString(value, (*string)(s))
}

func scanString(value interface{}, dst *string) error {
	switch v := value.(type) {
	case nil:
		*dst = ""
	case string:
		*dst = v
	case []byte:
		*dst = string(v)
	default:
		return fmt.Errorf("cannot scan %T into string enum", value)
	}
	return nil
}
