package utils

import (
	"strings"

	"github.com/google/uuid"
)

// Reference prefixes
const (
	ProductionBatchPrefix = "PB"
	CustomOrderPrefix     = "SM"
	MaterialCodePrefix    = "MAT"
	ProductCodePrefix     = "PROD"
)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// GenerateReferenceNo generates a reference such as PB-1A2B3C4D
func GenerateReferenceNo(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.New().String()[:8])
}

// GenerateMaterialCode generates a unique material code
func GenerateMaterialCode() string {
	return GenerateReferenceNo(MaterialCodePrefix)
}

// GenerateProductCode generates a unique product code
func GenerateProductCode() string {
	return GenerateReferenceNo(ProductCodePrefix)
}
