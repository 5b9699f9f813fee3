package main

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/application/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrintReports(t *testing.T) {
	reports := []service.BalanceReport{
		{MaterialID: uuid.New(), MaterialTitle: "Oak plank", Cached: decimal.NewFromInt(10), Ledger: decimal.NewFromInt(10), Consistent: true, TransactionCount: 3},
		{MaterialID: uuid.New(), MaterialTitle: "Glue", Cached: decimal.NewFromInt(12), Ledger: decimal.NewFromInt(9), Drift: decimal.NewFromInt(3), TransactionCount: 2},
	}

	var buf bytes.Buffer
	assert.Equal(t, 1, printReports(&buf, reports, false))
	assert.Contains(t, buf.String(), "Glue")
	assert.NotContains(t, buf.String(), "Oak plank")

	buf.Reset()
	assert.Equal(t, 1, printReports(&buf, reports, true))
	assert.Contains(t, buf.String(), "Oak plank")
}
