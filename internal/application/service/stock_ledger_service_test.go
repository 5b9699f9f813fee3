package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveAndConsume_AlertLevels(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})

	t.Run("warning", func(t *testing.T) {
		m := env.newMaterial(t, "Oak plank", "100")

		res, err := env.consume(ctx, item(m.ID, "75"))
		require.NoError(t, err)
		require.Len(t, res.TransactionIDs, 1)
		require.Len(t, res.Alerts, 1)
		assert.Equal(t, enum.AlertWarning, res.Alerts[0].Type)
		assert.Equal(t, "Oak plank", res.Alerts[0].MaterialTitle)
		assertDec(t, "25", res.Alerts[0].RemainingStock)
		assertDec(t, "30", res.Alerts[0].Threshold)
		assertDec(t, "25", env.balance(t, m.ID))
	})

	t.Run("critical", func(t *testing.T) {
		m := env.newMaterial(t, "Walnut veneer", "100")

		res, err := env.consume(ctx, item(m.ID, "95"))
		require.NoError(t, err)
		require.Len(t, res.Alerts, 1)
		assert.Equal(t, enum.AlertCritical, res.Alerts[0].Type)
		assertDec(t, "5", res.Alerts[0].RemainingStock)
		assertDec(t, "10", res.Alerts[0].Threshold)
	})

	t.Run("insufficient", func(t *testing.T) {
		m := env.newMaterial(t, "Brass hinge", "100")

		_, err := env.consume(ctx, item(m.ID, "101"))
		appErr := assertKind(t, err, apperror.KindInsufficientStock)
		require.Len(t, appErr.Shortfalls, 1)
		assert.Equal(t, "Brass hinge", appErr.Shortfalls[0].MaterialTitle)
		assertDec(t, "101", appErr.Shortfalls[0].Required)
		assertDec(t, "100", appErr.Shortfalls[0].Available)

		assertDec(t, "100", env.balance(t, m.ID))
		assert.Equal(t, int64(1), env.ledgerRows(t, m.ID))
	})

	t.Run("no alert above medium", func(t *testing.T) {
		m := env.newMaterial(t, "Linen", "100")

		res, err := env.consume(ctx, item(m.ID, "70"))
		require.NoError(t, err)
		assert.Empty(t, res.Alerts)
	})
}

func TestReserveAndConsume_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})

	plenty := env.newMaterial(t, "Pine", "100")
	short := env.newMaterial(t, "Glue", "5")
	shorter := env.newMaterial(t, "Varnish", "1")

	_, err := env.consume(ctx, item(plenty.ID, "10"), item(short.ID, "10"), item(shorter.ID, "2"))
	appErr := assertKind(t, err, apperror.KindInsufficientStock)
	require.Len(t, appErr.Shortfalls, 2)
	assert.Equal(t, "Glue", appErr.Shortfalls[0].MaterialTitle)
	assert.Equal(t, "Varnish", appErr.Shortfalls[1].MaterialTitle)

	assertDec(t, "100", env.balance(t, plenty.ID))
	assertDec(t, "5", env.balance(t, short.ID))
	assert.Equal(t, int64(1), env.ledgerRows(t, plenty.ID))
}

func TestReserveAndConsume_RollsBackWhenHookFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "100")

	_, err := env.ledger.ReserveAndConsume(ctx, &ConsumeInput{
		Items:         []ConsumeItem{item(m.ID, "40")},
		ReferenceType: enum.ReferenceProductionBatch,
		ActorID:       env.actor,
		AfterReserve: func(ctx context.Context, result *ConsumeResult) error {
			require.Len(t, result.TransactionIDs, 1)
			return apperror.NewConflictError("batch reference taken")
		},
	})
	assertKind(t, err, apperror.KindConflict)

	assertDec(t, "100", env.balance(t, m.ID))
	assert.Equal(t, int64(1), env.ledgerRows(t, m.ID))
}

func TestReserveAndConsume_InputOrderAndMerging(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})

	a := env.newMaterial(t, "A", "100")
	b := env.newMaterial(t, "B", "100")
	c := env.newMaterial(t, "C", "100")

	res, err := env.consume(ctx, item(c.ID, "1"), item(a.ID, "30"), item(b.ID, "2"), item(a.ID, "30"))
	require.NoError(t, err)
	require.Len(t, res.TransactionIDs, 3)

	want := []uuid.UUID{c.ID, a.ID, b.ID}
	for i, id := range res.TransactionIDs {
		var txn entity.StockTransaction
		require.NoError(t, env.db.First(&txn, "id = ?", id).Error)
		assert.Equal(t, want[i], txn.MaterialID)
		assert.Equal(t, enum.MovementOut, txn.MovementType)
	}

	assertDec(t, "40", env.balance(t, a.ID))
}

func TestReserveAndConsume_Rejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "100")

	_, err := env.consume(ctx)
	appErr := assertKind(t, err, apperror.KindNotFound)
	assert.Equal(t, "no materials found", appErr.Message)

	_, err = env.consume(ctx, item(m.ID, "0"))
	appErr = assertKind(t, err, apperror.KindValidation)
	require.NotEmpty(t, appErr.Errors)
	assert.Equal(t, "items[0].quantity", appErr.Errors[0].Field)

	_, err = env.consume(ctx, item(m.ID, "-3"))
	assertKind(t, err, apperror.KindValidation)

	_, err = env.consume(ctx, item(uuid.New(), "1"))
	assertKind(t, err, apperror.KindNotFound)

	require.NoError(t, env.materials.DeactivateMaterial(ctx, m.ID))
	_, err = env.consume(ctx, item(m.ID, "1"))
	assertKind(t, err, apperror.KindNotFound)
}

func TestRecordManualMovement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "20")

	in, err := env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: m.ID, Direction: enum.MovementIn, Quantity: dec("5.5"), ActorID: env.actor, Reason: "delivery",
	})
	require.NoError(t, err)
	assertDec(t, "25.5", in.BalanceAfter)

	out, err := env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: m.ID, Direction: enum.MovementOut, Quantity: dec("20"), ActorID: env.actor,
	})
	require.NoError(t, err)
	assertDec(t, "5.5", out.BalanceAfter)
	assert.Nil(t, out.Alert, "manual movements do not raise alerts by default")

	short, err := env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: m.ID, Direction: enum.MovementOut, Quantity: dec("6"), ActorID: env.actor, Reason: "stocktake correction",
	})
	require.NoError(t, err)
	assertDec(t, "-0.5", short.BalanceAfter)
	assertDec(t, "-0.5", env.balance(t, m.ID))

	report, err := env.ledger.VerifyBalance(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)

	_, err = env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: m.ID, Direction: "sideways", Quantity: dec("1"), ActorID: env.actor,
	})
	assertKind(t, err, apperror.KindValidation)

	_, err = env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: uuid.New(), Direction: enum.MovementIn, Quantity: dec("1"), ActorID: env.actor,
	})
	assertKind(t, err, apperror.KindNotFound)
}

func TestRecordManualMovement_AlertsWhenEnabled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{AlertsOnManualMovement: true})
	m := env.newMaterial(t, "Pine", "40")

	out, err := env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: m.ID, Direction: enum.MovementOut, Quantity: dec("35"), ActorID: env.actor,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Alert)
	assert.Equal(t, enum.AlertCritical, out.Alert.Type)
}

func TestReverseTransaction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "100")

	res, err := env.consume(ctx, item(m.ID, "75"))
	require.NoError(t, err)
	original := res.TransactionIDs[0]

	rev, err := env.ledger.ReverseTransaction(ctx, &ReverseInput{TransactionID: original, ActorID: env.actor, Note: "wrong product"})
	require.NoError(t, err)
	assertDec(t, "100", rev.BalanceAfter)
	assertDec(t, "100", env.balance(t, m.ID))

	var orig, comp entity.StockTransaction
	require.NoError(t, env.db.First(&orig, "id = ?", original).Error)
	require.NoError(t, env.db.First(&comp, "id = ?", rev.ReversalTransactionID).Error)

	assert.Equal(t, enum.TransactionCancelled, orig.Status)
	require.NotNil(t, orig.ReversedByTransactionID)
	assert.Equal(t, comp.ID, *orig.ReversedByTransactionID)
	assert.Contains(t, orig.Notes, "wrong product")
	assertDec(t, "75", orig.Quantity)

	assert.Equal(t, enum.MovementIn, comp.MovementType)
	assert.Equal(t, enum.ReferenceReversal, comp.ReferenceType)
	require.NotNil(t, comp.ReversesTransactionID)
	assert.Equal(t, original, *comp.ReversesTransactionID)
	assert.Contains(t, comp.Reason, original.String())

	_, err = env.ledger.ReverseTransaction(ctx, &ReverseInput{TransactionID: original, ActorID: env.actor})
	assertKind(t, err, apperror.KindAlreadyCancelled)

	_, err = env.ledger.ReverseTransaction(ctx, &ReverseInput{TransactionID: rev.ReversalTransactionID, ActorID: env.actor})
	assertKind(t, err, apperror.KindValidation)

	_, err = env.ledger.ReverseTransaction(ctx, &ReverseInput{TransactionID: uuid.New(), ActorID: env.actor})
	assertKind(t, err, apperror.KindNotFound)

	report, err := env.ledger.VerifyBalance(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(3), report.TransactionCount)
}

func TestReverseTransaction_InMayLeaveBalanceNegative(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "0")

	in, err := env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: m.ID, Direction: enum.MovementIn, Quantity: dec("100"), ActorID: env.actor, Reason: "wrong delivery count",
	})
	require.NoError(t, err)
	_, err = env.consume(ctx, item(m.ID, "80"))
	require.NoError(t, err)

	rev, err := env.ledger.ReverseTransaction(ctx, &ReverseInput{TransactionID: in.TransactionID, ActorID: env.actor})
	require.NoError(t, err)
	assertDec(t, "-80", rev.BalanceAfter)
	assertDec(t, "-80", env.balance(t, m.ID))

	report, err := env.ledger.VerifyBalance(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assertDec(t, "-80", report.Ledger)

	// consumption still refuses to draw on a negative balance
	_, err = env.consume(ctx, item(m.ID, "1"))
	assertKind(t, err, apperror.KindInsufficientStock)
	assertDec(t, "-80", env.balance(t, m.ID))
}

func TestQuantityScale_RejectsFinerInputs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "20")

	_, err := env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: m.ID, Direction: enum.MovementIn, Quantity: dec("0.00001"), ActorID: env.actor,
	})
	appErr := assertKind(t, err, apperror.KindValidation)
	require.Len(t, appErr.Errors, 1)
	assert.Equal(t, "quantity", appErr.Errors[0].Field)

	_, err = env.consume(ctx, item(m.ID, "1"), item(m.ID, "1.00005"))
	appErr = assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, "items[1].quantity", appErr.Errors[0].Field)

	_, err = env.materials.RegisterMaterial(ctx, &RegisterMaterialInput{
		Name: "Walnut", InitialQuantity: dec("1.23456"), ActorID: env.actor,
	})
	appErr = assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, "initial_quantity", appErr.Errors[0].Field)

	assertDec(t, "20", env.balance(t, m.ID))
	assert.Equal(t, int64(1), env.ledgerRows(t, m.ID))

	res, err := env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: m.ID, Direction: enum.MovementOut, Quantity: dec("0.0001"), ActorID: env.actor,
	})
	require.NoError(t, err)
	assertDec(t, "19.9999", res.BalanceAfter)
}

func TestReverseTransaction_ConcurrentSecondCallFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "100")

	res, err := env.consume(ctx, item(m.ID, "10"))
	require.NoError(t, err)

	var ok, cancelled int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.ReverseTransaction(ctx, &ReverseInput{TransactionID: res.TransactionIDs[0], ActorID: env.actor})
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case apperror.IsKind(err, apperror.KindAlreadyCancelled):
				atomic.AddInt32(&cancelled, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(4), cancelled)
	assertDec(t, "100", env.balance(t, m.ID))
}

func TestReserveAndConsume_ConcurrentRequestsNeverOversell(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "100")

	var ok, short int32
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.consume(ctx, item(m.ID, "5"))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case apperror.IsKind(err, apperror.KindInsufficientStock):
				atomic.AddInt32(&short, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), ok)
	assert.Equal(t, int32(10), short)
	assertDec(t, "0", env.balance(t, m.ID))

	report, err := env.ledger.VerifyBalance(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestConservation_AfterMixedOperations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	a := env.newMaterial(t, "A", "50")
	b := env.newMaterial(t, "B", "80")

	res, err := env.consume(ctx, item(a.ID, "12.25"), item(b.ID, "30"))
	require.NoError(t, err)
	_, err = env.ledger.RecordManualMovement(ctx, &ManualMovementInput{
		MaterialID: b.ID, Direction: enum.MovementIn, Quantity: dec("7"), ActorID: env.actor,
	})
	require.NoError(t, err)
	_, err = env.ledger.ReverseTransaction(ctx, &ReverseInput{TransactionID: res.TransactionIDs[0], ActorID: env.actor})
	require.NoError(t, err)
	_, err = env.consume(ctx, item(a.ID, "0.75"))
	require.NoError(t, err)

	reports, err := env.ledger.RebuildBalances(ctx, true)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Truef(t, r.Consistent, "%s drifted by %s", r.MaterialTitle, r.Drift)
	}
	assertDec(t, "49.25", env.balance(t, a.ID))
	assertDec(t, "57", env.balance(t, b.ID))
}

func TestRebuildBalances_RepairsDrift(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "100")
	_, err := env.consume(ctx, item(m.ID, "40"))
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&entity.Material{}).Where("id = ?", m.ID).Update("quantity_on_hand", dec("999")).Error)

	report, err := env.ledger.VerifyBalance(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assertDec(t, "939", report.Drift)

	reports, err := env.ledger.RebuildBalances(ctx, true)
	require.NoError(t, err)
	assert.False(t, reports[0].Consistent)
	assertDec(t, "999", env.balance(t, m.ID))

	_, err = env.ledger.RebuildBalances(ctx, false)
	require.NoError(t, err)
	assertDec(t, "60", env.balance(t, m.ID))
}

func TestListAlerts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	env.newMaterial(t, "Healthy", "100")
	warn := env.newMaterial(t, "Warn", "20")
	crit := env.newMaterial(t, "Crit", "3")
	gone := env.newMaterial(t, "Gone", "1")
	require.NoError(t, env.materials.DeactivateMaterial(ctx, gone.ID))

	alerts, err := env.ledger.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	byID := map[uuid.UUID]enum.AlertSeverity{}
	for _, a := range alerts {
		byID[a.MaterialID] = a.Type
	}
	assert.Equal(t, enum.AlertWarning, byID[warn.ID])
	assert.Equal(t, enum.AlertCritical, byID[crit.ID])
}

func TestListTransactions_Cursor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, LedgerOptions{})
	m := env.newMaterial(t, "Pine", "100")
	other := env.newMaterial(t, "Oak", "100")

	for i := 0; i < 2; i++ {
		time.Sleep(5 * time.Millisecond)
		_, err := env.consume(ctx, item(m.ID, "1"))
		require.NoError(t, err)
	}

	first, err := env.ledger.ListTransactions(ctx, &TransactionFilter{
		MaterialID: &m.ID,
		Cursor:     &pagination.CursorParams{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.Pagination.HasNext)
	assert.False(t, first.Pagination.HasPrev)
	assert.Equal(t, enum.ReferenceManual, first.Items[0].ReferenceType)

	second, err := env.ledger.ListTransactions(ctx, &TransactionFilter{
		MaterialID: &m.ID,
		Cursor:     &pagination.CursorParams{Limit: 2, Cursor: *first.Pagination.NextCursor},
	})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.False(t, second.Pagination.HasNext)
	assert.True(t, second.Pagination.HasPrev)
	require.NotNil(t, second.Pagination.PrevCursor)

	back, err := env.ledger.ListTransactions(ctx, &TransactionFilter{
		MaterialID: &m.ID,
		Cursor:     &pagination.CursorParams{Limit: 2, Cursor: *second.Pagination.PrevCursor, Direction: pagination.CursorDirectionPrev},
	})
	require.NoError(t, err)
	require.Len(t, back.Items, 2)
	assert.Equal(t, first.Items[0].ID, back.Items[0].ID)
	assert.Equal(t, first.Items[1].ID, back.Items[1].ID)
	assert.False(t, back.Pagination.HasPrev)
	assert.True(t, back.Pagination.HasNext)

	for _, txn := range append(first.Items, second.Items...) {
		assert.Equal(t, m.ID, txn.MaterialID)
		assert.NotEqual(t, other.ID, txn.MaterialID)
	}

	_, err = env.ledger.ListTransactions(ctx, &TransactionFilter{Cursor: &pagination.CursorParams{Cursor: "not-a-cursor"}})
	assertKind(t, err, apperror.KindBadRequest)
}
