package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/domain/entity"
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/sangkips/atelier-api/internal/domain/repository"
	"github.com/sangkips/atelier-api/internal/infrastructure/lock"
	"github.com/sangkips/atelier-api/pkg/apperror"
	"github.com/sangkips/atelier-api/pkg/logger"
	"github.com/sangkips/atelier-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// LedgerOptions are capability flags resolved once at startup
type LedgerOptions struct {
	// AlertsOnManualMovement classifies the balance after a manual "out" movement.
	// Off by default: only production consumption raises alerts.
	AlertsOnManualMovement bool
}

// StockLedgerService owns every change to material balances. Each mutation appends ledger rows
// and rewrites the cached balance in one database transaction, under per-material locks.
type StockLedgerService struct {
	transactor   repository.Transactor
	materialRepo repository.MaterialRepository
	txnRepo      repository.StockTransactionRepository
	locker       lock.Locker
	log          *logger.Logger
	opts         LedgerOptions
}

// NewStockLedgerService creates a new stock ledger service
func NewStockLedgerService(
	transactor repository.Transactor,
	materialRepo repository.MaterialRepository,
	txnRepo repository.StockTransactionRepository,
	locker lock.Locker,
	log *logger.Logger,
	opts LedgerOptions,
) *StockLedgerService {
	return &StockLedgerService{
		transactor:   transactor,
		materialRepo: materialRepo,
		txnRepo:      txnRepo,
		locker:       locker,
		log:          log.With("component", "stock_ledger"),
		opts:         opts,
	}
}

// ConsumeItem is one material requirement
type ConsumeItem struct {
	MaterialID uuid.UUID       `json:"material_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
}

// ConsumeInput represents a request to reserve and consume materials
type ConsumeInput struct {
	Items         []ConsumeItem      `json:"items" validate:"dive"`
	ReferenceType enum.ReferenceType `json:"reference_type" validate:"required"`
	ReferenceID   *uuid.UUID         `json:"reference_id"`
	ActorID       uuid.UUID          `json:"actor_id" validate:"required"`
	Reason        string             `json:"reason" validate:"max=255"`

	// AfterReserve runs inside the same transaction once stock is consumed. An error rolls
	// everything back.
	AfterReserve func(ctx context.Context, result *ConsumeResult) error `json:"-"`
}

// ConsumeResult lists the ledger rows written, in input order, and the alerts raised
type ConsumeResult struct {
	TransactionIDs []uuid.UUID         `json:"transaction_ids"`
	Alerts         []entity.StockAlert `json:"alerts"`
}

// ReserveAndConsume checks that every material covers its requirement and, only if all do,
// records one "out" row per material and lowers the balances.
func (s *StockLedgerService) ReserveAndConsume(ctx context.Context, input *ConsumeInput) (*ConsumeResult, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewNoMaterialsError()
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	for i, item := range input.Items {
		if err := checkScale(fmt.Sprintf("items[%d].quantity", i), item.Quantity); err != nil {
			return nil, err
		}
	}

	items := mergeItems(input.Items)
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.MaterialID
	}

	unlock, err := s.lockMaterials(ctx, ids)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *ConsumeResult
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		materials, err := s.lockedMaterials(ctx, ids)
		if err != nil {
			return err
		}

		var shortfalls []apperror.Shortfall
		for _, item := range items {
			m := materials[item.MaterialID]
			if m.QuantityOnHand.LessThan(item.Quantity) {
				shortfalls = append(shortfalls, apperror.Shortfall{
					MaterialID:    m.ID,
					MaterialTitle: m.Name,
					Required:      item.Quantity,
					Available:     m.QuantityOnHand,
				})
			}
		}
		if len(shortfalls) > 0 {
			return apperror.NewInsufficientStockError(shortfalls)
		}

		result = &ConsumeResult{
			TransactionIDs: make([]uuid.UUID, 0, len(items)),
			Alerts:         []entity.StockAlert{},
		}
		for _, item := range items {
			m := materials[item.MaterialID]
			remaining := m.QuantityOnHand.Sub(item.Quantity)

			txn := &entity.StockTransaction{
				MaterialID:    m.ID,
				MovementType:  enum.MovementOut,
				Quantity:      item.Quantity,
				ReferenceType: input.ReferenceType,
				ReferenceID:   input.ReferenceID,
				ActorID:       input.ActorID,
				Reason:        input.Reason,
				BalanceAfter:  remaining,
			}
			if err := s.txnRepo.Create(ctx, txn); err != nil {
				return apperror.NewPersistenceError("record stock transaction", err)
			}
			if err := s.materialRepo.UpdateQuantity(ctx, m.ID, remaining); err != nil {
				return apperror.NewPersistenceError("update material balance", err)
			}

			result.TransactionIDs = append(result.TransactionIDs, txn.ID)
			if alert := m.AlertFor(remaining); alert != nil {
				result.Alerts = append(result.Alerts, *alert)
			}
		}

		if input.AfterReserve != nil {
			if err := input.AfterReserve(ctx, result); err != nil {
				return asAppError("complete reservation", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("materials consumed",
		"reference_type", input.ReferenceType,
		"reference_id", input.ReferenceID,
		"actor_id", input.ActorID,
		"transactions", len(result.TransactionIDs),
	)
	for _, alert := range result.Alerts {
		s.log.Warn("stock alert",
			"type", alert.Type,
			"material_id", alert.MaterialID,
			"remaining", alert.RemainingStock,
			"threshold", alert.Threshold,
		)
	}
	return result, nil
}

// ManualMovementInput represents a stock adjustment made by hand
type ManualMovementInput struct {
	MaterialID uuid.UUID         `json:"material_id" validate:"required"`
	Direction  enum.MovementType `json:"direction" validate:"required,oneof=in out"`
	Quantity   decimal.Decimal   `json:"quantity" validate:"gt=0"`
	ActorID    uuid.UUID         `json:"actor_id" validate:"required"`
	Reason     string            `json:"reason" validate:"max=255"`
}

// ManualMovementResult is the outcome of a manual movement
type ManualMovementResult struct {
	TransactionID uuid.UUID          `json:"transaction_id"`
	BalanceAfter  decimal.Decimal    `json:"balance_after"`
	Alert         *entity.StockAlert `json:"alert,omitempty"`
}

// RecordManualMovement appends one manual row and applies it to the balance. There is no
// sufficiency check: a correction may leave the balance negative.
func (s *StockLedgerService) RecordManualMovement(ctx context.Context, input *ManualMovementInput) (*ManualMovementResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkScale("quantity", input.Quantity); err != nil {
		return nil, err
	}

	unlock, err := s.lockMaterials(ctx, []uuid.UUID{input.MaterialID})
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *ManualMovementResult
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.applyManualMovement(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("manual stock movement",
		"material_id", input.MaterialID,
		"direction", input.Direction,
		"quantity", input.Quantity,
		"balance_after", result.BalanceAfter,
		"actor_id", input.ActorID,
		"transaction_id", result.TransactionID,
	)
	return result, nil
}

// applyManualMovement expects the caller to hold the material lock and an open transaction
func (s *StockLedgerService) applyManualMovement(ctx context.Context, input *ManualMovementInput) (*ManualMovementResult, error) {
	materials, err := s.lockedMaterials(ctx, []uuid.UUID{input.MaterialID})
	if err != nil {
		return nil, err
	}
	m := materials[input.MaterialID]

	txn := &entity.StockTransaction{
		MaterialID:    m.ID,
		MovementType:  input.Direction,
		Quantity:      input.Quantity,
		ReferenceType: enum.ReferenceManual,
		ActorID:       input.ActorID,
		Reason:        input.Reason,
	}
	balance := m.QuantityOnHand.Add(txn.Delta())
	txn.BalanceAfter = balance

	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, apperror.NewPersistenceError("record stock transaction", err)
	}
	if err := s.materialRepo.UpdateQuantity(ctx, m.ID, balance); err != nil {
		return nil, apperror.NewPersistenceError("update material balance", err)
	}

	result := &ManualMovementResult{TransactionID: txn.ID, BalanceAfter: balance}
	if s.opts.AlertsOnManualMovement && input.Direction == enum.MovementOut {
		result.Alert = m.AlertFor(balance)
	}
	return result, nil
}

// ReverseInput represents a request to cancel one ledger row
type ReverseInput struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	ActorID       uuid.UUID `json:"actor_id" validate:"required"`
	Note          string    `json:"note" validate:"max=1000"`
}

// ReversalResult links an original row to its compensating row
type ReversalResult struct {
	OriginalTransactionID uuid.UUID       `json:"original_transaction_id"`
	ReversalTransactionID uuid.UUID       `json:"reversal_transaction_id"`
	MaterialID            uuid.UUID       `json:"material_id"`
	BalanceAfter          decimal.Decimal `json:"balance_after"`
}

// ReverseTransaction cancels a ledger row by appending its opposite. The original row is kept
// and marked cancelled; reversing it again fails with AlreadyCancelled.
func (s *StockLedgerService) ReverseTransaction(ctx context.Context, input *ReverseInput) (*ReversalResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	original, err := s.txnRepo.GetByID(ctx, input.TransactionID)
	if err != nil {
		return nil, apperror.NewPersistenceError("load stock transaction", err)
	}
	if original == nil {
		return nil, apperror.NewNotFoundError("Transaction")
	}

	unlock, err := s.lockMaterials(ctx, []uuid.UUID{original.MaterialID})
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *ReversalResult
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.txnRepo.GetByIDForUpdate(ctx, input.TransactionID)
		if err != nil {
			return apperror.NewPersistenceError("load stock transaction", err)
		}
		if locked == nil {
			return apperror.NewNotFoundError("Transaction")
		}
		result, err = s.reverseLocked(ctx, locked, input.ActorID, input.Note)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stock transaction reversed",
		"transaction_id", result.OriginalTransactionID,
		"reversal_id", result.ReversalTransactionID,
		"material_id", result.MaterialID,
		"balance_after", result.BalanceAfter,
		"actor_id", input.ActorID,
	)
	return result, nil
}

// ReverseReferenceInput cancels every active "out" row of a production batch or custom order
type ReverseReferenceInput struct {
	ReferenceType enum.ReferenceType `json:"reference_type" validate:"required"`
	ReferenceID   uuid.UUID          `json:"reference_id" validate:"required"`
	ActorID       uuid.UUID          `json:"actor_id" validate:"required"`
	Note          string             `json:"note" validate:"max=1000"`

	// BeforeReverse runs first inside the transaction, typically to check and update the
	// owning record's status.
	BeforeReverse func(ctx context.Context) error `json:"-"`
}

// ReverseByReference reverses all active consumption rows of one reference atomically
func (s *StockLedgerService) ReverseByReference(ctx context.Context, input *ReverseReferenceInput) ([]ReversalResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	pending, err := s.txnRepo.ListActiveByReference(ctx, input.ReferenceType, input.ReferenceID)
	if err != nil {
		return nil, apperror.NewPersistenceError("list stock transactions", err)
	}
	ids := make([]uuid.UUID, 0, len(pending))
	for _, txn := range pending {
		ids = append(ids, txn.MaterialID)
	}

	unlock, err := s.lockMaterials(ctx, ids)
	if err != nil {
		return nil, err
	}
	defer unlock()

	results := []ReversalResult{}
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if input.BeforeReverse != nil {
			if err := input.BeforeReverse(ctx); err != nil {
				return asAppError("prepare reversal", err)
			}
		}

		txns, err := s.txnRepo.ListActiveByReference(ctx, input.ReferenceType, input.ReferenceID)
		if err != nil {
			return apperror.NewPersistenceError("list stock transactions", err)
		}
		for i := range txns {
			if txns[i].MovementType != enum.MovementOut {
				continue
			}
			result, err := s.reverseLocked(ctx, &txns[i], input.ActorID, input.Note)
			if err != nil {
				return err
			}
			results = append(results, *result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reference reversed",
		"reference_type", input.ReferenceType,
		"reference_id", input.ReferenceID,
		"reversals", len(results),
		"actor_id", input.ActorID,
	)
	return results, nil
}

// reverseLocked expects an open transaction and the material lock for original
func (s *StockLedgerService) reverseLocked(ctx context.Context, original *entity.StockTransaction, actorID uuid.UUID, note string) (*ReversalResult, error) {
	if original.IsCancelled() {
		return nil, apperror.NewAlreadyCancelledError("Transaction")
	}
	if original.ReferenceType == enum.ReferenceReversal {
		return nil, apperror.NewFieldError("transaction_id", "reversal transactions cannot be reversed")
	}

	materials, err := s.lockedMaterialsAny(ctx, []uuid.UUID{original.MaterialID})
	if err != nil {
		return nil, err
	}
	m := materials[original.MaterialID]

	originalID := original.ID
	compensation := &entity.StockTransaction{
		MaterialID:            m.ID,
		MovementType:          original.MovementType.Opposite(),
		Quantity:              original.Quantity,
		ReferenceType:         enum.ReferenceReversal,
		ReferenceID:           &originalID,
		ActorID:               actorID,
		Reason:                fmt.Sprintf("Reversal of transaction %s", original.ID),
		Notes:                 note,
		ReversesTransactionID: &originalID,
	}
	balance := m.QuantityOnHand.Add(compensation.Delta())
	compensation.BalanceAfter = balance

	if err := s.txnRepo.Create(ctx, compensation); err != nil {
		return nil, apperror.NewPersistenceError("record reversal", err)
	}

	original.AppendNote(fmt.Sprintf("[%s] cancelled by %s", time.Now().UTC().Format(time.RFC3339), actorID))
	original.AppendNote(note)
	ok, err := s.txnRepo.MarkReversed(ctx, original.ID, compensation.ID, original.Notes)
	if err != nil {
		return nil, apperror.NewPersistenceError("mark transaction reversed", err)
	}
	if !ok {
		return nil, apperror.NewAlreadyCancelledError("Transaction")
	}

	if err := s.materialRepo.UpdateQuantity(ctx, m.ID, balance); err != nil {
		return nil, apperror.NewPersistenceError("update material balance", err)
	}

	return &ReversalResult{
		OriginalTransactionID: original.ID,
		ReversalTransactionID: compensation.ID,
		MaterialID:            m.ID,
		BalanceAfter:          balance,
	}, nil
}

// BalanceReport compares a cached balance with the ledger replay
type BalanceReport struct {
	MaterialID       uuid.UUID       `json:"material_id"`
	MaterialTitle    string          `json:"material_title"`
	Cached           decimal.Decimal `json:"cached"`
	Ledger           decimal.Decimal `json:"ledger"`
	Drift            decimal.Decimal `json:"drift"`
	TransactionCount int64           `json:"transaction_count,omitempty"`
	Consistent       bool            `json:"consistent"`
}

func newBalanceReport(m *entity.Material, ledger decimal.Decimal, count int64) BalanceReport {
	drift := m.QuantityOnHand.Sub(ledger)
	return BalanceReport{
		MaterialID:       m.ID,
		MaterialTitle:    m.Name,
		Cached:           m.QuantityOnHand,
		Ledger:           ledger,
		Drift:            drift,
		TransactionCount: count,
		Consistent:       drift.IsZero(),
	}
}

// VerifyBalance replays one material's ledger, compensating rows included
func (s *StockLedgerService) VerifyBalance(ctx context.Context, materialID uuid.UUID) (*BalanceReport, error) {
	m, err := s.materialRepo.GetByID(ctx, materialID)
	if err != nil {
		return nil, apperror.NewPersistenceError("load material", err)
	}
	if m == nil {
		return nil, apperror.NewNotFoundError("Material")
	}

	ledger, count, err := s.txnRepo.LedgerBalance(ctx, materialID)
	if err != nil {
		return nil, apperror.NewPersistenceError("replay ledger", err)
	}

	report := newBalanceReport(m, ledger, count)
	if !report.Consistent {
		s.log.Warn("balance drift", "material_id", m.ID, "cached", m.QuantityOnHand, "ledger", ledger)
	}
	return &report, nil
}

// RebuildBalances replays the whole ledger. With dryRun false, every drifting cached balance
// is overwritten with the replayed value in a single transaction.
func (s *StockLedgerService) RebuildBalances(ctx context.Context, dryRun bool) ([]BalanceReport, error) {
	all, err := s.materialRepo.ListAll(ctx)
	if err != nil {
		return nil, apperror.NewPersistenceError("list materials", err)
	}
	ids := make([]uuid.UUID, len(all))
	for i := range all {
		ids[i] = all[i].ID
	}

	if !dryRun {
		unlock, err := s.lockMaterials(ctx, ids)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	var reports []BalanceReport
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		materials := all
		if !dryRun {
			locked, err := s.materialRepo.GetByIDsForUpdate(ctx, ids)
			if err != nil {
				return apperror.NewPersistenceError("lock materials", err)
			}
			materials = locked
		}

		balances, err := s.txnRepo.LedgerBalances(ctx)
		if err != nil {
			return apperror.NewPersistenceError("replay ledger", err)
		}

		reports = make([]BalanceReport, 0, len(materials))
		for i := range materials {
			report := newBalanceReport(&materials[i], balances[materials[i].ID], 0)
			reports = append(reports, report)
			if report.Consistent || dryRun {
				continue
			}
			if err := s.materialRepo.UpdateQuantity(ctx, report.MaterialID, report.Ledger); err != nil {
				return apperror.NewPersistenceError("rewrite material balance", err)
			}
			s.log.Warn("balance rebuilt", "material_id", report.MaterialID, "from", report.Cached, "to", report.Ledger)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// TransactionFilter narrows the ledger listing
type TransactionFilter struct {
	MaterialID    *uuid.UUID
	ReferenceType *enum.ReferenceType
	ReferenceID   *uuid.UUID
	Status        *enum.TransactionStatus
	Cursor        *pagination.CursorParams
}

// ListTransactions pages through the ledger oldest first
func (s *StockLedgerService) ListTransactions(ctx context.Context, filter *TransactionFilter) (*pagination.CursorPaginatedResult[entity.StockTransaction], error) {
	cursor := filter.Cursor
	if cursor == nil {
		cursor = pagination.DefaultCursorParams()
	}
	cursor.Validate()

	txns, err := s.txnRepo.ListWithCursor(ctx, &repository.TransactionCursorFilterParams{
		Cursor:        cursor,
		MaterialID:    filter.MaterialID,
		ReferenceType: filter.ReferenceType,
		ReferenceID:   filter.ReferenceID,
		Status:        filter.Status,
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewBadRequestError(err.Error())
	}

	meta, items := pagination.NewCursorPagination(txns, cursor,
		func(t entity.StockTransaction) string { return t.ID.String() },
		func(t entity.StockTransaction) time.Time { return t.CreatedAt },
	)
	return pagination.NewCursorPaginatedResult(items, meta), nil
}

// ListAlerts returns an alert for every active material at warning or critical level
func (s *StockLedgerService) ListAlerts(ctx context.Context) ([]entity.StockAlert, error) {
	materials, err := s.materialRepo.ListBelowMedium(ctx)
	if err != nil {
		return nil, apperror.NewPersistenceError("list materials", err)
	}

	alerts := make([]entity.StockAlert, 0, len(materials))
	for i := range materials {
		if alert := materials[i].AlertFor(materials[i].QuantityOnHand); alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts, nil
}

func (s *StockLedgerService) lockMaterials(ctx context.Context, ids []uuid.UUID) (func(), error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = lock.MaterialKey(id.String())
	}
	unlock, err := s.locker.Lock(ctx, keys)
	if err != nil {
		s.log.Warn("material lock not obtained", "materials", len(ids), "error", err)
		return nil, apperror.NewConflictError("Materials are busy, retry shortly")
	}
	return unlock, nil
}

// lockedMaterials row-locks the materials and requires each to exist and be active
func (s *StockLedgerService) lockedMaterials(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Material, error) {
	byID, err := s.lockedMaterialsAny(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !byID[id].IsActive {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Material %s", id))
		}
	}
	return byID, nil
}

// lockedMaterialsAny row-locks the materials, inactive ones included
func (s *StockLedgerService) lockedMaterialsAny(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Material, error) {
	materials, err := s.materialRepo.GetByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, apperror.NewPersistenceError("lock materials", err)
	}
	byID := make(map[uuid.UUID]*entity.Material, len(materials))
	for i := range materials {
		byID[materials[i].ID] = &materials[i]
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Material %s", id))
		}
	}
	return byID, nil
}

// mergeItems sums duplicate materials, keeping the position of the first occurrence
func mergeItems(items []ConsumeItem) []ConsumeItem {
	merged := make([]ConsumeItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if i, ok := index[item.MaterialID]; ok {
			merged[i].Quantity = merged[i].Quantity.Add(item.Quantity)
			continue
		}
		index[item.MaterialID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// asAppError keeps typed errors from hooks and wraps anything else as a persistence failure
func asAppError(op string, err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewPersistenceError(op, err)
}
