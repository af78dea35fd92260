package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payee"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payout"
	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
)

// --- mocks shared by the service tests ---

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Create(ctx context.Context, entry *earnings.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedger) GetByID(ctx context.Context, id uuid.UUID) (*earnings.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*earnings.Entry), args.Error(1)
}

func (m *MockLedger) GetByPaymentRef(ctx context.Context, paymentRef string) (*earnings.Entry, error) {
	args := m.Called(ctx, paymentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*earnings.Entry), args.Error(1)
}

func (m *MockLedger) List(ctx context.Context, p earnings.Payee, filter earnings.ListFilter) ([]*earnings.Entry, error) {
	args := m.Called(ctx, p, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*earnings.Entry), args.Error(1)
}

func (m *MockLedger) ListPending(ctx context.Context, p *earnings.Payee) ([]*earnings.Entry, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*earnings.Entry), args.Error(1)
}

func (m *MockLedger) ListAvailable(ctx context.Context, p earnings.Payee) ([]*earnings.Entry, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*earnings.Entry), args.Error(1)
}

func (m *MockLedger) TransitionToAvailable(ctx context.Context, paymentRef, settlementRef string, payoutDate time.Time) (*earnings.Entry, error) {
	args := m.Called(ctx, paymentRef, settlementRef, payoutDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*earnings.Entry), args.Error(1)
}

func (m *MockLedger) TransitionManyToAvailable(ctx context.Context, paymentRefs []string, settlementRef string, payoutDate time.Time) ([]*earnings.Entry, error) {
	args := m.Called(ctx, paymentRefs, settlementRef, payoutDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*earnings.Entry), args.Error(1)
}

func (m *MockLedger) MarkWithdrawn(ctx context.Context, ids []uuid.UUID, payoutID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids, payoutID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) Summarize(ctx context.Context, p earnings.Payee) (*earnings.Summary, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*earnings.Summary), args.Error(1)
}

func (m *MockLedger) ListPayeesWithPending(ctx context.Context) ([]*earnings.PayeeBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*earnings.PayeeBalance), args.Error(1)
}

func (m *MockLedger) ListPayeesWithBalance(ctx context.Context) ([]*earnings.PayeeBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*earnings.PayeeBalance), args.Error(1)
}

func (m *MockLedger) RevenueByMonth(ctx context.Context, p earnings.Payee, months int) ([]*earnings.MonthlyRevenue, error) {
	args := m.Called(ctx, p, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*earnings.MonthlyRevenue), args.Error(1)
}

func (m *MockLedger) WithTx(tx pgx.Tx) earnings.Repository { return m }

type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Create(ctx context.Context, batch *payout.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockPayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*payout.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.Batch), args.Error(1)
}

func (m *MockPayoutRepository) ListByPayee(ctx context.Context, p earnings.Payee, limit int) ([]*payout.Batch, error) {
	args := m.Called(ctx, p, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payout.Batch), args.Error(1)
}

func (m *MockPayoutRepository) List(ctx context.Context, status payout.Status, limit int) ([]*payout.Batch, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payout.Batch), args.Error(1)
}

func (m *MockPayoutRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status payout.Status, transferRef string) error {
	args := m.Called(ctx, id, status, transferRef)
	return args.Error(0)
}

func (m *MockPayoutRepository) WithTx(tx pgx.Tx) payout.Repository { return m }

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Get(ctx context.Context, p earnings.Payee) (*payee.Destination, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payee.Destination), args.Error(1)
}

func (m *MockDirectory) Upsert(ctx context.Context, dest *payee.Destination) error {
	args := m.Called(ctx, dest)
	return args.Error(0)
}

func (m *MockDirectory) SetProviderContactID(ctx context.Context, p earnings.Payee, contactID string) error {
	args := m.Called(ctx, p, contactID)
	return args.Error(0)
}

type MockTransferProvider struct {
	mock.Mock
}

func (m *MockTransferProvider) CreateContact(ctx context.Context, dest *payee.Destination) (string, error) {
	args := m.Called(ctx, dest)
	return args.String(0), args.Error(1)
}

func (m *MockTransferProvider) CreateTransfer(ctx context.Context, req payout.TransferRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockReconEngine struct {
	mock.Mock
}

func (m *MockReconEngine) Reconcile(ctx context.Context, trigger reconcile.Trigger, scope reconcile.Scope, correlationID string) (*reconcile.Report, error) {
	args := m.Called(ctx, trigger, scope, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.Report), args.Error(1)
}

func (m *MockReconEngine) ProcessSettlement(ctx context.Context, settlementID, correlationID string) (*reconcile.Report, error) {
	args := m.Called(ctx, settlementID, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.Report), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *reconcile.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) ListRecent(ctx context.Context, limit int) ([]*reconcile.Report, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reconcile.Report), args.Error(1)
}

// fakeTxRunner runs the closure directly; the closure's error propagates the
// way a rolled-back transaction would.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}
