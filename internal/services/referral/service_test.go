package referral

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type increment struct {
	identifier string
	delta      int64
}

// memoryDirectory is an in-process Directory and Ledger.
type memoryDirectory struct {
	mu         sync.Mutex
	accounts   map[string]*models.Account
	reads      int
	increments []increment
	entries    []*models.ReferralCashback
	failFind   map[string]error
	failCredit map[string]error
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{
		accounts:   map[string]*models.Account{},
		failFind:   map[string]error{},
		failCredit: map[string]error{},
	}
}

func (d *memoryDirectory) add(id string, typ models.AccountType, invitedBy string) {
	a := &models.Account{Identifier: id, AccountType: typ}
	if invitedBy != "" {
		a.InvitedBy = &invitedBy
	}
	d.accounts[id] = a
}

func (d *memoryDirectory) FindByIdentifier(ctx context.Context, id string) (*models.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if err, ok := d.failFind[id]; ok {
		return nil, err
	}
	a, ok := d.accounts[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (d *memoryDirectory) IncrementReferralBalance(ctx context.Context, id string, delta int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failCredit[id]; ok {
		return err
	}
	a, ok := d.accounts[id]
	if !ok {
		return repositories.ErrAccountNotFound
	}
	a.BalanceFromReferrals += delta
	d.increments = append(d.increments, increment{id, delta})
	return nil
}

func (d *memoryDirectory) RecordCashback(ctx context.Context, entry *models.ReferralCashback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, entry)
	return nil
}

func (d *memoryDirectory) balance(id string) int64 {
	return d.accounts[id].BalanceFromReferrals
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordComputation(result string, duration time.Duration) {
	m.Called(result, duration)
}

func (m *MockMetrics) RecordCredit(level int, amount int64) {
	m.Called(level, amount)
}

func (m *MockMetrics) RecordSkippedLink(level int) {
	m.Called(level)
}

func (m *MockMetrics) RecordCycle() {
	m.Called()
}

const (
	business   = models.AccountTypeBusiness
	individual = models.AccountTypeIndividual
)

func TestReferralService_ExampleScenario(t *testing.T) {
	dir := newMemoryDirectory()
	dir.add("Z", individual, "")
	dir.add("A", business, "Z")
	dir.add("B", business, "A")

	svc := NewService(dir, nil, DefaultConfig(), nil, nil)
	result, err := svc.ComputeAndApplyCashback(context.Background(), 10000, "B")
	require.NoError(t, err)

	assert.Equal(t, int64(500), dir.balance("A"))
	assert.Equal(t, int64(0), dir.balance("Z"))
	assert.Equal(t, int64(0), dir.balance("B"))
	assert.Equal(t, []increment{{"A", 500}}, dir.increments)

	assert.True(t, result.Applied)
	assert.Equal(t, []Credit{{Level: 0, PayeeID: "A", Amount: 500}}, result.Credits)
	assert.Equal(t, int64(500), result.TotalCredited)
	assert.Equal(t, 2, result.LinksVisited)
	assert.Equal(t, StopNoInviter, result.StopReason)
}

func TestReferralService_ComputeAndApplyCashback(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(d *memoryDirectory)
		amount     int64
		buyer      string
		want       []increment
		wantStop   string
		wantReads  int
		wantErr    error
		wantCredit int64
	}{
		{
			name: "full business chain pays 5/3/1",
			setup: func(d *memoryDirectory) {
				d.add("L2", business, "")
				d.add("L1", business, "L2")
				d.add("L0", business, "L1")
				d.add("buyer", business, "L0")
			},
			amount:     10000,
			buyer:      "buyer",
			want:       []increment{{"L0", 500}, {"L1", 300}, {"L2", 100}},
			wantStop:   StopMaxLevels,
			wantReads:  4,
			wantCredit: 900,
		},
		{
			name: "chain longer than three stops at level three",
			setup: func(d *memoryDirectory) {
				d.add("L4", business, "")
				d.add("L3", business, "L4")
				d.add("L2", business, "L3")
				d.add("L1", business, "L2")
				d.add("L0", business, "L1")
				d.add("buyer", business, "L0")
			},
			amount:     10000,
			buyer:      "buyer",
			want:       []increment{{"L0", 500}, {"L1", 300}, {"L2", 100}},
			wantStop:   StopMaxLevels,
			wantReads:  4,
			wantCredit: 900,
		},
		{
			name: "buyer without inviter is a no-op",
			setup: func(d *memoryDirectory) {
				d.add("buyer", business, "")
			},
			amount:    10000,
			buyer:     "buyer",
			wantStop:  StopNoInviter,
			wantReads: 1,
		},
		{
			name: "short chain stops at first missing inviter",
			setup: func(d *memoryDirectory) {
				d.add("L0", business, "")
				d.add("buyer", business, "L0")
			},
			amount:     10000,
			buyer:      "buyer",
			want:       []increment{{"L0", 500}},
			wantStop:   StopNoInviter,
			wantReads:  2,
			wantCredit: 500,
		},
		{
			name: "dangling inviter reference ends the walk",
			setup: func(d *memoryDirectory) {
				d.add("L0", business, "deleted")
				d.add("buyer", business, "L0")
			},
			amount:     10000,
			buyer:      "buyer",
			want:       []increment{{"L0", 500}},
			wantStop:   StopInviterNotFound,
			wantReads:  3,
			wantCredit: 500,
		},
		{
			name: "individual account skips both adjacent links but walk continues",
			setup: func(d *memoryDirectory) {
				d.add("Y", business, "")
				d.add("Z", business, "Y")
				d.add("A", individual, "Z")
				d.add("buyer", business, "A")
			},
			amount:     10000,
			buyer:      "buyer",
			want:       []increment{{"Y", 100}},
			wantStop:   StopMaxLevels,
			wantReads:  4,
			wantCredit: 100,
		},
		{
			name: "individual buyer earns nothing for the first link",
			setup: func(d *memoryDirectory) {
				d.add("L1", business, "")
				d.add("L0", business, "L1")
				d.add("buyer", individual, "L0")
			},
			amount:     10000,
			buyer:      "buyer",
			want:       []increment{{"L1", 300}},
			wantStop:   StopNoInviter,
			wantReads:  3,
			wantCredit: 300,
		},
		{
			name: "fractional minor units truncate toward zero",
			setup: func(d *memoryDirectory) {
				d.add("L2", business, "")
				d.add("L1", business, "L2")
				d.add("L0", business, "L1")
				d.add("buyer", business, "L0")
			},
			amount:     199,
			buyer:      "buyer",
			want:       []increment{{"L0", 9}, {"L1", 5}, {"L2", 1}},
			wantStop:   StopMaxLevels,
			wantReads:  4,
			wantCredit: 15,
		},
		{
			name: "credits that round to zero are not written",
			setup: func(d *memoryDirectory) {
				d.add("L1", business, "")
				d.add("L0", business, "L1")
				d.add("buyer", business, "L0")
			},
			amount:     30,
			buyer:      "buyer",
			want:       []increment{{"L0", 1}},
			wantStop:   StopNoInviter,
			wantReads:  3,
			wantCredit: 1,
		},
		{
			name: "two-account cycle is detected",
			setup: func(d *memoryDirectory) {
				d.add("A", business, "B")
				d.add("B", business, "A")
			},
			amount:     10000,
			buyer:      "A",
			want:       []increment{{"B", 500}},
			wantStop:   StopCycle,
			wantReads:  2,
			wantCredit: 500,
		},
		{
			name: "self invitation is a cycle",
			setup: func(d *memoryDirectory) {
				d.add("A", business, "A")
			},
			amount:    10000,
			buyer:     "A",
			wantStop:  StopCycle,
			wantReads: 1,
		},
		{
			name:    "unknown buyer",
			setup:   func(d *memoryDirectory) {},
			amount:  10000,
			buyer:   "ghost",
			wantErr: ErrNotFound,
		},
		{
			name:    "zero amount",
			setup:   func(d *memoryDirectory) { d.add("buyer", business, "") },
			amount:  0,
			buyer:   "buyer",
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "negative amount",
			setup:   func(d *memoryDirectory) { d.add("buyer", business, "") },
			amount:  -100,
			buyer:   "buyer",
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "amount overflowing the computation",
			setup:   func(d *memoryDirectory) { d.add("buyer", business, "") },
			amount:  MaxPurchaseAmount + 1,
			buyer:   "buyer",
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "empty buyer id",
			setup:   func(d *memoryDirectory) {},
			amount:  100,
			buyer:   "",
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newMemoryDirectory()
			tt.setup(dir)
			svc := NewService(dir, nil, DefaultConfig(), nil, nil)

			result, err := svc.ComputeAndApplyCashback(context.Background(), tt.amount, tt.buyer)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				assert.Empty(t, dir.increments)
				return
			}

			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, dir.increments)
			} else {
				assert.Equal(t, tt.want, dir.increments)
			}
			assert.Equal(t, tt.wantStop, result.StopReason)
			assert.Equal(t, tt.wantReads, dir.reads)
			assert.Equal(t, tt.wantCredit, result.TotalCredited)
		})
	}
}

func TestReferralService_NotIdempotent(t *testing.T) {
	dir := newMemoryDirectory()
	dir.add("A", business, "")
	dir.add("B", business, "A")
	svc := NewService(dir, nil, DefaultConfig(), nil, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.ComputeAndApplyCashback(context.Background(), 10000, "B")
		require.NoError(t, err)
	}

	// repeated identical calls credit twice; deduplication belongs to the caller
	assert.Equal(t, int64(1000), dir.balance("A"))
	assert.Len(t, dir.increments, 2)
}

func TestReferralService_Failures(t *testing.T) {
	t.Run("buyer read failure is unavailable", func(t *testing.T) {
		dir := newMemoryDirectory()
		dir.add("buyer", business, "")
		dir.failFind["buyer"] = errors.New("connection refused")
		svc := NewService(dir, nil, DefaultConfig(), nil, nil)

		_, err := svc.ComputeAndApplyCashback(context.Background(), 10000, "buyer")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("inviter read failure is unavailable", func(t *testing.T) {
		dir := newMemoryDirectory()
		dir.add("L1", business, "")
		dir.add("L0", business, "L1")
		dir.add("buyer", business, "L0")
		dir.failFind["L1"] = errors.New("timeout")
		svc := NewService(dir, nil, DefaultConfig(), nil, nil)

		_, err := svc.ComputeAndApplyCashback(context.Background(), 10000, "buyer")
		assert.ErrorIs(t, err, ErrUnavailable)
		// earlier credits are not rolled back outside atomic mode
		assert.Equal(t, int64(500), dir.balance("L0"))
	})

	t.Run("write failure keeps earlier credits", func(t *testing.T) {
		dir := newMemoryDirectory()
		dir.add("L1", business, "")
		dir.add("L0", business, "L1")
		dir.add("buyer", business, "L0")
		dir.failCredit["L1"] = errors.New("deadlock detected")
		svc := NewService(dir, nil, DefaultConfig(), nil, nil)

		result, err := svc.ComputeAndApplyCashback(context.Background(), 10000, "buyer")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.Nil(t, result)
		assert.Equal(t, int64(500), dir.balance("L0"))
		assert.Equal(t, int64(0), dir.balance("L1"))
	})
}

func TestReferralService_Ledger(t *testing.T) {
	dir := newMemoryDirectory()
	dir.add("L1", business, "")
	dir.add("L0", business, "L1")
	dir.add("buyer", business, "L0")
	svc := NewService(dir, dir, DefaultConfig(), nil, nil)

	_, err := svc.ComputeAndApplyCashback(context.Background(), 2500, "buyer")
	require.NoError(t, err)

	require.Len(t, dir.entries, 2)
	assert.Equal(t, "buyer", dir.entries[0].PayerID)
	assert.Equal(t, "L0", dir.entries[0].PayeeID)
	assert.Equal(t, 0, dir.entries[0].Level)
	assert.Equal(t, int64(125), dir.entries[0].Amount)
	assert.Equal(t, int64(2500), dir.entries[0].PurchaseAmount)
	assert.Equal(t, "L1", dir.entries[1].PayeeID)
	assert.Equal(t, int64(75), dir.entries[1].Amount)
	assert.Equal(t, models.CashbackTypeReferral, dir.entries[1].Type)
}

func TestReferralService_Preview(t *testing.T) {
	dir := newMemoryDirectory()
	dir.add("L0", business, "")
	dir.add("buyer", business, "L0")
	svc := NewService(dir, dir, DefaultConfig(), nil, nil)

	result, err := svc.PreviewCashback(context.Background(), 10000, "buyer")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, []Credit{{Level: 0, PayeeID: "L0", Amount: 500}}, result.Credits)
	assert.Empty(t, dir.increments)
	assert.Empty(t, dir.entries)
	assert.Equal(t, int64(0), dir.balance("L0"))

	_, err = svc.PreviewCashback(context.Background(), 10000, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReferralService_CustomConfig(t *testing.T) {
	dir := newMemoryDirectory()
	dir.add("L2", business, "")
	dir.add("L1", business, "L2")
	dir.add("L0", business, "L1")
	dir.add("buyer", business, "L0")
	svc := NewService(dir, nil, Config{LevelBasisPoints: []int64{1000, 250}}, nil, nil)

	result, err := svc.ComputeAndApplyCashback(context.Background(), 10000, "buyer")
	require.NoError(t, err)
	assert.Equal(t, []increment{{"L0", 1000}, {"L1", 250}}, dir.increments)
	assert.Equal(t, StopMaxLevels, result.StopReason)
	assert.Equal(t, 2, svc.Config().MaxLevels())
}

func TestReferralService_ConfigIsolation(t *testing.T) {
	dir := newMemoryDirectory()
	dir.add("L0", business, "")
	dir.add("buyer", business, "L0")

	table := []int64{500, 300, 100}
	svc := NewService(dir, nil, Config{LevelBasisPoints: table}, nil, nil)

	table[0] = 10000
	cfg := svc.Config()
	cfg.LevelBasisPoints[0] = 9000

	assert.Equal(t, []int64{500, 300, 100}, svc.Config().LevelBasisPoints)

	_, err := svc.ComputeAndApplyCashback(context.Background(), 10000, "buyer")
	require.NoError(t, err)
	assert.Equal(t, []increment{{"L0", 500}}, dir.increments)
}

func TestReferralService_Metrics(t *testing.T) {
	dir := newMemoryDirectory()
	dir.add("L1", business, "")
	dir.add("L0", individual, "L1")
	dir.add("buyer", business, "L0")

	metrics := new(MockMetrics)
	metrics.On("RecordSkippedLink", 0).Return().Once()
	metrics.On("RecordSkippedLink", 1).Return().Once()
	metrics.On("RecordComputation", ResultApplied, mock.Anything).Return().Once()
	metrics.On("RecordComputation", ResultNotFound, mock.Anything).Return().Once()

	svc := NewService(dir, nil, DefaultConfig(), metrics, nil)
	_, err := svc.ComputeAndApplyCashback(context.Background(), 10000, "buyer")
	require.NoError(t, err)
	_, err = svc.ComputeAndApplyCashback(context.Background(), 10000, "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	metrics.AssertExpectations(t)
	metrics.AssertNotCalled(t, "RecordCredit", mock.Anything, mock.Anything)
}

func TestNewService_Panics(t *testing.T) {
	dir := newMemoryDirectory()

	assert.Panics(t, func() { NewService(nil, nil, DefaultConfig(), nil, nil) })
	assert.Panics(t, func() { NewService(dir, nil, Config{LevelBasisPoints: []int64{}}, nil, nil) })
	assert.Panics(t, func() { NewService(dir, nil, Config{LevelBasisPoints: []int64{20000}}, nil, nil) })
	assert.Panics(t, func() { NewService(dir, nil, Config{AtomicChain: true}, nil, nil) })
	assert.NotPanics(t, func() { NewService(dir, nil, Config{}, nil, nil) })
}

func TestCreditAmount(t *testing.T) {
	assert.Equal(t, int64(500), creditAmount(10000, 500))
	assert.Equal(t, int64(7), creditAmount(100, 700))
	assert.Equal(t, int64(0), creditAmount(99, 100))
	assert.Equal(t, int64(1), creditAmount(100, 100))
}
