package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"dailytrack/internal/config"
	"dailytrack/internal/infrastructure/database"
	"dailytrack/internal/ledger"
	"dailytrack/internal/repository"
	"dailytrack/pkg/amount"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const hto = "HTO"

var (
	issuer  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner   = common.HexToAddress("0x000000000000000000000000000000000000000f")
	tracker = common.HexToAddress("0x0000000000000000000000000000000000000d71")
	escrow  = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	nft     = common.HexToAddress("0x0000000000000000000000000000000000000721")
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	clock    *fakeClock
	exec     *Executor
	token    *ledger.Token
	registry *ledger.Registry
	rewards  *RewardService
	exchange *ExchangeService
	ledger   *LedgerService
	custody  *CustodyService
	outbox   *repository.OutboxRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	exec := NewExecutor(db, WithClock(clock.Now))
	token := ledger.NewToken(db, issuer)
	registry := ledger.NewRegistry(db, issuer)
	events := NewEventWriter(db, "dailytrack-events")

	f := &fixture{
		ctx:      ctx,
		db:       db,
		clock:    clock,
		exec:     exec,
		token:    token,
		registry: registry,
		rewards:  NewRewardService(exec, token, events),
		exchange: NewExchangeService(exec, token, registry, events),
		ledger:   NewLedgerService(exec, token, registry),
		custody:  NewCustodyService(exec, token),
		outbox:   repository.NewOutboxRepository(db),
	}

	_, err = f.rewards.Bootstrap(ctx, RewardDeployment{
		Owner:       owner,
		Token:       hto,
		Address:     tracker,
		DailyReward: amount.Tokens(1),
	})
	require.NoError(t, err)

	_, err = f.exchange.Bootstrap(ctx, ExchangeDeployment{
		Owner:        owner,
		PaymentToken: hto,
		Address:      escrow,
		FeePercent:   500,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) mint(t *testing.T, to common.Address, value amount.Amount) {
	t.Helper()
	require.NoError(t, f.ledger.Mint(f.ctx, issuer, hto, to, value))
}

func (f *fixture) balance(t *testing.T, who common.Address) amount.Amount {
	t.Helper()
	b, err := f.ledger.BalanceOf(f.ctx, hto, who)
	require.NoError(t, err)
	return b
}

func (f *fixture) events(t *testing.T, eventType string) int {
	t.Helper()
	msgs, err := f.outbox.ListByType(f.ctx, eventType)
	require.NoError(t, err)
	return len(msgs)
}
