package allocation_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"ms-boxoffice/internal/allocation"
	allocdb "ms-boxoffice/internal/allocation/db"
	catalogdb "ms-boxoffice/internal/catalog/db"
	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/seatledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

type testEnv struct {
	svc     *allocation.Service
	catalog *catalogdb.DB
	ledger  *seatledger.DB
	bunDB   *bun.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.Tier)(nil),
		(*models.SeatSlot)(nil),
		(*models.Ticket)(nil),
		(*models.TokenCounter)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(ctx); err != nil {
			t.Fatalf("Failed to create table for %T: %v", model, err)
		}
	}

	catalogDB := &catalogdb.DB{Bun: bunDB}
	ledgerDB := &seatledger.DB{Bun: bunDB}
	svc := allocation.NewService(catalogDB, ledgerDB, &allocdb.DB{Bun: bunDB}, nil, nil, nil)

	return &testEnv{svc: svc, catalog: catalogDB, ledger: ledgerDB, bunDB: bunDB}
}

func (e *testEnv) createEvent(t *testing.T, startTime time.Time) int64 {
	t.Helper()
	event := &models.Event{Name: "Test Event", StartTime: startTime, Organizer: "org-1", CreatedAt: time.Now()}
	require.NoError(t, e.catalog.CreateEvent(context.Background(), event))
	return event.ID
}

func (e *testEnv) createTier(t *testing.T, eventID int64, price int64, capacity int, seated bool) int64 {
	t.Helper()
	tierID, err := e.catalog.NextTierID(context.Background(), eventID)
	require.NoError(t, err)
	require.NoError(t, e.catalog.CreateTier(context.Background(), &models.Tier{
		EventID: eventID, TierID: tierID, Name: "Tier", UnitPriceWei: price, Capacity: capacity, Seated: seated,
	}))
	return tierID
}

func (e *testEnv) soldCount(t *testing.T, eventID, tierID int64) int {
	t.Helper()
	tier, err := e.catalog.GetTier(context.Background(), eventID, tierID)
	require.NoError(t, err)
	return tier.Sold
}

func TestPurchaseGeneralAdmission(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	eventID := env.createEvent(t, time.Now().Add(24*time.Hour))
	tierID := env.createTier(t, eventID, 100, 50, false)

	tickets, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: 3, PaidAmountWei: 300,
	})
	require.NoError(t, err)
	require.Len(t, tickets, 3)

	// Token IDs are consecutive and the price is frozen at purchase time.
	assert.Equal(t, tickets[0].TokenID+1, tickets[1].TokenID)
	assert.Equal(t, tickets[1].TokenID+1, tickets[2].TokenID)
	for _, ticket := range tickets {
		assert.Equal(t, "alice", ticket.Owner)
		assert.Equal(t, int64(100), ticket.PriceAtPurchaseWei)
		assert.Nil(t, ticket.SeatIndex)
	}
	assert.Equal(t, 3, env.soldCount(t, eventID, tierID))
}

func TestPurchaseSeated(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	eventID := env.createEvent(t, time.Now().Add(24*time.Hour))
	tierID := env.createTier(t, eventID, 500, 20, true)

	tickets, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "bob", Seats: []int{3, 7}, PaidAmountWei: 1000,
	})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	require.NotNil(t, tickets[0].SeatIndex)
	assert.Equal(t, 3, *tickets[0].SeatIndex)
	assert.Equal(t, 7, *tickets[1].SeatIndex)

	owner, err := env.ledger.SeatOwner(ctx, eventID, tierID, 3)
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)

	assert.Equal(t, 2, env.soldCount(t, eventID, tierID))
}

func TestPurchaseUnknownEventAndTier(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	_, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: 999, TierID: 1, Buyer: "alice", Quantity: 1, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrUnknownEvent)

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: 5, Buyer: "alice", Quantity: 1, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrUnknownTier)
}

func TestPurchaseExpiredEvent(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	startTime := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	eventID := env.createEvent(t, startTime)
	tierID := env.createTier(t, eventID, 100, 10, false)

	// At exactly the start time the event is already closed for sales.
	env.svc.Now = func() time.Time { return startTime }
	_, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: 1, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrEventExpired)

	// One nanosecond earlier it is still open.
	env.svc.Now = func() time.Time { return startTime.Add(-time.Nanosecond) }
	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: 1, PaidAmountWei: 100,
	})
	assert.NoError(t, err)
}

func TestPurchaseInsufficientPayment(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 10, false)

	_, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: 3, PaidAmountWei: 299,
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientPayment)

	// A failed purchase leaves no trace.
	assert.Equal(t, 0, env.soldCount(t, eventID, tierID))
	count, err := env.bunDB.NewSelect().Model((*models.Ticket)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPurchaseOverpaymentAccepted(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 10, false)

	tickets, err := env.svc.Purchase(context.Background(), models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: 1, PaidAmountWei: 5000,
	})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestPurchaseInvalidQuantity(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 10, false)

	_, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: 0, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidQuantity)

	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: -2, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidQuantity)

	// A seated tier with no seats named is the same failure.
	seatedID := env.createTier(t, eventID, 100, 10, true)
	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: seatedID, Buyer: "alice", PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidQuantity)
}

func TestPurchaseMissingBuyer(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()

	_, err := env.svc.Purchase(context.Background(), models.PurchaseRequest{
		EventID: 1, TierID: 1, Quantity: 1, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestPurchaseSoldOutAndInsufficientInventory(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 3, false)

	_, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: 2, PaidAmountWei: 200,
	})
	require.NoError(t, err)

	// Two requested, one left.
	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "bob", Quantity: 2, PaidAmountWei: 200,
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientInventory)

	// The last unit is still sellable.
	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "bob", Quantity: 1, PaidAmountWei: 100,
	})
	require.NoError(t, err)

	// Now the tier is exhausted entirely.
	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "carol", Quantity: 1, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrSoldOut)
}

func TestPurchaseInvalidSeat(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 10, true)

	_, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Seats: []int{10}, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidSeat)

	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Seats: []int{-1}, PaidAmountWei: 100,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidSeat)
}

func TestPurchaseDuplicateSeatInRequest(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 10, true)

	_, err := env.svc.Purchase(context.Background(), models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Seats: []int{2, 2}, PaidAmountWei: 200,
	})
	assert.ErrorIs(t, err, errs.ErrSeatAlreadySold)
	assert.Equal(t, 0, env.soldCount(t, eventID, tierID))
}

func TestPurchaseSeatAlreadySold(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 10, true)

	_, err := env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Seats: []int{5}, PaidAmountWei: 100,
	})
	require.NoError(t, err)

	// A request touching one sold seat fails whole, even with free seats in it.
	_, err = env.svc.Purchase(ctx, models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "bob", Seats: []int{4, 5, 6}, PaidAmountWei: 300,
	})
	assert.ErrorIs(t, err, errs.ErrSeatAlreadySold)

	owner, err := env.ledger.SeatOwner(ctx, eventID, tierID, 5)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
	assert.Equal(t, 1, env.soldCount(t, eventID, tierID))
}

func TestPurchaseFreeTier(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 0, 10, false)

	tickets, err := env.svc.Purchase(context.Background(), models.PurchaseRequest{
		EventID: eventID, TierID: tierID, Buyer: "alice", Quantity: 2, PaidAmountWei: 0,
	})
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestConcurrentQuantityPurchases(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 2, false)

	// Two buyers race for both remaining units; exactly one can win.
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, buyer := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			_, err := env.svc.Purchase(context.Background(), models.PurchaseRequest{
				EventID: eventID, TierID: tierID, Buyer: buyer, Quantity: 2, PaidAmountWei: 200,
			})
			results <- err
		}(buyer)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, errs.ErrInsufficientInventory)
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.Equal(t, 2, env.soldCount(t, eventID, tierID))
}

func TestConcurrentSeatPurchases(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()
	ctx := context.Background()

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, 10, true)

	// Both buyers want seat 5; at most one wins it.
	type result struct {
		buyer string
		err   error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup
	for _, buyer := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			_, err := env.svc.Purchase(ctx, models.PurchaseRequest{
				EventID: eventID, TierID: tierID, Buyer: buyer, Seats: []int{5}, PaidAmountWei: 100,
			})
			results <- result{buyer: buyer, err: err}
		}(buyer)
	}
	wg.Wait()
	close(results)

	var winner string
	var losses int
	for res := range results {
		if res.err == nil {
			winner = res.buyer
		} else {
			assert.ErrorIs(t, res.err, errs.ErrSeatAlreadySold)
			losses++
		}
	}
	require.NotEmpty(t, winner, "exactly one purchase must win the seat")
	assert.Equal(t, 1, losses)

	owner, err := env.ledger.SeatOwner(ctx, eventID, tierID, 5)
	require.NoError(t, err)
	assert.Equal(t, winner, owner)
	assert.Equal(t, 1, env.soldCount(t, eventID, tierID))
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	env := setupTestEnv(t)
	defer env.bunDB.Close()

	const capacity = 10
	const attempts = 25

	eventID := env.createEvent(t, time.Now().Add(time.Hour))
	tierID := env.createTier(t, eventID, 100, capacity, false)

	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := env.svc.Purchase(context.Background(), models.PurchaseRequest{
				EventID: eventID, TierID: tierID, Buyer: "buyer", Quantity: 1, PaidAmountWei: 100,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		}
	}
	assert.Equal(t, capacity, wins, "every unit must be sold exactly once")
	assert.Equal(t, capacity, env.soldCount(t, eventID, tierID))

	count, err := env.bunDB.NewSelect().Model((*models.Ticket)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, capacity, count)
}
