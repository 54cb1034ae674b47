//go:build integration

package repository

import (
	"context"
	"innkeep/config"
	"innkeep/helper"
	"innkeep/infras/otel/mocks"
	"innkeep/infras/postgres"
	"innkeep/internal/domains/booking/model"
	roomModel "innkeep/internal/domains/room/model"
	"innkeep/shared/failure"
	gModel "innkeep/shared/model"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with a reachable primary configured through DB_POSTGRES_WRITE_* and
// DB_POSTGRES_READ_*:
//
//	go test -tags integration ./internal/domains/booking/repository/
func newIntegrationLedger(t *testing.T) (*repositoryImpl, *postgres.Connection, string) {
	t.Helper()

	cfg := config.Get()
	if cfg.DB.Postgres.Write.Host == "" {
		t.Skip("DB_POSTGRES_WRITE_HOST is not set")
	}

	cfg.DB.Postgres.MigrationPath = "file://../../../../migrations/postgres"
	if cfg.DB.Postgres.MigrationTable == "" {
		cfg.DB.Postgres.MigrationTable = "schema_migrations"
	}

	if cfg.DB.Postgres.MaxRetry == 0 {
		cfg.DB.Postgres.MaxRetry = 1
	}

	require.NoError(t, helper.Runner(cfg, helper.ActionUp))

	db := postgres.New(cfg)
	require.NotNil(t, db.Write, "connecting to the primary")
	require.NotNil(t, db.Read, "connecting to the replica")

	t.Cleanup(func() { _ = db.Close() })

	roomID := "it-" + uuid.NewString()

	_, err := db.Write.ExecContext(context.Background(),
		`INSERT INTO rooms (id, name, capacity, max_adult_count) VALUES ($1, 'Integration double', 2, 2)`, roomID)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = db.Write.ExecContext(ctx, `DELETE FROM bookings WHERE room_id = $1`, roomID)
		_, _ = db.Write.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	})

	ledger, ok := New(db, mocks.NewOtel()).(*repositoryImpl)
	require.True(t, ok)

	return ledger, db, roomID
}

func pendingBooking(roomID, checkIn, checkOut string) model.Booking {
	in, _ := time.Parse(time.DateOnly, checkIn)
	out, _ := time.Parse(time.DateOnly, checkOut)

	return model.Booking{
		ID:           uuid.NewString(),
		RoomID:       roomID,
		UserID:       "guest-1",
		CheckInDate:  in,
		CheckOutDate: out,
		Adults:       2,
		ChildrenAges: pq.Int64Array{},
		Status:       model.StatusPending,
		CancelReason: model.CancelReasonNone,
		Metadata:     gModel.NewMetadata("guest-1", time.Now()),
	}
}

// rejectOverlap is the check the lifecycle runs under the room lock.
func rejectOverlap(_ roomModel.Room, active []model.Booking) error {
	if len(active) > 0 {
		return failure.Conflict("room is already booked for the requested dates")
	}

	return nil
}

func acceptAll(roomModel.Room, []model.Booking) error {
	return nil
}

func activeCount(t *testing.T, db *postgres.Connection, roomID string) int {
	t.Helper()

	var count int

	err := db.Write.GetContext(context.Background(), &count,
		`SELECT COUNT(*) FROM bookings WHERE room_id = $1 AND status IN ('pending', 'confirmed')`, roomID)
	require.NoError(t, err)

	return count
}

func TestIntegrationReserve_ConcurrentOverlapOneWinner(t *testing.T) {
	ledger, db, roomID := newIntegrationLedger(t)

	const attempts = 8

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]error, attempts)
		stays   = [][2]string{{"2026-04-01", "2026-04-05"}, {"2026-04-02", "2026-04-06"}}
	)

	for i := range attempts {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			<-start

			stay := stays[i%2]
			results[i] = ledger.Reserve(context.Background(), pendingBooking(roomID, stay[0], stay[1]), rejectOverlap)
		}(i)
	}

	close(start)
	wg.Wait()

	var won int

	for _, err := range results {
		if err == nil {
			won++

			continue
		}

		assert.True(t, failure.IsKind(err, failure.KindConflict), "got %v", err)
	}

	assert.Equal(t, 1, won)
	assert.Equal(t, 1, activeCount(t, db, roomID))
}

func TestIntegrationReserve_ExclusionConstraintBacksTheLock(t *testing.T) {
	ledger, db, roomID := newIntegrationLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, pendingBooking(roomID, "2026-05-01", "2026-05-04"), acceptAll))

	err := ledger.Reserve(ctx, pendingBooking(roomID, "2026-05-03", "2026-05-06"), acceptAll)
	assert.True(t, failure.IsKind(err, failure.KindConflict), "got %v", err)

	overlap := pendingBooking(roomID, "2026-05-02", "2026-05-03")
	_, err = db.Write.NamedExecContext(ctx, `INSERT INTO bookings
		(id, room_id, user_id, check_in_date, check_out_date, adults, children_ages, total_amount, status, cancel_reason, created_at, modified_at, created_by, modified_by)
		VALUES (:id, :room_id, :user_id, :check_in_date, :check_out_date, :adults, :children_ages, :total_amount, :status, :cancel_reason, :created_at, :modified_at, :created_by, :modified_by)`,
		overlap)
	require.Error(t, err)
	assert.True(t, failure.IsKind(mapConstraintError(err), failure.KindConflict), "got %v", err)

	assert.Equal(t, 1, activeCount(t, db, roomID))
}

func TestIntegrationReserve_BackToBackStaysBothFit(t *testing.T) {
	ledger, db, roomID := newIntegrationLedger(t)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, pendingBooking(roomID, "2026-06-01", "2026-06-04"), rejectOverlap))
	require.NoError(t, ledger.Reserve(ctx, pendingBooking(roomID, "2026-06-04", "2026-06-07"), rejectOverlap))

	assert.Equal(t, 2, activeCount(t, db, roomID))
}

func TestIntegrationTransition_ReleasesTheRoom(t *testing.T) {
	ledger, _, roomID := newIntegrationLedger(t)
	ctx := context.Background()

	first := pendingBooking(roomID, "2026-07-01", "2026-07-04")
	require.NoError(t, ledger.Reserve(ctx, first, rejectOverlap))

	cancelled, err := ledger.Transition(ctx, first.ID, func(current model.Booking) (model.Booking, error) {
		current.Status = model.StatusCancelled
		current.CancelReason = model.CancelReasonExpired

		return current, nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	assert.NoError(t, ledger.Reserve(ctx, pendingBooking(roomID, "2026-07-02", "2026-07-03"), rejectOverlap))
}

func TestIntegrationTransition_MalformedIDIsNotFound(t *testing.T) {
	ledger, _, _ := newIntegrationLedger(t)

	_, err := ledger.Transition(context.Background(), "abc", func(current model.Booking) (model.Booking, error) {
		return current, nil
	})

	assert.True(t, failure.IsKind(err, failure.KindNotFound), "got %v", err)
}
