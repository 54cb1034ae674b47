package service_test

import (
	"context"
	"innkeep/infras/otel/mocks"
	"innkeep/internal/domains/availability/conflict"
	availabilityModel "innkeep/internal/domains/availability/model"
	availabilityDto "innkeep/internal/domains/availability/model/dto"
	availabilityService "innkeep/internal/domains/availability/service"
	"innkeep/internal/domains/booking/model"
	"innkeep/internal/domains/booking/model/dto"
	"innkeep/internal/domains/booking/repository"
	"innkeep/internal/domains/booking/service"
	roomModel "innkeep/internal/domains/room/model"
	roomRepo "innkeep/internal/domains/room/repository"
	"innkeep/shared/cache"
	gDto "innkeep/shared/dto"
	"innkeep/shared/failure"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLedger is an in-process ledger and room catalog. Reserve holds a
// per-room mutex across check and insert, as the advisory lock does.
type memoryLedger struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	rooms    map[string]roomModel.Room
	bookings map[string]model.Booking
}

var (
	_ repository.Booking = (*memoryLedger)(nil)
	_ roomRepo.Room      = roomCatalog{}
)

func newMemoryLedger(rooms ...roomModel.Room) *memoryLedger {
	ledger := &memoryLedger{
		locks:    make(map[string]*sync.Mutex),
		rooms:    make(map[string]roomModel.Room),
		bookings: make(map[string]model.Booking),
	}

	for _, room := range rooms {
		ledger.rooms[room.ID] = room
	}

	return ledger
}

func (l *memoryLedger) roomLock(roomID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[roomID] = lock
	}

	return lock
}

func (l *memoryLedger) snapshot() []model.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Booking, 0, len(l.bookings))
	for _, booking := range l.bookings {
		out = append(out, booking)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out
}

func (l *memoryLedger) backdate(id string, age time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	booking := l.bookings[id]
	booking.CreatedAt = booking.CreatedAt.Add(-age)
	l.bookings[id] = booking
}

func (l *memoryLedger) Get(_ context.Context, filter gDto.FilterGroup, _ ...string) (model.Booking, error) {
	id, _ := filter.Filters[0].(gDto.Filter).Value.(string)

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.bookings[id], nil
}

func (l *memoryLedger) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]model.Booking, error) {
	return l.snapshot(), nil
}

func (l *memoryLedger) Count(context.Context, gDto.FilterGroup) (int, error) {
	return len(l.snapshot()), nil
}

func (l *memoryLedger) FindActiveOverlapping(_ context.Context, roomIDs []string, stay availabilityModel.Stay) ([]model.Booking, error) {
	var out []model.Booking

	for _, booking := range l.snapshot() {
		if (len(roomIDs) == 0 || slices.Contains(roomIDs, booking.RoomID)) && conflict.Blocks(booking, stay) {
			out = append(out, booking)
		}
	}

	return out, nil
}

func (l *memoryLedger) FindOverduePending(_ context.Context, createdBefore time.Time, limit int) ([]model.Booking, error) {
	var out []model.Booking

	for _, booking := range l.snapshot() {
		if booking.Status == model.StatusPending && booking.CreatedAt.Before(createdBefore) && len(out) < limit {
			out = append(out, booking)
		}
	}

	return out, nil
}

func (l *memoryLedger) FindDueForCompletion(_ context.Context, onOrBefore time.Time, limit int) ([]model.Booking, error) {
	var out []model.Booking

	for _, booking := range l.snapshot() {
		if booking.Status == model.StatusConfirmed && !booking.CheckOutDate.After(onOrBefore) && len(out) < limit {
			out = append(out, booking)
		}
	}

	return out, nil
}

func (l *memoryLedger) Reserve(_ context.Context, booking model.Booking, check repository.ReserveCheck) error {
	lock := l.roomLock(booking.RoomID)
	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	room, ok := l.rooms[booking.RoomID]
	l.mu.Unlock()

	if !ok {
		return failure.NotFound(roomModel.EntityName)
	}

	var active []model.Booking

	for _, existing := range l.snapshot() {
		if existing.RoomID == booking.RoomID && conflict.Blocks(existing, booking.Stay()) {
			active = append(active, existing)
		}
	}

	// Widen the window between check and insert so racing callers would
	// interleave if the lock did not hold.
	time.Sleep(time.Millisecond)

	if err := check(room, active); err != nil {
		return err
	}

	l.mu.Lock()
	l.bookings[booking.ID] = booking
	l.mu.Unlock()

	return nil
}

func (l *memoryLedger) Transition(_ context.Context, id string, apply repository.TransitionFunc) (model.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.bookings[id]
	if !ok {
		return model.Booking{}, failure.NotFound(model.EntityName)
	}

	next, err := apply(current)
	if err != nil {
		return model.Booking{}, err
	}

	l.bookings[id] = next

	return next, nil
}

func (l *memoryLedger) GetOffered(_ context.Context, propertyID string) ([]roomModel.Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []roomModel.Room

	for _, room := range l.rooms {
		if room.Offered() && (propertyID == "" || room.PropertyID == propertyID) {
			out = append(out, room)
		}
	}

	return out, nil
}

func (l *memoryLedger) GetAllRooms() []roomModel.Room {
	rooms, _ := l.GetOffered(context.Background(), "")

	return rooms
}

// roomCatalog exposes the ledger's rooms through the catalog interface; the
// ledger's own Get/GetAll/Count serve bookings.
type roomCatalog struct {
	*memoryLedger
}

func (c roomCatalog) Get(_ context.Context, filter gDto.FilterGroup, _ ...string) (roomModel.Room, error) {
	id, _ := filter.Filters[0].(gDto.Filter).Value.(string)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rooms[id], nil
}

func (c roomCatalog) GetAll(context.Context, gDto.QueryParams, gDto.FilterGroup, ...string) ([]roomModel.Room, error) {
	return c.GetAllRooms(), nil
}

func (c roomCatalog) Count(context.Context, gDto.FilterGroup) (int, error) {
	return len(c.GetAllRooms()), nil
}

type engine struct {
	ledger       *memoryLedger
	bookings     service.Booking
	availability availabilityService.Availability
}

func newEngine(rooms ...roomModel.Room) engine {
	cfg := testConfig()
	cfg.Availability.CacheTTL = 30

	ledger := newMemoryLedger(rooms...)
	shared := cache.NewMemoryCache()

	return engine{
		ledger:       ledger,
		bookings:     service.New(ledger, cfg, shared, mocks.NewOtel(), nil),
		availability: availabilityService.New(ledger, roomCatalog{ledger}, cfg, shared, mocks.NewOtel()),
	}
}

func (e engine) search(t *testing.T, checkIn, checkOut string, adults int, ages ...int) []string {
	t.Helper()

	req := availabilityDto.SearchRequest{CheckIn: checkIn, CheckOut: checkOut, Adults: adults}
	for _, age := range ages {
		req.Children = append(req.Children, availabilityDto.ChildRequest{Age: age})
	}

	res, err := e.availability.Search(context.Background(), req)
	require.NoError(t, err)

	return res.RoomIDs
}

func (e engine) book(ctx context.Context, checkIn, checkOut string) (dto.BookingResponse, error) {
	return e.bookings.Create(ctx, dto.CreateBookingRequest{
		RoomID:   "X",
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Adults:   2,
	})
}

func TestScenarioA_EmptyLedgerOffersRoom(t *testing.T) {
	e := newEngine(doubleRoom())

	assert.Contains(t, e.search(t, "2026-03-01", "2026-03-05", 2, 2), "X")
}

func TestScenarioB_ConfirmedBookingBlocksOnlyItsRange(t *testing.T) {
	e := newEngine(doubleRoom())

	// Primes the cache; the booking below has to invalidate it.
	assert.Contains(t, e.search(t, "2026-03-12", "2026-03-14", 2), "X")

	created, err := e.book(asGuest(guestID), "2026-03-10", "2026-03-15")
	require.NoError(t, err)

	_, err = e.bookings.Transition(context.Background(), created.ID, model.EventConfirm)
	require.NoError(t, err)

	assert.NotContains(t, e.search(t, "2026-03-12", "2026-03-14", 2), "X")
	assert.Contains(t, e.search(t, "2026-03-16", "2026-03-20", 2), "X")
	assert.Contains(t, e.search(t, "2026-03-15", "2026-03-18", 2), "X", "check-out day is free for the next guest")
	assert.Contains(t, e.search(t, "2026-03-05", "2026-03-10", 2), "X", "check-in day is free for the previous guest")
}

func TestScenarioC_TooManyAdultsNeverFit(t *testing.T) {
	e := newEngine(doubleRoom())

	for _, stay := range [][2]string{
		{"2026-03-01", "2026-03-02"},
		{"2026-06-01", "2026-06-30"},
		{"2027-01-01", "2027-01-05"},
	} {
		assert.NotContains(t, e.search(t, stay[0], stay[1], 3), "X")
	}
}

func TestScenarioD_ConcurrentCreatesOneWinner(t *testing.T) {
	e := newEngine(doubleRoom())

	const attempts = 8

	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		results   = make([]error, attempts)
		checkIns  = []string{"2026-04-01", "2026-04-02"}
		checkOuts = []string{"2026-04-05", "2026-04-06"}
	)

	for i := range attempts {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			<-start

			_, results[i] = e.book(asGuest(guestID), checkIns[i%2], checkOuts[i%2])
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

	active := 0

	for _, booking := range e.ledger.snapshot() {
		if booking.Active() {
			active++
		}
	}

	assert.Equal(t, 1, active)
}

func TestScenarioE_PendingBookingExpires(t *testing.T) {
	e := newEngine(doubleRoom())

	created, err := e.book(asGuest(guestID), "2026-05-01", "2026-05-04")
	require.NoError(t, err)
	assert.NotContains(t, e.search(t, "2026-05-02", "2026-05-03", 2), "X")

	e.ledger.backdate(created.ID, 16*time.Minute)

	expired, err := e.bookings.ExpireOverduePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Contains(t, e.search(t, "2026-05-02", "2026-05-03", 2), "X")

	read, err := e.bookings.Get(asGuest(guestID), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", read.Status)
	assert.Equal(t, "expired", read.CancelReason)

	_, err = e.bookings.Transition(context.Background(), created.ID, model.EventConfirm)
	assert.True(t, failure.IsKind(err, failure.KindExpired))
}

// racingLedger runs afterRead once, right after an availability read of the
// ledger and before the search saves its result.
type racingLedger struct {
	*memoryLedger
	afterRead func()
}

func (l *racingLedger) FindActiveOverlapping(ctx context.Context, roomIDs []string, stay availabilityModel.Stay) ([]model.Booking, error) {
	out, err := l.memoryLedger.FindActiveOverlapping(ctx, roomIDs, stay)

	if hook := l.afterRead; hook != nil {
		l.afterRead = nil
		hook()
	}

	return out, err
}

func TestScenarioE_ExpiryDuringSearchIsNotCached(t *testing.T) {
	cfg := testConfig()
	cfg.Availability.CacheTTL = 30

	ledger := newMemoryLedger(doubleRoom())
	racing := &racingLedger{memoryLedger: ledger}
	shared := cache.NewMemoryCache()

	e := engine{
		ledger:       ledger,
		bookings:     service.New(ledger, cfg, shared, mocks.NewOtel(), nil),
		availability: availabilityService.New(racing, roomCatalog{ledger}, cfg, shared, mocks.NewOtel()),
	}

	created, err := e.book(asGuest(guestID), "2026-05-01", "2026-05-04")
	require.NoError(t, err)

	e.ledger.backdate(created.ID, 16*time.Minute)

	racing.afterRead = func() {
		expired, err := e.bookings.ExpireOverduePending(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
	}

	assert.NotContains(t, e.search(t, "2026-05-02", "2026-05-03", 2), "X", "read before the expiry committed")
	assert.Contains(t, e.search(t, "2026-05-02", "2026-05-03", 2), "X")
}

func TestCompletePastCheckout_Sweep(t *testing.T) {
	e := newEngine(doubleRoom())

	created, err := e.book(asGuest(guestID), "2020-01-01", "2020-01-03")
	require.NoError(t, err)

	_, err = e.bookings.Transition(context.Background(), created.ID, model.EventConfirm)
	require.NoError(t, err)

	completed, err := e.bookings.CompletePastCheckout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	_, err = e.bookings.Transition(context.Background(), created.ID, model.EventComplete)
	assert.True(t, failure.IsKind(err, failure.KindInvalidTransition))
}

func TestNonOverlapInvariantHoldsAfterMixedWorkload(t *testing.T) {
	e := newEngine(doubleRoom())

	ranges := [][2]string{
		{"2026-07-01", "2026-07-05"},
		{"2026-07-03", "2026-07-08"},
		{"2026-07-05", "2026-07-07"},
		{"2026-07-06", "2026-07-10"},
		{"2026-07-10", "2026-07-12"},
	}

	var wg sync.WaitGroup

	for _, r := range ranges {
		wg.Add(1)

		go func(in, out string) {
			defer wg.Done()

			_, _ = e.book(asGuest(guestID), in, out)
		}(r[0], r[1])
	}

	wg.Wait()

	var active []model.Booking

	for _, booking := range e.ledger.snapshot() {
		if booking.Active() {
			active = append(active, booking)
		}
	}

	require.NotEmpty(t, active)

	for i := range active {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			assert.False(t,
				conflict.Overlaps(a.CheckInDate, a.CheckOutDate, b.CheckInDate, b.CheckOutDate),
				"%s overlaps %s", a.Stay(), b.Stay(),
			)
		}
	}
}
