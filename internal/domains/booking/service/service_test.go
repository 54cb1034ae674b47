package service_test

import (
	"context"
	"errors"
	"innkeep/config"
	"innkeep/infras/kafka"
	kafkaMocks "innkeep/infras/kafka/mocks"
	"innkeep/infras/otel/mocks"
	bookingMocks "innkeep/internal/domains/booking/mocks"
	"innkeep/internal/domains/booking/model"
	"innkeep/internal/domains/booking/model/dto"
	"innkeep/internal/domains/booking/repository"
	"innkeep/internal/domains/booking/service"
	roomModel "innkeep/internal/domains/room/model"
	"innkeep/shared/cache"
	"innkeep/shared/constant"
	"innkeep/shared/failure"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const guestID = "user-1"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.Booking.PendingTTLSeconds = 900
	cfg.Booking.SweepBatchSize = 50
	cfg.Kafka.Topics.BookingEvents = "booking.events"

	return cfg
}

func asGuest(user string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, user)
}

func date(value string) time.Time {
	d, _ := time.Parse(time.DateOnly, value)

	return d
}

func doubleRoom() roomModel.Room {
	return roomModel.Room{
		ID:                     "X",
		Capacity:               4,
		MaxAdultCount:          2,
		MaxChildrenUnder3Count: 1,
		MaxChildren3To12Count:  1,
		MaxChildren13To17Count: 1,
		Status:                 roomModel.StatusAvailable,
	}
}

func stored(id string, status model.Status, reason model.CancelReason) model.Booking {
	return model.Booking{
		ID:           id,
		RoomID:       "X",
		UserID:       guestID,
		CheckInDate:  date("2026-03-10"),
		CheckOutDate: date("2026-03-15"),
		Adults:       2,
		Status:       status,
		CancelReason: reason,
	}
}

func newService(t *testing.T) (service.Booking, *bookingMocks.MockBooking) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := bookingMocks.NewMockBooking(ctrl)

	return service.New(repo, testConfig(), cache.NewMemoryCache(), mocks.NewOtel(), nil), repo
}

func validRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		RoomID:   "X",
		CheckIn:  "2026-03-10",
		CheckOut: "2026-03-15",
		Adults:   2,
		Children: []dto.ChildRequest{{Age: 2}},
	}
}

func TestCreate_RejectsBeforeStoreAccess(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		req  func() dto.CreateBookingRequest
		kind failure.Kind
	}{
		{
			name: "no requester",
			ctx:  context.Background(),
			req:  validRequest,
			kind: failure.KindUnauthorized,
		},
		{
			name: "empty range",
			ctx:  asGuest(guestID),
			req: func() dto.CreateBookingRequest {
				req := validRequest()
				req.CheckOut = req.CheckIn

				return req
			},
			kind: failure.KindValidation,
		},
		{
			name: "negative age",
			ctx:  asGuest(guestID),
			req: func() dto.CreateBookingRequest {
				req := validRequest()
				req.Children = []dto.ChildRequest{{Age: -3}}

				return req
			},
			kind: failure.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)

			_, err := svc.Create(tt.ctx, tt.req())

			require.Error(t, err)
			assert.True(t, failure.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestCreate_CheckUnderLock(t *testing.T) {
	maintenance := doubleRoom()
	maintenance.Status = roomModel.StatusMaintenance

	tests := []struct {
		name    string
		room    roomModel.Room
		active  []model.Booking
		adults  int
		wantErr bool
	}{
		{name: "free room", room: doubleRoom(), adults: 2},
		{
			name:   "back-to-back booking ends on check-in day",
			room:   doubleRoom(),
			active: []model.Booking{{RoomID: "X", CheckInDate: date("2026-03-05"), CheckOutDate: date("2026-03-10"), Status: model.StatusConfirmed}},
			adults: 2,
		},
		{
			name:    "overlapping pending booking",
			room:    doubleRoom(),
			active:  []model.Booking{{RoomID: "X", CheckInDate: date("2026-03-14"), CheckOutDate: date("2026-03-16"), Status: model.StatusPending}},
			adults:  2,
			wantErr: true,
		},
		{name: "room under maintenance", room: maintenance, adults: 2, wantErr: true},
		{name: "too many adults", room: doubleRoom(), adults: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(t)

			var inserted model.Booking

			repo.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, booking model.Booking, check repository.ReserveCheck) error {
					if err := check(tt.room, tt.active); err != nil {
						return err
					}

					inserted = booking

					return nil
				})

			req := validRequest()
			req.Adults = tt.adults

			res, err := svc.Create(asGuest(guestID), req)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, failure.IsKind(err, failure.KindConflict))
				assert.Empty(t, inserted.ID)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, inserted.ID, res.ID)
			assert.Equal(t, model.StatusPending, inserted.Status)
			assert.Equal(t, guestID, inserted.UserID)
			assert.Equal(t, []int64{2}, []int64(inserted.ChildrenAges))
			assert.Equal(t, "2026-03-10", res.CheckIn)
			assert.Equal(t, 5, res.Nights)
		})
	}
}

func TestCreate_ReserveErrors(t *testing.T) {
	t.Run("exclusion constraint conflict is surfaced", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(failure.Conflict("room is already booked for the requested dates"))

		_, err := svc.Create(asGuest(guestID), validRequest())
		assert.True(t, failure.IsKind(err, failure.KindConflict))
	})

	t.Run("unknown room", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).Return(failure.NotFound("room"))

		_, err := svc.Create(asGuest(guestID), validRequest())
		assert.True(t, failure.IsKind(err, failure.KindNotFound))
	})

	t.Run("database failure", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

		_, err := svc.Create(asGuest(guestID), validRequest())
		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindInternal))
	})
}

// applyTo makes the repository mock hand current to the transition callback
// the way the ledger does after locking the row.
func applyTo(repo *bookingMocks.MockBooking, current model.Booking) {
	repo.EXPECT().Transition(gomock.Any(), current.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, apply repository.TransitionFunc) (model.Booking, error) {
			return apply(current)
		})
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name         string
		current      model.Booking
		event        model.Event
		wantStatus   model.Status
		wantReason   model.CancelReason
		wantKind     failure.Kind
		expectLookup bool
	}{
		{
			name:       "payment captured confirms",
			current:    stored("b1", model.StatusPending, model.CancelReasonNone),
			event:      model.EventConfirm,
			wantStatus: model.StatusConfirmed,
		},
		{
			name:       "payment failure cancels",
			current:    stored("b1", model.StatusPending, model.CancelReasonNone),
			event:      model.EventFail,
			wantStatus: model.StatusCancelled,
			wantReason: model.CancelReasonPaymentFailed,
		},
		{
			name:     "confirm twice is rejected",
			current:  stored("b1", model.StatusConfirmed, model.CancelReasonNone),
			event:    model.EventConfirm,
			wantKind: failure.KindInvalidTransition,
		},
		{
			name:     "completed booking cannot be cancelled",
			current:  stored("b1", model.StatusCompleted, model.CancelReasonNone),
			event:    model.EventCancel,
			wantKind: failure.KindInvalidTransition,
		},
		{
			name:     "expired booking reports expiry",
			current:  stored("b1", model.StatusCancelled, model.CancelReasonExpired),
			event:    model.EventConfirm,
			wantKind: failure.KindExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(t)
			applyTo(repo, tt.current)

			res, err := svc.Transition(context.Background(), tt.current.ID, tt.event)

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.True(t, failure.IsKind(err, tt.wantKind), "got %v", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, string(tt.wantStatus), res.Status)
			assert.Equal(t, string(tt.wantReason), res.CancelReason)
			assert.Equal(t, "system", res.ModifiedBy)
		})
	}
}

func TestTransition_UnknownEvent(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Transition(context.Background(), "b1", model.Event("refund"))
	assert.True(t, failure.IsKind(err, failure.KindValidation))
}

func TestCancel(t *testing.T) {
	t.Run("own booking", func(t *testing.T) {
		svc, repo := newService(t)
		applyTo(repo, stored("b1", model.StatusConfirmed, model.CancelReasonNone))

		res, err := svc.Cancel(asGuest(guestID), "b1")

		require.NoError(t, err)
		assert.Equal(t, string(model.StatusCancelled), res.Status)
		assert.Equal(t, string(model.CancelReasonCancelled), res.CancelReason)
		assert.Equal(t, guestID, res.ModifiedBy)
	})

	t.Run("someone else's booking", func(t *testing.T) {
		svc, repo := newService(t)
		applyTo(repo, stored("b1", model.StatusConfirmed, model.CancelReasonNone))

		_, err := svc.Cancel(asGuest("intruder"), "b1")
		assert.True(t, failure.IsKind(err, failure.KindNotFound))
	})
}

func TestGet(t *testing.T) {
	t.Run("owner reads booking", func(t *testing.T) {
		svc, repo := newService(t)
		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored("b1", model.StatusCancelled, model.CancelReasonExpired), nil)

		res, err := svc.Get(asGuest(guestID), "b1")

		require.NoError(t, err)
		assert.Equal(t, "cancelled", res.Status)
		assert.Equal(t, "expired", res.CancelReason)
	})

	t.Run("other users get not found", func(t *testing.T) {
		svc, repo := newService(t)
		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored("b1", model.StatusPending, model.CancelReasonNone), nil)

		_, err := svc.Get(asGuest("intruder"), "b1")
		assert.True(t, failure.IsKind(err, failure.KindNotFound))
	})

	t.Run("missing booking", func(t *testing.T) {
		svc, repo := newService(t)
		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := svc.Get(context.Background(), "nope")
		assert.True(t, failure.IsKind(err, failure.KindNotFound))
	})
}

func TestExpireOverduePending(t *testing.T) {
	svc, repo := newService(t)

	overdue := stored("b1", model.StatusPending, model.CancelReasonNone)
	raced := stored("b2", model.StatusPending, model.CancelReasonNone)
	before := time.Now()

	repo.EXPECT().FindOverduePending(gomock.Any(), gomock.Any(), 50).
		DoAndReturn(func(_ context.Context, createdBefore time.Time, _ int) ([]model.Booking, error) {
			assert.True(t, createdBefore.Before(before.Add(-899*time.Second)))

			return []model.Booking{overdue, raced}, nil
		})

	applyTo(repo, overdue)
	// b2 was confirmed between listing and locking.
	applyTo(repo, stored("b2", model.StatusConfirmed, model.CancelReasonNone))

	count, err := svc.ExpireOverduePending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCompletePastCheckout(t *testing.T) {
	svc, repo := newService(t)

	due := stored("b1", model.StatusConfirmed, model.CancelReasonNone)
	broken := stored("b2", model.StatusConfirmed, model.CancelReasonNone)

	repo.EXPECT().FindDueForCompletion(gomock.Any(), gomock.Any(), 50).Return([]model.Booking{due, broken}, nil)
	applyTo(repo, due)
	repo.EXPECT().Transition(gomock.Any(), "b2", gomock.Any()).Return(model.Booking{}, errors.New("deadlock detected"))

	count, err := svc.CompletePastCheckout(context.Background())

	assert.Equal(t, 1, count)
	assert.Error(t, err)
}

func TestCommittedChangesArePublished(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := bookingMocks.NewMockBooking(ctrl)
	producer := kafkaMocks.NewMockClient(ctrl)

	svc := service.New(repo, testConfig(), cache.NewMemoryCache(), mocks.NewOtel(), producer)

	published := make(chan kafka.Message, 1)

	applyTo(repo, stored("b1", model.StatusPending, model.CancelReasonNone))
	producer.EXPECT().SendMessages(gomock.Any(), "booking.events", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
			published <- messages[0]

			return nil
		})

	_, err := svc.Transition(context.Background(), "b1", model.EventConfirm)
	require.NoError(t, err)

	select {
	case msg := <-published:
		assert.Equal(t, "X", msg.Key)

		event, ok := msg.Value.(dto.Event)
		require.True(t, ok)
		assert.Equal(t, "confirm", event.Event)
		assert.Equal(t, "confirmed", event.Status)
	case <-time.After(time.Second):
		t.Fatal("booking event was not published")
	}
}
