package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

import (
	"context"
	"errors"
	"fmt"
	"innkeep/config"
	"innkeep/infras/kafka"
	"innkeep/infras/otel"
	"innkeep/internal/domains/availability/capacity"
	"innkeep/internal/domains/availability/conflict"
	"innkeep/internal/domains/booking/model"
	"innkeep/internal/domains/booking/model/dto"
	"innkeep/internal/domains/booking/repository"
	roomModel "innkeep/internal/domains/room/model"
	"innkeep/shared"
	"innkeep/shared/cache"
	"innkeep/shared/constant"
	gDto "innkeep/shared/dto"
	"innkeep/shared/failure"
	"innkeep/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	systemActor = "system"
	eventCreate = "create"
)

// Booking owns every write to the ledger: creation under the per-room lock
// and guarded lifecycle transitions.
type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Transition(ctx context.Context, id string, event model.Event) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id string) (dto.BookingResponse, error)
	ExpireOverduePending(ctx context.Context) (int, error)
	CompletePastCheckout(ctx context.Context) (int, error)
}

type serviceImpl struct {
	repo  repository.Booking
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
	kafka kafka.Client
}

func New(repo repository.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, kafka kafka.Client) Booking {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
		kafka: kafka,
	}
}

// Create records a pending booking for the requester. The room's offer status,
// its capacity and its active bookings are re-checked while the room is
// locked; a booking that no longer fits is rejected with a conflict and no row
// is written. Another room is never substituted.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == "" {
		return res, failure.Unauthorized("missing requester") // nolint:wrapcheck
	}

	stay, err := req.Stay()
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	guests := req.Guests()
	if err = guests.Validate(); err != nil {
		return res, err //nolint:wrapcheck
	}

	booking := req.ToModel(user, stay, timezone.Now())

	check := func(room roomModel.Room, active []model.Booking) error {
		switch {
		case !room.Offered():
			return failure.Conflict("room is not open for booking") // nolint:wrapcheck
		case !capacity.Fits(room, guests):
			return failure.Conflict("room cannot accommodate the requested guests") // nolint:wrapcheck
		case conflict.IsBlocked(active, stay):
			return failure.Conflict("room is already booked for the requested dates") // nolint:wrapcheck
		}

		return nil
	}

	if err = s.repo.Reserve(ctx, booking, check); err != nil {
		if !failure.IsKind(err, failure.KindInternal) {
			log.Info().Err(err).Str("room_id", req.RoomID).Str("stay", stay.String()).Msg("booking rejected")

			return res, err //nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	s.committed(ctx, booking, eventCreate)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(constant.CachePrefixBookingGets, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Count")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(constant.CachePrefixBookingCount, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

// Get returns one booking. When a requester is on the context, bookings of
// other users read as not found.
func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	cacheKey := shared.BuildCacheKey(constant.CachePrefixBookingGet, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err != nil {
		var booking model.Booking

		booking, err = s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get booking")

			return res, fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID == constant.Empty {
			return res, failure.NotFound("booking not found") // nolint:wrapcheck
		}

		res.FromModel(booking)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save booking to cache")
			}
		}()
	}

	if user != "" && res.UserID != user {
		return dto.BookingResponse{}, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return res, nil
}

// Transition applies an external lifecycle event. Events from the payment
// collaborator and the scheduler arrive here.
func (s *serviceImpl) Transition(ctx context.Context, id string, event model.Event) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Transition")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !event.Valid() {
		return res, failure.Validation(fmt.Sprintf("unknown event %q", event)) // nolint:wrapcheck
	}

	booking, err := s.transition(ctx, id, event, nil)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

// Cancel cancels one of the requester's own bookings.
func (s *serviceImpl) Cancel(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Cancel")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	owner := func(current model.Booking) error {
		if current.UserID != user {
			return failure.NotFound("booking not found") // nolint:wrapcheck
		}

		return nil
	}

	booking, err := s.transition(ctx, id, model.EventCancel, owner)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

// ExpireOverduePending cancels pending bookings older than the pending TTL,
// releasing their rooms. It returns how many bookings it expired.
func (s *serviceImpl) ExpireOverduePending(ctx context.Context) (count int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.ExpireOverduePending")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	deadline := timezone.Now().Add(-time.Duration(s.cfg.Booking.PendingTTLSeconds) * time.Second)

	bookings, err := s.repo.FindOverduePending(ctx, deadline, s.cfg.Booking.SweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to find overdue pending bookings")

		return 0, fmt.Errorf("failed to find overdue pending bookings: %w", err)
	}

	return s.sweep(ctx, bookings, model.EventExpire)
}

// CompletePastCheckout completes confirmed bookings whose check-out date has
// been reached.
func (s *serviceImpl) CompletePastCheckout(ctx context.Context) (count int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.CompletePastCheckout")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	bookings, err := s.repo.FindDueForCompletion(ctx, timezone.Today(), s.cfg.Booking.SweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to find bookings due for completion")

		return 0, fmt.Errorf("failed to find bookings due for completion: %w", err)
	}

	return s.sweep(ctx, bookings, model.EventComplete)
}

// sweep moves each booking through the regular transition path. A booking that
// changed state since it was listed is skipped.
func (s *serviceImpl) sweep(ctx context.Context, bookings []model.Booking, event model.Event) (int, error) {
	var (
		moved int
		errs  []error
	)

	for _, booking := range bookings {
		if _, err := s.transition(ctx, booking.ID, event, nil); err != nil {
			if failure.IsKind(err, failure.KindInvalidTransition) || failure.IsKind(err, failure.KindExpired) {
				log.Debug().Str("booking_id", booking.ID).Str("event", string(event)).Msg("booking moved before sweep")

				continue
			}

			errs = append(errs, fmt.Errorf("booking %s: %w", booking.ID, err))

			continue
		}

		moved++
	}

	if moved > 0 {
		log.Info().Int("count", moved).Str("event", string(event)).Msg("swept bookings")
	}

	return moved, errors.Join(errs...)
}

func (s *serviceImpl) transition(ctx context.Context, id string, event model.Event, guard func(model.Booking) error) (model.Booking, error) {
	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if actor == "" {
		actor = systemActor
	}

	updated, err := s.repo.Transition(ctx, id, func(current model.Booking) (model.Booking, error) {
		if guard != nil {
			if err := guard(current); err != nil {
				return current, err
			}
		}

		return advance(current, event, actor, timezone.Now())
	})
	if err != nil {
		if !failure.IsKind(err, failure.KindInternal) {
			return model.Booking{}, err //nolint:wrapcheck
		}

		log.Error().Err(err).Str("booking_id", id).Str("event", string(event)).Msg("failed to transition booking")

		return model.Booking{}, fmt.Errorf("failed to transition booking: %w", err)
	}

	s.committed(ctx, updated, string(event))

	return updated, nil
}

// advance applies event to current. An auto-expired booking reports expiry to
// every further event.
func advance(current model.Booking, event model.Event, actor string, at time.Time) (model.Booking, error) {
	if current.Expired() {
		return current, failure.Expired("booking expired before it was confirmed") // nolint:wrapcheck
	}

	next, reason, err := model.Next(current.Status, event)
	if err != nil {
		return current, failure.InvalidTransition(err.Error()) // nolint:wrapcheck
	}

	current.Status = next
	current.CancelReason = reason
	current.ModifiedAt = at
	current.ModifiedBy = actor

	return current, nil
}

// committed runs the post-commit side effects of a ledger write. Cached reads
// that may now be stale are dropped before the caller returns, so the next
// search sees the write; the change is then published in the background.
func (s *serviceImpl) committed(ctx context.Context, booking model.Booking, event string) {
	c := context.WithoutCancel(ctx)

	if err := s.cache.Delete(c, shared.BuildCacheKey(constant.CachePrefixBookingGet, booking.ID)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking from cache")
	}

	shared.BumpCacheGeneration(c, s.cache, constant.CacheKeyAvailabilityGeneration)
	shared.InvalidateCaches(c, s.cache, constant.CachePrefixBookingGets)
	shared.InvalidateCaches(c, s.cache, constant.CachePrefixBookingCount)

	if s.kafka == nil {
		return
	}

	go func() {
		msg := kafka.Message{Key: booking.RoomID, Value: dto.NewEvent(booking, event)}
		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topics.BookingEvents, msg); err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to publish booking event")
		}
	}()
}
