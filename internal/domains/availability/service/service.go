package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"innkeep/config"
	"innkeep/infras/otel"
	"innkeep/internal/domains/availability/capacity"
	"innkeep/internal/domains/availability/conflict"
	"innkeep/internal/domains/availability/model/dto"
	bookingRepo "innkeep/internal/domains/booking/repository"
	roomModel "innkeep/internal/domains/room/model"
	roomRepo "innkeep/internal/domains/room/repository"
	"innkeep/shared"
	"innkeep/shared/cache"
	"innkeep/shared/constant"
	"slices"

	"github.com/rs/zerolog/log"
)

// Availability answers which rooms are free for a stay and party. Answers are
// an advisory snapshot; the booking lifecycle re-checks under lock.
type Availability interface {
	Search(ctx context.Context, req dto.SearchRequest) (dto.SearchResponse, error)
}

type serviceImpl struct {
	bookingRepo bookingRepo.Booking
	roomRepo    roomRepo.Room
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(bookingRepo bookingRepo.Booking, roomRepo roomRepo.Room, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Availability {
	return &serviceImpl{
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

type searchKey struct {
	Generation string  `json:"generation"`
	Stay       string  `json:"stay"`
	PropertyID string  `json:"property_id"`
	Adults     int     `json:"adults"`
	Ages       []int64 `json:"ages"`
}

func (s *serviceImpl) Search(ctx context.Context, req dto.SearchRequest) (res dto.SearchResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Search")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	stay, err := req.Stay()
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	guests := req.Guests()
	if err = guests.Validate(); err != nil {
		return res, err //nolint:wrapcheck
	}

	ages := guests.Ages()
	slices.Sort(ages)

	// The generation is read before the ledger so a write committing during
	// this search leaves its result under a key no later search reads.
	generation, cached := shared.CacheGeneration(ctx, s.cache, constant.CacheKeyAvailabilityGeneration)

	cacheKey := shared.BuildCacheKeyFromValue(constant.CachePrefixAvailability, searchKey{
		Generation: generation,
		Stay:       stay.String(),
		PropertyID: req.PropertyID,
		Adults:     guests.Adults,
		Ages:       ages,
	})

	if cached {
		if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
			log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for availability")

			return res, nil
		}
	}

	rooms, err := s.roomRepo.GetOffered(ctx, req.PropertyID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load rooms")

		return res, fmt.Errorf("failed to load rooms: %w", err)
	}

	res.RoomIDs = []string{}

	if len(rooms) == 0 {
		return res, nil
	}

	roomIDs := make([]string, len(rooms))
	for i, room := range rooms {
		roomIDs[i] = room.ID
	}

	bookings, err := s.bookingRepo.FindActiveOverlapping(ctx, roomIDs, stay)
	if err != nil {
		log.Error().Err(err).Msg("failed to load overlapping bookings")

		return res, fmt.Errorf("failed to load overlapping bookings: %w", err)
	}

	blocked := conflict.BlockedRooms(bookings, stay)

	free := slices.DeleteFunc(rooms, func(room roomModel.Room) bool {
		_, ok := blocked[room.ID]

		return ok
	})

	for _, room := range capacity.Filter(free, guests) {
		res.RoomIDs = append(res.RoomIDs, room.ID)
	}

	scope.SetAttribute("available_rooms", len(res.RoomIDs))

	if cached {
		if err := s.cache.Save(ctx, cacheKey, res, s.cfg.Availability.CacheTTL); err != nil {
			log.Error().Err(err).Msg("failed to save availability to cache")
		}
	}

	return res, nil
}
