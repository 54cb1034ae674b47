package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"innkeep/infras/otel"
	"innkeep/infras/postgres"
	"innkeep/internal/domains/room/model"
	"innkeep/shared/constant"
	gDto "innkeep/shared/dto"
	gRepo "innkeep/shared/repository"
)

// Room is the read side of the room catalog. Rooms are owned by property
// management; this service never writes them.
type Room interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Room, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Room, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	GetOffered(ctx context.Context, propertyID string) ([]model.Room, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Room]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Room {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Room](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// GetOffered lists rooms on sale, optionally scoped to one property.
func (r *repositoryImpl) GetOffered(ctx context.Context, propertyID string) (rooms []model.Room, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".room.GetOffered")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	rooms, err = r.GetAll(ctx, gDto.QueryParams{}, OfferedFilter(propertyID))
	if err != nil {
		return nil, fmt.Errorf("failed to list offered rooms: %w", err)
	}

	return rooms, nil
}

// OfferedFilter matches available rooms, scoped to propertyID when it is set.
func OfferedFilter(propertyID string) gDto.FilterGroup {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldStatus,
				Value:    string(model.StatusAvailable),
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}

	if propertyID != "" {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldPropertyID,
			Value:    propertyID,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		})
	}

	return filter
}
