package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"innkeep/infras/otel"
	"innkeep/infras/postgres"
	availabilityModel "innkeep/internal/domains/availability/model"
	"innkeep/internal/domains/booking/model"
	roomModel "innkeep/internal/domains/room/model"
	"innkeep/shared"
	"innkeep/shared/constant"
	gDto "innkeep/shared/dto"
	"innkeep/shared/failure"
	"innkeep/shared/logger"
	gModel "innkeep/shared/model"
	gRepo "innkeep/shared/repository"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const dialect = "postgres"

var roomColumns = []any{
	roomModel.FieldID,
	roomModel.FieldPropertyID,
	roomModel.FieldName,
	roomModel.FieldRoomNumber,
	roomModel.FieldCapacity,
	roomModel.FieldMaxAdultCount,
	roomModel.FieldMaxChildrenUnder3Count,
	roomModel.FieldMaxChildren3To12Count,
	roomModel.FieldMaxChildren13To17Count,
	roomModel.FieldStatus,
	gModel.FieldCreatedAt,
	gModel.FieldModifiedAt,
	gModel.FieldCreatedBy,
	gModel.FieldModifiedBy,
}

// ReserveCheck decides, while the room is locked, whether booking may be
// inserted given the room and its active bookings overlapping the stay.
type ReserveCheck func(room roomModel.Room, active []model.Booking) error

// TransitionFunc computes the next version of a locked booking.
type TransitionFunc func(current model.Booking) (model.Booking, error)

// Booking is the authoritative ledger. Reserve and Transition are the only
// writers and both run inside a single transaction.
type Booking interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	FindActiveOverlapping(ctx context.Context, roomIDs []string, stay availabilityModel.Stay) ([]model.Booking, error)
	FindOverduePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Booking, error)
	FindDueForCompletion(ctx context.Context, onOrBefore time.Time, limit int) ([]model.Booking, error)
	Reserve(ctx context.Context, booking model.Booking, check ReserveCheck) error
	Transition(ctx context.Context, id string, apply TransitionFunc) (model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// FindActiveOverlapping returns pending and confirmed bookings whose range
// intersects stay. An empty roomIDs means every room.
func (r *repositoryImpl) FindActiveOverlapping(ctx context.Context, roomIDs []string, stay availabilityModel.Stay) (bookings []model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindActiveOverlapping")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	query, args, err := r.overlapping(roomIDs, stay).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build overlap query: %w", err)
	}

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = r.db.Read.SelectContext(ctx, &bookings, query, args...); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to load overlapping bookings: %w", err)
	}

	return bookings, nil
}

// FindOverduePending lists pending bookings created before createdBefore,
// oldest first. It reads the primary so a sweep never acts on a stale replica.
func (r *repositoryImpl) FindOverduePending(ctx context.Context, createdBefore time.Time, limit int) (bookings []model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindOverduePending")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	ds := r.selectBookings().
		Where(
			goqu.I(qualify(model.FieldStatus)).Eq(string(model.StatusPending)),
			goqu.I(qualify(model.FieldCreatedAt)).Lt(createdBefore),
		).
		Order(goqu.I(qualify(model.FieldCreatedAt)).Asc()).
		Limit(uint(limit)) //nolint:gosec

	return r.sweep(ctx, ds)
}

// FindDueForCompletion lists confirmed bookings whose check-out date is on or
// before onOrBefore.
func (r *repositoryImpl) FindDueForCompletion(ctx context.Context, onOrBefore time.Time, limit int) (bookings []model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindDueForCompletion")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	ds := r.selectBookings().
		Where(
			goqu.I(qualify(model.FieldStatus)).Eq(string(model.StatusConfirmed)),
			goqu.I(qualify(model.FieldCheckOutDate)).Lte(onOrBefore),
		).
		Order(goqu.I(qualify(model.FieldCheckOutDate)).Asc()).
		Limit(uint(limit)) //nolint:gosec

	return r.sweep(ctx, ds)
}

func (r *repositoryImpl) sweep(ctx context.Context, ds *goqu.SelectDataset) ([]model.Booking, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build sweep query: %w", err)
	}

	var bookings []model.Booking
	if err := r.db.Write.SelectContext(ctx, &bookings, query, args...); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to load bookings for sweep: %w", err)
	}

	return bookings, nil
}

// Reserve inserts booking while holding the per-room advisory lock. check sees
// the room and the active bookings that overlap the new stay as of inside the
// lock; if it returns an error nothing is written. The exclusion constraint on
// the table backs the lock up, and its violation surfaces as a conflict.
func (r *repositoryImpl) Reserve(ctx context.Context, booking model.Booking, check ReserveCheck) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Reserve")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute("room_id", booking.RoomID)

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := postgres.AdvisoryXactLock(ctx, tx, booking.RoomID); err != nil {
			return err //nolint:wrapcheck
		}

		room, err := r.roomTx(ctx, tx, booking.RoomID)
		if err != nil {
			return err
		}

		query, args, err := r.overlapping([]string{booking.RoomID}, booking.Stay()).ToSQL()
		if err != nil {
			return fmt.Errorf("failed to build overlap query: %w", err)
		}

		var active []model.Booking
		if err := tx.SelectContext(ctx, &active, query, args...); err != nil {
			return fmt.Errorf("failed to load overlapping bookings: %w", err)
		}

		if err := check(room, active); err != nil {
			return err
		}

		return r.InsertTx(ctx, tx, booking) //nolint:wrapcheck
	})

	return mapConstraintError(err)
}

// Transition locks the booking row, lets apply compute the next version and
// persists its status and cancel reason.
func (r *repositoryImpl) Transition(ctx context.Context, id string, apply TransitionFunc) (updated model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Transition")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := r.selectBookings().
			Where(goqu.I(qualify(model.FieldID)).Eq(id)).
			ForUpdate(goqu.Wait).
			ToSQL()
		if err != nil {
			return fmt.Errorf("failed to build lock query: %w", err)
		}

		var current model.Booking
		if err := tx.GetContext(ctx, &current, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return failure.NotFound(model.EntityName) // nolint:wrapcheck
			}

			return fmt.Errorf("failed to lock booking: %w", err)
		}

		next, err := apply(current)
		if err != nil {
			return err
		}

		fields := map[string]any{
			model.FieldStatus:       next.Status,
			model.FieldCancelReason: next.CancelReason,
			gModel.FieldModifiedAt:  next.ModifiedAt,
			gModel.FieldModifiedBy:  next.ModifiedBy,
		}

		if err := r.UpdateTx(ctx, tx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
			return err //nolint:wrapcheck
		}

		updated = next

		return nil
	})
	if err != nil {
		return model.Booking{}, mapConstraintError(err)
	}

	return updated, nil
}

func (r *repositoryImpl) roomTx(ctx context.Context, tx *sqlx.Tx, roomID string) (roomModel.Room, error) {
	query, args, err := goqu.Dialect(dialect).
		From(roomModel.TableName).
		Prepared(true).
		Select(roomColumns...).
		Where(goqu.C(roomModel.FieldID).Eq(roomID)).
		ToSQL()
	if err != nil {
		return roomModel.Room{}, fmt.Errorf("failed to build room query: %w", err)
	}

	var room roomModel.Room
	if err := tx.GetContext(ctx, &room, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return roomModel.Room{}, failure.NotFound(roomModel.EntityName) // nolint:wrapcheck
		}

		return roomModel.Room{}, fmt.Errorf("failed to load room: %w", err)
	}

	return room, nil
}

func (r *repositoryImpl) selectBookings() *goqu.SelectDataset {
	return goqu.Dialect(dialect).
		From(model.TableName).
		Prepared(true).
		Select(r.ColumnNames()...)
}

// overlapping selects active bookings with check_in < stay.CheckOut and
// check_out > stay.CheckIn, the half-open intersection test.
func (r *repositoryImpl) overlapping(roomIDs []string, stay availabilityModel.Stay) *goqu.SelectDataset {
	statuses := make([]string, 0, len(model.ActiveStatuses))
	for _, status := range model.ActiveStatuses {
		statuses = append(statuses, string(status))
	}

	ds := r.selectBookings().
		Where(
			goqu.I(qualify(model.FieldStatus)).In(statuses),
			goqu.I(qualify(model.FieldCheckInDate)).Lt(stay.CheckOut),
			goqu.I(qualify(model.FieldCheckOutDate)).Gt(stay.CheckIn),
		)

	if len(roomIDs) > 0 {
		ds = ds.Where(goqu.I(qualify(model.FieldRoomID)).In(roomIDs))
	}

	return ds
}

func qualify(field string) string {
	return model.TableName + "." + field
}

// mapConstraintError turns constraint violations raised by the table into
// domain failures. An id that does not parse as a UUID names no booking.
// Everything else passes through.
func mapConstraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case constant.PqErrorCodeExclusionViolation:
		return failure.Conflict("room is already booked for the requested dates") // nolint:wrapcheck
	case constant.PqErrorCodeCheckViolation:
		return failure.Validation("check_out must be after check_in") // nolint:wrapcheck
	case constant.PqErrorCodeInvalidText:
		return failure.NotFound(model.EntityName) // nolint:wrapcheck
	}

	return err
}
