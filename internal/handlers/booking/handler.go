package booking

import (
	"innkeep/infras/otel"
	"innkeep/internal/domains/booking/model"
	"innkeep/internal/domains/booking/model/dto"
	"innkeep/internal/domains/booking/service"
	"innkeep/shared/constant"
	gDto "innkeep/shared/dto"
	"innkeep/shared/failure"
	"innkeep/shared/timezone"
	"innkeep/shared/validator"
	"innkeep/transport/http/response"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

// Router mounts the guest routes. Requests reaching them carry an
// authenticated user on their context.
func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/mybookings", handler.GetMyBookings)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Post("/{id}/cancel", handler.CancelBooking)
	})
}

// InternalRouter mounts the routes used by the payment collaborator.
func (handler *Handler) InternalRouter(router chi.Router) {
	router.Route("/internal/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/{id}/events", handler.ApplyEvent)
	})
}

// CreateBooking handles the creation of a new booking.
// @Summary Create a new booking
// @Description Reserve a room for a stay. The booking starts pending and holds the room until it is confirmed, cancelled or expires.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("room_id", req.RoomID).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking created successfully by user " + user)

	response.WithJSON(writer, http.StatusCreated, booking)
}

// GetMyBookings retrieves the requester's bookings.
// @Summary Get my bookings
// @Description Retrieve the authenticated guest's bookings with optional status filter and pagination.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (pending, confirmed, cancelled, completed)"
// @Param start_date query string false "Only stays checking in on or after this date (YYYY-MM-DD)"
// @Param end_date query string false "Only stays checking out on or before this date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/mybookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	if err := validator.ValidateStruct(&queryParams); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate query params")

		response.WithError(w, err)

		return
	}

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldUserID,
				Operator: gDto.FilterOperatorEq,
				Value:    userID,
				Table:    model.TableName,
			},
		},
	}

	if status := r.URL.Query().Get(model.FieldStatus); status != "" {
		if err := validator.ValidateVar(status, "oneof=pending confirmed cancelled completed"); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Msg("failed to validate status filter")

			response.WithError(w, err)

			return
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	stayFilters, err := stayWithin(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate date range filter")

		response.WithError(w, err)

		return
	}

	filterGroup.Filters = append(filterGroup.Filters, stayFilters...)

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("User bookings retrieved successfully for user " + userID)

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetBookingByID retrieves a booking by its ID.
// @Summary Get a booking by ID
// @Description Retrieve one of the requester's bookings by its unique identifier.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id, err := bookingID(r)
	if err != nil {
		scope.TraceError(err)
		log.Warn().Str("booking_id", id).Msg("malformed booking id")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", id).Msg("failed to get booking by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// CancelBooking cancels one of the requester's bookings.
// @Summary Cancel a booking
// @Description Cancel a pending or confirmed booking. The room becomes free for the stay immediately.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Cancelled booking"
// @Failure 401 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 410 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	id, err := bookingID(r)
	if err != nil {
		scope.TraceError(err)
		log.Warn().Str("booking_id", id).Msg("malformed booking id")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Cancel(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", id).Msg("failed to cancel booking")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking cancelled successfully by user " + user)

	response.WithJSON(w, http.StatusOK, booking)
}

// ApplyEvent applies a lifecycle event sent by another service.
// @Summary Apply a booking lifecycle event
// @Description Move a booking through its lifecycle, e.g. confirm after payment capture.
// @Tags Internal
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.TransitionRequest true "Lifecycle event"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 410 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/internal/bookings/{id}/events [post]
// @Security ApiKeyAuth
func (handler *Handler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ApplyEvent")
	defer scope.End()

	id, err := bookingID(r)
	if err != nil {
		scope.TraceError(err)
		log.Warn().Str("booking_id", id).Msg("malformed booking id")

		response.WithError(w, err)

		return
	}

	req := dto.TransitionRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Transition(ctx, id, model.Event(req.Event))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", id).Str("event", req.Event).Msg("failed to apply booking event")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking event " + req.Event + " applied")

	response.WithJSON(w, http.StatusOK, booking)
}

// bookingID reads the {id} path parameter. Ids that are not UUIDs cannot name
// a booking and read as not found.
func bookingID(r *http.Request) (string, error) {
	id := chi.URLParam(r, constant.RequestParamID)

	if err := validator.ValidateVar(id, "uuid"); err != nil {
		return id, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return id, nil
}

// stayWithin reads the optional start_date and end_date bounds. A booking is
// kept when its whole stay falls inside them.
func stayWithin(r *http.Request) ([]any, error) {
	var (
		filters    []any
		start, end time.Time
		err        error
	)

	if value := r.URL.Query().Get(constant.RequestParamStartDate); value != "" {
		if start, err = timezone.ParseDate(value); err != nil {
			return nil, failure.Validation("start_date must be a date in YYYY-MM-DD format") // nolint:wrapcheck
		}

		filters = append(filters, gDto.Filter{
			Field:    model.FieldCheckInDate,
			Operator: gDto.FilterOperatorGreaterEq,
			Value:    timezone.FormatDate(start),
			Table:    model.TableName,
		})
	}

	if value := r.URL.Query().Get(constant.RequestParamEndDate); value != "" {
		if end, err = timezone.ParseDate(value); err != nil {
			return nil, failure.Validation("end_date must be a date in YYYY-MM-DD format") // nolint:wrapcheck
		}

		filters = append(filters, gDto.Filter{
			Field:    model.FieldCheckOutDate,
			Operator: gDto.FilterOperatorLessEq,
			Value:    timezone.FormatDate(end),
			Table:    model.TableName,
		})
	}

	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, failure.Validation("end_date must not be before start_date") // nolint:wrapcheck
	}

	return filters, nil
}
