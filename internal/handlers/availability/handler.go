package availability

import (
	"innkeep/infras/otel"
	"innkeep/internal/domains/availability/model/dto"
	"innkeep/internal/domains/availability/service"
	"innkeep/shared/constant"
	"innkeep/shared/validator"
	"innkeep/transport/http/response"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Availability
	otel    otel.Otel
}

func New(service service.Availability, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/availability", func(routerGroup chi.Router) {
		routerGroup.Post("/search", handler.Search)
	})
}

// Search lists the rooms that can host a party for a stay.
// @Summary Search available rooms
// @Description Return the ids of offered rooms that fit the party and have no pending or confirmed booking overlapping the stay.
// @Tags Availability
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "Search Request"
// @Success 200 {object} response.Data[dto.SearchResponse] "Available room ids"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/availability/search [post]
func (handler *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SearchAvailability")
	defer scope.End()

	req := dto.SearchRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Search(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("check_in", req.CheckIn).Str("check_out", req.CheckOut).Msg("failed to search availability")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Availability resolved with " + strconv.Itoa(len(res.RoomIDs)) + " rooms")

	response.WithJSON(w, http.StatusOK, res)
}
