package controllers

import (
	"log/slog"
	"net/http"

	"devevents/internal/delivery/http/helpers"
	"devevents/internal/domain"
)

// maxBookingBody caps the JSON body of POST /bookings.
const maxBookingBody = 4 << 10

// CreateBookingRequest is the request body for POST /bookings.
type CreateBookingRequest struct {
	EventID string `json:"event_id"`
	Email   string `json:"email"`
}

// BookingSuccessResponse is the success response envelope for POST /bookings (201).
type BookingSuccessResponse struct {
	Data  *domain.Booking   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type BookingController struct {
	Logger     *slog.Logger
	Service    domain.BookingService
	Production bool
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService, production bool) *BookingController {
	return &BookingController{
		Logger:     logger,
		Service:    svc,
		Production: production,
	}
}

// CreateBooking godoc
// @Summary Book a spot at an event
// @Description The event must exist. The email is trimmed and lower-cased. Booking twice with the same email is allowed.
// @Tags bookings
// @Accept json
// @Produce json
// @Param booking body CreateBookingRequest true "Event ID and email"
// @Success 201 {object} controllers.BookingSuccessResponse "data contains the booking"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 422 {object} helpers.APIResponse "error.code: invalid_reference"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings [post]
func (c *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBookingBody)
	var req CreateBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	booking, err := c.Service.CreateBooking(r.Context(), req.EventID, req.Email)
	if err != nil {
		writeError(w, r, c.Logger, c.Production, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, booking)
}
