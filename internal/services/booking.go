package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"devevents/internal/domain"
	"devevents/internal/metrics"
	"devevents/internal/validation"
)

type bookingService struct {
	bookingRepo    domain.BookingRepository
	eventRepo      domain.EventRepository
	emailService   domain.EmailService
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

func NewBookingService(bookingRepo domain.BookingRepository,
	eventRepo domain.EventRepository,
	emailService domain.EmailService,
	m *metrics.Metrics,
	logger *slog.Logger,
	timeout time.Duration,
) domain.BookingService {
	return &bookingService{
		bookingRepo:    bookingRepo,
		eventRepo:      eventRepo,
		emailService:   emailService,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
		contextTimeout: timeout,
	}
}

// CreateBooking records a booking for an existing event. A missing event yields a
// *domain.DanglingReferenceError and nothing is written.
func (s *bookingService) CreateBooking(ctx context.Context, eventID, email string) (*domain.Booking, error) {
	verr := &domain.ValidationError{}
	email, err := validation.Email(email)
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		verr.Merge(ve)
	}
	eventID, idErr := parseEventID(eventID)
	verr.Merge(idErr)
	if err := verr.OrNil(); err != nil {
		s.metrics.ValidationFailed("create_booking")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("booking for unknown event rejected", "event_id", eventID)
		return nil, &domain.DanglingReferenceError{EventID: eventID}
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := s.now().UTC()
	booking := domain.NewBooking(event.ID, email, now, now)
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	s.metrics.BookingCreated()
	s.logger.Info("booking created", "booking_id", booking.ID, "event_id", event.ID)

	s.sendConfirmation(ctx, event, booking)
	return booking, nil
}

// sendConfirmation mails the booker. Failures are logged and never fail the booking.
func (s *bookingService) sendConfirmation(ctx context.Context, event *domain.Event, booking *domain.Booking) {
	if s.emailService == nil {
		return
	}
	err := s.emailService.SendBookingConfirmation(ctx, &domain.BookingConfirmationEmailData{
		Email:      booking.Email,
		EventTitle: event.Title,
		EventSlug:  event.Slug,
		Date:       event.Date,
		Time:       event.Time,
		Venue:      event.Venue,
		Location:   event.Location,
		Mode:       string(event.Mode),
	})
	if err != nil {
		s.logger.Error("booking confirmation email failed", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) CountBookings(ctx context.Context, eventID string) (int, error) {
	eventID, verr := parseEventID(eventID)
	if verr != nil {
		return 0, verr
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.bookingRepo.CountByEventID(ctx, eventID)
}

// parseEventID trims raw and checks that it is a UUID.
func parseEventID(raw string) (string, *domain.ValidationError) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", domain.NewValidationError("eventId", "Event ID is required")
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return "", domain.NewValidationError("eventId", "Event ID must be a valid UUID")
	}
	return u.String(), nil
}
