package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"devevents/internal/domain"
	"devevents/internal/metrics"
	"devevents/internal/normalize"
	"devevents/internal/validation"
)

const (
	// maxSlugAttempts bounds the inserts tried when the slug index reports a conflict.
	maxSlugAttempts    = 5
	similarEventsLimit = 12
)

// EventServiceConfig holds the tunables of the event service.
type EventServiceConfig struct {
	ContextTimeout time.Duration
	UploadTimeout  time.Duration
	UploadFolder   string
}

type eventService struct {
	eventRepo      domain.EventRepository
	uploader       domain.ImageUploader
	images         domain.ImageProcessor
	dates          *normalize.DateParser
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
	stamps         *slugStamps
	contextTimeout time.Duration
	uploadTimeout  time.Duration
	uploadFolder   string
}

func NewEventService(eventRepo domain.EventRepository,
	uploader domain.ImageUploader,
	images domain.ImageProcessor,
	dates *normalize.DateParser,
	m *metrics.Metrics,
	logger *slog.Logger,
	config EventServiceConfig,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		uploader:       uploader,
		images:         images,
		dates:          dates,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
		stamps:         &slugStamps{now: time.Now},
		contextTimeout: config.ContextTimeout,
		uploadTimeout:  config.UploadTimeout,
		uploadFolder:   config.UploadFolder,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, sub *domain.EventSubmission) (*domain.Event, error) {
	if sub == nil {
		return nil, domain.NewValidationError("_", "Event data is required")
	}
	verr := &domain.ValidationError{}
	draft, err := validation.EventSubmission(sub, s.dates)
	if err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		verr.Merge(ve)
	}
	var img *domain.PreparedImage
	if sub.Image != nil && len(sub.Image.Data) > 0 {
		img, err = s.images.Prepare(sub.Image.Filename, sub.Image.Data)
		if errors.Is(err, domain.ErrInvalidImage) {
			verr.Add("image", "Image must be a JPEG, PNG, GIF, BMP or TIFF file of reasonable dimensions")
		} else if err != nil {
			return nil, fmt.Errorf("prepare image: %w", err)
		}
	}
	if err := verr.OrNil(); err != nil {
		s.metrics.ValidationFailed("create_event")
		return nil, err
	}

	imageURL, err := s.upload(ctx, img)
	if err != nil {
		return nil, err
	}

	date, ok := s.dates.Normalize(draft.Date)
	if !ok {
		s.metrics.ValidationFailed("create_event")
		return nil, domain.NewValidationError("date", "Invalid date format. Please provide a valid date.")
	}
	if !normalize.ValidStoredTime(draft.Time) {
		s.metrics.ValidationFailed("create_event")
		return nil, domain.NewValidationError("time", "Time must be in HH:MM format (24-hour)")
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	base := normalize.Slugify(draft.Title)
	slug, err := s.uniqueSlug(ctx, base, "")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	event := &domain.Event{
		Title:       draft.Title,
		Slug:        slug,
		Description: draft.Description,
		Overview:    draft.Overview,
		Image:       imageURL,
		Venue:       draft.Venue,
		Location:    draft.Location,
		Date:        date,
		Time:        draft.Time,
		Mode:        draft.Mode,
		Audience:    draft.Audience,
		Agenda:      draft.Agenda,
		Organizer:   draft.Organizer,
		Tags:        draft.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validation.Event(event); err != nil {
		s.metrics.ValidationFailed("create_event")
		return nil, err
	}
	if err := s.writeWithSlugRetry(ctx, event, base, s.eventRepo.Create); err != nil {
		return nil, err
	}
	s.metrics.EventCreated()
	s.logger.Info("event created", "event_id", event.ID, "slug", event.Slug)
	return event, nil
}

// upload stores img under the configured folder and returns its public URL.
func (s *eventService) upload(ctx context.Context, img *domain.PreparedImage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	started := s.now()
	done := make(chan uploadOutcome, 1)
	go func() {
		res, err := s.uploader.Upload(ctx, img.Data, domain.UploadOptions{
			Folder:      s.uploadFolder,
			Filename:    img.Filename,
			ContentType: img.ContentType,
		})
		done <- uploadOutcome{res: res, err: err}
	}()
	// The deadline holds even when the uploader ignores ctx; a late result is dropped.
	var out uploadOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}
	s.metrics.ObserveUpload(s.now().Sub(started))
	res, err := out.res, out.err
	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
		s.logger.Error("image upload failed", "error", err, "timeout", timeout)
		return "", &domain.UpstreamError{Op: "image upload", Timeout: timeout, Err: err}
	}
	if res.URL == "" {
		return "", &domain.UpstreamError{Op: "image upload", Err: errors.New("no URL returned")}
	}
	return res.URL, nil
}

type uploadOutcome struct {
	res domain.UploadResult
	err error
}

func (s *eventService) UpdateEvent(ctx context.Context, slug string, patch *domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.eventRepo.GetBySlug(ctx, cleanSlug(slug))
	if err != nil {
		return nil, err
	}
	if patch == nil {
		return current, nil
	}
	updated := *current
	event := &updated

	verr := &domain.ValidationError{}
	titleChanged := false
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		titleChanged = title != event.Title
		event.Title = title
	}
	setTrimmed(&event.Description, patch.Description)
	setTrimmed(&event.Overview, patch.Overview)
	setTrimmed(&event.Venue, patch.Venue)
	setTrimmed(&event.Location, patch.Location)
	setTrimmed(&event.Audience, patch.Audience)
	setTrimmed(&event.Organizer, patch.Organizer)
	if patch.Mode != nil {
		event.Mode = domain.EventMode(strings.ToLower(strings.TrimSpace(*patch.Mode)))
	}
	if patch.Date != nil {
		date, ok := s.dates.Normalize(*patch.Date)
		if !ok {
			verr.Add("date", "Invalid date format. Please provide a valid date.")
		}
		event.Date = date
	}
	if patch.Time != nil {
		clock, ok := normalize.Time(*patch.Time)
		if !ok {
			verr.Add("time", "Invalid time format. Use HH:MM or HH:MM AM/PM.")
		}
		event.Time = clock
	}
	if patch.Agenda != nil {
		event.Agenda = validation.CleanList(*patch.Agenda)
	}
	if patch.Tags != nil {
		event.Tags = validation.CleanList(*patch.Tags)
	}

	base := ""
	if titleChanged {
		base = normalize.Slugify(event.Title)
		if event.Title != "" && base == "" {
			verr.Add("title", "Title must contain at least one letter or digit")
		}
	}
	if err := validation.Event(event); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		verr.Merge(ve)
	}
	if err := verr.OrNil(); err != nil {
		s.metrics.ValidationFailed("update_event")
		return nil, err
	}

	if titleChanged {
		if event.Slug, err = s.uniqueSlug(ctx, base, event.ID); err != nil {
			return nil, err
		}
	}
	event.UpdatedAt = s.now().UTC()
	if err := s.writeWithSlugRetry(ctx, event, base, s.eventRepo.Update); err != nil {
		return nil, err
	}
	s.logger.Info("event updated", "event_id", event.ID, "slug", event.Slug)
	return event, nil
}

func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.GetBySlug(ctx, cleanSlug(slug))
}

func (s *eventService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.List(ctx, params)
}

// ListSimilarEvents returns events sharing at least one tag with the event at slug.
// An unknown slug yields an empty list.
func (s *eventService) ListSimilarEvents(ctx context.Context, slug string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetBySlug(ctx, cleanSlug(slug))
	if errors.Is(err, domain.ErrNotFound) {
		return []*domain.Event{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(event.Tags) == 0 {
		return []*domain.Event{}, nil
	}
	return s.eventRepo.ListSimilar(ctx, event.ID, event.Tags, similarEventsLimit)
}

// uniqueSlug returns base if no other event holds it, else base with a timestamp suffix.
func (s *eventService) uniqueSlug(ctx context.Context, base, excludeID string) (string, error) {
	if base == "" {
		return "", domain.NewValidationError("title", "Title must contain at least one letter or digit")
	}
	taken, err := s.eventRepo.SlugExists(ctx, base, excludeID)
	if err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}
	if !taken {
		return base, nil
	}
	s.metrics.SlugCollision()
	return s.stamps.suffix(base), nil
}

// writeWithSlugRetry calls write and, while the slug index rejects the row, retries with a
// fresh disambiguator. An empty base disables retries.
func (s *eventService) writeWithSlugRetry(ctx context.Context, e *domain.Event, base string,
	write func(context.Context, *domain.Event) error,
) error {
	for attempt := 1; ; attempt++ {
		err := write(ctx, e)
		var conflict *domain.ConflictError
		if !errors.As(err, &conflict) || base == "" || attempt == maxSlugAttempts {
			return err
		}
		s.metrics.SlugCollision()
		s.logger.Warn("slug taken, retrying", "slug", e.Slug, "attempt", attempt)
		e.Slug = s.stamps.suffix(base)
	}
}

func cleanSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// slugStamps hands out millisecond timestamps that strictly increase within the process.
type slugStamps struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (s *slugStamps) suffix(base string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UnixMilli()
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts
	return fmt.Sprintf("%s-%d", base, ts)
}
