package services

import (
	"context"
	stderrors "errors"

	"github.com/vytor/scholarsrs/internal/errors"
	"github.com/vytor/scholarsrs/internal/events"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/models"
	"github.com/vytor/scholarsrs/internal/scheduler"
	"github.com/vytor/scholarsrs/internal/session"
)

// StudyService drives the single active study session
type StudyService interface {
	Start(ctx context.Context, hours float64, rawText string) (models.Snapshot, error)
	Current(ctx context.Context) (models.Snapshot, error)
	Next(ctx context.Context) (models.Snapshot, error)
	Reveal(ctx context.Context) (models.Snapshot, error)
	Correct(ctx context.Context) (models.Snapshot, error)
	Wrong(ctx context.Context) (models.Snapshot, error)
	Skip(ctx context.Context) (models.Snapshot, error)
	Pause(ctx context.Context) (models.Snapshot, error)
	Resume(ctx context.Context) (models.Snapshot, error)
	SkipBreak(ctx context.Context) (models.Snapshot, error)
	History(ctx context.Context, cardID int) ([]models.Response, error)
	Stop(ctx context.Context) error
	Subscribe(h events.Handler) (unsubscribe func())
}

type studyService struct {
	manager *session.Manager
}

// NewStudyService creates a new StudyService
func NewStudyService(manager *session.Manager) StudyService {
	return &studyService{manager: manager}
}

func (s *studyService) Start(ctx context.Context, hours float64, rawText string) (models.Snapshot, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting session: hours=%.2f, input_bytes=%d", hours, len(rawText))

	sess, err := s.manager.Start(hours, rawText)
	if err != nil {
		log.Debug("session start rejected: %v", err)
		return models.Snapshot{}, translateSessionError(err)
	}
	log.Info("session started: id=%s", sess.ID())
	return sess.Snapshot(), nil
}

func (s *studyService) Current(ctx context.Context) (models.Snapshot, error) {
	sess, err := s.manager.Current()
	if err != nil {
		return models.Snapshot{}, translateSessionError(err)
	}
	return sess.Snapshot(), nil
}

func (s *studyService) Next(ctx context.Context) (models.Snapshot, error) {
	return s.act(ctx, "next", (*session.Session).Next)
}

func (s *studyService) Reveal(ctx context.Context) (models.Snapshot, error) {
	return s.act(ctx, "reveal", (*session.Session).Reveal)
}

func (s *studyService) Correct(ctx context.Context) (models.Snapshot, error) {
	return s.act(ctx, "correct", (*session.Session).Correct)
}

func (s *studyService) Wrong(ctx context.Context) (models.Snapshot, error) {
	return s.act(ctx, "wrong", (*session.Session).Wrong)
}

func (s *studyService) Skip(ctx context.Context) (models.Snapshot, error) {
	return s.act(ctx, "skip", (*session.Session).Skip)
}

func (s *studyService) Pause(ctx context.Context) (models.Snapshot, error) {
	return s.act(ctx, "pause", (*session.Session).Pause)
}

func (s *studyService) Resume(ctx context.Context) (models.Snapshot, error) {
	return s.act(ctx, "resume", (*session.Session).Resume)
}

func (s *studyService) SkipBreak(ctx context.Context) (models.Snapshot, error) {
	return s.act(ctx, "skip_break", (*session.Session).SkipBreak)
}

func (s *studyService) History(ctx context.Context, cardID int) ([]models.Response, error) {
	sess, err := s.manager.Current()
	if err != nil {
		return nil, translateSessionError(err)
	}
	if cardID < 0 || cardID >= sess.Snapshot().TotalCards {
		return nil, errors.NewNotFoundError("card", cardID)
	}
	return sess.History(cardID), nil
}

func (s *studyService) Stop(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if err := s.manager.Stop(); err != nil {
		return translateSessionError(err)
	}
	log.Info("session stopped")
	return nil
}

func (s *studyService) Subscribe(h events.Handler) func() {
	return s.manager.Bus().Subscribe(h)
}

func (s *studyService) act(ctx context.Context, name string, fn func(*session.Session) (models.Snapshot, error)) (models.Snapshot, error) {
	log := logger.FromContext(ctx)
	sess, err := s.manager.Current()
	if err != nil {
		return models.Snapshot{}, translateSessionError(err)
	}
	snap, err := fn(sess)
	if err != nil {
		log.Debug("%s rejected: %v", name, err)
		return snap, translateSessionError(err)
	}
	return snap, nil
}

// translateSessionError maps session and scheduler errors onto AppErrors.
func translateSessionError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, session.ErrNoSession):
		return errors.NewNotFoundError("session", "current")
	case stderrors.Is(err, scheduler.ErrInvalidTransition),
		stderrors.Is(err, session.ErrPaused),
		stderrors.Is(err, session.ErrNotPaused),
		stderrors.Is(err, session.ErrOnBreak),
		stderrors.Is(err, session.ErrNotOnBreak),
		stderrors.Is(err, session.ErrCompleted):
		return errors.NewConflictError(err)
	}
	return errors.NewInternalError(err)
}
