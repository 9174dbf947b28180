package scheduler

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
)

// Service wraps a gocron scheduler for background jobs.
type Service struct {
	scheduler gocron.Scheduler
	logger    zerolog.Logger
	stopOnce  sync.Once
	stopErr   error
}

func New(logger zerolog.Logger) (*Service, error) {
	logger = logger.With().Str("component", "scheduler").Logger()
	sched, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					logger.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("scheduler job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Service{scheduler: sched, logger: logger}, nil
}

func (s *Service) Start() {
	s.logger.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("scheduler starting")
	s.scheduler.Start()
}

// Stop shuts the scheduler down once; later calls return the first result.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		s.logger.Info().Msg("scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// AddJob registers a cron-based job.
func (s *Service) AddJob(name, cronExpr string, task func()) (gocron.Job, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	jobLogger := s.logger.With().Str("job_name", name).Str("cron", cronExpr).Logger()

	wrapped := func() {
		jobLogger.Debug().Msg("scheduler job started")
		task()
		jobLogger.Debug().Msg("scheduler job completed")
	}

	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(wrapped),
		gocron.WithName(name),
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("failed to register scheduler job")
		return nil, err
	}
	jobLogger.Info().Msg("scheduler job registered")
	return job, nil
}
