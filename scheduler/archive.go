package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	archiveJobName    = "room_archive"
	archiveJobTimeout = 2 * time.Minute
	archiveBatchSize  = 20
)

// Archiver is the part of the archive service the job drives.
type Archiver interface {
	ArchivePending(ctx context.Context, limit int) (int, error)
}

// RegisterArchiveJob uploads results of newly completed rooms on cronExpr.
func RegisterArchiveJob(s *Service, archiver Archiver, cronExpr string) error {
	_, err := s.AddJob(archiveJobName, cronExpr, archiveTask(archiver, s.logger.With().Str("job_name", archiveJobName).Logger()))
	return err
}

func archiveTask(archiver Archiver, logger zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveJobTimeout)
		defer cancel()

		n, err := archiver.ArchivePending(ctx, archiveBatchSize)
		if err != nil {
			logger.Error().Err(err).Int("archived", n).Msg("archive run finished with errors")
			return
		}
		if n > 0 {
			logger.Info().Int("archived", n).Msg("archive run finished")
		}
	}
}
