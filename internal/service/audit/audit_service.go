package audit

import (
	"context"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/sirupsen/logrus"
)

type AuditUseCase interface {
	Record(ctx context.Context, message, actor string) error
	Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type AuditService struct {
	entries repository.AuditRepository
	stats   repository.StatsRepository
	log     *logrus.Logger
}

func NewAuditService(entries repository.AuditRepository, stats repository.StatsRepository, log *logrus.Logger) *AuditService {
	return &AuditService{entries: entries, stats: stats, log: log}
}

func (s *AuditService) Record(ctx context.Context, message, actor string) error {
	if err := s.entries.Append(ctx, message, actor); err != nil {
		s.log.WithError(err).WithField("actor", actor).Error("failed to write audit entry")
		return err
	}
	return nil
}

// Recent returns the newest entries first. Limits outside 1..200 fall back to 200.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > domain.MaxAuditEntries {
		limit = domain.MaxAuditEntries
	}
	entries, err := s.entries.Recent(ctx, limit)
	if err != nil {
		s.log.WithError(err).Error("failed to read audit log")
		return nil, err
	}
	return entries, nil
}

func (s *AuditService) Stats(ctx context.Context) (domain.Stats, error) {
	st, err := s.stats.Stats(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to compute stats")
		return domain.Stats{}, err
	}
	return st, nil
}

var _ AuditUseCase = (*AuditService)(nil)
