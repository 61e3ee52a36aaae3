package audit

import (
	"context"

	"hotel/internal/authz"
	"hotel/internal/domain"
	"hotel/internal/repository"
)

type LogReader interface {
	List(ctx context.Context, f repository.AuditFilter) ([]domain.AuditLog, error)
}

type Service struct {
	logs LogReader
}

func NewService(logs LogReader) *Service {
	return &Service{logs: logs}
}

// List returns audit entries newest first. Admin only.
func (s *Service) List(ctx context.Context, actor authz.Actor, f repository.AuditFilter) ([]domain.AuditLog, error) {
	if err := authz.Authorize(actor, authz.OpListAuditLogs); err != nil {
		return nil, err
	}
	return s.logs.List(ctx, f)
}
