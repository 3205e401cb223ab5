package memory

import (
	"context"

	"shop/internal/domain/model"
)

type AuditLogRepository struct {
	store *Store
}

func NewAuditLogRepository(store *Store) *AuditLogRepository {
	return &AuditLogRepository{store: store}
}

func (r *AuditLogRepository) Create(ctx context.Context, log model.AuditLog) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	log.ID = s.nextIDLocked()
	s.auditLogs = append(s.auditLogs, log)
	return nil
}
