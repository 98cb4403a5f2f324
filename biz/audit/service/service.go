// Package service records and lists audit entries.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ncobase/collab/biz/access"
	"github.com/ncobase/collab/biz/audit/data/repository"
	"github.com/ncobase/collab/biz/audit/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/nanoid"
	"github.com/ncobase/collab/paging"
)

type Service struct {
	repo   repository.AuditRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo repository.AuditRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Service{repo: repo, logger: log, now: time.Now}
}

// Record appends an entry. It is called after the audited change has been
// committed, so failures are logged and never surface to the caller.
func (s *Service) Record(ctx context.Context, actor *idstructs.Actor, action structs.Action, entityType, entityID, tenantID string, before, after any, reason string) {
	e := &structs.Entry{
		ID:         nanoid.PrimaryKey(),
		TenantID:   tenantID,
		ActorID:    actor.ID,
		ActorRoles: idstructs.RoleStrings(actor.Roles),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     s.encode(ctx, before),
		After:      s.encode(ctx, after),
		Reason:     reason,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Error(ctx, "Failed to write audit entry",
			"error", err, "action", action, "entity_type", entityType, "entity_id", entityID)
	}
}

func (s *Service) encode(ctx context.Context, v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn(ctx, "Failed to encode audit snapshot", "error", err)
		return nil
	}
	return b
}

// List returns entries in the admin's tenant scope, newest first.
func (s *Service) List(ctx context.Context, actor *idstructs.Actor, params *structs.ListParams) (*paging.Result[*structs.Entry], error) {
	tenantID, err := access.AdminTenantFilter(actor)
	if err != nil {
		return nil, err
	}
	q := repository.Query{
		TenantID:   tenantID,
		Action:     params.Action,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
	}
	result, err := paging.Paginate(paging.Params{Cursor: params.Cursor, Limit: params.Limit},
		func(cursor *paging.Cursor, limit int) ([]*structs.Entry, int, error) {
			return s.repo.List(ctx, q, cursor, limit)
		},
		func(e *structs.Entry) (time.Time, string) { return e.CreatedAt, e.ID })
	if err != nil {
		return nil, err
	}
	return result, nil
}
