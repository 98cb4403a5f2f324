// Package membership gates collaboration resources (tasks, comments and
// attachments) on project membership and fans their events out to members.
package membership

import (
	"context"

	"github.com/ncobase/collab/biz/access"
	projectstructs "github.com/ncobase/collab/biz/project/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

// Projects loads project rows.
type Projects interface {
	Get(ctx context.Context, id string) (*projectstructs.Project, error)
}

// Members answers membership queries. A member is the project author or a
// student with an ACCEPTED application.
type Members interface {
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	IsAccepted(ctx context.Context, projectID, studentID string) (bool, error)
	MemberIDs(ctx context.Context, projectID string) ([]string, error)
}

var errArchived = ecode.NewConflict("project is archived")

// Gate combines project lookup, membership and the collaboration rules.
type Gate struct {
	projects Projects
	members  Members
	bus      *event.Bus
	logger   *logger.Logger
}

func NewGate(projects Projects, members Members, bus *event.Bus, log *logger.Logger) *Gate {
	if log == nil {
		log = logger.StdLogger()
	}
	return &Gate{projects: projects, members: members, bus: bus, logger: log}
}

// Access is a loaded project plus the actor's membership of it.
type Access struct {
	Project *projectstructs.Project
	Member  bool
}

// Load fetches the project and checks that actor may read, or with write
// change, its collaboration data. Members keep access when the project is
// hidden from them; everyone else gets NotFound. Archived projects are
// read-only.
func (g *Gate) Load(ctx context.Context, actor *idstructs.Actor, projectID string, write bool) (*Access, error) {
	p, err := g.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	member, err := g.members.IsMember(ctx, p.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := access.CanUseCollaboration(actor, p, member, write); err != nil {
		return nil, err
	}
	if write && p.Archived() {
		return nil, errArchived
	}
	return &Access{Project: p, Member: member}, nil
}

// IsAccepted reports whether studentID holds an ACCEPTED application.
func (g *Gate) IsAccepted(ctx context.Context, projectID, studentID string) (bool, error) {
	return g.members.IsAccepted(ctx, projectID, studentID)
}

// Notify publishes a collaboration event to every member's personal channel.
func (g *Gate) Notify(ctx context.Context, t event.EventType, actor *idstructs.Actor, p *projectstructs.Project, payload any) {
	if g.bus == nil {
		return
	}
	ids, err := g.members.MemberIDs(ctx, p.ID)
	if err != nil {
		g.logger.Warn(ctx, "Failed to load project members", "error", err, "project_id", p.ID)
		return
	}
	_ = g.bus.Publish(ctx, &event.Event{
		Type:      t,
		TenantID:  p.TenantID,
		ProjectID: p.ID,
		ActorID:   actor.ID,
		Payload:   payload,
		Audience:  event.Audience{Users: ids},
	})
}
