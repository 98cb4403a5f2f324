// Package access holds the visibility and authorization rules. Every check is
// a pure function of its arguments; callers load what the rule needs.
//
// Denials are typed: NotFound when the entity's existence must stay hidden
// from the caller, Forbidden when the caller already knows it exists,
// Conflict when the entity's state does not allow the action.
package access

import (
	"time"

	appstructs "github.com/ncobase/collab/biz/application/structs"
	attstructs "github.com/ncobase/collab/biz/attachment/structs"
	"github.com/ncobase/collab/biz/project/structs"
	taskstructs "github.com/ncobase/collab/biz/task/structs"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/ecode"
)

var (
	errProjectNotFound     = ecode.NewNotFound(ecode.NotExist("project"))
	errApplicationNotFound = ecode.NewNotFound(ecode.NotExist("application"))
	errIncompleteProfile   = ecode.NewForbidden("incomplete profile: tenant is unknown")
)

// ProjectFilter is the row filter for project listings.
type ProjectFilter struct {
	// TenantID restricts rows to one tenant. Empty means every tenant.
	TenantID string
	// StudentView limits rows to approved, unarchived projects visible to
	// Department.
	StudentView bool
	Department  string
	// None matches nothing, for actors without a usable scope.
	None bool
}

// Match evaluates the filter in memory.
func (f ProjectFilter) Match(p *structs.Project) bool {
	if f.None || p == nil {
		return false
	}
	if f.TenantID != "" && p.TenantID != f.TenantID {
		return false
	}
	if f.StudentView {
		return p.StudentVisible() && p.VisibleToDepartment(f.Department)
	}
	return true
}

// ProjectFilterFor returns the listing filter for actor. SUPER_ADMIN sees
// every tenant; staff see every status within their tenant; everyone else
// gets the student view.
func ProjectFilterFor(actor *idstructs.Actor) ProjectFilter {
	if actor == nil {
		return ProjectFilter{None: true}
	}
	if actor.IsSuperAdmin() {
		return ProjectFilter{}
	}
	if actor.Scope.TenantID == "" {
		return ProjectFilter{None: true}
	}
	if actor.IsStaff() {
		return ProjectFilter{TenantID: actor.Scope.TenantID}
	}
	return ProjectFilter{
		TenantID:    actor.Scope.TenantID,
		StudentView: true,
		Department:  actor.Scope.Department,
	}
}

// CanViewProject conceals projects outside the actor's filter.
func CanViewProject(actor *idstructs.Actor, p *structs.Project) error {
	if !ProjectFilterFor(actor).Match(p) {
		return errProjectNotFound
	}
	return nil
}

// CanCreateProject requires FACULTY and a known tenant.
func CanCreateProject(actor *idstructs.Actor) error {
	if !actor.IsFaculty() {
		return ecode.NewForbidden("only faculty can create projects")
	}
	if actor.Scope.TenantID == "" {
		return errIncompleteProfile
	}
	return nil
}

// CanManageProject covers update, archive and progress changes by the owner.
func CanManageProject(actor *idstructs.Actor, p *structs.Project) error {
	if err := CanViewProject(actor, p); err != nil {
		return err
	}
	if p.AuthorID != actor.ID || p.TenantID != actor.Scope.TenantID {
		return ecode.NewForbidden("only the project author can change this project")
	}
	return nil
}

// ApplyState is what CanApply needs beyond the project row.
type ApplyState struct {
	AcceptedCount  int
	AlreadyApplied bool
	Now            time.Time
}

// CanApply checks a student application against the project.
func CanApply(actor *idstructs.Actor, p *structs.Project, st ApplyState) error {
	if !actor.IsStudent() {
		return ecode.NewForbidden("only students can apply")
	}
	if err := CanViewProject(actor, p); err != nil {
		return err
	}
	if p.ProgressStatus == structs.ProgressCompleted {
		return ecode.NewConflict("project is completed")
	}
	if p.Deadline != nil && st.Now.After(*p.Deadline) {
		return ecode.NewConflict("application deadline has passed")
	}
	if st.AlreadyApplied {
		return ecode.NewConflict("already applied to this project")
	}
	if st.AcceptedCount >= p.MaxStudents {
		return ecode.NewConflict("project is full")
	}
	return nil
}

// CanListApplications lets the author or an in-scope admin see a project's
// applications.
func CanListApplications(actor *idstructs.Actor, p *structs.Project) error {
	if err := CanViewProject(actor, p); err != nil {
		return err
	}
	if p.AuthorID == actor.ID || InAdminScope(actor, p.TenantID) {
		return nil
	}
	return ecode.NewForbidden("only the project author can view applications")
}

// CanDecideApplication allows the normal PENDING -> ACCEPTED|REJECTED flow.
// Capacity is rechecked by the store at commit time.
func CanDecideApplication(actor *idstructs.Actor, p *structs.Project, app *appstructs.Application) error {
	if err := CanListApplications(actor, p); err != nil {
		if ecode.KindOf(err) == ecode.KindForbidden {
			return ecode.NewForbidden("only the project author can decide applications")
		}
		return err
	}
	if app.Status != appstructs.StatusPending {
		return ecode.NewConflict("application is no longer pending")
	}
	return nil
}

// CanWithdrawApplication allows the owning student to withdraw while PENDING.
func CanWithdrawApplication(actor *idstructs.Actor, app *appstructs.Application) error {
	if app == nil || (!actor.IsSuperAdmin() && app.TenantID != actor.Scope.TenantID) {
		return errApplicationNotFound
	}
	if app.StudentID != actor.ID {
		return ecode.NewForbidden("only the applicant can withdraw an application")
	}
	if app.Status != appstructs.StatusPending {
		return ecode.NewConflict("only pending applications can be withdrawn")
	}
	return nil
}

// CanUseCollaboration gates tasks, comments and attachments on membership.
// Members keep access within their tenant even when the project is later
// hidden from the student view, for example by a reopen or a department
// change. In-scope admins may read without being members.
func CanUseCollaboration(actor *idstructs.Actor, p *structs.Project, member, write bool) error {
	if p == nil || (!actor.IsSuperAdmin() && p.TenantID != actor.Scope.TenantID) {
		return errProjectNotFound
	}
	if member || p.AuthorID == actor.ID {
		return nil
	}
	if err := CanViewProject(actor, p); err != nil {
		return err
	}
	if !write && InAdminScope(actor, p.TenantID) {
		return nil
	}
	return ecode.NewForbidden("project members only")
}

// CanMutateTask is field aware: the author may change anything, an assignee
// may change only status. A nil task means creation.
func CanMutateTask(actor *idstructs.Actor, p *structs.Project, t *taskstructs.Task, member bool, fields []string) error {
	if err := CanUseCollaboration(actor, p, member, true); err != nil {
		return err
	}
	if p.AuthorID == actor.ID {
		return nil
	}
	if t == nil {
		return ecode.NewForbidden("only the project author can manage tasks")
	}
	if !t.AssignedTo(actor.ID) {
		return ecode.NewForbidden("task is not assigned to you")
	}
	for _, f := range fields {
		if f != "status" {
			return ecode.NewForbidden("only the task status can be changed by the assignee")
		}
	}
	return nil
}

// CanDeleteAttachment allows the uploader or the project author.
func CanDeleteAttachment(actor *idstructs.Actor, p *structs.Project, a *attstructs.Attachment, member bool) error {
	if err := CanUseCollaboration(actor, p, member, true); err != nil {
		return err
	}
	if a.UploaderID == actor.ID || p.AuthorID == actor.ID {
		return nil
	}
	return ecode.NewForbidden("only the uploader or project author can delete this file")
}

// InAdminScope reports whether actor administers tenantID.
func InAdminScope(actor *idstructs.Actor, tenantID string) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	return actor.HasRole(idstructs.RoleHeadAdmin) && actor.Scope.TenantID != "" && actor.Scope.TenantID == tenantID
}

// AdminTenantFilter returns the tenant every admin query is restricted to.
// Empty means all tenants (SUPER_ADMIN).
func AdminTenantFilter(actor *idstructs.Actor) (string, error) {
	if !actor.IsAdmin() {
		return "", ecode.NewForbidden("admin role required")
	}
	if actor.IsSuperAdmin() {
		return "", nil
	}
	if actor.Scope.TenantID == "" {
		return "", errIncompleteProfile
	}
	return actor.Scope.TenantID, nil
}

// CanAdminister denies single-entity admin actions outside the actor's
// tenant scope.
func CanAdminister(actor *idstructs.Actor, tenantID string) error {
	if _, err := AdminTenantFilter(actor); err != nil {
		return err
	}
	if !InAdminScope(actor, tenantID) {
		return ecode.NewForbidden("entity is outside your tenant scope")
	}
	return nil
}
