package realtime

import (
	"context"
	"testing"

	"github.com/ncobase/collab/config"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
)

func actor(id string, role idstructs.Role, tenant, dept string) *idstructs.Actor {
	return &idstructs.Actor{ID: id, Roles: []idstructs.Role{role}, Scope: idstructs.Scope{TenantID: tenant, Department: dept}}
}

// attach registers a connectionless client so routing can be inspected.
func attach(h *Hub, a *idstructs.Actor) *Client {
	c := newClient(h, nil, a, &config.Realtime{SendBuffer: 16}, logger.NewNop())
	h.register(c)
	return c
}

func drain(c *Client) []string {
	var out []string
	for {
		select {
		case b := <-c.send:
			out = append(out, string(b))
		default:
			return out
		}
	}
}

func TestDeliverRouting(t *testing.T) {
	h := NewHub(logger.NewNop())
	faculty := attach(h, actor("f1", idstructs.RoleFaculty, "T1", "CS"))
	eeFaculty := attach(h, actor("f2", idstructs.RoleFaculty, "T1", "EE"))
	cs := attach(h, actor("s1", idstructs.RoleStudent, "T1", "CS"))
	ee := attach(h, actor("s2", idstructs.RoleStudent, "T1", "EE"))
	head := attach(h, actor("h1", idstructs.RoleHeadAdmin, "T1", ""))
	other := attach(h, actor("s3", idstructs.RoleStudent, "T2", "CS"))

	tests := []struct {
		name string
		ev   *event.Event
		want map[*Client]int
	}{
		{
			name: "cs only project",
			ev: &event.Event{Type: event.EventTypeProjectUpdated, TenantID: "T1",
				Audience: event.ProjectAudience(false, []string{"CS"}, true)},
			want: map[*Client]int{faculty: 1, eeFaculty: 0, cs: 1, ee: 0, head: 1, other: 0},
		},
		{
			name: "cs only project awaiting approval",
			ev: &event.Event{Type: event.EventTypeNewProject, TenantID: "T1",
				Audience: event.ProjectAudience(false, []string{"CS"}, false)},
			want: map[*Client]int{faculty: 1, eeFaculty: 0, cs: 0, ee: 0, head: 1, other: 0},
		},
		{
			name: "all departments",
			ev: &event.Event{Type: event.EventTypeProjectUpdated, TenantID: "T1",
				Audience: event.ProjectAudience(true, nil, true)},
			want: map[*Client]int{faculty: 1, eeFaculty: 1, cs: 1, ee: 1, head: 1, other: 0},
		},
		{
			name: "pending project reaches staff only",
			ev: &event.Event{Type: event.EventTypeNewProject, TenantID: "T1",
				Audience: event.ProjectAudience(true, nil, false)},
			want: map[*Client]int{faculty: 1, eeFaculty: 1, cs: 0, ee: 0, head: 1, other: 0},
		},
		{
			name: "approval news for students",
			ev: &event.Event{Type: event.EventTypeNewProject, TenantID: "T1",
				Audience: event.Audience{Tenant: true, Departments: []string{"CS"}, StudentsOnly: true}},
			want: map[*Client]int{faculty: 0, eeFaculty: 0, cs: 1, ee: 0, head: 0, other: 0},
		},
		{
			name: "application event",
			ev: &event.Event{Type: event.EventTypeNewApplication, TenantID: "T1",
				Audience: event.Audience{ApplicationsOf: "f1"}},
			want: map[*Client]int{faculty: 1, eeFaculty: 0, cs: 0, ee: 0, head: 0, other: 0},
		},
		{
			name: "members with overlap",
			ev: &event.Event{Type: event.EventTypeTaskCreated, TenantID: "T1",
				Audience: event.Audience{Users: []string{"f1", "s2", "f1"}}},
			want: map[*Client]int{faculty: 1, eeFaculty: 0, cs: 0, ee: 1, head: 0, other: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.Deliver(context.Background(), tt.ev)
			for c, n := range tt.want {
				if got := len(drain(c)); got != n {
					t.Errorf("client %s received %d, want %d", c.userID, got, n)
				}
			}
		})
	}
}

func TestChannelsFor(t *testing.T) {
	got := ChannelsFor(actor("f1", idstructs.RoleFaculty, "T1", "CS"))
	want := []string{"tenant:T1", "tenant:T1:dept:CS", "user:f1", "user:f1:applications"}
	if len(got) != len(want) {
		t.Fatalf("channels = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("channels = %v, want %v", got, want)
		}
	}

	if got := ChannelsFor(actor("s1", idstructs.RoleStudent, "", "")); len(got) != 1 || got[0] != "user:s1" {
		t.Fatalf("channels without scope = %v", got)
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	h := NewHub(logger.NewNop())
	c := attach(h, actor("s1", idstructs.RoleStudent, "T1", "CS"))
	h.unregister(c)
	h.unregister(c)

	n := h.Deliver(context.Background(), &event.Event{Type: event.EventTypeProjectUpdated, TenantID: "T1",
		Audience: event.ProjectAudience(true, nil, true)})
	if n != 0 {
		t.Fatalf("delivered %d after unregister", n)
	}
	if stats := h.Stats(); stats["total_clients"] != 0 || stats["total_channels"] != 0 {
		t.Fatalf("stats = %v", stats)
	}
}
