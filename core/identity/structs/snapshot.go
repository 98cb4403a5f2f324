package structs

// Display is the identity copied onto rows at write time.
type Display struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar,omitempty"`
	Department string `json:"department,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// Snapshot captures the actor's display identity. Every denormalized
// author/student/uploader field is filled from here.
func Snapshot(a *Actor) Display {
	if a == nil {
		return Display{}
	}
	return Display{
		ID:         a.ID,
		Name:       a.Scope.DisplayName,
		Avatar:     a.Scope.Avatar,
		Department: a.Scope.Department,
		Year:       a.Scope.Year,
	}
}
