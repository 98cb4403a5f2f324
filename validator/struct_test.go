package validator

import "testing"

type sampleBody struct {
	Title       string   `json:"title" validate:"required,max=10"`
	MaxStudents int      `json:"max_students" validate:"gte=1"`
	Kind        string   `json:"kind" validate:"omitempty,oneof=A B"`
	Skills      []string `json:"skills" validate:"dive,required"`
}

func TestValidateStruct(t *testing.T) {
	errs := ValidateStruct(&sampleBody{Title: "ok", MaxStudents: 1, Kind: "A"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	errs = ValidateStruct(&sampleBody{MaxStudents: 0, Kind: "C", Skills: []string{""}})
	for _, field := range []string{"title", "max_students", "kind", "skills[0]"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("missing error for %q in %v", field, errs)
		}
	}
	if got := errs["title"]; got != "The field 'title' is required." {
		t.Errorf("title message = %q", got)
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty("  ") || IsEmpty("x") {
		t.Fatal("IsEmpty mismatch")
	}
}
