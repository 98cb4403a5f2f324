package nanoid

import "testing"

func TestPrimaryKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := PrimaryKey()
		if !IsPrimaryKey(id) {
			t.Fatalf("IsPrimaryKey(%q) = false", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIsPrimaryKey(t *testing.T) {
	cases := map[string]bool{
		"":                  false,
		"short":             false,
		"abcdefghijklmnop":  true,
		"abcdefghijklmno!":  false,
		"abcdefghijklmnopq": false,
	}
	for in, want := range cases {
		if got := IsPrimaryKey(in); got != want {
			t.Errorf("IsPrimaryKey(%q) = %v, want %v", in, got, want)
		}
	}
}
