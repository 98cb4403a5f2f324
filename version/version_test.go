package version

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	info := Get()
	if info.Version != "1.2.3" || info.GoVersion == "" {
		t.Fatalf("info = %+v", info)
	}
	if !strings.Contains(info.String(), "Version: 1.2.3") {
		t.Fatalf("String() = %q", info.String())
	}
	raw, err := info.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var back Info
	if err := json.Unmarshal([]byte(raw), &back); err != nil || back.Version != "1.2.3" {
		t.Fatalf("JSON() = %s, %v", raw, err)
	}
}
