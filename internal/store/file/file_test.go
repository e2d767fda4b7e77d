package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hamed0406/sitenotifier/internal/domain"
)

const exampleList = `[{"url":"https://example.com","name":"Example","enabled":true,"channel_webhook":"https://hooks.example/A","currentStatus":"active","failed_timestamp":null,"notes":"keep me"},
{"url":"https://down.example","name":"Down","enabled":true,"currentStatus":"failed","failed_timestamp":1700000000},
{"url":"https://off.example","name":"Off","enabled":false,"owner":{"team":"ops"}}]`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestFileStore_LoadSaveKeepsOrderAndExtras(t *testing.T) {
	ctx := context.Background()
	p := writeFile(t, "sites.json", exampleList)
	s := New(p)

	sites, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sites) != 3 {
		t.Fatalf("want 3 sites, got %d", len(sites))
	}

	ts := int64(1700000100)
	sites[0].CurrentStatus = domain.StatusFailed
	sites[0].FailedTimestamp = &ts
	if err := s.Save(ctx, sites); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	for i, want := range []string{"https://example.com", "https://down.example", "https://off.example"} {
		if back[i].URL != want {
			t.Fatalf("order changed: position %d is %s", i, back[i].URL)
		}
	}
	if back[0].FailedTimestamp == nil || *back[0].FailedTimestamp != ts {
		t.Fatalf("updated timestamp not persisted: %+v", back[0])
	}
	if string(back[0].Extra["notes"]) != `"keep me"` {
		t.Fatalf("extra field lost: %+v", back[0].Extra)
	}
	var owner map[string]string
	if err := json.Unmarshal(back[2].Extra["owner"], &owner); err != nil || owner["team"] != "ops" {
		t.Fatalf("nested extra lost: %s", back[2].Extra["owner"])
	}

	fi, err := os.Stat(p)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("file mode not preserved: %v", fi.Mode().Perm())
	}
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(p), ".sites-*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestFileStore_YAML(t *testing.T) {
	ctx := context.Background()
	p := writeFile(t, "sites.yaml", `
- url: https://example.com
  name: Example
  enabled: true
  region: eu
`)
	s := New(p)
	if s.Format != YAML {
		t.Fatalf("want YAML format for .yaml")
	}

	sites, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sites[0].CurrentStatus = domain.StatusActive
	if err := s.Save(ctx, sites); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := os.ReadFile(p)
	if !strings.Contains(string(raw), "currentStatus: active") || !strings.Contains(string(raw), "region: eu") {
		t.Fatalf("unexpected yaml output:\n%s", raw)
	}
}

func TestFileStore_YAMLKeepsDatesAndLargeIntegers(t *testing.T) {
	ctx := context.Background()
	p := writeFile(t, "sites.yml", `- url: https://example.com
  name: Example
  enabled: true
  added: 2024-01-02
  id: 9007199254740993
`)
	s := New(p)
	sites, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Save(ctx, sites); err != nil {
		t.Fatalf("Save unchanged: %v", err)
	}
	sites[0].CurrentStatus = domain.StatusFailed
	if err := s.Save(ctx, sites); err != nil {
		t.Fatalf("Save changed: %v", err)
	}

	raw, _ := os.ReadFile(p)
	for _, want := range []string{"added: 2024-01-02\n", "id: 9007199254740993\n", "currentStatus: failed"} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("missing %q in:\n%s", want, raw)
		}
	}
}

func TestFileStore_EmptyFileIsEmptyList(t *testing.T) {
	p := writeFile(t, "sites.json", "  \n")
	sites, err := New(p).Load(context.Background())
	if err != nil || len(sites) != 0 {
		t.Fatalf("want empty list, got %v err=%v", sites, err)
	}
}

func TestFileStore_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := New(filepath.Join(t.TempDir(), "missing.json")).Load(ctx); err == nil {
		t.Fatal("want error for missing file")
	}

	p := writeFile(t, "bad.json", `{"not":"a list"`)
	if _, err := New(p).Load(ctx); err == nil {
		t.Fatal("want parse error")
	}

	s := New(filepath.Join(t.TempDir(), "no-such-dir", "sites.json"))
	if err := s.Save(ctx, []domain.Site{{URL: "https://x"}}); err == nil {
		t.Fatal("want error when directory does not exist")
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[string]Format{
		"sites.json": JSON,
		"sites.YML":  YAML,
		"a/b.yaml":   YAML,
		"sites":      JSON,
	}
	for in, want := range cases {
		if got := FormatFor(in); got != want {
			t.Fatalf("FormatFor(%q)=%v want %v", in, got, want)
		}
	}
}
