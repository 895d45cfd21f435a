package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/cinedex/internal/authz"
	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/internal/config"
	"github.com/me/cinedex/internal/server"
	"github.com/me/cinedex/internal/store"
	"github.com/me/cinedex/internal/ui"
	"github.com/me/cinedex/pkg/model"
)

// startTestServer starts a server with an in-memory SQLite store, seeds a
// few movies and an admin account, and returns the URL.
func startTestServer(t *testing.T) (string, *catalog.Service) {
	t.Helper()
	srvLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.NewSQLiteStore(":memory:", srvLogger)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := catalog.New(st, catalog.Options{}, srvLogger)
	ctx := context.Background()
	if err := svc.EnsureAdmin(ctx, "root:rootpassword"); err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"Alien", "Brazil", "Casablanca"} {
		if err := svc.Save(ctx, &model.Movie{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	enf, err := authz.NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultServerConfig()
	cfg.RateLimit.Requests = 0
	srv := server.New(cfg, svc, ui.NewSessionManager(st, srvLogger), enf, srvLogger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	// Credentials are written under a throwaway home directory.
	t.Setenv("HOME", t.TempDir())
	return ts.URL, svc
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestListCommand_SortedDesc(t *testing.T) {
	url, _ := startTestServer(t)

	out, err := runCLI(t, "--server", url, "list", "movies", "--sort", "title", "--desc", "--page-size", "2")
	if err != nil {
		t.Fatalf("list error: %v\noutput: %s", err, out)
	}
	c, b := strings.Index(out, "Casablanca"), strings.Index(out, "Brazil")
	if c < 0 || b < 0 || c > b {
		t.Errorf("expected Casablanca before Brazil:\n%s", out)
	}
	if strings.Contains(out, "Alien") {
		t.Errorf("page 1 of size 2 includes Alien:\n%s", out)
	}
	if !strings.Contains(out, "Page 1 of 2 (3 total)") {
		t.Errorf("missing page footer:\n%s", out)
	}
}

func TestListCommand_Search(t *testing.T) {
	url, _ := startTestServer(t)

	out, err := runCLI(t, "--server", url, "list", "movies", "--search", "BRAZ")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if !strings.Contains(out, "Brazil") || strings.Contains(out, "Alien") {
		t.Errorf("search output:\n%s", out)
	}
}

func TestListCommand_UnknownKind(t *testing.T) {
	url, _ := startTestServer(t)

	_, err := runCLI(t, "--server", url, "list", "awards")
	if err == nil || !strings.Contains(err.Error(), string(model.ErrUnsupportedEntity)) {
		t.Fatalf("err = %v, want UNSUPPORTED_ENTITY", err)
	}
}

func TestGetCommand(t *testing.T) {
	url, svc := startTestServer(t)
	m := &model.Movie{Title: "Heat", ReleaseYear: 1995}
	if err := svc.Save(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "--server", url, "get", "movie", m.ID)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if !strings.Contains(out, `"title": "Heat"`) || !strings.Contains(out, `"release_year": 1995`) {
		t.Errorf("get output:\n%s", out)
	}

	if _, err := runCLI(t, "--server", url, "get", "movies", "missing"); err == nil {
		t.Error("expected error for missing movie")
	}
}

func TestLoginInvalidateLogout(t *testing.T) {
	url, _ := startTestServer(t)

	if _, err := runCLI(t, "--server", url, "invalidate", "movies"); err == nil ||
		!strings.Contains(err.Error(), string(model.ErrUnauthorized)) {
		t.Fatalf("anonymous invalidate err = %v, want UNAUTHORIZED", err)
	}

	out, err := runCLI(t, "--server", url, "login", "--username", "root", "--password", "rootpassword")
	if err != nil {
		t.Fatalf("login error: %v\n%s", err, out)
	}
	if LoadToken() == "" {
		t.Fatal("session not stored")
	}

	out, err = runCLI(t, "--server", url, "invalidate", "movies")
	if err != nil {
		t.Fatalf("invalidate error: %v", err)
	}
	if !strings.Contains(out, `Invalidated cache tag "movies"`) {
		t.Errorf("invalidate output: %s", out)
	}

	if _, err := runCLI(t, "--server", url, "logout"); err != nil {
		t.Fatalf("logout error: %v", err)
	}
	credPath, _ := credentialsPath()
	if _, err := os.Stat(credPath); !os.IsNotExist(err) {
		t.Errorf("credentials still present at %s", filepath.Base(credPath))
	}
}

func TestLoginCommand_BadPassword(t *testing.T) {
	url, _ := startTestServer(t)
	_, err := runCLI(t, "--server", url, "login", "--username", "root", "--password", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if LoadToken() != "" {
		t.Error("failed login stored a session")
	}
}

func TestListOptionsValues(t *testing.T) {
	tests := []struct {
		name string
		opts ListOptions
		want string
	}{
		{"empty", ListOptions{}, ""},
		{"page", ListOptions{Page: 2, PageSize: 5}, "page=2&pageSize=5"},
		{"sort asc", ListOptions{Sort: "title"}, "seriesAscOrDesc=asc&seriesSortBy=title"},
		{"sort desc", ListOptions{Sort: "title", Desc: true}, "seriesAscOrDesc=desc&seriesSortBy=title"},
		{"desc without sort", ListOptions{Desc: true}, ""},
		{"search", ListOptions{Search: "the wire"}, "search=the+wire"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Values("series").Encode(); got != tt.want {
				t.Errorf("Values = %q, want %q", got, tt.want)
			}
		})
	}
}
