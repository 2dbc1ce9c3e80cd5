package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandler_PlainLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}, false))
	log.Info("http.request",
		"method", "post",
		"path", "/api/auth/login",
		"status", 401,
		"status_class", "4xx",
		"duration_ms", int64(12),
		"user_agent", "curl 8.0",
	)

	out := buf.String()
	for _, want := range []string{
		"lvl=[INFO]",
		"msg=http.request",
		"method=POST",
		"path=/api/auth/login",
		"status=401",
		"class=4xx",
		"duration=12ms",
		`user_agent="curl 8.0"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected ANSI escape in %q", out)
	}
}

func TestPrettyHandler_Color(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, true))
	log.Error("store.close.fail", "status", 503)

	out := buf.String()
	if !strings.Contains(out, ansiRed+"[ERROR]"+ansiReset) {
		t.Fatalf("error tag not red: %q", out)
	}
	if !strings.Contains(out, ansiRed+"503"+ansiReset) {
		t.Fatalf("5xx status not red: %q", out)
	}
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, false)).
		With("component", "store").
		WithGroup("db")
	log.Info("ready", "kind", "postgres")

	out := buf.String()
	if !strings.Contains(out, " component=store") || strings.Contains(out, "db.component") {
		t.Fatalf("attr added before the group must stay unqualified: %q", out)
	}
	if !strings.Contains(out, "db.kind=postgres") {
		t.Fatalf("missing grouped attr: %q", out)
	}
}

func TestPrettyHandler_LevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, false))
	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("level filter not applied: %q", out)
	}
}
