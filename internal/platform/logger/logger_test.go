package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	kit "ghrepostats/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestParseLevel_AllBranches(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"   nonsense   ", zerolog.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestInit_Named_C_Verbose(t *testing.T) {
	var buf bytes.Buffer

	Init(Options{
		Level:        "info",
		Format:       "console",
		Component:    "root",
		Writer:       &buf,
		StaticFields: map[string]string{"build": "test"},
	})

	Get().Info().Str("k", "v").Msg("root-msg")
	Named("github").Info().Msg("named-msg")

	ctx := WithRepo(context.Background(), "owner/repo", "stars")
	ctx = WithRequest(ctx, "req-123")
	C(ctx).Info().Msg("ctx-msg")

	Get().Debug().Msg("hidden-debug")
	Verbose(true)
	Get().Debug().Msg("shown-debug")
	Verbose(false)
	Get().Debug().Msg("hidden-again")

	out := buf.String()
	kit.MustContain(t, out, "root-msg")
	kit.MustContain(t, out, "named-msg")
	kit.MustContain(t, out, "github")
	kit.MustContain(t, out, "ctx-msg")
	kit.MustContain(t, out, "owner/repo")
	kit.MustContain(t, out, "req-123")
	kit.MustContain(t, out, "build=")
	kit.MustContain(t, out, "shown-debug")
	if strings.Contains(out, "hidden-debug") || strings.Contains(out, "hidden-again") {
		t.Fatalf("debug lines leaked at info level:\n%s", out)
	}
}

func TestFromEnv_Independently(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_COMPONENT", "cli")
	t.Setenv("LOG_CALLER", "true")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || opt.Component != "cli" || !opt.WithCaller {
		t.Fatalf("FromEnv fields mismatch: %+v", opt)
	}
}

func TestWithRepo_EmptyValues(t *testing.T) {
	ctx := context.Background()
	if WithRepo(ctx, "", "") != ctx {
		t.Fatalf("empty values should not wrap ctx")
	}
	if WithRequest(ctx, "") != ctx {
		t.Fatalf("empty request id should not wrap ctx")
	}
}
