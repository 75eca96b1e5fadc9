package snapshot

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ghrepostats/internal/core/reconcile"
	kit "ghrepostats/internal/platform/testkit"
)

func TestEncodeStars_Layout(t *testing.T) {
	b, err := EncodeStars(Stars{Stars: []reconcile.Star{{StarredAt: kit.Day(2000, time.January, 1), UserID: 24, Login: "user"}}})
	if err != nil {
		t.Fatal(err)
	}
	var raw struct {
		Version int             `json:"version"`
		Since   json.RawMessage `json:"since"`
		Data    []struct {
			StarredAt struct {
				ISO string `json:"iso"`
			} `json:"starred_at"`
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw.Version != Version || string(raw.Since) != "null" {
		t.Fatalf("header = %d %s", raw.Version, raw.Since)
	}
	if len(raw.Data) != 1 || raw.Data[0].StarredAt.ISO != "2000-01-01T00:00:00+00:00" || raw.Data[0].ID != 24 {
		t.Fatalf("data = %+v", raw.Data)
	}
}

func TestStarsRoundTripKeepsZone(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	since := time.Date(2021, 3, 4, 5, 6, 7, 0, cet)
	in := Stars{Since: &since, Stars: []reconcile.Star{{StarredAt: since.Add(-time.Hour), UserID: 1}}}

	b, err := EncodeStars(in)
	if err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, string(b), `"iso": "2021-03-04T05:06:07+01:00"`)

	out, err := DecodeStars(b)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Since.Equal(since) || !out.Stars[0].StarredAt.Equal(in.Stars[0].StarredAt) {
		t.Fatalf("round trip mismatch %+v", out)
	}
}

func TestIssuesRoundTrip(t *testing.T) {
	closed := kit.At(t, "2000-01-04T00:00:00Z")
	in := Issues{Issues: []reconcile.Issue{
		{Number: 1, CreatedAt: kit.At(t, "2000-01-01T00:00:00Z"), State: "open"},
		{Number: 2, CreatedAt: kit.At(t, "2000-01-02T00:00:00Z"), ClosedAt: &closed, IsPR: true, State: "closed"},
	}}
	b, err := EncodeIssues(in)
	if err != nil {
		t.Fatal(err)
	}
	kit.MustContain(t, string(b), `"closed_at": null`)
	kit.MustContain(t, string(b), `"is_pr": true`)

	out, err := DecodeIssues(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Issues) != 2 || out.Issues[0].ClosedAt != nil || !out.Issues[1].ClosedAt.Equal(closed) || !out.Issues[1].IsPR {
		t.Fatalf("round trip mismatch %+v", out.Issues)
	}
}

func TestDecodeStale(t *testing.T) {
	tests := map[string]string{
		"legacy without version": `{"since": null, "data": [{"starred_at": {"iso": "2000-01-01T00:00:00+00:00"}, "id": 24}]}`,
		"future version":         `{"version": 3, "since": null, "data": []}`,
		"naive timestamp":        `{"version": 2, "since": null, "data": [{"number": 1, "created_at": {"iso": "2000-01-01T00:00:00"}, "closed_at": null, "is_pr": false, "state": "open"}]}`,
		"naive since":            `{"version": 2, "since": {"iso": "2000-01-01T00:00:00"}, "data": []}`,
		"garbage":                `{"version": 2, "data": [`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeIssues([]byte(doc)); !errors.Is(err, ErrStale) {
				t.Fatalf("want ErrStale, got %v", err)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("pytest-dev/pyfakefs", KindStars)
	if err != nil || k.Owner != "pytest-dev" || k.Name != "pyfakefs" || k.Repo() != "pytest-dev/pyfakefs" {
		t.Fatalf("ParseKey = %+v, %v", k, err)
	}
	for _, bad := range []string{"", "owner", "/name", "owner/", "a/b/c"} {
		if _, err := ParseKey(bad, KindStars); err == nil {
			t.Fatalf("ParseKey(%q) should fail", bad)
		}
	}
}
