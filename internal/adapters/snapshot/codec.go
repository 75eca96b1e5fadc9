// Package snapshot persists reconciled star and issue lists per repository
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ghrepostats/internal/core/reconcile"
)

// Version is written into every document; anything else is discarded on read
const Version = 2

// isoLayout renders UTC as +00:00 rather than Z
const isoLayout = "2006-01-02T15:04:05.999999999-07:00"

// Kind names the statistic a snapshot belongs to; it is also the file stem
type Kind string

// Snapshot kinds
const (
	KindStars  Kind = "Stars"
	KindIssues Kind = "Issues"
)

// Key addresses one snapshot
type Key struct {
	Owner string
	Name  string
	Kind  Kind
}

// ParseKey splits "owner/name"
func ParseKey(fullName string, kind Kind) (Key, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Key{}, fmt.Errorf("invalid repository name %q", fullName)
	}
	return Key{Owner: owner, Name: name, Kind: kind}, nil
}

// Repo returns "owner/name"
func (k Key) Repo() string { return k.Owner + "/" + k.Name }

func (k Key) String() string { return k.Repo() + ":" + string(k.Kind) }

// ErrStale marks a document that must be ignored: old version, naive timestamps or garbage
var ErrStale = errors.New("snapshot: stale or unreadable document")

var errNaive = errors.New("timestamp without zone")

type isoTime struct{ time.Time }

type isoWire struct {
	ISO string `json:"iso"`
}

func (t isoTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(isoWire{ISO: t.Time.Format(isoLayout)})
}

func (t *isoTime) UnmarshalJSON(b []byte) error {
	var w isoWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, w.ISO)
	if err != nil {
		if _, naive := time.Parse("2006-01-02T15:04:05.999999999", w.ISO); naive == nil {
			return errNaive
		}
		return err
	}
	t.Time = ts
	return nil
}

func optTime(t *time.Time) *isoTime {
	if t == nil {
		return nil
	}
	return &isoTime{*t}
}

func (t *isoTime) ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

type document[T any] struct {
	Version int      `json:"version"`
	Since   *isoTime `json:"since"`
	Data    []T      `json:"data"`
}

type starWire struct {
	StarredAt isoTime `json:"starred_at"`
	ID        int64   `json:"id"`
	Login     string  `json:"login,omitempty"`
}

type issueWire struct {
	Number    int      `json:"number"`
	CreatedAt isoTime  `json:"created_at"`
	ClosedAt  *isoTime `json:"closed_at"`
	IsPR      bool     `json:"is_pr"`
	State     string   `json:"state"`
}

// Stars is a decoded star snapshot
type Stars struct {
	Since *time.Time
	Stars []reconcile.Star
}

// Issues is a decoded issue snapshot
type Issues struct {
	Since  *time.Time
	Issues []reconcile.Issue
}

// EncodeStars renders the versioned JSON document
func EncodeStars(s Stars) ([]byte, error) {
	doc := document[starWire]{Version: Version, Since: optTime(s.Since), Data: make([]starWire, len(s.Stars))}
	for i, st := range s.Stars {
		doc.Data[i] = starWire{StarredAt: isoTime{st.StarredAt}, ID: st.UserID, Login: st.Login}
	}
	return encode(doc)
}

// DecodeStars parses a document; ErrStale means start from scratch
func DecodeStars(b []byte) (Stars, error) {
	doc, err := decode[starWire](b)
	if err != nil {
		return Stars{}, err
	}
	out := Stars{Since: doc.Since.ptr(), Stars: make([]reconcile.Star, len(doc.Data))}
	for i, w := range doc.Data {
		out.Stars[i] = reconcile.Star{StarredAt: w.StarredAt.Time, UserID: w.ID, Login: w.Login}
	}
	return out, nil
}

// EncodeIssues renders the versioned JSON document
func EncodeIssues(s Issues) ([]byte, error) {
	doc := document[issueWire]{Version: Version, Since: optTime(s.Since), Data: make([]issueWire, len(s.Issues))}
	for i, is := range s.Issues {
		doc.Data[i] = issueWire{
			Number:    is.Number,
			CreatedAt: isoTime{is.CreatedAt},
			ClosedAt:  optTime(is.ClosedAt),
			IsPR:      is.IsPR,
			State:     is.State,
		}
	}
	return encode(doc)
}

// DecodeIssues parses a document; ErrStale means start from scratch
func DecodeIssues(b []byte) (Issues, error) {
	doc, err := decode[issueWire](b)
	if err != nil {
		return Issues{}, err
	}
	out := Issues{Since: doc.Since.ptr(), Issues: make([]reconcile.Issue, len(doc.Data))}
	for i, w := range doc.Data {
		out.Issues[i] = reconcile.Issue{
			Number:    w.Number,
			CreatedAt: w.CreatedAt.Time,
			ClosedAt:  w.ClosedAt.ptr(),
			IsPR:      w.IsPR,
			State:     w.State,
		}
	}
	return out, nil
}

func encode[T any](doc document[T]) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", " ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode[T any](b []byte) (document[T], error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return document[T]{}, fmt.Errorf("%w: %v", ErrStale, err)
	}
	if probe.Version != Version {
		return document[T]{}, fmt.Errorf("%w: version %d", ErrStale, probe.Version)
	}
	var doc document[T]
	if err := json.Unmarshal(b, &doc); err != nil {
		return document[T]{}, fmt.Errorf("%w: %v", ErrStale, err)
	}
	return doc, nil
}
