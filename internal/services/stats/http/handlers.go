// Package http provides the read-only http transport for cached stats
package http

import (
	"bytes"
	stdhttp "net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ghrepostats/internal/adapters/output"
	phttp "ghrepostats/internal/platform/net/http"
	"ghrepostats/internal/services/stats/domain"
	svc "ghrepostats/internal/services/stats/service"
)

// Register mounts stats endpoints on the given router
func Register(r chi.Router, s svc.Service) {
	h := &handlers{svc: s}

	// series computed from stored snapshots; ?format=json|csv|png
	r.Get("/repos/{owner}/{name}/series/{kind}", h.series)
}

type handlers struct{ svc svc.Service }

// series godoc
// @Summary Series from cached snapshots
// @Description Builds the series for kind from the stored snapshot without calling GitHub
// @Tags Stats
// @Produce json
// @Produce text/csv
// @Produce image/png
// @Param owner path string true "Repository owner"
// @Param name path string true "Repository name"
// @Param kind path string true "Statistic" Enums(stars, issues, prs, issue-lifetime, pr-lifetime)
// @Param format query string false "Output format" Enums(json, csv, png)
// @Success 200 {object} phttp.Envelope{data=domain.SeriesDTO} "ok"
// @Failure 400 {object} phttp.Envelope "invalid owner, name, kind or format"
// @Failure 404 {object} phttp.Envelope "no snapshot or no data points"
// @Router /repos/{owner}/{name}/series/{kind} [get]
func (h *handlers) series(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	q := domain.SeriesQuery{
		Repo:   chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name"),
		Kind:   domain.Kind(strings.ToLower(chi.URLParam(r, "kind"))),
		Format: strings.ToLower(r.URL.Query().Get("format")),
	}
	res, err := h.svc.Cached(r.Context(), q)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	switch q.Format {
	case "csv":
		if err := output.EncodeCSV(&buf, res.Points); err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case "png":
		if err := output.EncodePNG(&buf, output.Title(res.Repo, res.Title), res.Points); err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
	default:
		phttp.RespondOK(w, r, res.ToDTO())
		return
	}
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = buf.WriteTo(w)
}
