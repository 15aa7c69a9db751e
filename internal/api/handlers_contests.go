// CodeNotify - Competitive Programming Contest Aggregator
// Copyright 2026 Yash K. Singh (yksingh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yksingh/codenotify

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yksingh/codenotify/internal/database"
	"github.com/yksingh/codenotify/internal/models"
	"github.com/yksingh/codenotify/internal/validation"
)

// ListContests handles GET /api/v1/contests.
// Supports platform, phase, limit and offset query parameters.
func (h *Handler) ListContests(w http.ResponseWriter, r *http.Request) {
	h.listContests(w, r, false)
}

// UpcomingContests handles GET /api/v1/contests/upcoming: active contests
// that have not started yet, soonest first.
func (h *Handler) UpcomingContests(w http.ResponseWriter, r *http.Request) {
	h.listContests(w, r, true)
}

func (h *Handler) listContests(w http.ResponseWriter, r *http.Request, upcoming bool) {
	rw := NewResponseWriter(w, r)

	req := ContestListRequest{
		Platform: r.URL.Query().Get("platform"),
		Phase:    r.URL.Query().Get("phase"),
		Limit:    h.pageLimit(getIntParam(r, "limit", 0)),
		Offset:   getIntParam(r, "offset", 0),
	}
	if err := validation.ValidateStruct(&req); err != nil {
		apiErr := err.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	filter := database.ContestFilter{
		Phase:    models.Phase(req.Phase),
		Upcoming: upcoming,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.Platform != "" {
		// Validated above, so the parse cannot fail.
		filter.Platform, _ = models.ParsePlatform(req.Platform)
	}
	if upcoming {
		// Upcoming already implies the BEFORE phase.
		filter.Phase = ""
	}

	contests, err := h.store.ListContests(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(contests, &PaginationMeta{
		Count:   len(contests),
		Offset:  req.Offset,
		Limit:   req.Limit,
		HasMore: len(contests) == req.Limit,
	})
}

// GetContest handles GET /api/v1/contests/{id}.
func (h *Handler) GetContest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		rw.BadRequest("Contest id must be a positive integer")
		return
	}

	contest, err := h.store.GetContestByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Contest not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(contest)
}
