package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"trust-multisig/internal/config"
	"trust-multisig/internal/model"

	"go.uber.org/multierr"
)

const maxEventPage = 500

// getEvents pages through the stored notification log: ?after=<sequence>&limit=<n>.
func (ser *server) getEvents(w http.ResponseWriter, r *http.Request) {
	after, limit, err := eventsQuery(r)
	if err != nil {
		ser.badRequest(w, r, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	stored, err := ser.app.Events(ctx, after, limit)
	if err != nil {
		ser.engineError(w, r, err)
		return
	}
	if stored == nil {
		stored = []model.Event{}
	}
	ser.writeJSON(w, http.StatusOK, stored)
}

func eventsQuery(r *http.Request) (uint64, int, error) {
	query := r.URL.Query()
	var after uint64
	limit := maxEventPage
	var err error

	if param := normalize(query.Get("after")); param != "" {
		value, parseErr := strconv.ParseUint(param, 10, 64)
		if parseErr != nil {
			err = multierr.Append(err, errors.New("after must be a non-negative integer"))
		}
		after = value
	}
	if param := normalize(query.Get("limit")); param != "" {
		value, parseErr := strconv.Atoi(param)
		if parseErr != nil || value <= 0 {
			err = multierr.Append(err, errors.New("limit must be a positive integer"))
		}
		if value < limit {
			limit = value
		}
	}
	return after, limit, err
}
