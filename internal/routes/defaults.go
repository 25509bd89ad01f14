package routes

import (
	"errors"
	"net/http"

	"github.com/ntentasd/kolam-api/internal/dashboard"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/ntentasd/kolam-api/pkg/utils"
)

type setDefaultsRequest struct {
	Reason     string                   `json:"reason"`
	Parameters []types.OptimalParameter `json:"parameters"`
}

func (app *App) defaultRangesHandler(w http.ResponseWriter, r *http.Request) {
	rngs, err := app.Dashboard.DefaultRanges(r.Context())
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": rngs,
	})
}

func (app *App) setDefaultRangesHandler(w http.ResponseWriter, r *http.Request) {
	var req setDefaultsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}
	if len(req.Parameters) == 0 {
		utils.ReplyBadRequest(w, "parameters are required")
		return
	}

	rngs, err := app.Dashboard.SetDefaultRanges(r.Context(), req.Reason, req.Parameters)
	if err != nil {
		if isRangeInputError(err) {
			utils.ReplyBadRequest(w, err.Error())
			return
		}
		app.logger.Error().Err(err).Msg("set default ranges")
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": rngs,
	})
}

func isRangeInputError(err error) bool {
	var rangeErr *dashboard.RangeError
	return errors.As(err, &rangeErr) ||
		errors.Is(err, dashboard.ErrReasonRequired) ||
		errors.Is(err, dashboard.ErrReservedPond) ||
		errors.Is(err, types.ErrInvalidParameter)
}
