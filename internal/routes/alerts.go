package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ntentasd/kolam-api/internal/db"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/ntentasd/kolam-api/pkg/utils"
)

// storedAlertsHandler lists persisted alerts. resolved=false gives the active
// ones; without it the full notification history is returned.
func (app *App) storedAlertsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := types.AlertFilter{PondID: q.Get("pond_id")}

	if s := q.Get("resolved"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			utils.ReplyBadRequest(w, "invalid resolved")
			return
		}
		f.Resolved = &v
	}
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			utils.ReplyBadRequest(w, "invalid limit")
			return
		}
		f.Limit = v
	}

	res, err := app.Dashboard.StoredAlerts(r.Context(), f)
	if err != nil {
		app.logger.Error().Err(err).Msg("stored alerts")
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": res,
	})
}

func (app *App) resolveAlertHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	at, err := app.Dashboard.ResolveAlert(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrAlertNotFound) {
			utils.ReplyNotFound(w, err.Error())
			return
		}
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": utils.Body{
			"id":          id,
			"resolved":    true,
			"resolved_at": at,
		},
	})
}
