package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ntentasd/kolam-api/internal/dashboard"
	"github.com/ntentasd/kolam-api/internal/db"
	"github.com/ntentasd/kolam-api/internal/ranges"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/ntentasd/kolam-api/pkg/utils"
)

func (app *App) listPondsHandler(w http.ResponseWriter, r *http.Request) {
	ponds, err := app.Ponds.ListPonds(r.Context())
	if err != nil {
		app.logger.Error().Err(err).Msg("list ponds")
		utils.ReplyInternalServerError(w, err.Error())
		return
	}
	if ponds == nil {
		ponds = []types.Pond{}
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": ponds,
	})
}

func (app *App) pondHandler(w http.ResponseWriter, r *http.Request) {
	pond, err := app.Ponds.GetPond(r.Context(), r.PathValue("pond"))
	if err != nil {
		if errors.Is(err, db.ErrPondNotFound) {
			utils.ReplyNotFound(w, err.Error())
			return
		}
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": pond,
	})
}

func (app *App) registerPondHandler(w http.ResponseWriter, r *http.Request) {
	var req types.Pond
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	req.PondID = strings.TrimSpace(req.PondID)
	if req.PondID == "" {
		utils.ReplyBadRequest(w, "pond_id is required")
		return
	}
	if req.PondID == ranges.GlobalPondID {
		utils.ReplyBadRequest(w, dashboard.ErrReservedPond.Error())
		return
	}

	pond, err := app.Ponds.RegisterPond(r.Context(), req.PondID, req.PondName)
	if err != nil {
		if errors.Is(err, &db.PondAlreadyExistsError{}) {
			utils.ReplyJSON(w, http.StatusConflict, utils.Body{"error": err.Error()})
			return
		}
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusCreated, utils.Body{
		"data": pond,
	})
}
