package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"noticeboard/pkg/auth"
	"noticeboard/pkg/models"
	"noticeboard/pkg/utils"
)

func (a *API) listPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := a.svc.ListPolls()
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Polls []models.Poll `json:"polls"`
	}{Polls: polls})
}

func (a *API) createPoll(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	var req struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	poll, err := a.svc.CreatePoll(actor, req.Question, req.Options)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, poll)
}

func (a *API) vote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptionIndex int `json:"optionIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	poll, err := a.svc.Vote(mux.Vars(r)["id"], req.OptionIndex)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, poll)
}
