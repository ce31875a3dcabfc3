package api

import (
	"encoding/json"
	"net/http"

	"noticeboard/pkg/utils"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Username == "" || req.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "username and password required")
		return
	}
	token, id, err := a.auth.Login(req.Username, req.Password)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, loginResponse{Token: token, ID: id.ID, Name: id.Name, Role: id.Role})
}
