package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"noticeboard/pkg/auth"
	"noticeboard/pkg/errors"
	"noticeboard/pkg/models"
	"noticeboard/pkg/service"
	"noticeboard/pkg/utils"
)

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := a.svc.ListMessages()
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Messages []models.Message `json:"messages"`
	}{Messages: msgs})
}

func (a *API) getMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := a.svc.GetMessage(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, msg)
}

// createMessage accepts either a JSON body for text messages or a
// multipart form with a "file" part for attachments.
func (a *API) createMessage(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())

	var draft service.MessageDraft
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		// The role gate normally lives in the service, but the upload must
		// not touch disk for callers the service is going to refuse anyway.
		if !actor.IsAdmin() {
			utils.WriteErr(w, errors.New(errors.KindForbidden, "admin role required"))
			return
		}
		d, err := a.draftFromMultipart(r)
		if err != nil {
			utils.WriteErr(w, err)
			return
		}
		draft = d
	} else {
		var req struct {
			Kind string `json:"kind"`
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		draft = service.MessageDraft{Kind: models.Kind(req.Kind), Body: req.Body}
		if draft.Kind == "" {
			draft.Kind = models.KindText
		}
	}

	msg, err := a.svc.CreateMessage(actor, draft)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, msg)
}

func (a *API) updateMessage(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	msg, err := a.svc.EditMessage(actor, mux.Vars(r)["id"], req.Body)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, msg)
}

func (a *API) deleteMessage(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFromContext(r.Context())
	if err := a.svc.DeleteMessage(actor, mux.Vars(r)["id"]); err != nil {
		utils.WriteErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// draftFromMultipart stores the uploaded file and builds a draft around it.
// The message kind follows the part's content type unless the form says
// otherwise.
func (a *API) draftFromMultipart(r *http.Request) (service.MessageDraft, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return service.MessageDraft{}, errors.New(errors.KindValidation, "multipart form needs a file part")
	}
	defer file.Close()

	ref, err := a.uploads.Save(file, header.Filename)
	if err != nil {
		return service.MessageDraft{}, err
	}

	kind := models.Kind(r.FormValue("kind"))
	if kind == "" {
		if strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
			kind = models.KindImage
		} else {
			kind = models.KindFile
		}
	}
	return service.MessageDraft{
		Kind:          kind,
		Body:          r.FormValue("body"),
		AttachmentRef: ref,
		FileName:      header.Filename,
	}, nil
}

func (a *API) serveUpload(w http.ResponseWriter, r *http.Request) {
	p, err := a.uploads.Path(mux.Vars(r)["ref"])
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	http.ServeFile(w, r, p)
}
