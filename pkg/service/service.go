// Package service holds the business rules for the board: who may mutate
// what, and in which order storage and fan-out happen. Handlers stay thin;
// everything a rule depends on is injected here.
package service

import (
	"noticeboard/pkg/auth"
	"noticeboard/pkg/errors"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/models"
	"noticeboard/pkg/store"
)

// Publisher delivers an event to connected sessions. Publishing never
// blocks a mutation and its failure is never surfaced to the caller.
type Publisher interface {
	Publish(models.Event)
}

// AttachmentRemover releases a stored attachment once its message is gone.
type AttachmentRemover interface {
	Delete(ref string) error
}

// MessageDraft is the caller-supplied portion of a new message.
type MessageDraft struct {
	Kind          models.Kind
	Body          string
	AttachmentRef string
	FileName      string
}

// Service applies the board's mutation rules over the store and hub.
type Service struct {
	store       *store.Store
	hub         Publisher
	attachments AttachmentRemover
}

func New(st *store.Store, hub Publisher, attachments AttachmentRemover) *Service {
	return &Service{store: st, hub: hub, attachments: attachments}
}

// CreateMessage persists an admin-authored message and announces it. The
// author display name is snapshotted from the actor at creation time.
func (s *Service) CreateMessage(actor auth.Identity, draft MessageDraft) (models.Message, error) {
	if !actor.IsAdmin() {
		return models.Message{}, errors.New(errors.KindForbidden, "admin role required")
	}
	if !models.ValidKind(draft.Kind) {
		return models.Message{}, errors.Newf(errors.KindValidation, "unknown message kind %q", draft.Kind)
	}
	msg := models.Message{
		AuthorID:      actor.ID,
		AuthorName:    actor.Name,
		Kind:          draft.Kind,
		Body:          draft.Body,
		AttachmentRef: draft.AttachmentRef,
		FileName:      draft.FileName,
	}
	if err := s.store.InsertMessage(&msg); err != nil {
		return models.Message{}, err
	}
	s.hub.Publish(models.Event{Type: models.EventMessageCreated, Message: &msg})
	logger.Info("message_created", "id", msg.ID, "author", actor.ID, "kind", string(msg.Kind))
	return msg, nil
}

// EditMessage replaces a message body. The role gate runs before the load
// so callers outside the admin role cannot probe for ids; the authorship
// gate then restricts edits to the original author, other admins included.
func (s *Service) EditMessage(actor auth.Identity, id, newBody string) (models.Message, error) {
	if !actor.IsAdmin() {
		return models.Message{}, errors.New(errors.KindForbidden, "admin role required")
	}
	existing, err := s.store.GetMessage(id)
	if err != nil {
		return models.Message{}, err
	}
	if existing.AuthorID != actor.ID {
		return models.Message{}, errors.New(errors.KindUnauthorized, "only the author may edit this message")
	}
	if newBody == "" && existing.AttachmentRef == "" {
		return models.Message{}, errors.New(errors.KindValidation, "message body required")
	}
	updated, err := s.store.UpdateMessage(id, newBody)
	if err != nil {
		return models.Message{}, err
	}
	s.hub.Publish(models.Event{Type: models.EventMessageEdited, Message: &updated})
	logger.Info("message_edited", "id", id, "author", actor.ID)
	return updated, nil
}

// DeleteMessage removes a message, releases its attachment and announces
// the deletion. Attachment cleanup is best effort; a failure there leaves
// an orphan file for the retention sweep rather than failing the delete.
func (s *Service) DeleteMessage(actor auth.Identity, id string) error {
	if !actor.IsAdmin() {
		return errors.New(errors.KindForbidden, "admin role required")
	}
	existing, err := s.store.GetMessage(id)
	if err != nil {
		return err
	}
	if existing.AuthorID != actor.ID {
		return errors.New(errors.KindUnauthorized, "only the author may delete this message")
	}
	removed, err := s.store.DeleteMessage(id)
	if err != nil {
		return err
	}
	if removed.AttachmentRef != "" && s.attachments != nil {
		if derr := s.attachments.Delete(removed.AttachmentRef); derr != nil {
			logger.Warn("attachment_cleanup_failed", "id", id, "ref", removed.AttachmentRef, "error", derr.Error())
		}
	}
	s.hub.Publish(models.Event{Type: models.EventMessageDeleted, ID: id})
	logger.Info("message_deleted", "id", id, "author", actor.ID)
	return nil
}

// ListMessages returns all messages in creation order.
func (s *Service) ListMessages() ([]models.Message, error) {
	return s.store.ListMessages()
}

// GetMessage returns a single message; reads carry no auth gate.
func (s *Service) GetMessage(id string) (models.Message, error) {
	return s.store.GetMessage(id)
}

// CreatePoll persists an admin-authored poll with all counts at zero.
func (s *Service) CreatePoll(actor auth.Identity, question string, options []string) (models.Poll, error) {
	if !actor.IsAdmin() {
		return models.Poll{}, errors.New(errors.KindForbidden, "admin role required")
	}
	if question == "" {
		return models.Poll{}, errors.New(errors.KindValidation, "poll question required")
	}
	if len(options) < 2 {
		return models.Poll{}, errors.New(errors.KindValidation, "a poll needs at least two options")
	}
	opts := make([]models.PollOption, len(options))
	for i, o := range options {
		if o == "" {
			return models.Poll{}, errors.New(errors.KindValidation, "poll options must be non-empty")
		}
		opts[i] = models.PollOption{Text: o}
	}
	poll := models.Poll{Question: question, Options: opts}
	if err := s.store.InsertPoll(&poll); err != nil {
		return models.Poll{}, err
	}
	logger.Info("poll_created", "id", poll.ID, "author", actor.ID, "options", len(opts))
	return poll, nil
}

// ListPolls returns all polls in creation order.
func (s *Service) ListPolls() ([]models.Poll, error) {
	return s.store.ListPolls()
}

// Vote increments one option's count. Anyone may vote, repeatedly.
func (s *Service) Vote(id string, optionIndex int) (models.Poll, error) {
	poll, err := s.store.VotePoll(id, optionIndex)
	if err != nil {
		return models.Poll{}, err
	}
	logger.Debug("poll_vote", "id", id, "option", optionIndex)
	return poll, nil
}
