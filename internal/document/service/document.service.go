package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"writer/internal/document/model"
	"writer/internal/document/repository"
	"writer/pkg/logger"
	"writer/socket"
)

var ErrInvalidDocument = errors.New("invalid document")

// Publisher receives change events after a document is committed.
type Publisher interface {
	Publish(ctx context.Context, msg socket.WSMessage) error
}

type DocumentService struct {
	Repo repository.Store
	Hub  Publisher
}

// NewDocumentService wires the service. hub may be nil when no change feed runs.
func NewDocumentService(repo repository.Store, hub Publisher) *DocumentService {
	return &DocumentService{Repo: repo, Hub: hub}
}

func (s *DocumentService) ListDocuments(ctx context.Context) ([]model.DocumentSummary, error) {
	return s.Repo.List(ctx)
}

func (s *DocumentService) ListDocumentsByTitle(ctx context.Context) ([]model.DocumentSummary, error) {
	return s.Repo.ListByTitle(ctx)
}

// GetDocument returns nil, nil when the document does not exist.
func (s *DocumentService) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	if id <= 0 {
		return nil, nil
	}
	return s.Repo.Get(ctx, id)
}

// SaveDocument normalises the request, upserts it and announces the save.
func (s *DocumentService) SaveDocument(ctx context.Context, req model.SaveDocRequest) (int64, error) {
	doc, err := normalise(req)
	if err != nil {
		return 0, err
	}

	id, err := s.Repo.Save(ctx, doc)
	if err != nil {
		return 0, err
	}

	if s.Hub != nil {
		payload, _ := json.Marshal(model.DocumentSummary{ID: id, Title: doc.Title})
		msg := socket.WSMessage{Type: socket.SavedType, DocID: socket.DocRoom(id), Payload: payload}
		// The save is committed; a feed failure must not report it as failed.
		if err := s.Hub.Publish(ctx, msg); err != nil {
			logger.Sugar.Warnf("Failed to announce save of doc %d: %v", id, err)
		}
	}
	return id, nil
}

func normalise(req model.SaveDocRequest) (model.Document, error) {
	if req.ID < 0 {
		return model.Document{}, fmt.Errorf("%w: id %d is negative", ErrInvalidDocument, req.ID)
	}

	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = model.DefaultTitle
	}

	content := req.Content
	if len(content) == 0 {
		content = json.RawMessage("null")
	}
	if !json.Valid(content) {
		return model.Document{}, fmt.Errorf("%w: content is not valid JSON", ErrInvalidDocument)
	}

	return model.Document{ID: req.ID, Title: title, Content: content}, nil
}
