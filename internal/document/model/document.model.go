package model

import "encoding/json"

const (
	DefaultTitle = "Untitled Document"
	TitleIndex   = "by-title"
)

// Document is the only persisted entity. ID is zero until the first save.
type Document struct {
	ID      int64           `json:"id,omitempty"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

// DocumentSummary is the lightweight projection returned by list operations.
type DocumentSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Summary projects a document to its id and title.
func (d Document) Summary() DocumentSummary {
	return DocumentSummary{ID: d.ID, Title: d.Title}
}

type SaveDocRequest struct {
	ID      int64           `json:"id,omitempty"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

type SaveDocResponse struct {
	ID int64 `json:"id"`
}
