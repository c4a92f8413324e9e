package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/lcabral/docqa/rag_type"
	"github.com/lcabral/docqa/services/rag_service"
)

type mockDocumentEngine struct {
	ListDocumentsFunc  func(ctx context.Context) ([]rag_type.Document, error)
	GetDocumentFunc    func(ctx context.Context, id uuid.UUID) (*rag_type.Document, error)
	DeleteDocumentFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *mockDocumentEngine) ListDocuments(ctx context.Context) ([]rag_type.Document, error) {
	return m.ListDocumentsFunc(ctx)
}

func (m *mockDocumentEngine) GetDocument(ctx context.Context, id uuid.UUID) (*rag_type.Document, error) {
	return m.GetDocumentFunc(ctx, id)
}

func (m *mockDocumentEngine) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return m.DeleteDocumentFunc(ctx, id)
}

func documentsRouter(engine DocumentEngine) *mux.Router {
	h := NewDocumentsHandler(engine, discardLogger())
	r := mux.NewRouter()
	r.HandleFunc("/documents", h.List).Methods("GET")
	r.HandleFunc("/documents/{id}", h.Get).Methods("GET")
	r.HandleFunc("/documents/{id}", h.Delete).Methods("DELETE")
	return r
}

func TestGetDocument(t *testing.T) {
	docID := uuid.New()
	doc := &rag_type.Document{
		ID:         docID,
		Filename:   "report.pdf",
		ByteSize:   2048,
		PageCount:  3,
		ChunkCount: 7,
		UploadedAt: time.Now().UTC(),
	}

	router := documentsRouter(&mockDocumentEngine{
		GetDocumentFunc: func(ctx context.Context, id uuid.UUID) (*rag_type.Document, error) {
			if id != docID {
				t.Errorf("handler passed id %s, want %s", id, docID)
			}
			return doc, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/documents/"+docID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var got rag_type.Document
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != docID || got.Filename != "report.pdf" || got.ChunkCount != 7 {
		t.Errorf("unexpected document: %+v", got)
	}
}

func TestGetDocumentErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		getFunc    func(ctx context.Context, id uuid.UUID) (*rag_type.Document, error)
		wantStatus int
	}{
		{
			name:       "invalid id",
			path:       "/documents/not-a-uuid",
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown document",
			path: "/documents/" + uuid.New().String(),
			getFunc: func(ctx context.Context, id uuid.UUID) (*rag_type.Document, error) {
				return nil, rag_service.ErrDocumentNotFound
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "storage failure",
			path: "/documents/" + uuid.New().String(),
			getFunc: func(ctx context.Context, id uuid.UUID) (*rag_type.Document, error) {
				return nil, errors.New("connection refused")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := documentsRouter(&mockDocumentEngine{GetDocumentFunc: tt.getFunc})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestDeleteDocument(t *testing.T) {
	deleted := false
	router := documentsRouter(&mockDocumentEngine{
		DeleteDocumentFunc: func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/documents/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !deleted {
		t.Error("delete was not forwarded to the engine")
	}
}
