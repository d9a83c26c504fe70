package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"SocialFactory/internal/usecase"
)

// Server exposes the workflow status query, the approval callback, and a
// manual discovery trigger over HTTP.
type Server struct {
	workflow  *usecase.Workflow
	resolver  *usecase.ApprovalResolver
	processor *usecase.AutoProcessor
	logger    *slog.Logger
}

// New wires the HTTP surface to the orchestration core.
func New(workflow *usecase.Workflow, resolver *usecase.ApprovalResolver, processor *usecase.AutoProcessor, logger *slog.Logger) *Server {
	return &Server{
		workflow:  workflow,
		resolver:  resolver,
		processor: processor,
		logger:    logger,
	}
}

// Router builds the route table with CORS wrapping.
func (s *Server) Router(allowedOrigins string) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/workflows/{id}", s.handleWorkflowStatus).Methods(http.MethodGet)
	api.HandleFunc("/approvals", s.handleApproval).Methods(http.MethodPost)
	api.HandleFunc("/process", s.handleProcess).Methods(http.MethodPost)

	origins := strings.Split(allowedOrigins, ",")
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	record, ok := s.workflow.GetWorkflowStatus(id)
	if !ok {
		// Records do not survive restarts; the caller falls back to the ledger.
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type approvalBody struct {
	WorkflowID string `json:"workflow_id"`
	ContentID  int    `json:"content_id"`
	Platform   string `json:"platform"`
	Approved   bool   `json:"approved"`
	Actor      string `json:"actor"`
	Comment    string `json:"comment"`
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	var body approvalBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.WorkflowID == "" {
		writeError(w, http.StatusBadRequest, "workflow_id is required")
		return
	}
	if body.Actor == "" {
		body.Actor = "reviewer"
	}

	outcome, err := s.resolver.ResolveApproval(r.Context(), usecase.ApprovalRequest{
		WorkflowID: body.WorkflowID,
		ContentID:  body.ContentID,
		Platform:   body.Platform,
		Approved:   body.Approved,
		Actor:      body.Actor,
		Comment:    body.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAlreadyResolved):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, usecase.ErrTopicMissing):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("approval resolution failed", "workflow_id", body.WorkflowID, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if s.processor == nil {
		writeError(w, http.StatusServiceUnavailable, "auto-processing not configured")
		return
	}
	// The request context dies with this handler; the pass runs detached.
	go s.processor.DiscoverOnce(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "processing",
		"message": "discovery pass started",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
