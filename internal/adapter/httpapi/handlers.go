package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := s.decode(w, r, &req); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("decode chat request")
		writeJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   err.Error(),
			Details: usecase.DetailsInternal,
		})
		return
	}

	rsp, err := s.chat.Chat(r.Context(), req)
	if err != nil {
		var chatErr *usecase.ChatError
		if !errors.As(err, &chatErr) {
			chatErr = usecase.InternalError(err)
		}
		writeJSON(w, chatErr.Status, domain.ErrorResponse{
			Error:   chatErr.Message,
			Details: chatErr.Details,
		})
		return
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req domain.RetrievalRequest
	if err := s.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, s.retrieve.Retrieve(r.Context(), req))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePreflight answers CORS preflight requests. The cors middleware has
// already set the headers.
func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
