package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"travel-assistant/internal/api"
	"travel-assistant/internal/types"
)

const (
	adminTimeout = 10 * time.Minute
	maxUpload    = 32 << 20
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req types.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()
	session, err := s.backend.AdminLogin(ctx, req.Username, req.Password)
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	s.logger.Info("admin logged in", zap.String("username", req.Username))
	writeJSON(w, http.StatusOK, types.AdminLoginResponse{
		Token:     session.Token,
		ExpiresIn: session.ExpiresIn,
		Message:   session.Message,
	})
}

func (s *Server) handleAdminUpload(w http.ResponseWriter, r *http.Request) {
	token := api.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		s.writeError(w, http.StatusUnauthorized, "admin token is required")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		s.writeError(w, http.StatusBadRequest, "only PDF files are accepted")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
	defer cancel()
	out, err := s.backend.UploadPDF(ctx, token, filepath.Base(header.Filename), file)
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.AdminResponse{Message: out.Message})
}

func (s *Server) handleAdminRAG(w http.ResponseWriter, r *http.Request) {
	token := api.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		s.writeError(w, http.StatusUnauthorized, "admin token is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
	defer cancel()
	out, err := s.backend.CreateRAG(ctx, token)
	if err != nil {
		s.writeAdminError(w, err)
		return
	}
	s.logger.Info("knowledge base rebuilt")
	writeJSON(w, http.StatusOK, types.AdminResponse{Message: out.Message, Output: out.Output})
}

// writeAdminError passes the backend's client errors through so the admin
// page can tell bad credentials and expired tokens apart from outages.
func (s *Server) writeAdminError(w http.ResponseWriter, err error) {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			s.writeError(w, reqErr.StatusCode, http.StatusText(reqErr.StatusCode))
			return
		}
	}
	s.writeAPIError(w, err)
}
