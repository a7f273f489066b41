package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"i4.energy/across/sikradio/sik"
)

// Server handles incoming HTTP requests for inspecting and configuring the
// attached radio
type Server struct {
	Logger *slog.Logger
	Radio  *sik.Radio
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.HandleFunc("GET /reports", s.handleReports)
	mux.HandleFunc("GET /mode", s.handleMode)
	mux.HandleFunc("GET /parameters", s.handleParameters)
	mux.HandleFunc("GET /parameters/{key}", s.handleGetParameter)
	mux.HandleFunc("PUT /parameters/{key}", s.handleSetParameter)
	mux.HandleFunc("POST /parameters/save", s.handleSave)
	mux.HandleFunc("POST /reboot", s.handleReboot)
	mux.HandleFunc("POST /command-mode/exit", s.handleExitCommandMode)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// radioError maps err to a status code, logs it and sends it to the client.
func (s *Server) radioError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sik.ErrUnknownParameter):
		status = http.StatusNotFound
	case errors.Is(err, sik.ErrProtocol), errors.Is(err, sik.ErrParse), errors.Is(err, sik.ErrHandshake):
		status = http.StatusBadGateway
	case errors.Is(err, sik.ErrAlreadyClosed), errors.Is(err, sik.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	s.Logger.Error(message, "error", err, "status", status)
	s.sendError(w, err.Error(), status)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.Radio.Info(r.Context())
	if err != nil {
		s.radioError(w, "Failed to read radio info", err)
		return
	}
	s.sendJSON(w, info)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	timing, err := s.Radio.TimingReport(r.Context())
	if err != nil {
		s.radioError(w, "Failed to read timing report", err)
		return
	}
	signal, err := s.Radio.SignalReport(r.Context())
	if err != nil {
		s.radioError(w, "Failed to read signal report", err)
		return
	}

	type ReportsResponse struct {
		Timing string `json:"timing"`
		Signal string `json:"signal"`
	}
	s.sendJSON(w, ReportsResponse{Timing: timing, Signal: signal})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	type ModeResponse struct {
		Mode        string `json:"mode"`
		DefaultMode string `json:"default_mode"`
	}
	s.sendJSON(w, ModeResponse{
		Mode:        s.Radio.Mode().String(),
		DefaultMode: s.Radio.DefaultMode().String(),
	})
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	params, err := s.Radio.Parameters(r.Context())
	if err != nil {
		s.radioError(w, "Failed to read parameters", err)
		return
	}
	s.sendJSON(w, params)
}

func (s *Server) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	v, err := s.Radio.Parameter(r.Context(), key)
	if err != nil {
		s.radioError(w, "Failed to read parameter", err)
		return
	}
	s.sendJSON(w, sik.Parameter{Name: strings.ToUpper(key), Value: v})
}

// handleSetParameter changes a live parameter. It is not persisted until
// /parameters/save is called.
func (s *Server) handleSetParameter(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	type SetRequest struct {
		Value *int `json:"value"`
	}

	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Value == nil {
		s.sendError(w, "'value' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Radio.SetParameter(r.Context(), key, *req.Value); err != nil {
		s.radioError(w, "Failed to set parameter", fmt.Errorf("set %s=%d: %w", key, *req.Value, err))
		return
	}

	s.Logger.Info("Parameter set", "key", strings.ToUpper(key), "value", *req.Value)
	s.sendJSON(w, sik.Parameter{Name: strings.ToUpper(key), Value: *req.Value})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.Radio.WriteParameters(r.Context()); err != nil {
		s.radioError(w, "Failed to write parameters", err)
		return
	}
	s.Logger.Info("Parameters written to EEPROM")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReboot(w http.ResponseWriter, r *http.Request) {
	if err := s.Radio.Reboot(r.Context()); err != nil {
		s.radioError(w, "Failed to reboot radio", err)
		return
	}
	s.Logger.Info("Radio rebooted")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleExitCommandMode(w http.ResponseWriter, r *http.Request) {
	if err := s.Radio.ExitCommandMode(r.Context()); err != nil {
		s.radioError(w, "Failed to exit command mode", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// serve runs the HTTP API until ctx is done.
func (a *app) serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr: a.bindAddress,
		Handler: &Server{
			Logger: a.logger.With("component", "server"),
			Radio:  a.radio,
		},
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	a.logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
