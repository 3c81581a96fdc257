package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/libriscan/libriscan/internal/frame"
	"github.com/libriscan/libriscan/internal/isbn"
	"github.com/libriscan/libriscan/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("encoding health response", "error", err)
	}
}

// decodeHandler runs one uploaded image through arbitration.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > limit {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	uploadSizeBytes.Observe(float64(len(imageData)))

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.timeoutSec)*time.Second)
	defer cancel()

	start := time.Now()
	outcome := s.arb.Recognize(ctx, frame.FromImage(img))
	recognitionDuration.Observe(time.Since(start).Seconds())

	response := DecodeResponse{
		Attempted: outcome.Attempted,
		Produced:  outcome.Produced,
		Valid:     outcome.Valid,
	}
	if !outcome.OK() {
		decodeRequestsTotal.WithLabelValues("miss").Inc()
		response.Error = "no ISBN recognized"
		s.writeJSON(w, http.StatusUnprocessableEntity, response)
		return
	}

	cand := outcome.Candidate
	code := isbn.Normalize(cand.Text)
	response.Success = true
	response.ISBN = code
	response.Format = cand.Format
	response.Confidence = cand.Confidence
	response.Method = cand.Method.String()
	if thirteen, ok := isbn.ToISBN13(code); ok {
		response.ISBN13 = thirteen
	}
	decodeRequestsTotal.WithLabelValues("hit").Inc()
	backendWinsTotal.WithLabelValues(response.Method).Inc()

	if s.lookupRequested(r) {
		book, err := s.lookup.Lookup(ctx, code)
		if err != nil {
			// Enrichment is best-effort; the decode already succeeded.
			slog.Warn("bibliographic lookup failed", "isbn", code, "error", err)
		} else {
			response.Book = book
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) lookupRequested(r *http.Request) bool {
	if s.lookup == nil {
		return false
	}
	v := r.FormValue("lookup")
	if v == "" {
		v = r.URL.Query().Get("lookup")
	}
	return v == "1" || v == "true"
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	decodeRequestsTotal.WithLabelValues("error").Inc()
	s.writeJSON(w, statusCode, DecodeResponse{Success: false, Error: message})
}
