package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"math"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jsvoboda/geoattend/internal/camera"
	"github.com/jsvoboda/geoattend/internal/database"
	"github.com/jsvoboda/geoattend/internal/geo"
	"github.com/jsvoboda/geoattend/internal/roster"
)

const enrollmentMaxDimension = 800

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func validCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (s *Server) campus() geo.Coordinates {
	return geo.Coordinates{
		Latitude:  s.config.Server.CampusLat,
		Longitude: s.config.Server.CampusLon,
	}
}

func (s *Server) handleVerifyLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"allowed": false, "reason": "invalid_coords", "message": "Invalid coordinates.",
		})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"allowed": false, "reason": "missing_coords", "message": "Missing coordinates.",
		})
		return
	}
	if !validCoordinates(*req.Latitude, *req.Longitude) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"allowed": false, "reason": "invalid_coords", "message": "Invalid coordinates.",
		})
		return
	}

	dist := geo.Haversine(s.campus(), geo.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude})
	if dist > s.config.Server.RadiusMeters {
		respondJSON(w, http.StatusForbidden, map[string]any{
			"allowed":  false,
			"distance": dist,
			"reason":   "outside_radius",
			"message":  s.config.Messages.Messages.OutsideRadius,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"allowed":  true,
		"distance": dist,
		"message":  s.config.Messages.Messages.InsideRadius,
	})
}

func allowedPhotoFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func markFailure(w http.ResponseWriter, status int, reason, message string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"reason":  reason,
		"message": message,
	})
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadSize)
	if err := r.ParseMultipartForm(s.config.Server.MaxUploadSize); err != nil {
		markFailure(w, http.StatusBadRequest, "missing_photo", "No photo uploaded.")
		return
	}

	latRaw := r.FormValue("latitude")
	lonRaw := r.FormValue("longitude")
	if latRaw == "" || lonRaw == "" {
		markFailure(w, http.StatusBadRequest, "missing_coords", "Missing coordinates.")
		return
	}
	lat, latErr := strconv.ParseFloat(latRaw, 64)
	lon, lonErr := strconv.ParseFloat(lonRaw, 64)
	if latErr != nil || lonErr != nil || !validCoordinates(lat, lon) {
		markFailure(w, http.StatusBadRequest, "invalid_coords", "Invalid coordinates.")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil || header.Filename == "" {
		markFailure(w, http.StatusBadRequest, "missing_photo", "No photo uploaded.")
		return
	}
	defer file.Close()
	if !allowedPhotoFile(header.Filename) {
		markFailure(w, http.StatusBadRequest, "bad_file_type", "Unsupported file type.")
		return
	}

	clientKey := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		clientKey = host
	}
	if !s.limiter.Allow(clientKey) {
		markFailure(w, http.StatusTooManyRequests, "rate_limited", s.config.Messages.Messages.RateLimited)
		return
	}

	dist := geo.Haversine(s.campus(), geo.Coordinates{Latitude: lat, Longitude: lon})
	if dist > s.config.Server.RadiusMeters {
		log.Printf("outside radius attempt: dist=%.1fm from %s", dist, clientKey)
		respondJSON(w, http.StatusForbidden, map[string]any{
			"success":  false,
			"reason":   "outside_radius",
			"distance": dist,
			"message":  s.config.Messages.Messages.OutsideRadius,
		})
		return
	}

	photo, err := io.ReadAll(file)
	if err != nil {
		markFailure(w, http.StatusInternalServerError, "save_failed", "Failed to read uploaded file.")
		return
	}

	filename, err := s.snapshots.Save(bytes.NewReader(photo), header.Filename)
	if err != nil {
		markFailure(w, http.StatusInternalServerError, "save_failed", "Failed to save uploaded file.")
		return
	}
	defer func() {
		if err := s.snapshots.Remove(filename); err != nil {
			log.Printf("failed to remove snapshot %s: %v", filename, err)
		}
	}()

	if verdict, err := s.checker.Check(r.Context(), photo); err != nil {
		log.Printf("face check failed, continuing without it: %v", err)
	} else if !verdict.FacePresent || !verdict.Live {
		s.logAttempt(r, "", lat, lon, dist, 0, filename)
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"success":    false,
			"reason":     "not_recognized",
			"confidence": 0.0,
			"message":    s.config.Messages.Messages.NotRecognized,
		})
		return
	}

	match, err := s.recognizer.Recognize(r.Context(), photo)
	if err != nil {
		log.Printf("recognition error: %v", err)
		markFailure(w, http.StatusInternalServerError, "recognition_error", "Recognition failed.")
		return
	}

	if match == nil || match.Confidence < s.config.Recognition.Threshold {
		confidence := 0.0
		if match != nil {
			confidence = match.Confidence
		}
		s.logAttempt(r, "", lat, lon, dist, confidence, filename)
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"success":    false,
			"reason":     "not_recognized",
			"confidence": confidence,
			"message":    s.config.Messages.Messages.NotRecognized,
		})
		return
	}

	if err := s.db.InsertAttendance(r.Context(), database.AttendanceRecord{
		UserID:      match.UserID,
		Latitude:    lat,
		Longitude:   lon,
		Distance:    dist,
		Confidence:  match.Confidence,
		RawFilename: filename,
	}); err != nil {
		log.Printf("db write failed: %v", err)
		markFailure(w, http.StatusInternalServerError, "db_error", "Failed to write attendance.")
		return
	}

	log.Printf("attendance marked: user=%s dist=%.1f conf=%.2f", match.UserID, dist, match.Confidence)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"user_id":    match.UserID,
		"confidence": match.Confidence,
		"distance":   dist,
		"message":    s.config.Messages.Messages.Marked,
	})
}

// logAttempt records an unrecognized attempt so it can be audited later. The
// user id stays empty for attempts that matched nobody.
func (s *Server) logAttempt(r *http.Request, userID string, lat, lon, dist, confidence float64, filename string) {
	if err := s.db.InsertAttendance(r.Context(), database.AttendanceRecord{
		UserID:      userID,
		Latitude:    lat,
		Longitude:   lon,
		Distance:    dist,
		Confidence:  confidence,
		RawFilename: filename,
	}); err != nil {
		log.Printf("failed to log attempt: %v", err)
	}
}

func (s *Server) handleAttendanceRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.ListRecords(r.Context())
	if err != nil {
		log.Printf("failed to list records: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list records"})
		return
	}
	if records == nil {
		records = []database.AttendanceRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadSize)
	if err := r.ParseMultipartForm(s.config.Server.MaxUploadSize); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "No photo uploaded.",
		})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "Missing name.",
		})
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil || header.Filename == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "No photo uploaded.",
		})
		return
	}
	defer file.Close()
	if !allowedPhotoFile(header.Filename) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "Unsupported file type.",
		})
		return
	}

	photo, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": "Failed to read uploaded file.",
		})
		return
	}

	// Embedding servers work fine on smaller inputs, so cap the dimensions.
	resized, err := camera.Resize(photo, enrollmentMaxDimension)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "Could not decode photo.",
		})
		return
	}

	embedding, err := s.embeddings.ComputeFaceEmbedding(r.Context(), resized)
	if err != nil {
		log.Printf("enrollment embedding failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": "Failed to compute embedding.",
		})
		return
	}
	if embedding == nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false, "message": "No face detected in photo.",
		})
		return
	}

	userID := roster.UserID(name)
	if err := s.db.InsertEnrollment(r.Context(), userID, name, embedding); err != nil {
		log.Printf("failed to store enrollment: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": "Failed to store enrollment.",
		})
		return
	}
	if err := s.index.Add(userID, embedding); err != nil {
		log.Printf("failed to index enrollment: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "message": "Failed to index enrollment.",
		})
		return
	}

	log.Printf("enrolled user=%s (%d enrolled embeddings)", userID, s.index.Len())
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user_id": userID,
	})
}
