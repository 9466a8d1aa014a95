package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jsvoboda/geoattend/internal/geo"
)

// API is the HTTP client for the attendance server.
type API struct {
	baseURL string
	client  *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// VerifyLocation asks the server whether the coordinates fall inside the
// allowed zone. The response body is decoded for every HTTP status so the
// caller can read server-supplied reason/message on denials; a nil error
// only means the request completed at the transport level.
func (a *API) VerifyLocation(ctx context.Context, coords geo.Coordinates) (*VerifyResponse, int, error) {
	body, err := json.Marshal(VerifyRequest{Latitude: coords.Latitude, Longitude: coords.Longitude})
	if err != nil {
		return nil, 0, fmt.Errorf("could not marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/verify_location", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	var verdict VerifyResponse
	if err := decodeBody(resp.Body, &verdict); err != nil {
		// Proxies answer with HTML error pages; on a non-2xx status the
		// status code alone is enough for the caller.
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return nil, resp.StatusCode, fmt.Errorf("could not decode response: %w", err)
		}
		return &VerifyResponse{}, resp.StatusCode, nil
	}

	return &verdict, resp.StatusCode, nil
}

// MarkAttendance uploads one snapshot together with the session coordinates
// as a multipart form. The photo part is named snap_<unix-ms>.jpg.
func (a *API) MarkAttendance(ctx context.Context, photo []byte, coords geo.Coordinates) (*MarkResponse, int, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	filename := fmt.Sprintf("snap_%d.jpg", time.Now().UnixMilli())
	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		return nil, 0, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return nil, 0, fmt.Errorf("could not write photo data: %w", err)
	}

	if err := writer.WriteField("latitude", strconv.FormatFloat(coords.Latitude, 'f', -1, 64)); err != nil {
		return nil, 0, fmt.Errorf("could not write latitude field: %w", err)
	}
	if err := writer.WriteField("longitude", strconv.FormatFloat(coords.Longitude, 'f', -1, 64)); err != nil {
		return nil, 0, fmt.Errorf("could not write longitude field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, 0, fmt.Errorf("could not close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/mark_attendance", &body)
	if err != nil {
		return nil, 0, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	var verdict MarkResponse
	if err := decodeBody(resp.Body, &verdict); err != nil {
		// Proxies answer with HTML error pages; on a non-2xx status the
		// status code alone is enough for the caller.
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return nil, resp.StatusCode, fmt.Errorf("could not decode response: %w", err)
		}
		return &MarkResponse{}, resp.StatusCode, nil
	}

	return &verdict, resp.StatusCode, nil
}

// Records fetches recent attendance rows (used by the records command).
func (a *API) Records(ctx context.Context) ([]AttendanceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/attendance_records", nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Records []AttendanceRecord `json:"records"`
	}
	if err := decodeBody(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	return payload.Records, nil
}

// Enroll uploads one enrollment photo for a named user.
func (a *API) Enroll(ctx context.Context, name string, photo []byte, filename string) (*EnrollResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return nil, fmt.Errorf("could not write photo data: %w", err)
	}
	if err := writer.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("could not write name field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/enroll", &body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	var enrolled EnrollResponse
	if err := decodeBody(resp.Body, &enrolled); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if enrolled.Message != "" {
			return nil, fmt.Errorf("enroll failed: %s", enrolled.Message)
		}
		return nil, fmt.Errorf("enroll failed with status %d", resp.StatusCode)
	}

	return &enrolled, nil
}

// AttendanceRecord mirrors one row of GET /attendance_records.
type AttendanceRecord struct {
	ID         int64   `json:"id"`
	UserID     string  `json:"user_id"`
	Timestamp  string  `json:"timestamp"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// EnrollResponse is the server's answer to POST /enroll.
type EnrollResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
}

func decodeBody(r io.Reader, v any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}
