package client

// Wire types for the two attendance endpoints. Field names follow the
// server's JSON contract.

// VerifyRequest is the body of POST /verify_location.
type VerifyRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// VerifyResponse is the decision returned by the zone verification endpoint.
// Reason and Message are only set on denials.
type VerifyResponse struct {
	Allowed  bool    `json:"allowed"`
	Distance float64 `json:"distance,omitempty"`
	Reason   string  `json:"reason,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// MarkResponse is the recognition endpoint's verdict for one snapshot.
type MarkResponse struct {
	Success    bool    `json:"success"`
	UserID     string  `json:"user_id,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Message    string  `json:"message,omitempty"`
}
