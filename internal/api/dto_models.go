package api

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	// Retryable tells the client the request may succeed if repeated.
	Retryable bool `json:"retryable,omitempty"`
}

// SuccessResponse is a plain acknowledgement.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProductListResponse wraps a product listing.
type ProductListResponse struct {
	Products any `json:"products"`
	Count    int `json:"count"`
}

// UserResponse is the profile plus whether this request created it.
type UserResponse struct {
	User    any  `json:"user"`
	Created bool `json:"created"`
}
