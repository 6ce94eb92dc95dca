package domain

// Identity is the authenticated caller attached to each request by the
// credential middleware. The core never issues or refreshes tokens; it
// receives an already-validated identity from the credential service.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}
