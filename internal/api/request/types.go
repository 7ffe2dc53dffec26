package request

// CreateGuestRequest is the request body for creating a guest identity
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering an account.
// GuestToken, when set, names the guest session whose live-session slots
// should be migrated onto the new account.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	GuestToken string `json:"guest_token,omitempty"`
}

// LoginRequest is the request body for logging in. GuestToken works as
// in RegisterRequest.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	GuestToken string `json:"guest_token,omitempty"`
}
