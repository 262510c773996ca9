package models

type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func ErrorResponse(err string) ErrorBody {
	return ErrorBody{Error: err}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	Message string    `json:"message"`
	User    *Identity `json:"user"`
}

type LoginResponse struct {
	Message     string  `json:"message"`
	AccessToken string  `json:"access_token"`
	User        *Mentor `json:"user"`
}

type SessionResponse struct {
	Valid bool    `json:"valid"`
	User  *Mentor `json:"user"`
}

type ProfileResponse struct {
	Message string   `json:"message,omitempty"`
	Profile *Profile `json:"profile"`
}

type AvailabilityResponse struct {
	Message      string       `json:"message"`
	Availability Availability `json:"availability"`
}

type ActivitiesResponse struct {
	Activities []Activity `json:"activities"`
}

type ActivityResponse struct {
	Message  string    `json:"message,omitempty"`
	Activity *Activity `json:"activity"`
}
