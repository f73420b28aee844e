package dto

type UserInfoResponse struct {
	Email   string `json:"email"`
	Project string `json:"project"`
	UserId  string `json:"user_id,omitempty"`
}
