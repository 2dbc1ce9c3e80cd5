package authapi

import "accountsd/cmd/identity"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// accountResponse keeps the password key for client compatibility; it is always empty.
type accountResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type deleteSelfResponse struct {
	ShouldLogout bool `json:"should_logout"`
}

func toAccountResponse(a identity.Account) accountResponse {
	return accountResponse{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
	}
}

func toAccountList(accounts []identity.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out
}
