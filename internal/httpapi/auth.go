package httpapi

import (
	"net/http"

	"logistics/pkg/apperror"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleToken implements POST /auth/token: form-encoded username/password,
// matching OAuth2's password grant shape.
func (h *Handlers) HandleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, apperror.Wrap(err, apperror.CodeValidationError, "malformed form body"))
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, apperror.New(apperror.CodeValidationError, "username and password are required"))
		return
	}

	token, expiresIn, err := h.Auth.IssueToken(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer", ExpiresIn: expiresIn})
}
