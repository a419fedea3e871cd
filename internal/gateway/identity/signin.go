package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fundsledger/pkg/apperror"
)

// PasswordClient signs users in through the identity provider's REST endpoint.
type PasswordClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewPasswordClient(endpoint, apiKey string) *PasswordClient {
	return &PasswordClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *PasswordClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s?key=%s", c.endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.UpstreamUnavailable, "identity provider unavailable", err)
	}
	defer resp.Body.Close()

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperror.Wrap(apperror.UpstreamUnavailable, "identity provider returned an invalid response", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, apperror.New(apperror.UpstreamUnavailable, "identity provider unavailable")
	}
	if resp.StatusCode != http.StatusOK {
		message := "Invalid credentials"
		if out.Error != nil && out.Error.Message != "" {
			message = out.Error.Message
		}
		return nil, apperror.New(apperror.Unauthenticated, message)
	}

	return &Session{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    out.ExpiresIn,
		SubjectID:    out.LocalID,
	}, nil
}
