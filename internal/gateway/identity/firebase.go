package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fundsledger/internal/config"
	"fundsledger/pkg/apperror"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseGateway verifies Firebase ID tokens and generates password reset links.
type FirebaseGateway struct {
	client *auth.Client
	logger *slog.Logger
}

// NewFirebaseGateway initializes a Firebase Admin app from a credentials file or
// from the inline service account fields in cfg.
func NewFirebaseGateway(ctx context.Context, cfg *config.IdentityConfig, logger *slog.Logger) (*FirebaseGateway, error) {
	var credentials option.ClientOption
	if cfg.CredentialsFile != "" {
		credentials = option.WithCredentialsFile(cfg.CredentialsFile)
	} else {
		serviceAccount, err := json.Marshal(map[string]string{
			"type":         "service_account",
			"project_id":   cfg.ProjectID,
			"private_key":  cfg.PrivateKey,
			"client_email": cfg.ClientEmail,
			"token_uri":    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, fmt.Errorf("encode service account: %w", err)
		}
		credentials = option.WithCredentialsJSON(serviceAccount)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, credentials)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	return &FirebaseGateway{client: client, logger: logger}, nil
}

func (g *FirebaseGateway) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	decoded, err := g.client.VerifyIDToken(ctx, token)
	if err != nil {
		g.logger.WarnContext(ctx, "token verification failed", slog.String("error", err.Error()))
		return nil, apperror.Wrap(apperror.Unauthenticated, "Unauthorized", err)
	}

	verified, _ := decoded.Claims["email_verified"].(bool)
	email, _ := decoded.Claims["email"].(string)
	return &Identity{
		SubjectID:     decoded.UID,
		Email:         email,
		EmailVerified: verified,
	}, nil
}

func (g *FirebaseGateway) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := g.client.PasswordResetLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", apperror.Wrap(apperror.NotFound, "user not found", err)
		}
		return "", apperror.Wrap(apperror.UpstreamUnavailable, "identity provider unavailable", err)
	}
	return link, nil
}
