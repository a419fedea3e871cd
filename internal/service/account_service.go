package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"unicode/utf8"

	"fundsledger/internal/gateway/email"
	"fundsledger/internal/gateway/identity"
	"fundsledger/internal/model"
	"fundsledger/internal/repository"
	"fundsledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

type PasswordSignIn interface {
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
}

type ResetLinkGenerator interface {
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

type AccountService struct {
	store  repository.AccountStore
	signIn PasswordSignIn
	links  ResetLinkGenerator
	mailer email.Sender
	logger *slog.Logger
}

func NewAccountService(store repository.AccountStore, signIn PasswordSignIn, links ResetLinkGenerator, mailer email.Sender, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		signIn: signIn,
		links:  links,
		mailer: mailer,
		logger: logger,
	}
}

type RegisterRequest struct {
	UID      string
	FullName string
	Email    string
	Country  string
}

// Register creates the profile and zero-balance account for a subject that
// already exists at the identity provider.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*model.Account, error) {
	fullName := strings.TrimSpace(req.FullName)
	country := strings.TrimSpace(req.Country)

	if n := utf8.RuneCountInString(fullName); n < 2 || n > 50 {
		return nil, apperror.New(apperror.InvalidArgument, "Full name must be 2–50 characters long")
	}
	if n := utf8.RuneCountInString(country); n < 2 || n > 50 {
		return nil, apperror.New(apperror.InvalidArgument, "Invalid country name")
	}
	if strings.TrimSpace(req.UID) == "" {
		return nil, apperror.New(apperror.InvalidArgument, "Missing UID")
	}

	account := &model.Account{
		SubjectID: strings.TrimSpace(req.UID),
		FullName:  html.EscapeString(fullName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Country:   html.EscapeString(country),
		Balance:   decimal.Zero,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.InfoContext(ctx, "account registered", slog.String("subject_id", account.SubjectID))
	return account, nil
}

func (s *AccountService) Profile(ctx context.Context, subjectID string) (*model.Account, error) {
	account, err := s.store.Get(ctx, subjectID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return account, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	if email == "" || password == "" {
		return nil, apperror.New(apperror.InvalidArgument, "Email and password are required")
	}
	session, err := s.signIn.SignIn(ctx, email, password)
	if err != nil {
		s.logger.InfoContext(ctx, "login rejected", slog.String("error", err.Error()))
		return nil, err
	}
	return session, nil
}

// ForgotPassword emails a reset link. Failures are only logged so the caller
// cannot probe which addresses are registered.
func (s *AccountService) ForgotPassword(ctx context.Context, address string) {
	link, err := s.links.PasswordResetLink(ctx, address)
	if err != nil {
		s.logger.WarnContext(ctx, "password reset link failed", slog.String("error", err.Error()))
		return
	}

	err = s.mailer.Send(ctx, email.Message{
		To:      address,
		Subject: "gLockus: Password Reset Request",
		HTML:    fmt.Sprintf(`<p>Click below to reset your password:</p><a href="%s">Reset My Password</a>`, html.EscapeString(link)),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "password reset email failed", slog.String("error", err.Error()))
	}
}
