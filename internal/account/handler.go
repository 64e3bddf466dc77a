package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hyperlocaleyes/backend/core/binder"
	"github.com/hyperlocaleyes/backend/core/handler"
	"github.com/hyperlocaleyes/backend/core/logger"
	"github.com/hyperlocaleyes/backend/core/response"
	"github.com/hyperlocaleyes/backend/core/router"
	"github.com/hyperlocaleyes/backend/middleware"
)

// ResetMessage is returned by forgot-password whether or not the account exists.
const ResetMessage = "If an account exists with this email, you will receive a password reset link."

var (
	errInvalidCredentials = response.ErrUnauthorized.WithMessage("Invalid credentials")
	errInvalidResetToken  = response.ErrBadRequest.WithMessage("Invalid or expired token")
)

// ResetNotifier delivers password reset tokens.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, u *User, token string) error
}

// ResetNotifierFunc adapts a function to ResetNotifier.
type ResetNotifierFunc func(ctx context.Context, u *User, token string) error

func (f ResetNotifierFunc) SendPasswordReset(ctx context.Context, u *User, token string) error {
	return f(ctx, u, token)
}

// LogNotifier records reset requests in the log without the token.
func LogNotifier(log *slog.Logger) ResetNotifier {
	return ResetNotifierFunc(func(ctx context.Context, u *User, _ string) error {
		log.InfoContext(ctx, "password reset requested",
			logger.Component("account"),
			logger.Event("password_reset_requested"),
			logger.UserID(u.ID),
		)
		return nil
	})
}

// Guards are the middleware stacks placed in front of the account routes.
type Guards[C handler.Context] struct {
	Register       []handler.Middleware[C]
	Login          []handler.Middleware[C]
	ForgotPassword []handler.Middleware[C]
	ResetPassword  []handler.Middleware[C]
	Protect        []handler.Middleware[C]
}

// Handler serves the authentication routes.
type Handler[C handler.Context] struct {
	users     UserStore
	tokens    *Tokens
	notifier  ResetNotifier
	formatter response.Formatter
	log       *slog.Logger
}

// NewHandler returns a Handler. A nil notifier logs reset requests.
func NewHandler[C handler.Context](users UserStore, tokens *Tokens, notifier ResetNotifier, formatter response.Formatter, log *slog.Logger) *Handler[C] {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("account"))
	if notifier == nil {
		notifier = LogNotifier(log)
	}
	return &Handler[C]{
		users:     users,
		tokens:    tokens,
		notifier:  notifier,
		formatter: formatter,
		log:       log,
	}
}

// Mount registers the routes under /api/auth.
func (h *Handler[C]) Mount(r router.Router[C], g Guards[C]) {
	r.Route("/api/auth", func(r router.Router[C]) {
		r.With(g.Register...).Post("/register", h.Register)
		r.With(g.Login...).Post("/login", h.Login)
		r.With(g.ForgotPassword...).Post("/forgot-password", h.ForgotPassword)
		r.With(g.ResetPassword...).Put("/reset-password/{token}", h.ResetPassword)
		r.With(g.Protect...).Get("/me", h.Me)
	})
}

type registerRequest struct {
	Username string `json:"username" sanitize:"trim" validate:"required;max:50"`
	Email    string `json:"email" sanitize:"email" validate:"required;email"`
	Password string `json:"password" validate:"required;min:6"`
}

type resetPasswordRequest struct {
	Token    string `path:"token" validate:"required"`
	Password string `json:"password" validate:"required;min:6"`
}

type loginRequest struct {
	Email    string `json:"email" sanitize:"email" validate:"required;email"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" sanitize:"email" validate:"required;email"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Register creates a user account and logs it in.
func (h *Handler[C]) Register(ctx C) handler.Response {
	var req registerRequest
	if err := binder.Bind(ctx.Request(), &req, binder.JSON()); err != nil {
		return response.Error(err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return response.Error(err)
	}
	u := &User{Username: req.Username, Email: req.Email, Role: RoleUser, PasswordHash: hash}
	switch err := h.users.Create(ctx, u); {
	case errors.Is(err, ErrEmailTaken):
		return response.Error(response.ErrBadRequest.WithMessage("Email is already registered"))
	case errors.Is(err, ErrUsernameTaken):
		return response.Error(response.ErrBadRequest.WithMessage("Username is already taken"))
	case err != nil:
		return response.Error(err)
	}

	tok, err := h.tokens.Issue(u)
	if err != nil {
		return response.Error(err)
	}

	h.log.InfoContext(ctx, "user registered", logger.Event("user_registered"), logger.UserID(u.ID))
	return h.formatter.Created(loginResponse{Token: tok, User: u}, "")
}

// Login exchanges credentials for an access token. Unknown emails and wrong
// passwords both answer 401 "Invalid credentials".
func (h *Handler[C]) Login(ctx C) handler.Response {
	var req loginRequest
	if err := binder.Bind(ctx.Request(), &req, binder.JSON()); err != nil {
		return response.Error(err)
	}

	u, err := h.users.FindByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		h.log.InfoContext(ctx, "login failed", logger.Event("login_failed"))
		return response.Error(errInvalidCredentials)
	case err != nil:
		return response.Error(err)
	}

	if err := u.CheckPassword(req.Password); err != nil {
		h.log.InfoContext(ctx, "login failed", logger.Event("login_failed"), logger.UserID(u.ID))
		return response.Error(errInvalidCredentials.WithError(err))
	}

	tok, err := h.tokens.Issue(u)
	if err != nil {
		return response.Error(err)
	}

	h.log.InfoContext(ctx, "login succeeded", logger.Event("login_succeeded"), logger.UserID(u.ID))
	return h.formatter.OK(loginResponse{Token: tok, User: u}, "")
}

// ForgotPassword issues a reset token to the account owner. The answer does
// not reveal whether the email is registered.
func (h *Handler[C]) ForgotPassword(ctx C) handler.Response {
	var req forgotPasswordRequest
	if err := binder.Bind(ctx.Request(), &req, binder.JSON()); err != nil {
		return response.Error(err)
	}

	u, err := h.users.FindByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return h.formatter.OK(nil, ResetMessage)
	case err != nil:
		return response.Error(err)
	}

	tok, err := h.tokens.IssueReset(u)
	if err != nil {
		return response.Error(err)
	}
	if err := h.notifier.SendPasswordReset(ctx, u, tok); err != nil {
		h.log.ErrorContext(ctx, "password reset delivery failed",
			logger.Event("password_reset_failed"),
			logger.UserID(u.ID),
			logger.Error(err),
		)
		return response.Error(response.ErrInternalServerError.WithMessage("Email could not be sent").WithError(err))
	}
	return h.formatter.OK(nil, ResetMessage)
}

// ResetPassword sets a new password using a token from ForgotPassword and
// logs the user in. A token works once: changing the password invalidates it.
func (h *Handler[C]) ResetPassword(ctx C) handler.Response {
	var req resetPasswordRequest
	if err := binder.Bind(ctx.Request(), &req, binder.JSON(), binder.Path()); err != nil {
		return response.Error(err)
	}

	id, err := h.tokens.ResetSubject(req.Token)
	if err != nil {
		return response.Error(errInvalidResetToken.WithError(err))
	}
	u, err := h.users.FindByID(ctx, id)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return response.Error(errInvalidResetToken.WithError(err))
	case err != nil:
		return response.Error(err)
	}
	if err := h.tokens.CheckReset(req.Token, u); err != nil {
		return response.Error(errInvalidResetToken.WithError(err))
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return response.Error(err)
	}
	if err := h.users.SetPassword(ctx, u.ID, hash); err != nil {
		return response.Error(err)
	}
	u.PasswordHash = hash

	tok, err := h.tokens.Issue(u)
	if err != nil {
		return response.Error(err)
	}

	h.log.InfoContext(ctx, "password reset", logger.Event("password_reset"), logger.UserID(u.ID))
	return h.formatter.OK(loginResponse{Token: tok, User: u}, "")
}

// Me returns the authenticated principal.
func (h *Handler[C]) Me(ctx C) handler.Response {
	p, ok := middleware.GetPrincipal(ctx)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}
	return response.WithNoCache(h.formatter.OK(p, ""))
}
