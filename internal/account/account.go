// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package account signs users in and up against the backend and edits their
// profile.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bonial-oss/cve-pulse/internal/backend"
	"github.com/bonial-oss/cve-pulse/internal/session"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ErrInvalidCredentials is returned when the backend rejects a login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError describes the first invalid form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Field is a profile attribute UpdateUser can change.
type Field string

const (
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

// ParseField validates a user supplied field name.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldUsername, FieldEmail, FieldPassword:
		return f, nil
	default:
		return "", &ValidationError{Field: "field", Reason: fmt.Sprintf("unknown field %q (must be username, email or password)", s)}
	}
}

// Sender posts JSON to the backend.
type Sender interface {
	SendJSON(ctx context.Context, method, path string, in, out any) error
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

type Client struct {
	sender Sender
	logger *zap.Logger
	now    func() time.Time
}

func New(sender Sender, opts ...Option) *Client {
	c := &Client{sender: sender, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username string `json:"username"`
}

// Login authenticates with email and password and returns a new session.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	if err := validateEmail(email); err != nil {
		return session.Session{}, err
	}
	if password == "" {
		return session.Session{}, &ValidationError{Field: "password", Reason: "Password is required"}
	}

	var resp loginResponse
	err := c.sender.SendJSON(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
			return session.Session{}, ErrInvalidCredentials
		}
		return session.Session{}, fmt.Errorf("logging in: %w", err)
	}
	if resp.Username == "" {
		return session.Session{}, fmt.Errorf("logging in: response carries no username")
	}

	c.logger.Debug("logged in", zap.String("username", resp.Username))
	return session.New(resp.Username, email, c.now()), nil
}

// SignupRequest holds the sign-up form.
type SignupRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func (r SignupRequest) validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return &ValidationError{Field: "username", Reason: "Username is required"}
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return &ValidationError{Field: "confirmPassword", Reason: "Passwords do not match"}
	}
	return nil
}

type signupBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account and returns a session for it.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (session.Session, error) {
	if err := req.validate(); err != nil {
		return session.Session{}, err
	}

	body := signupBody{Username: req.Username, Email: req.Email, Password: req.Password}
	if err := c.sender.SendJSON(ctx, http.MethodPost, "/signup", body, nil); err != nil {
		return session.Session{}, fmt.Errorf("signing up: %w", err)
	}

	c.logger.Debug("signed up", zap.String("username", req.Username))
	return session.New(req.Username, req.Email, c.now()), nil
}

// UpdateUser changes one profile field of the signed-in user and returns the
// updated session. sess itself is left unchanged.
func (c *Client) UpdateUser(ctx context.Context, sess session.Session, field Field, value string) (session.Session, error) {
	if sess.Username == "" {
		return session.Session{}, session.ErrNotSignedIn
	}
	switch field {
	case FieldUsername:
		if strings.TrimSpace(value) == "" {
			return session.Session{}, &ValidationError{Field: "username", Reason: "Username is required"}
		}
	case FieldEmail:
		if err := validateEmail(value); err != nil {
			return session.Session{}, err
		}
	case FieldPassword:
		if err := validatePassword(value); err != nil {
			return session.Session{}, err
		}
	default:
		return session.Session{}, &ValidationError{Field: "field", Reason: fmt.Sprintf("unknown field %q", field)}
	}

	body := map[string]string{
		"username":             sess.Username,
		"new_" + string(field): value,
	}
	if err := c.sender.SendJSON(ctx, http.MethodPut, "/update-user", body, nil); err != nil {
		return session.Session{}, fmt.Errorf("updating %s: %w", field, err)
	}

	c.logger.Debug("profile updated", zap.String("username", sess.Username), zap.String("field", string(field)))
	switch field {
	case FieldUsername:
		return sess.WithUsername(value), nil
	case FieldEmail:
		return sess.WithEmail(value), nil
	default:
		return sess, nil
	}
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Reason: "Email is required"}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Reason: "Email is invalid"}
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "Password is required"}
	}
	if len(password) < minPasswordLength {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("Password must be at least %d characters", minPasswordLength)}
	}
	return nil
}
