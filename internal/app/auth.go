package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"quiz-client/internal/domain"
	"quiz-client/internal/state"
)

// Done is the payload of operations that only succeed or fail.
type Done struct{}

// AuthController runs the account operations. Each operation has its own
// slot so a login failure never shows up on the registration form.
type AuthController struct {
	controller
	api   AuthAPI
	store CredentialStore

	login    state.Slot[Done]
	register state.Slot[Done]
	forgot   state.Slot[Done]
	reset    state.Slot[Done]
	change   state.Slot[Done]
	remove   state.Slot[Done]
}

func NewAuthController(api AuthAPI, store CredentialStore, log *zap.Logger) *AuthController {
	return &AuthController{controller: newController(log), api: api, store: store}
}

func (c *AuthController) LoginState() *state.Slot[Done]          { return &c.login }
func (c *AuthController) RegisterState() *state.Slot[Done]       { return &c.register }
func (c *AuthController) ForgotPasswordState() *state.Slot[Done] { return &c.forgot }
func (c *AuthController) ResetPasswordState() *state.Slot[Done]  { return &c.reset }
func (c *AuthController) ChangePasswordState() *state.Slot[Done] { return &c.change }
func (c *AuthController) DeleteAccountState() *state.Slot[Done]  { return &c.remove }

// IsLoggedIn reports whether a token is stored.
func (c *AuthController) IsLoggedIn(ctx context.Context) bool {
	return c.store.IsLoggedIn(ctx)
}

// Login stores the returned credentials before reporting success.
func (c *AuthController) Login(username, password string) {
	state.Launch(c.scope, &c.login, func(ctx context.Context) (Done, error) {
		resp, err := c.api.Login(ctx, username, password)
		if err != nil {
			return Done{}, err
		}
		return Done{}, c.persist(ctx, resp, username)
	}, c.describe(labelLogin, map[int]string{http.StatusUnauthorized: msgInvalidCredentials}))
}

func (c *AuthController) Register(username, password string) {
	state.Launch(c.scope, &c.register, func(ctx context.Context) (Done, error) {
		resp, err := c.api.Register(ctx, username, password)
		if err != nil {
			return Done{}, err
		}
		return Done{}, c.persist(ctx, resp, username)
	}, c.describe(labelRegister, map[int]string{
		http.StatusBadRequest:   msgInvalidCredentials,
		http.StatusUnauthorized: msgInvalidCredentials,
		http.StatusConflict:     msgUsernameTaken,
	}))
}

// ForgotPassword succeeds once the server accepted the request; the reset
// token arrives out of band.
func (c *AuthController) ForgotPassword(username string) {
	state.Launch(c.scope, &c.forgot, func(ctx context.Context) (Done, error) {
		return Done{}, c.api.ForgotPassword(ctx, username)
	}, c.describe(labelForgotPassword, nil))
}

func (c *AuthController) ResetPassword(token, newPassword string) {
	state.Launch(c.scope, &c.reset, func(ctx context.Context) (Done, error) {
		return Done{}, c.api.ResetPassword(ctx, token, newPassword)
	}, c.describe(labelResetPassword, map[int]string{http.StatusBadRequest: msgInvalidResetToken}))
}

func (c *AuthController) ChangePassword(current, newPassword string) {
	state.Launch(c.scope, &c.change, func(ctx context.Context) (Done, error) {
		return Done{}, c.api.ChangePassword(ctx, current, newPassword)
	}, c.describe(labelChangePassword, map[int]string{http.StatusUnauthorized: msgWrongPassword}))
}

// DeleteAccount clears the stored credentials only after the server confirmed
// the deletion.
func (c *AuthController) DeleteAccount() {
	state.Launch(c.scope, &c.remove, func(ctx context.Context) (Done, error) {
		if err := c.api.DeleteAccount(ctx); err != nil {
			return Done{}, err
		}
		if err := c.store.Clear(ctx); err != nil {
			return Done{}, fmt.Errorf("clear credentials: %w", err)
		}
		return Done{}, nil
	}, c.describe(labelDeleteAccount, nil))
}

// Logout forgets the stored credentials and returns every form to idle.
func (c *AuthController) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	for _, slot := range []*state.Slot[Done]{&c.login, &c.register, &c.forgot, &c.reset, &c.change, &c.remove} {
		slot.Reset()
	}
	return nil
}

func (c *AuthController) persist(ctx context.Context, resp domain.AuthResponse, username string) error {
	name := resp.Username
	if name == "" {
		name = strings.TrimSpace(username)
	}
	err := c.store.Save(ctx, domain.Credentials{Token: resp.Token, Username: name, UserID: resp.UserID})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}
