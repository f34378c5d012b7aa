package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prooflab/prooflab-go/internal/session"
)

// signInResponse is the identity provider's token bundle. The id_token is
// what the backend accepts as the bearer credential.
type signInResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SignIn authenticates with email and password and persists the resulting
// credential pair to the session store. Both tokens are saved together.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	var resp signInResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signin", credentialsRequest{
		Email:    email,
		Password: password,
	}, &resp, nil); err != nil {
		return err
	}

	if err := c.store.Save(session.Session{
		AccessToken:  resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return err
	}

	if err := c.store.SetMeta("email", email); err != nil {
		c.logger.Warn("failed to cache account email", slog.String("error", err.Error()))
	}

	c.logger.Info("signed in", slog.String("email", email))

	return nil
}

// SignUp registers a new account. The provider emails a verification code;
// the account is unusable until Verify succeeds.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	return c.doJSON(ctx, http.MethodPost, "/auth/signup", credentialsRequest{
		Email:    email,
		Password: password,
	}, nil, nil)
}

// Verify confirms a new account with the emailed verification code.
func (c *Client) Verify(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return fmt.Errorf("%w: email and verification code are required", ErrValidation)
	}

	return c.doJSON(ctx, http.MethodPost, "/auth/verify", verifyRequest{
		Email: email,
		Code:  code,
	}, nil, nil)
}

// SignOut clears both tokens from the session store. Subsequent gateway
// calls carry no bearer credential.
func (c *Client) SignOut() error {
	c.logger.Info("signing out, clearing session")

	return c.store.Clear()
}
