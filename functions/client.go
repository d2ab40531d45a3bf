// Package functions calls the two serverless functions the platform hosts:
// admin user management and transactional email.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mpa-platform/apperror"
	"mpa-platform/utils"
)

const (
	OpCreateAdmin      = "create_admin"
	OpDeleteAllUsers   = "delete_all_users"
	EmailVerification  = "verification"
	EmailPasswordReset = "password-reset"

	adminPath = "/functions/v1/admin-operations"
	emailPath = "/functions/v1/send-email"
)

type AdminRequest struct {
	Operation string `json:"operation"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
}

type AdminResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type EmailRequest struct {
	Type        string `json:"type"`
	Email       string `json:"email"`
	SignUpToken string `json:"signUpToken,omitempty"`
}

type EmailResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type Client struct {
	BaseURL string
	Key     string
	Client  *http.Client
	log     *slog.Logger
}

func NewClient(baseURL, key string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		Client:  utils.NewHTTPClient(timeout),
		log:     log.With("component", "functions"),
	}
}

// Configured is false when no functions endpoint was set.
func (c *Client) Configured() bool {
	return c != nil && c.BaseURL != ""
}

// AdminOperation invokes the admin function. A response with success=false
// is returned as an error carrying the function's own message.
func (c *Client) AdminOperation(ctx context.Context, req AdminRequest) (*AdminResponse, error) {
	switch req.Operation {
	case OpCreateAdmin:
		if req.Email == "" || req.Password == "" {
			return nil, apperror.ValidationFailed("email", "email and password are required to create an admin")
		}
	case OpDeleteAllUsers:
	default:
		return nil, apperror.ValidationFailed("operation", "unknown admin operation "+req.Operation)
	}

	var out AdminResponse
	if err := c.call(ctx, adminPath, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, apperror.Remote(firstNonEmpty(out.Error, out.Message, "admin operation failed"))
	}
	return &out, nil
}

func (c *Client) SendEmail(ctx context.Context, req EmailRequest) (*EmailResponse, error) {
	if req.Type != EmailVerification && req.Type != EmailPasswordReset {
		return nil, apperror.ValidationFailed("type", "unknown email type "+req.Type)
	}
	if req.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	var out EmailResponse
	if err := c.call(ctx, emailPath, req, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return &out, apperror.Remote(firstNonEmpty(out.Error, "email dispatch failed"))
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, path string, in, out any) error {
	if !c.Configured() {
		return apperror.Remote("serverless functions are not configured")
	}

	jsonData, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Key)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("functions %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	// error bodies still carry {success:false, error}
	decodeErr := json.Unmarshal(body, out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("function call failed", "path", path, "status", resp.StatusCode, "body", string(body))
		if decodeErr == nil {
			if msg := remoteMessage(out); msg != "" {
				return apperror.Remote(msg)
			}
		}
		return apperror.Remote(fmt.Sprintf("function returned %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return errors.Join(apperror.Remote("invalid function response"), decodeErr)
	}
	return nil
}

func remoteMessage(out any) string {
	switch v := out.(type) {
	case *AdminResponse:
		return firstNonEmpty(v.Error, v.Message)
	case *EmailResponse:
		return v.Error
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
