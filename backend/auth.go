package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/egor/citydeals-admin/models"
)

const msgBadCredentials = "Identifiants incorrects."

// LoginResult - ответ /admin/login
type LoginResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Token   string        `json:"token"`
	Admin   *models.Admin `json:"admin"`
}

// Login проверяет учётные данные администратора.
// Любой отказ (не 2xx или success:false) возвращается как *APIError.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshal login: %w", err)
	}

	var res LoginResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/admin/login",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		fallback:    msgBadCredentials,
	}, &res)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: firstNonEmpty(res.Message, msgBadCredentials)}
	}
	return &res, nil
}
