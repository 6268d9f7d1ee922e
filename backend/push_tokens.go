package backend

import (
	"context"
	"net/url"
)

// PushTokenList - ответ /push-tokens
type PushTokenList struct {
	Tokens []string `json:"tokens"`
}

// PushTokens - Expo-токены устройств получателей. city "all" или пустой
// в запрос не передаётся.
func (c *Client) PushTokens(ctx context.Context, recipient, city string) ([]string, error) {
	q := url.Values{}
	if recipient != "" {
		q.Set("recipient", recipient)
	}
	if city != "" && city != "all" {
		q.Set("city", city)
	}
	var out PushTokenList
	if err := c.getJSON(ctx, "/push-tokens", q, "Impossible de récupérer les destinataires.", &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}
