package backend

import (
	"context"
	"net/http"

	"github.com/egor/citydeals-admin/models"
)

// UserList - ответ /users
type UserList struct {
	Users      []models.User      `json:"users"`
	Pagination *models.Pagination `json:"pagination"`
}

// Users - список пользователей приложения
func (c *Client) Users(ctx context.Context, q ListQuery) (*UserList, error) {
	var out UserList
	if err := c.getJSON(ctx, "/users", q.Values(), "Impossible de récupérer les utilisateurs.", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleUser активирует или деактивирует пользователя. Пустой id
// отклоняется без обращения к сети.
func (c *Client) ToggleUser(ctx context.Context, id models.ID, currentlyActive bool) (models.ActionResult, error) {
	if err := requireID(id, "Identifiant utilisateur manquant."); err != nil {
		return models.ActionResult{}, err
	}
	action, msg := toggleAction(currentlyActive, "l'utilisateur")
	return c.mutate(ctx, request{
		method:   http.MethodGet,
		path:     "/user/" + escapeID(id) + "/" + action,
		fallback: msg,
	})
}
