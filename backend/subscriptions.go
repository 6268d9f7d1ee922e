package backend

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/egor/citydeals-admin/models"
)

// SubscriptionList - ответ /subscriptions
type SubscriptionList struct {
	Success       bool                  `json:"success"`
	Subscriptions []models.Subscription `json:"subscriptions"`
}

// Subscriptions - оплаты одной компании
func (c *Client) Subscriptions(ctx context.Context, companyID models.ID) (*SubscriptionList, error) {
	if err := requireID(companyID, "Identifiant d'entreprise manquant."); err != nil {
		return nil, err
	}
	out := SubscriptionList{Success: true}
	q := url.Values{"id_company": {companyID.String()}}
	if err := c.getJSON(ctx, "/subscriptions", q, "Impossible de récupérer les abonnements de cette entreprise.", &out); err != nil {
		return nil, err
	}
	if out.Subscriptions == nil {
		out.Subscriptions = []models.Subscription{}
	}
	return &out, nil
}

// CreateSubscription добавляет оплату. fields должен содержать id_company.
func (c *Client) CreateSubscription(ctx context.Context, fields map[string]string) (models.ActionResult, error) {
	if err := requireID(models.ID(fields["id_company"]), "Identifiant d'entreprise manquant."); err != nil {
		return models.ActionResult{}, err
	}
	return c.sendForm(ctx, http.MethodPost, "/subscription", fieldsForm(fields), "Impossible d'ajouter le paiement.")
}

// UpdateSubscription изменяет оплату
func (c *Client) UpdateSubscription(ctx context.Context, id models.ID, fields map[string]string) (models.ActionResult, error) {
	if err := requireID(id, "Identifiant d'abonnement manquant."); err != nil {
		return models.ActionResult{}, err
	}
	return c.sendForm(ctx, http.MethodPut, "/subscription/"+escapeID(id), fieldsForm(fields), "Impossible de modifier le paiement.")
}

// DeleteSubscription удаляет оплату
func (c *Client) DeleteSubscription(ctx context.Context, id models.ID) (models.ActionResult, error) {
	if err := requireID(id, "Identifiant d'abonnement manquant."); err != nil {
		return models.ActionResult{}, err
	}
	return c.mutate(ctx, request{
		method:   http.MethodDelete,
		path:     "/subscription/" + escapeID(id),
		fallback: "Impossible de supprimer le paiement.",
	})
}

// fieldsForm переносит поля как есть, в стабильном порядке.
func fieldsForm(fields map[string]string) *formBuilder {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := newForm()
	for _, k := range keys {
		f.field(k, fields[k])
	}
	return f
}
