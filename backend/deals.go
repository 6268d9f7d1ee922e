package backend

import (
	"context"
	"encoding/json"

	"github.com/egor/citydeals-admin/models"
)

// Deals - список сделок
func (c *Client) Deals(ctx context.Context, q ListQuery) (*DealList, error) {
	var out DealList
	if err := c.getJSON(ctx, "/deals", q.Values(), "Impossible de récupérer les deals.", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Deal - карточка сделки. Ответ {deal: {...}} или сама сделка.
func (c *Client) Deal(ctx context.Context, id models.ID) (*models.Deal, error) {
	if err := requireID(id, "Identifiant manquant."); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/deal/"+escapeID(id), nil, "Impossible de récupérer le deal.", &raw); err != nil {
		return nil, err
	}
	var deal models.Deal
	if err := decodeOne(raw, "deal", &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}
