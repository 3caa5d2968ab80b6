package checkout

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/creatorhub/storefront/internal/domain"
)

// itemSnapshot is the per-line metadata attached to a payment so the
// fulfillment webhook can reconstruct what was bought.
type itemSnapshot struct {
	ID        string  `json:"id"`
	CreatorID string  `json:"creator_id"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// buildIntentMetadata is the single place order metadata is assembled for
// the embedded-payment flow. Both entry points price carts through
// domain.CalculateTotals, so the intent and session amounts cannot drift.
func buildIntentMetadata(userID string, items []domain.CartItem, shipping *domain.ShippingInfo, accountEmail string) (map[string]string, error) {
	snapshots := make([]itemSnapshot, 0, len(items))
	for _, item := range items {
		snapshots = append(snapshots, itemSnapshot{
			ID:        item.PackageID,
			CreatorID: item.CreatorID,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	itemsJSON, err := json.Marshal(snapshots)
	if err != nil {
		return nil, fmt.Errorf("marshal items snapshot: %w", err)
	}

	metadata := map[string]string{
		"user_id":     userID,
		"items_count": strconv.Itoa(len(items)),
		"items_json":  string(itemsJSON),
	}

	if shipping != nil {
		metadata["shipping_name"] = shipping.Name
		metadata["shipping_email"] = shipping.Email
	}
	if metadata["shipping_email"] == "" {
		metadata["shipping_email"] = accountEmail
	}

	return metadata, nil
}

// buildSessionMetadata carries the creator list the fulfillment webhook
// resolves packages from.
func buildSessionMetadata(userID string, creatorIDs, creatorNames []string) (map[string]string, error) {
	idsJSON, err := json.Marshal(creatorIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal creator ids: %w", err)
	}
	namesJSON, err := json.Marshal(creatorNames)
	if err != nil {
		return nil, fmt.Errorf("marshal creator names: %w", err)
	}

	return map[string]string{
		"user_id":       userID,
		"creator_ids":   string(idsJSON),
		"creator_names": string(namesJSON),
	}, nil
}
