package enhanceddata

import (
	"github.com/commercekit/bluesnap-service/internal/domain"
)

// ResolveLevel determines the effective enhanced data level for an order by
// combining store-level and per-product settings. Highest wins. A store
// configured for level 3 already is the maximum, so the item scan is skipped.
func ResolveLevel(order *domain.Order) domain.DataLevel {
	level := domain.DataLevelNone

	if store := order.StoreData; store != nil && store.Enabled {
		if store.Level == domain.DataLevel3 {
			return domain.DataLevel3
		}
		level = store.Level
	}

	for _, item := range order.Items {
		entity := item.PurchasedEntity
		// Items without a purchased entity or without their own setting
		// neither raise nor lower the level.
		if entity == nil || entity.DataLevel == nil || !entity.DataLevel.Enabled {
			continue
		}
		if entity.DataLevel.Level == domain.DataLevel3 {
			return domain.DataLevel3
		}
		if level == domain.DataLevelNone {
			level = entity.DataLevel.Level
		}
	}

	return level
}
