package fulfillment

import (
	"github.com/example/fairway-commerce/internal/apperr"
	"github.com/example/fairway-commerce/internal/auth"
	"github.com/example/fairway-commerce/internal/domain/order"
)

// Authorize decides whether the caller may change the status of o.
// Buyers never may; brand admins only for orders carrying at least one item
// of their brand; platform admins always.
func Authorize(id auth.Identity, o *order.Order) error {
	if !id.Role.IsAdmin() {
		return apperr.Forbidden("only administrators can change order status")
	}
	if id.Role == auth.RolePlatformAdmin || o.HasBrand(id.BrandID) {
		return nil
	}
	return apperr.Forbidden("order has no items of your brand")
}
