package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"restaurant-checkout/internal/domain"
	dto "restaurant-checkout/internal/microservices/checkout/domain/dto"
)

const (
	maxLines        = 50
	maxQuantity     = 99
	maxCustomerName = 100
	maxNotes        = 500
)

func validate(req dto.CheckoutRequest) error {
	if strings.TrimSpace(req.TableCode) == "" {
		return domain.ValidationError{Field: "table_code", Message: "required"}
	}
	if !domain.PaymentMethod(req.PaymentMethod).Valid() {
		return domain.ValidationError{Field: "payment_method", Message: "must be online or cash"}
	}
	if req.CustomerName != nil && utf8.RuneCountInString(*req.CustomerName) > maxCustomerName {
		return domain.ValidationError{Field: "customer_name", Message: fmt.Sprintf("at most %d characters", maxCustomerName)}
	}
	if utf8.RuneCountInString(req.Notes) > maxNotes {
		return domain.ValidationError{Field: "notes", Message: fmt.Sprintf("at most %d characters", maxNotes)}
	}
	if len(req.Items) == 0 {
		return domain.ValidationError{Field: "items", Message: "at least one item is required"}
	}
	if len(req.Items) > maxLines {
		return domain.ValidationError{Field: "items", Message: fmt.Sprintf("at most %d lines", maxLines)}
	}

	for i, line := range req.Items {
		path := fmt.Sprintf("items[%d]", i)
		if line.MenuItemID <= 0 {
			return domain.ValidationError{Field: path + ".menu_item_id", Message: "required"}
		}
		if line.Quantity < 1 || line.Quantity > maxQuantity {
			return domain.ValidationError{Field: path + ".quantity", Message: fmt.Sprintf("must be between 1 and %d", maxQuantity)}
		}
		if line.UnitPrice.IsNegative() {
			return domain.ValidationError{Field: path + ".unit_price", Message: "must not be negative"}
		}
		if utf8.RuneCountInString(line.Notes) > maxNotes {
			return domain.ValidationError{Field: path + ".notes", Message: fmt.Sprintf("at most %d characters", maxNotes)}
		}
		for j, mod := range line.Modifiers {
			mpath := fmt.Sprintf("%s.modifiers[%d]", path, j)
			if mod.ModifierID <= 0 {
				return domain.ValidationError{Field: mpath + ".modifier_id", Message: "required"}
			}
			if mod.Quantity < 1 || mod.Quantity > maxQuantity {
				return domain.ValidationError{Field: mpath + ".quantity", Message: fmt.Sprintf("must be between 1 and %d", maxQuantity)}
			}
			if mod.UnitPrice.IsNegative() {
				return domain.ValidationError{Field: mpath + ".unit_price", Message: "must not be negative"}
			}
		}
	}
	return nil
}
