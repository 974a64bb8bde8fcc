package cart

import (
	cartdto "github.com/angelmondragon/payflow-checkout/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/payflow-checkout/internal/cart"
)

func newCart(store *cartsvc.Store) cartdto.Cart {
	lines := store.Items()
	items := make([]cartdto.CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, newCartItem(line))
	}
	return cartdto.Cart{
		Items: items,
		Count: store.ItemCount(),
		Total: store.Total(nil),
	}
}

func newCartItem(line cartsvc.LineItem) cartdto.CartItem {
	return cartdto.CartItem{
		ProductID: line.ID,
		Name:      line.Name,
		Image:     line.Image,
		Price:     line.Price,
		Quantity:  line.Quantity,
		Subtotal:  line.Subtotal(),
	}
}
