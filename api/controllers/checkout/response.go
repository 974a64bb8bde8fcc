package checkout

import (
	"strings"

	checkoutdto "github.com/angelmondragon/payflow-checkout/api/controllers/checkout/dto"
	checkoutsvc "github.com/angelmondragon/payflow-checkout/internal/checkout"
	"github.com/angelmondragon/payflow-checkout/internal/payments"
)

func newQuote(q checkoutsvc.Quote) checkoutdto.Quote {
	items := make([]checkoutdto.QuoteItem, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, checkoutdto.QuoteItem{
			ProductID: item.ProductID,
			ServiceID: item.ServiceID,
			Quantity:  item.Quantity,
			Seats:     item.Seats,
			TierID:    item.TierID,
		})
	}
	out := checkoutdto.Quote{Quantity: q.Quantity, Total: q.Total, Items: items}
	if q.Context != nil {
		out.Kind = q.Context.Kind()
	}
	return out
}

func newPayment(result checkoutsvc.PayResult) checkoutdto.Payment {
	res := result.Resolution
	out := checkoutdto.Payment{
		CheckoutID:  result.CheckoutID,
		State:       res.State,
		Trail:       res.Trail,
		Code:        string(res.Code),
		Message:     res.Message,
		RedirectURL: res.RedirectURL,
		Quote:       newQuote(result.Quote),
	}
	if res.Order != nil {
		out.Order = &checkoutdto.Order{ID: res.Order.ID, Status: res.Order.Status, Total: res.Order.Total}
	}
	return out
}

func newAccounts(accounts []payments.BankAccount) []checkoutdto.Account {
	out := make([]checkoutdto.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, checkoutdto.Account{
			ID:      a.ID,
			Origin:  a.Origin,
			Bank:    a.Bank,
			Number:  maskNumber(a.Number),
			Type:    a.Type,
			Holder:  a.Holder,
			Balance: a.Balance,
			Active:  a.Active,
		})
	}
	return out
}

// maskNumber keeps the last four digits.
func maskNumber(number string) string {
	number = strings.TrimSpace(number)
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
