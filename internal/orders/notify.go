package orders

import (
	"fmt"
	"strings"

	"shop-backend/internal/errx"
)

const (
	subjectInsufficientStock = "Order rejected: insufficient stock"
	subjectOutOfStock        = "Products now out of stock"
)

func confirmationSubject(orderID int64) string {
	return fmt.Sprintf("Order #%d confirmed", orderID)
}

func insufficientStockBody(shortages []errx.Shortage) string {
	var b strings.Builder
	b.WriteString("An incoming order could not be satisfied from stock.\n\n")
	for _, s := range shortages {
		fmt.Fprintf(&b, "- %s (product %d): requested %d, available %d\n",
			s.Name, s.ProductID, s.Requested, s.Available)
	}
	b.WriteString("\nNo order was created and no stock was deducted.\n")
	return b.String()
}

func outOfStockBody(products []DepletedProduct) string {
	var b strings.Builder
	b.WriteString("The following products are now out of stock:\n\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (product %d)\n", p.Name, p.ProductID)
	}
	return b.String()
}

func confirmationBody(v View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order #%d.\n\n", v.Customer.Name, v.ID)
	for _, l := range v.Lines {
		fmt.Fprintf(&b, "- %s x%d @ %s\n", l.Name, l.Quantity, l.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", v.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment method: %s\n", v.PaymentMethod)
	fmt.Fprintf(&b, "\nDelivery address:\n%s\n%s, %s %s\n%s\n",
		v.Customer.Address, v.Customer.City, v.Customer.PostalCode, v.Customer.Country,
		v.Customer.Phone)
	return b.String()
}
