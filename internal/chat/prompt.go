package chat

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
)

const promptIntro = `You are the shopping assistant of a small homemade food store.
Answer briefly and warmly. Only talk about the products listed below and never invent prices.
All prices are in rupees.`

// BuildSystemPrompt describes the catalog with a price for every pack size.
func BuildSystemPrompt(l *slog.Logger, products []models.Product) string {
	var b strings.Builder
	b.WriteString(promptIntro)
	b.WriteString("\n\nPricing rule: each product's price is for its first pack size. ")
	fmt.Fprintf(&b, "Larger packs cost proportionally more minus a flat %d%% bulk discount; smaller packs cost proportionally less with no discount.\n", pricing.BulkDiscountPercent)

	b.WriteString("\nCatalog:\n")
	if len(products) == 0 {
		b.WriteString("- (catalog unavailable, ask the customer to check the product pages)\n")
		return b.String()
	}

	for _, p := range products {
		fmt.Fprintf(&b, "- %s: ", p.Name)
		packs := pricing.PackPrices(l, p.Price, p.PackSizes)
		if len(packs) == 0 {
			fmt.Fprintf(&b, "Rs %d", p.Price)
		}
		for i, pp := range packs {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s Rs %d", pp.Size, pp.Price)
		}
		if p.MRP > p.Price {
			fmt.Fprintf(&b, " (MRP Rs %d)", p.MRP)
		}
		if p.Stock > 0 {
			fmt.Fprintf(&b, "; in stock (%d)\n", p.Stock)
		} else {
			b.WriteString("; out of stock\n")
		}
	}
	return b.String()
}
