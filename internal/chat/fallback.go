package chat

import (
	"strings"
	"unicode"
)

type cannedReply struct {
	words   []string
	phrases []string
	reply   string
}

// fallbackTable is checked in order; the first match wins.
var fallbackTable = []cannedReply{
	{
		words:   []string{"price", "prices", "cost", "rate", "rs", "rupees", "stock", "discount", "offer"},
		phrases: []string{"how much"},
		reply:   "Prices are shown on every product page for the base pack. Bigger packs are priced by weight with 10% off. Tell me the product and pack size and I will check it for you.",
	},
	{
		words: []string{"deliver", "delivery", "shipping", "ship", "courier", "dispatch", "track"},
		reply: "We ship across India. Orders are dispatched within 2 working days and usually arrive in 3 to 7 days.",
	},
	{
		words: []string{"hi", "hello", "hey", "vanakkam", "namaste", "namaskaram"},
		reply: "Vanakkam! How can I help you with our homemade powders, snacks and ghee today?",
	},
	{
		words:   []string{"available", "availability", "sell", "have", "products", "menu"},
		phrases: []string{"do you"},
		reply:   "Our range includes sambar powder, rasam powder, biryani masala, Chettinad snacks and homemade ghee. Browse the catalog to see what is in stock right now.",
	},
	{
		words: []string{"contact", "phone", "call", "email", "whatsapp", "support", "help"},
		reply: "You can reach us from the Contact page, by email or on WhatsApp. We reply within a working day.",
	},
}

const genericReply = "Sorry, I could not understand that. You can ask me about prices, pack sizes, delivery or our products."

// Fallback answers from a fixed keyword table when the completion service is
// not available.
func Fallback(message string) string {
	lower := strings.ToLower(message)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	normalized := " " + strings.Join(words, " ") + " "

	for _, c := range fallbackTable {
		for _, w := range c.words {
			if set[w] {
				return c.reply
			}
		}
		for _, p := range c.phrases {
			if strings.Contains(normalized, " "+p+" ") {
				return c.reply
			}
		}
	}
	return genericReply
}
