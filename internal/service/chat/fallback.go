package chat

import "github.com/zhouzirui/caffeine-relay/backend/internal/analysis/intent"

var fallbackReplies = map[intent.Topic]string{
	intent.Flights:  "☕ Coffee Flights start at $9.50+tax — choose up to 4 flavors hot or iced! Available every day. Favorites include Lavender Honey, Teddy Graham, Funky Monkey Mocha, and Blueberry Cobbler Cold Brew.",
	intent.Hours:    "🕐 We're open Mon–Fri 7AM–6PM, Saturday 8AM–6PM, Sunday 8AM–4PM. See you soon!",
	intent.Location: "📍 4520 S. Hualapai Way, Ste 109, Las Vegas, NV 89147 — Southwest LV near Mountains Edge. Easy parking in the strip mall!",
	intent.Food:     "🥯 Light bites: Toasted Bagels ($6.75) with PB/banana/granola or balsamic/everything seasoning, Apple Chai Oatmeal ($5.50), pastries, and charcuterie snack boxes.",
	intent.Prices:   "💰 Flights from $9.50 | Lattes $4.40–$4.90 | Cold Brews $5.25–$5.45 | Matcha $5.35 | Food $5.50–$6.75. Great value for incredible coffee!",
	intent.General:  "☕ Hi! I'm the Caffeine Machine AI barista. Ask me about flights, the menu, hours, or location. For direct help: (702) 444-0471 or info@caffeinemachinelv.com",
}

// FallbackReply returns the canned answer closest to the visitor's question.
func FallbackReply(message string) string {
	if reply, ok := fallbackReplies[intent.Classify(message).Topic]; ok {
		return reply
	}
	return fallbackReplies[intent.General]
}
