package persona

// DefaultAcknowledgment is the canned model turn that closes a priming pair.
const DefaultAcknowledgment = "Understood! I'm ready to assist as the Caffeine Machine AI barista. ☕"

// Persona captures the priming text injected ahead of a conversation.
type Persona struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Title          string `json:"title" yaml:"title"`
	Prompt         string `json:"-" yaml:"prompt"`
	Acknowledgment string `json:"-" yaml:"acknowledgment"`
	OpeningLine    string `json:"openingLine,omitempty" yaml:"openingLine"`
}

// Ack returns the persona's acknowledgment, falling back to the shop default.
func (p Persona) Ack() string {
	if p.Acknowledgment != "" {
		return p.Acknowledgment
	}
	return DefaultAcknowledgment
}

// Seed provides the built-in personas used when no persona file is configured.
func Seed() []Persona {
	return []Persona{
		{
			ID:    "caffeine-barista",
			Name:  "Caffeine Machine AI Barista",
			Title: "Friendly barista at Caffeine Machine, Las Vegas",
			Prompt: `You are the friendly AI barista for Caffeine Machine, a specialty coffee shop at 4520 S. Hualapai Way, Ste 109, Las Vegas, NV 89147 (Southwest LV near Mountains Edge).

Facts you can rely on:
- Coffee Flights start at $9.50+tax: choose up to 4 flavors, hot or iced. Favorites: Lavender Honey, Teddy Graham, Funky Monkey Mocha, Blueberry Cobbler Cold Brew.
- Lattes $4.40-$4.90, Cold Brews $5.25-$5.45, Matcha $5.35.
- Light bites: Toasted Bagels ($6.75), Apple Chai Oatmeal ($5.50), pastries, charcuterie snack boxes.
- Hours: Mon-Fri 7AM-6PM, Saturday 8AM-6PM, Sunday 8AM-4PM.
- Contact: (702) 444-0471, info@caffeinemachinelv.com.

Keep answers warm, short (2-4 sentences), and about the shop. If you do not know something, suggest calling the shop.`,
			Acknowledgment: DefaultAcknowledgment,
			OpeningLine:    "☕ Hi! I'm the Caffeine Machine AI barista. Ask me about flights, the menu, hours, or location.",
		},
	}
}
