package intent

import "strings"

// Topic is the coarse subject of a visitor's question.
type Topic string

const (
	General  Topic = "general"
	Flights  Topic = "flights"
	Hours    Topic = "hours"
	Location Topic = "location"
	Food     Topic = "food"
	Prices   Topic = "prices"
)

// Decision is the detected topic and its keyword score.
type Decision struct {
	Topic Topic
	Score int
}

// priority is the order topics are tried in; the first topic with a hit wins.
var priority = []Topic{Flights, Hours, Location, Food, Prices}

var keywordBuckets = map[Topic][]string{
	Flights:  {"flight", "flights", "sampler", "tasting"},
	Hours:    {"hour", "open", "close", "time", "today", "weekend"},
	Location: {"location", "address", "where", "direction", "parking"},
	Food:     {"food", "eat", "bagel", "oatmeal", "bite", "pastry", "snack"},
	Prices:   {"price", "cost", "how much", "menu", "$"},
}

// Classify returns the first topic in priority order whose keywords appear in
// text. Score counts that topic's keyword hits.
func Classify(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{Topic: General}
	}

	for _, topic := range priority {
		score := 0
		for _, word := range keywordBuckets[topic] {
			if strings.Contains(normalized, word) {
				score++
			}
		}
		if score > 0 {
			return Decision{Topic: topic, Score: score}
		}
	}
	return Decision{Topic: General}
}
