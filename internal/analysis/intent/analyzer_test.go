package intent

import "testing"

func TestClassifyTopics(t *testing.T) {
	cases := map[string]Topic{
		"Do you have coffee flights?":    Flights,
		"When do you OPEN on Sunday?":    Hours,
		"What's your address?":           Location,
		"Can I get a bagel?":             Food,
		"How much is a latte":            Prices,
		"hello there":                    General,
		"   ":                            General,
		"how much is a flight":           Flights,
		"where do I park, what address?": Location,
	}

	for text, want := range cases {
		if got := Classify(text).Topic; got != want {
			t.Fatalf("Classify(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	decision := Classify("what is the menu price for a flight?")
	if decision.Topic != Flights {
		t.Fatalf("expected flights to win over prices, got %s", decision.Topic)
	}

	decision = Classify("menu prices: what does it cost and how much")
	if decision.Topic != Prices {
		t.Fatalf("expected prices, got %s", decision.Topic)
	}
	if decision.Score < 2 {
		t.Fatalf("expected multiple keyword hits, got %d", decision.Score)
	}
}
