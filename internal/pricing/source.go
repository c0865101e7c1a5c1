package pricing

// Competitor identifies one of the tracked rival sellers.
type Competitor string

const (
	Amazon  Competitor = "amazon"
	Walmart Competitor = "walmart"
	BestBuy Competitor = "bestbuy"
)

var competitors = []Competitor{Amazon, Walmart, BestBuy}

// Competitors returns the tracked competitors in a stable order.
func Competitors() []Competitor {
	out := make([]Competitor, len(competitors))
	copy(out, competitors)
	return out
}

func ParseCompetitor(s string) (Competitor, error) {
	for _, c := range competitors {
		if string(c) == s {
			return c, nil
		}
	}
	return "", invalidf("unknown competitor %q", s)
}

func (c Competitor) Valid() bool {
	_, err := ParseCompetitor(string(c))
	return err == nil
}

// Source is the origin of a price point: the merchant's own price or a competitor.
type Source string

// SourceYourPrice marks the merchant's own historical price.
const SourceYourPrice Source = "your-price"

func SourceFor(c Competitor) Source { return Source(c) }

func ParseSource(s string) (Source, error) {
	if Source(s) == SourceYourPrice {
		return SourceYourPrice, nil
	}
	c, err := ParseCompetitor(s)
	if err != nil {
		return "", invalidf("unknown source %q", s)
	}
	return SourceFor(c), nil
}

func (s Source) Valid() bool {
	_, err := ParseSource(string(s))
	return err == nil
}

// Status classifies how far a product's current price is from the optimal one.
type Status string

const (
	StatusUnknown            Status = "Unknown"
	StatusCompetitive        Status = "Competitive"
	StatusConsiderAdjustment Status = "Consider Adjustment"
	StatusAdjustmentNeeded   Status = "Adjustment Needed"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusUnknown, StatusCompetitive, StatusConsiderAdjustment, StatusAdjustmentNeeded:
		return st, nil
	case "unknown", "":
		return StatusUnknown, nil
	}
	return "", invalidf("unknown status %q", s)
}
