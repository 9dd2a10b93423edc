package usecase

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const currencyPrefix = "₹ "

var (
	amountPrinter  = message.NewPrinter(language.English)
	currencyTokens = []string{"₹", "INR", "Rs.", "Rs", "rs.", "rs", "$"}
)

// NormalizeAmount renders a matched amount as "₹ 12,000" or "₹ 1,200.50".
// It is idempotent on its own output. Unparsable input keeps the match,
// prefixed with the currency symbol exactly once.
func NormalizeAmount(raw string) string {
	original := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "₹"))
	stripped := original
	for _, token := range currencyTokens {
		stripped = strings.ReplaceAll(stripped, token, "")
	}
	stripped = strings.Join(strings.Fields(stripped), "")
	stripped = strings.ReplaceAll(stripped, ",", "")

	if strings.Contains(stripped, ".") {
		value, err := strconv.ParseFloat(stripped, 64)
		if err != nil {
			return currencyPrefix + original
		}
		return currencyPrefix + amountPrinter.Sprintf("%.2f", value)
	}

	value, err := strconv.ParseInt(stripped, 10, 64)
	if err != nil {
		return currencyPrefix + original
	}
	return currencyPrefix + amountPrinter.Sprintf("%d", value)
}
