package detector

import (
	"regexp"
	"strings"
)

// processorPrefixes are payment-processor artifacts prepended to merchant
// names in bank feeds. They carry no merchant identity and are stripped
// before canonicalization.
var processorPrefixes = []string{
	"sq *",
	"paypal *",
	"stripe",
	"apple.com/bill",
	"google *",
	"amzn mktp",
	"tst *",
	"pos ",
}

// legalSuffixes are trailing legal-form and payment boilerplate tokens that
// vary between feeds for the same merchant.
var legalSuffixes = map[string]bool{
	"ltd":      true,
	"llc":      true,
	"inc":      true,
	"bv":       true,
	"gmbh":     true,
	"sro":      true,
	"sa":       true,
	"spa":      true,
	"co":       true,
	"company":  true,
	"payments": true,
	"payment":  true,
	"transfer": true,
	"sepa":     true,
	"ach":      true,
}

var (
	punctuationPattern = regexp.MustCompile(`[^a-z0-9 ]+`)
	digitRunPattern    = regexp.MustCompile(`\b[0-9]{3,}\b`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// normalizePayee reduces a raw payee string to a comparable form: lowercase,
// processor prefixes removed, punctuation replaced with spaces, trailing
// legal suffixes dropped, and store-number/order-ID digit runs stripped.
func normalizePayee(payee string) string {
	name := strings.ToLower(strings.TrimSpace(payee))

	for _, prefix := range processorPrefixes {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimSpace(strings.TrimPrefix(name, prefix))
			break
		}
	}

	name = punctuationPattern.ReplaceAllString(name, " ")
	name = digitRunPattern.ReplaceAllString(name, " ")
	name = whitespacePattern.ReplaceAllString(strings.TrimSpace(name), " ")

	tokens := strings.Fields(name)
	for len(tokens) > 1 && legalSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

// tokenSetSimilarity computes the Jaccard similarity of the whitespace-split
// token sets of two normalized names (intersection over union).
func tokenSetSimilarity(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		setA[t] = true
	}

	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
