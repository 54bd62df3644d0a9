// Package parser matches free-text payment notifications against
// payment-app templates and extracts structured transaction fields.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paisatrail/paisatrail/internal/model"
)

// Confidence scoring, in hundredths so additions stay exact.
const (
	baseConfidence      = 70
	refBonus            = 10
	upiPhraseBonus      = 10
	successKeywordBonus = 5
	maxConfidence       = 99
	packageHintWeight   = 10
)

// amountRe requires a currency marker immediately before the numeric token.
// The leading [^a-z] guard keeps "rs" inside ordinary words (offers, hours)
// from being read as a currency marker.
var amountRe = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:₹|rs\.?|inr)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// refRe matches common reference-label variants followed by the reference token.
var refRe = regexp.MustCompile(`(?i)\b(?:upi\s*ref(?:erence)?(?:\s*no\.?)?|utr(?:\s*no\.?)?|ref(?:erence)?(?:\s*no\.?)?|txn\s*id|transaction\s*id)\s*[:#.\-]?\s*([a-zA-Z0-9][a-zA-Z0-9\-]{5,})`)

// Merchant patterns are tried in order; the first non-empty capture wins.
var debitMerchantRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bto\s+([a-z0-9][a-z0-9 &.'\-]*?)(?:\s+(?:via|using|through|on|upi|ref|utr|txn)\b|[.,;!]|$)`),
	regexp.MustCompile(`(?i)\bat\s+([a-z0-9][a-z0-9 &.'\-]*?)(?:\s+(?:via|using|through|on|upi|ref|utr|txn)\b|[.,;!]|$)`),
	regexp.MustCompile(`(?i)\btowards\s+([a-z0-9][a-z0-9 &.'\-]*?)(?:\s+(?:via|using|through|on|upi|ref|utr|txn)\b|[.,;!]|$)`),
}

var creditMerchantRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfrom\s+([a-z0-9][a-z0-9 &.'\-]*?)(?:\s+(?:via|using|through|on|upi|ref|utr|txn|in)\b|[.,;!]|$)`),
	regexp.MustCompile(`(?i)\bby\s+([a-z0-9][a-z0-9 &.'\-]*?)(?:\s+(?:via|using|through|on|upi|ref|utr|txn|in)\b|[.,;!]|$)`),
}

// upiSignals gate out promotional and unrelated notifications: a text with
// an amount but none of these is still rejected.
var upiSignals = []string{
	"upi", "utr", "vpa", "reference", "ref no", "ref:", "ref ",
	"google pay", "gpay", "phonepe", "paytm", "bhim",
}

var debitHints = []string{"paid", "sent", "debited", "payment of", "paying"}

var creditHints = []string{"received", "credited", "refund", "deposited", "added"}

var upiPhrases = []string{"via upi", "upi id", "utr"}

var successKeywords = []string{"successful", "success", "completed"}

// Parser extracts transactions from notification text using the template table.
type Parser struct {
	templates []Template
}

// New creates a Parser over the built-in template table.
func New() *Parser {
	return &Parser{templates: templates}
}

// Parse attempts to extract a transaction from notification text.
// It returns nil when the text does not look like a payment notification;
// a failed parse leaves no partial record.
func (p *Parser) Parse(rawText, packageName string) *model.ParsedTransaction {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	pkg := strings.ToLower(packageName)

	tmpl := p.selectTemplate(lower, pkg)
	if tmpl == nil {
		return nil
	}

	amountPaise, ok := extractAmountPaise(text)
	if !ok {
		return nil
	}

	if !hasUPISignal(lower) {
		return nil
	}

	direction := inferDirection(lower)

	merchant := extractMerchant(text, direction)
	if merchant == "" {
		// A transaction without an identifiable counterparty is not useful.
		return nil
	}

	ref := extractRef(text)

	confidence := baseConfidence
	if ref != "" {
		confidence += refBonus
	}
	if containsAny(lower, upiPhrases) {
		confidence += upiPhraseBonus
	}
	if containsAny(lower, successKeywords) {
		confidence += successKeywordBonus
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	if confidence < 0 {
		confidence = 0
	}

	return &model.ParsedTransaction{
		SourceApp:          tmpl.App,
		AmountPaise:        amountPaise,
		Direction:          direction,
		MerchantRaw:        merchant,
		MerchantNormalized: model.NormalizeMerchant(merchant),
		UPIRef:             ref,
		TemplateID:         tmpl.ID,
		Confidence:         float64(confidence) / 100,
		RawText:            text,
	}
}

// selectTemplate scores every template and returns the best strictly-positive
// match. Package hints weigh 10x keyword hints; ties go to the
// first-declared template.
func (p *Parser) selectTemplate(lowerText, lowerPkg string) *Template {
	var best *Template
	bestScore := 0
	for i := range p.templates {
		t := &p.templates[i]
		score := 0
		for _, hint := range t.PackageHints {
			if lowerPkg != "" && strings.Contains(lowerPkg, hint) {
				score += packageHintWeight
			}
		}
		for _, hint := range t.KeywordHints {
			if strings.Contains(lowerText, hint) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = t
		}
	}
	return best
}

// extractAmountPaise finds the first currency-marked amount and converts it
// to paise. Thousands separators are tolerated; more than two decimal
// places are not.
func extractAmountPaise(text string) (int64, bool) {
	idx := amountRe.FindStringSubmatchIndex(text)
	if idx == nil {
		return 0, false
	}
	// More than two decimal places means this is not a currency amount.
	if end := idx[3]; end < len(text) && text[end] >= '0' && text[end] <= '9' {
		return 0, false
	}
	token := strings.ReplaceAll(text[idx[2]:idx[3]], ",", "")

	whole := token
	frac := ""
	if i := strings.IndexByte(token, '.'); i >= 0 {
		whole, frac = token[:i], token[i+1:]
	}

	rupees, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	paise := rupees * 100
	switch len(frac) {
	case 0:
	case 1:
		p, perr := strconv.ParseInt(frac, 10, 64)
		if perr != nil {
			return 0, false
		}
		paise += p * 10
	case 2:
		p, perr := strconv.ParseInt(frac, 10, 64)
		if perr != nil {
			return 0, false
		}
		paise += p
	default:
		return 0, false
	}

	if paise <= 0 {
		return 0, false
	}
	return paise, true
}

func hasUPISignal(lowerText string) bool {
	return containsAny(lowerText, upiSignals)
}

// inferDirection counts debit vs credit hint words; the higher count wins
// and a tie defaults to debit.
func inferDirection(lowerText string) model.Direction {
	debit := countHints(lowerText, debitHints)
	credit := countHints(lowerText, creditHints)
	if credit > debit {
		return model.DirectionCredit
	}
	return model.DirectionDebit
}

func countHints(lowerText string, hints []string) int {
	n := 0
	for _, h := range hints {
		if strings.Contains(lowerText, h) {
			n++
		}
	}
	return n
}

func extractMerchant(text string, direction model.Direction) string {
	patterns := debitMerchantRes
	if direction == model.DirectionCredit {
		patterns = creditMerchantRes
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if merchant := strings.TrimSpace(m[1]); merchant != "" {
				return merchant
			}
		}
	}
	return ""
}

func extractRef(text string) string {
	m := refRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func containsAny(lowerText string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lowerText, n) {
			return true
		}
	}
	return false
}
