package model

// SourceApp identifies which payment app produced a notification.
type SourceApp string

// Supported payment apps.
const (
	AppGPay    SourceApp = "gpay"
	AppPhonePe SourceApp = "phonepe"
	AppPaytm   SourceApp = "paytm"
	AppBHIM    SourceApp = "bhim"
)

// Direction indicates whether money left or entered the account.
type Direction string

// Transaction directions.
const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// ParsedTransaction is the result of matching a notification body against a
// payment-app template. It only exists for successful parses; a failed parse
// leaves no partial record behind.
type ParsedTransaction struct {
	SourceApp          SourceApp
	AmountPaise        int64 // always > 0
	Direction          Direction
	MerchantRaw        string
	MerchantNormalized string
	UPIRef             string // empty if no reference was found
	TemplateID         string
	Confidence         float64 // in [0, 0.99]
	RawText            string
}
