package parser

import "github.com/paisatrail/paisatrail/internal/model"

// Template describes how to recognize one payment app's notifications.
// Templates are data: adding support for a new app means adding a row to
// this table, not new branching logic.
type Template struct {
	ID           string
	App          model.SourceApp
	PackageHints []string
	KeywordHints []string
}

// templates is the ordered template table. Order matters: score ties
// resolve to the first-declared template.
var templates = []Template{
	{
		ID:           "gpay-v1",
		App:          model.AppGPay,
		PackageHints: []string{"com.google.android.apps.nbu.paisa.user", "nbu.paisa"},
		KeywordHints: []string{"google pay", "gpay", "g pay"},
	},
	{
		ID:           "phonepe-v1",
		App:          model.AppPhonePe,
		PackageHints: []string{"com.phonepe.app"},
		KeywordHints: []string{"phonepe", "phone pe"},
	},
	{
		ID:           "paytm-v1",
		App:          model.AppPaytm,
		PackageHints: []string{"net.one97.paytm"},
		KeywordHints: []string{"paytm"},
	},
	{
		ID:           "bhim-v1",
		App:          model.AppBHIM,
		PackageHints: []string{"in.org.npci.upiapp"},
		KeywordHints: []string{"bhim"},
	},
}

// Templates returns a copy of the template table, mostly for diagnostics.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}
