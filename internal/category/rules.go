package category

import "github.com/paisatrail/paisatrail/internal/model"

// keywordRule maps merchant keywords to a category. Rules are evaluated in
// declaration order; the first keyword found as a substring of the
// normalized merchant wins.
type keywordRule struct {
	Category model.Category
	Keywords []string
}

var rules = []keywordRule{
	{
		Category: model.CategoryFood,
		Keywords: []string{
			"swiggy", "zomato", "dominos", "pizza", "restaurant", "cafe",
			"coffee", "tea", "chai", "biryani", "bakery", "dhaba", "kitchen",
			"food", "eatery", "juice",
		},
	},
	{
		Category: model.CategoryTransport,
		Keywords: []string{
			"uber", "ola", "rapido", "irctc", "redbus", "metro", "railway",
			"petrol", "fuel", "parking", "cab", "auto", "toll",
		},
	},
	{
		Category: model.CategoryShopping,
		Keywords: []string{
			"amazon", "flipkart", "myntra", "ajio", "meesho", "mart", "store",
			"shop", "bazaar", "mall", "retail",
		},
	},
	{
		Category: model.CategoryBills,
		Keywords: []string{
			"electricity", "recharge", "jio", "airtel", "bsnl", "broadband",
			"dth", "postpaid", "gas", "water", "bill", "insurance", "emi",
			"rent",
		},
	},
	{
		Category: model.CategoryEntertainment,
		Keywords: []string{
			"netflix", "hotstar", "prime", "spotify", "bookmyshow", "pvr",
			"inox", "cinema", "movie", "game", "music",
		},
	},
}
