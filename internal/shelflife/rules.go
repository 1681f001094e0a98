package shelflife

import "strings"

// Rule maps names accepted by Match to a fixed shelf life.
type Rule struct {
	Category string
	Match    func(name string) bool
	Days     int
}

func containsAny(keywords ...string) func(string) bool {
	return func(name string) bool {
		for _, k := range keywords {
			if strings.Contains(name, k) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is evaluated top to bottom against the lower-cased name; the
// first match wins, so more specific keywords must come first.
var DefaultRules = []Rule{
	{"dairy", containsAny("牛奶", "milk"), 7},
	{"dairy", containsAny("酸奶", "yogurt"), 14},
	{"dairy", containsAny("奶酪", "芝士", "cheese"), 14},

	{"meat", func(n string) bool {
		return containsAny("鸡胸", "鸡腿", "chicken")(n) || (strings.Contains(n, "鸡") && !strings.Contains(n, "蛋"))
	}, 3},
	{"meat", containsAny("牛肉", "beef", "steak"), 3},
	{"meat", containsAny("猪肉", "pork"), 3},
	{"seafood", containsAny("鱼", "fish", "虾", "shrimp"), 2},
	{"protein", containsAny("豆腐", "tofu"), 3},

	{"eggs", containsAny("鸡蛋", "egg"), 21},

	{"bakery", containsAny("面包", "bread", "吐司", "bun"), 3},

	{"produce", containsAny("生菜", "菠菜", "leaf", "lettuce", "spinach"), 3},
	{"produce", containsAny("香蕉", "banana"), 3},
	{"produce", containsAny("苹果", "apple"), 14},
	{"produce", containsAny("橙", "橘", "柑", "orange", "citrus"), 14},
	{"produce", containsAny("番茄", "西红柿", "tomato"), 5},
	{"produce", containsAny("土豆", "马铃薯", "potato"), 21},
	{"produce", containsAny("洋葱", "onion"), 21},

	{"staples", containsAny("大米", "米", "rice"), 180},
	{"staples", containsAny("面粉", "flour", "pasta", "意面"), 180},
	{"staples", containsAny("油", "oil"), 180},
	{"staples", containsAny("罐头", "canned"), 365},
}

// Lookup returns the days of the first matching rule.
func Lookup(rules []Rule, name string) (int, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return 0, false
	}
	for _, r := range rules {
		if r.Match(n) {
			return r.Days, true
		}
	}
	return 0, false
}
