package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/pantry-service/internal/model"
)

var numeralWords = map[string]decimal.Decimal{
	"zero":  decimal.Zero,
	"one":   decimal.NewFromInt(1),
	"two":   decimal.NewFromInt(2),
	"three": decimal.NewFromInt(3),
	"four":  decimal.NewFromInt(4),
	"five":  decimal.NewFromInt(5),
	"six":   decimal.NewFromInt(6),
	"seven": decimal.NewFromInt(7),
	"eight": decimal.NewFromInt(8),
	"nine":  decimal.NewFromInt(9),
	"ten":   decimal.NewFromInt(10),
	"half":  decimal.NewFromFloat(0.5),
}

var units = map[string]struct{}{
	"kg": {}, "g": {}, "mg": {}, "lb": {}, "lbs": {}, "oz": {},
	"ml": {}, "l": {},
	"pcs": {}, "pc": {}, "piece": {}, "pieces": {},
	"pack": {}, "packs": {}, "bag": {}, "bags": {}, "box": {}, "boxes": {},
	"bottle": {}, "bottles": {}, "can": {}, "cans": {}, "jar": {}, "jars": {},
	"cup": {}, "cups": {}, "slice": {}, "slices": {}, "carton": {}, "cartons": {},
	"loaf": {}, "loaves": {}, "bunch": {}, "bunches": {},
	"个": {}, "瓶": {}, "斤": {}, "两": {}, "克": {}, "千克": {}, "公斤": {},
	"升": {}, "毫升": {}, "盒": {}, "袋": {}, "包": {}, "罐": {}, "支": {},
	"根": {}, "块": {}, "片": {}, "只": {}, "条": {}, "颗": {}, "把": {}, "杯": {},
}

var cjkDigits = map[rune]int64{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

const (
	numeralAlt = `zero|one|two|three|four|five|six|seven|eight|nine|ten|half`
	// multi-character units first so 千克 wins over 克
	cjkUnitAlt = `千克|公斤|毫升|[个瓶斤两克升盒袋包罐支根块片只条颗把杯]`
	cjkCount   = `[零一二两三四五六七八九十]+|半`
)

var (
	separatorRe        = regexp.MustCompile(`[\n,，、;；]+`)
	numberRe           = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([A-Za-z]+|` + cjkUnitAlt + `)?`)
	numeralRe          = regexp.MustCompile(`(?i)\b(` + numeralAlt + `)\b(?:\s+([A-Za-z]+))?`)
	cjkNumeralRe       = regexp.MustCompile(`(` + cjkCount + `)\s*(` + cjkUnitAlt + `)`)
	cjkLeadingRe       = regexp.MustCompile(`^(` + cjkCount + `)`)
	relativeSpanRe     = regexp.MustCompile(`(?i)\b(\d+|` + numeralAlt + `)\s*(days?|weeks?)\b`)
	cjkSpanRe          = regexp.MustCompile(`(\d+|` + cjkCount + `)\s*(天|周|星期)(?:以内|之内|内|后)?`)
	dayAfterTomorrowRe = regexp.MustCompile(`(?i)\bday after tomorrow\b|后天`)
	tomorrowRe         = regexp.MustCompile(`(?i)\btomorrow\b|明天`)
	todayRe            = regexp.MustCompile(`(?i)\btoday\b|今天`)
	fillerRe           = regexp.MustCompile(`(?i)\b(of|x|expires?|expiring|exp|in|within|by|until|for)\b`)
	spaceRe            = regexp.MustCompile(`\s+`)
)

// ParseLocal is the rule-based fallback for free-text item entry. Each
// segment between separators becomes one item: the first number (or numeral
// word) is the quantity, defaulting to 1, a unit token right after it is the
// unit, and relative expressions such as "3 days", "2 weeks" or "tomorrow"
// are resolved against today. Chinese input is handled the same way:
// "牛奶2瓶 明天", "三个苹果" and "鸡蛋 12个 7天内" all parse.
func ParseLocal(text string, today time.Time) []ParsedItem {
	today = model.DateOf(today)
	items := []ParsedItem{}

	for _, raw := range separatorRe.Split(text, -1) {
		work := strings.TrimSpace(raw)
		if work == "" {
			continue
		}

		var expiry *time.Time
		work, expiry = takeExpiry(work, today)

		qty := decimal.NewFromInt(1)
		unit := ""
		if m := numberRe.FindStringSubmatchIndex(work); m != nil {
			qty, _ = decimal.NewFromString(work[m[2]:m[3]])
			end := m[3]
			if m[4] >= 0 {
				if u := strings.ToLower(work[m[4]:m[5]]); isUnit(u) {
					unit = u
					end = m[5]
				}
			}
			work = work[:m[0]] + " " + work[end:]
		} else if m := numeralRe.FindStringSubmatchIndex(work); m != nil {
			qty = numeralWords[strings.ToLower(work[m[2]:m[3]])]
			end := m[3]
			if m[4] >= 0 {
				if u := strings.ToLower(work[m[4]:m[5]]); isUnit(u) {
					unit = u
					end = m[5]
				}
			}
			work = work[:m[0]] + " " + work[end:]
		} else if m := cjkNumeralRe.FindStringSubmatchIndex(work); m != nil {
			if n, ok := cjkNumber(work[m[2]:m[3]]); ok {
				qty = n
			}
			unit = work[m[4]:m[5]]
			work = work[:m[0]] + " " + work[m[1]:]
		} else if m := cjkLeadingRe.FindStringIndex(work); m != nil {
			if n, ok := cjkNumber(work[m[0]:m[1]]); ok {
				qty = n
				work = work[m[1]:]
			}
		}

		name := fillerRe.ReplaceAllString(work, " ")
		name = strings.Trim(spaceRe.ReplaceAllString(name, " "), " .:-")
		if name == "" {
			continue
		}
		if unit == "" {
			unit = model.DefaultUnit
		}

		q := qty
		items = append(items, ParsedItem{
			Name:       name,
			Quantity:   &q,
			Unit:       unit,
			ExpiryDate: expiry,
		})
	}
	return items
}

func takeExpiry(work string, today time.Time) (string, *time.Time) {
	at := func(days int) *time.Time {
		d := today.AddDate(0, 0, days)
		return &d
	}

	for _, re := range []*regexp.Regexp{relativeSpanRe, cjkSpanRe} {
		m := re.FindStringSubmatchIndex(work)
		if m == nil {
			continue
		}
		n := parseCount(work[m[2]:m[3]])
		switch span := strings.ToLower(work[m[4]:m[5]]); {
		case strings.HasPrefix(span, "week"), span == "周", span == "星期":
			n *= 7
		}
		return work[:m[0]] + " " + work[m[1]:], at(n)
	}
	for _, rel := range []struct {
		re   *regexp.Regexp
		days int
	}{
		{dayAfterTomorrowRe, 2},
		{tomorrowRe, 1},
		{todayRe, 0},
	} {
		if loc := rel.re.FindStringIndex(work); loc != nil {
			return work[:loc[0]] + " " + work[loc[1]:], at(rel.days)
		}
	}
	return work, nil
}

func parseCount(token string) int {
	if n, err := strconv.Atoi(token); err == nil {
		return n
	}
	if n, ok := cjkNumber(token); ok {
		return int(n.IntPart())
	}
	return int(numeralWords[strings.ToLower(token)].IntPart())
}

// cjkNumber reads Chinese numerals up to 99: 三, 两, 十二, 二十, 半.
func cjkNumber(s string) (decimal.Decimal, bool) {
	if s == "半" {
		return decimal.NewFromFloat(0.5), true
	}
	head, tail, tens := strings.Cut(s, "十")
	if !tens {
		d, ok := cjkDigit(s)
		return decimal.NewFromInt(d), ok
	}
	h, t := int64(1), int64(0)
	if head != "" {
		d, ok := cjkDigit(head)
		if !ok {
			return decimal.Zero, false
		}
		h = d
	}
	if tail != "" {
		d, ok := cjkDigit(tail)
		if !ok {
			return decimal.Zero, false
		}
		t = d
	}
	return decimal.NewFromInt(h*10 + t), true
}

func cjkDigit(s string) (int64, bool) {
	r := []rune(s)
	if len(r) != 1 {
		return 0, false
	}
	d, ok := cjkDigits[r[0]]
	return d, ok
}

func isUnit(token string) bool {
	_, ok := units[token]
	return ok
}
