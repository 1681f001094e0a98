package assistant

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocal(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		v := time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	tests := []struct {
		name   string
		text   string
		item   string
		qty    string
		unit   string
		expiry *time.Time
	}{
		{"number and unit", "2 bottles milk", "milk", "2", "bottles", nil},
		{"attached unit", "500g flour", "flour", "500", "g", nil},
		{"decimal", "1.5 kg rice", "rice", "1.5", "kg", nil},
		{"no unit", "3 eggs", "eggs", "3", "pcs", nil},
		{"numeral word", "Three apples", "apples", "3", "pcs", nil},
		{"half with unit", "half loaf bread", "bread", "0.5", "loaf", nil},
		{"default quantity", "butter", "butter", "1", "pcs", nil},
		{"days", "yogurt expires in 3 days", "yogurt", "1", "pcs", day(13)},
		{"weeks in words", "cheese two weeks", "cheese", "1", "pcs", day(24)},
		{"quantity and days", "2 packs tofu 4 days", "tofu", "2", "packs", day(14)},
		{"tomorrow", "spinach tomorrow", "spinach", "1", "pcs", day(11)},
		{"day after tomorrow", "chicken day after tomorrow", "chicken", "1", "pcs", day(12)},
		{"today", "fish today", "fish", "1", "pcs", day(10)},
		{"chinese glued quantity", "牛奶2瓶 明天", "牛奶", "2", "瓶", day(11)},
		{"chinese numeral and unit", "三个苹果", "苹果", "3", "个", nil},
		{"chinese days within", "鸡蛋 12个 7天内", "鸡蛋", "12", "个", day(17)},
		{"chinese days after", "十二个鸡蛋 三天后", "鸡蛋", "12", "个", day(13)},
		{"chinese weeks", "奶酪 两周", "奶酪", "1", "pcs", day(24)},
		{"chinese half", "半斤猪肉 后天", "猪肉", "0.5", "斤", day(12)},
		{"chinese multi-char unit", "大米 1.5公斤 今天", "大米", "1.5", "公斤", day(10)},
		{"chinese leading numeral", "两 西瓜", "西瓜", "2", "pcs", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := ParseLocal(tt.text, today)
			require.Len(t, items, 1)
			got := items[0]
			assert.Equal(t, tt.item, got.Name)
			require.NotNil(t, got.Quantity)
			assert.True(t, got.Quantity.Equal(decimal.RequireFromString(tt.qty)), "quantity %s", got.Quantity)
			assert.Equal(t, tt.unit, got.Unit)
			assert.Equal(t, tt.expiry, got.ExpiryDate)
		})
	}
}

func TestParseLocal_Separators(t *testing.T) {
	items := ParseLocal("milk, 3 eggs；bread\n\n 2 kg ; ", time.Now())
	require.Len(t, items, 3)
	assert.Equal(t, "milk", items[0].Name)
	assert.Equal(t, "eggs", items[1].Name)
	assert.Equal(t, "bread", items[2].Name)
}

func TestParseLocal_ChineseSeparators(t *testing.T) {
	items := ParseLocal("牛奶2瓶，三个苹果、鸡蛋 12个", time.Now())
	require.Len(t, items, 3)
	assert.Equal(t, "牛奶", items[0].Name)
	assert.Equal(t, "苹果", items[1].Name)
	assert.Equal(t, "鸡蛋", items[2].Name)
}

func TestCJKNumber(t *testing.T) {
	for in, want := range map[string]string{"三": "3", "两": "2", "十": "10", "十二": "12", "二十": "20", "三十五": "35", "半": "0.5"} {
		got, ok := cjkNumber(in)
		require.True(t, ok, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s = %s", in, got)
	}
	_, ok := cjkNumber("百")
	assert.False(t, ok)
}

func TestParseLocal_Empty(t *testing.T) {
	assert.Empty(t, ParseLocal("  \n ,, ", time.Now()))
}
