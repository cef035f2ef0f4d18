package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "徳川家康", "徳川家康"},
		{"inner space", "徳川 家康", "徳川家康"},
		{"full-width space", "徳川　家康", "徳川家康"},
		{"brackets", "【徳川家康】", "徳川家康"},
		{"japanese quotes", "「徳川家康」", "徳川家康"},
		{"middle dot", "ピーター・ドラッカー", "ピータードラッカー"},
		{"latin case", "Steve Jobs", "stevejobs"},
		{"full-width latin", "Ｓｔｅｖｅ　Ｊｏｂｓ", "stevejobs"},
		{"parentheses", "渋沢栄一（しぶさわえいいち）", "渋沢栄一しぶさわえいいち"},
		{"only punctuation", "・（）", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("徳川家康", " 徳川　家康 "))
	assert.True(t, Equal("Steve Jobs", "steve-jobs"))
	assert.False(t, Equal("徳川家康", "徳川家光"))
}

func TestSet(t *testing.T) {
	set := NewSet("織田信長", "Steve Jobs", "")

	existing, ok := set.Match("【織田 信長】")
	assert.True(t, ok)
	assert.Equal(t, "織田信長", existing)

	_, ok = set.Match("STEVE JOBS")
	assert.True(t, ok)

	_, ok = set.Match("豊臣秀吉")
	assert.False(t, ok)

	_, ok = set.Match("")
	assert.False(t, ok, "empty names are never stored")
}
