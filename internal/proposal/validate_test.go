package proposal

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/figure-planner/internal/names"
	"github.com/jonathan/figure-planner/internal/types"
)

func rawDoc(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func proposalJSON(name, title string) string {
	b, _ := json.Marshal(map[string]any{
		"name":         name,
		"youtubeTitle": title,
		"summary":      "戦国の世を終わらせた忍耐の哲学を紹介します。",
		"tags":         "忍耐、リーダーシップ, 戦国",
		"sourceHints":  []string{"『徳川実紀』", " "},
	})
	return string(b)
}

func TestValidate_AcceptsCompliantProposal(t *testing.T) {
	doc := rawDoc(t, proposalJSON("徳川家康", "【徳川家康に学ぶ】なぜあなたはまだ成功できないのか──3つの教訓"))

	p, err := Validate(doc, []string{"織田信長"})
	require.NoError(t, err)
	assert.Equal(t, "徳川家康", p.Name)
	assert.Equal(t, []string{"忍耐", "リーダーシップ", "戦国"}, p.Tags)
	assert.Equal(t, []string{"『徳川実紀』"}, p.SourceHints)
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		forbidden []string
		wantRule  Rule
		wantField string
	}{
		{
			name:      "missing title prefix",
			doc:       proposalJSON("徳川家康", "社会を変える考え方"),
			wantRule:  RuleTitleFormat,
			wantField: "youtubeTitle",
		},
		{
			name:      "prefix uses a different name",
			doc:       proposalJSON("徳川家康", "【織田信長に学ぶ】3つの教訓"),
			wantRule:  RuleTitleFormat,
			wantField: "youtubeTitle",
		},
		{
			name:      "no digit",
			doc:       proposalJSON("徳川家康", "【徳川家康に学ぶ】忍耐の教訓"),
			wantRule:  RuleTitleContent,
			wantField: "youtubeTitle",
		},
		{
			name:      "forbidden name after normalization",
			doc:       proposalJSON("徳川 家康", "【徳川 家康に学ぶ】3つの教訓"),
			forbidden: []string{"「徳川家康」"},
			wantRule:  RuleNameCollision,
			wantField: "name",
		},
		{
			name:      "collision is checked before title format",
			doc:       proposalJSON("徳川家康", "no prefix and no digit"),
			forbidden: []string{"徳川家康"},
			wantRule:  RuleNameCollision,
		},
		{
			name:     "structure is checked first",
			doc:      `{"name":"徳川家康","youtubeTitle":"no prefix"}`,
			wantRule: RuleStructure,
		},
		{
			name:      "name too long",
			doc:       proposalJSON(strings.Repeat("長", 33), "【x に学ぶ】1"),
			wantRule:  RuleStructure,
			wantField: "name",
		},
		{
			name:      "ideographic-space name",
			doc:       proposalJSON("\u3000", "【\u3000に学ぶ】3つの教訓"),
			wantRule:  RuleStructure,
			wantField: "name",
		},
		{
			name:      "punctuation-only name",
			doc:       proposalJSON("・・", "【・・に学ぶ】3つの教訓"),
			forbidden: []string{"徳川家康"},
			wantRule:  RuleStructure,
			wantField: "name",
		},
		{
			name:      "blank title is reported before blank summary",
			doc:       `{"name":"a","youtubeTitle":" ","summary":" "}`,
			wantRule:  RuleStructure,
			wantField: "youtubeTitle",
		},
		{
			name:      "tags of wrong type",
			doc:       `{"name":"a","youtubeTitle":"【aに学ぶ】1","summary":"s","tags":{"k":"v"}}`,
			wantRule:  RuleStructure,
			wantField: "tags",
		},
		{
			name:     "non-string tag item",
			doc:      `{"name":"a","youtubeTitle":"【aに学ぶ】1","summary":"s","tags":["ok",3]}`,
			wantRule: RuleStructure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(rawDoc(t, tt.doc), tt.forbidden)
			var v *Violation
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.wantRule, v.Rule)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, v.Field)
			}
		})
	}
}

func TestValidate_FullWidthDigitCounts(t *testing.T) {
	doc := rawDoc(t, proposalJSON("渋沢栄一", "【渋沢栄一に学ぶ】仕事ができる人の７つの習慣"))
	_, err := Validate(doc, nil)
	assert.NoError(t, err)
}

func TestValidate_DoesNotMutateInputs(t *testing.T) {
	doc := rawDoc(t, proposalJSON("徳川家康", "【徳川家康に学ぶ】3つの教訓"))
	before, _ := json.Marshal(doc)
	forbidden := []string{"織田 信長"}

	_, err := Validate(doc, forbidden)
	require.NoError(t, err)

	after, _ := json.Marshal(doc)
	assert.JSONEq(t, string(before), string(after))
	assert.Equal(t, []string{"織田 信長"}, forbidden)
}

func TestCheck_TypedProposal(t *testing.T) {
	p := &types.Proposal{Name: "勝海舟", Title: "【勝海舟に学ぶ】5つの鉄則", Summary: "s"}
	assert.NoError(t, Check(p, names.NewSet()))

	p.Summary = strings.Repeat("あ", MaxSummaryLength+1)
	var v *Violation
	require.ErrorAs(t, Check(p, names.NewSet()), &v)
	assert.Equal(t, "summary", v.Field)
}
