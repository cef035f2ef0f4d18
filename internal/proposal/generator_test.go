package proposal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/figure-planner/internal/llm"
	"github.com/jonathan/figure-planner/internal/retry"
	"github.com/jonathan/figure-planner/internal/types"
)

// scriptedClient returns one scripted reply per call.
type scriptedClient struct {
	mu      sync.Mutex
	replies []scriptedReply
	prompts []string
}

type scriptedReply struct {
	content string
	err     error
}

func (c *scriptedClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r.content, r.err
}

func (c *scriptedClient) GetModel(llm.ModelTier) string { return "scripted" }
func (c *scriptedClient) Close() error                  { return nil }

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func reply(content string) scriptedReply { return scriptedReply{content: content} }

func TestGenerate_SkipsForbiddenNameUntilThirdAttempt(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{
		reply(proposalJSON("徳川家康", "【徳川家康に学ぶ】3つの教訓")),
		reply(proposalJSON("徳川　家康", "【徳川　家康に学ぶ】5つの鉄則")),
		reply(proposalJSON("松下幸之助", "【松下幸之助に学ぶ】7つの習慣")),
	}}

	p, err := NewGenerator(client).Generate(context.Background(), types.Intent{Theme: "経営"}, []string{"徳川家康"})
	require.NoError(t, err)
	assert.Equal(t, "松下幸之助", p.Name)
	assert.Equal(t, 3, client.calls())
}

func TestGenerate_ReturnsFirstPassingAttempt(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{
		reply(proposalJSON("勝海舟", "【勝海舟に学ぶ】5つの鉄則")),
		reply(proposalJSON("坂本龍馬", "【坂本龍馬に学ぶ】3つの教訓")),
	}}

	p, err := NewGenerator(client).Generate(context.Background(), types.Intent{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "勝海舟", p.Name)
	assert.Equal(t, 1, client.calls())
}

func TestGenerate_ExhaustsWhenTitleNeverHasDigit(t *testing.T) {
	noDigit := reply(proposalJSON("徳川家康", "【徳川家康に学ぶ】忍耐の教訓"))
	client := &scriptedClient{replies: []scriptedReply{noDigit, noDigit, noDigit, noDigit}}

	_, err := NewGenerator(client).Generate(context.Background(), types.Intent{}, nil)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 3, client.calls())
	assert.Contains(t, exhausted.Reason, "must contain a digit")

	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, RuleTitleContent, v.Rule)
}

func TestGenerate_ReasonIsFromLastAttempt(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{
		reply(proposalJSON("徳川家康", "【徳川家康に学ぶ】忍耐の教訓")),
		{err: errors.New("upstream timeout")},
		reply("not json at all"),
	}}

	_, err := NewGenerator(client).Generate(context.Background(), types.Intent{}, nil)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Contains(t, exhausted.Reason, "parse")
	assert.Contains(t, exhausted.Reason, "not valid JSON")
}

func TestGenerate_EmptyAndMalformedCountAsAttempts(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{
		reply(""),
		reply(`{"name": "坂本龍馬"`),
		reply(proposalJSON("坂本龍馬", "【坂本龍馬に学ぶ】3つの教訓")),
	}}

	p, err := NewGenerator(client).Generate(context.Background(), types.Intent{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "坂本龍馬", p.Name)
	assert.Equal(t, 3, client.calls())
}

func TestGenerate_NonObjectRepliesAreRejected(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{
		reply("[" + proposalJSON("勝海舟", "【勝海舟に学ぶ】5つの鉄則") + "," + proposalJSON("坂本龍馬", "【坂本龍馬に学ぶ】3つの教訓") + "]"),
		reply(proposalJSON("勝海舟", "【勝海舟に学ぶ】5つの鉄則") + "\n以上です。"),
		reply("提案: " + proposalJSON("勝海舟", "【勝海舟に学ぶ】5つの鉄則")),
	}}

	_, err := NewGenerator(client).Generate(context.Background(), types.Intent{}, nil)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, client.calls())
	assert.Contains(t, exhausted.Reason, "not valid JSON")
}

func TestGenerate_FreshBudgetPerCall(t *testing.T) {
	bad := reply(`{}`)
	good := reply(proposalJSON("坂本龍馬", "【坂本龍馬に学ぶ】3つの教訓"))
	client := &scriptedClient{replies: []scriptedReply{bad, bad, good, bad, bad, good}}
	g := NewGenerator(client)

	_, err := g.Generate(context.Background(), types.Intent{}, nil)
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), types.Intent{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, client.calls())
}

func TestGenerate_PromptCarriesIntentAndForbiddenNames(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{
		reply(`{}`),
		reply(proposalJSON("坂本龍馬", "【坂本龍馬に学ぶ】3つの教訓")),
	}}

	intent := types.Intent{Theme: "リーダーシップ", Era: "幕末", ForbidNames: []string{"西郷隆盛"}}
	_, err := NewGenerator(client).Generate(context.Background(), intent, []string{"織田信長"})
	require.NoError(t, err)

	first := client.prompts[0]
	assert.Contains(t, first, "テーマ: リーダーシップ")
	assert.Contains(t, first, "時代: 幕末")
	assert.NotContains(t, first, "焦点:")
	assert.Contains(t, first, "織田信長, 西郷隆盛")
	assert.NotContains(t, first, "{{.")

	assert.Contains(t, client.prompts[1], "却下", "second prompt carries feedback")
}

func TestGenerate_WithoutFeedback(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{
		reply(`{}`),
		reply(proposalJSON("坂本龍馬", "【坂本龍馬に学ぶ】3つの教訓")),
	}}

	_, err := NewGenerator(client, WithFeedback(false)).Generate(context.Background(), types.Intent{}, nil)
	require.NoError(t, err)
	assert.Equal(t, client.prompts[0], client.prompts[1])
	assert.Contains(t, client.prompts[0], "特になし")
}

func TestGenerate_DefaultPolicyStopsAtThreeAttempts(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{reply(""), reply(""), reply(""), reply(""), reply("")}}

	_, err := NewGenerator(client).Generate(context.Background(), types.Intent{}, nil)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 3, client.calls())
	assert.Equal(t, retry.Default(), NewGenerator(client).policy)
}

func TestGenerate_CustomPolicy(t *testing.T) {
	client := &scriptedClient{replies: []scriptedReply{reply(""), reply("")}}

	_, err := NewGenerator(client, WithPolicy(retry.Policy{Attempts: 2})).Generate(context.Background(), types.Intent{}, nil)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Contains(t, exhausted.Reason, "no content")
}

func TestGenerate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &scriptedClient{}

	_, err := NewGenerator(client).Generate(ctx, types.Intent{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, client.calls())
}
