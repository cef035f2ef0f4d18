package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/figure-planner/internal/types"
)

func TestPrintFigure(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFigure(&types.Figure{
		ID:           "figure#001",
		Name:         "織田信長",
		Status:       types.StatusAvailable,
		Title:        "【織田信長に学ぶ】常識を壊す決断力",
		Tags:         []string{"戦国", "革新"},
		ThumbnailKey: "oda.png",
		Plan:         &types.ProposalPlan{Summary: "桶狭間の奇襲"},
	})
	output := buf.String()

	assert.Contains(t, output, "FIGURE")
	assert.Contains(t, output, "figure#001")
	assert.Contains(t, output, "織田信長")
	assert.Contains(t, output, "available")
	assert.Contains(t, output, "thumbnail=oda.png portrait=-")
	assert.Contains(t, output, "桶狭間の奇襲")
}

func TestPrintFigure_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFigure(nil)
	assert.Empty(t, buf.String())
}

func TestPrintFigure_BoxLinesAlign(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFigure(&types.Figure{
		ID:     "figure#002",
		Name:   "豊臣秀吉",
		Status: types.StatusReady,
		Title:  strings.Repeat("天下統一", 20),
	})

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, displayWidth(line), line)
	}
}

func TestPrintFigures(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFigures([]*types.Figure{
		{ID: "figure#001", Name: "織田信長", Status: types.StatusReady, Title: "t1"},
		{ID: "figure#002", Name: "豊臣秀吉", Status: types.StatusLocked, Title: "t2"},
	})
	output := buf.String()
	assert.Contains(t, output, "figure#002")
	assert.Contains(t, output, "locked")
	assert.Contains(t, output, "2 figure(s)")

	buf.Reset()
	p.PrintFigures(nil)
	assert.Equal(t, "no figures\n", buf.String())
}

func TestPrintProposal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProposal(&types.Proposal{
		Name:        "渋沢栄一",
		Title:       "【渋沢栄一に学ぶ】論語と算盤",
		Summary:     "近代日本経済の父",
		SourceHints: []string{"a", "b", "c", "d", "e", "f", "g"},
	})
	output := buf.String()

	assert.Contains(t, output, "PROPOSAL")
	assert.Contains(t, output, "渋沢栄一")
	assert.Contains(t, output, "... and 2 more")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		cols int
		want string
	}{
		{"short", 10, "short"},
		{"abcdefghijkl", 8, "abcde..."},
		{"あいうえお", 10, "あいうえお"},
		{"あいうえおか", 10, "あいう..."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := truncate(tt.in, tt.cols)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, displayWidth(got), tt.cols)
		})
	}
}
