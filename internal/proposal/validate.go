package proposal

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/figure-planner/internal/names"
	"github.com/jonathan/figure-planner/internal/schemas"
	"github.com/jonathan/figure-planner/internal/types"
)

// Bounds for generated proposals.
const (
	MaxNameLength    = types.MaxNameLength
	MaxTitleLength   = types.MaxTitleLength
	MaxSummaryLength = 280
)

// TitlePrefix returns the bracketed lead every title must start with.
func TitlePrefix(name string) string {
	return "【" + name + "に学ぶ】"
}

// Validate checks a decoded JSON document against every proposal rule and
// returns the typed proposal. The first failing rule is reported as a *Violation.
// Neither argument is modified.
func Validate(raw any, forbiddenNames []string) (*types.Proposal, error) {
	p, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := Check(p, names.NewSet(forbiddenNames...)); err != nil {
		return nil, err
	}
	return p, nil
}

// Check applies the bounds and business rules to an already typed proposal.
func Check(p *types.Proposal, forbidden names.Set) error {
	if err := checkBounds(p); err != nil {
		return err
	}
	if existing, ok := forbidden.Match(p.Name); ok {
		return &Violation{
			Rule:    RuleNameCollision,
			Field:   "name",
			Message: fmt.Sprintf("%q collides with existing figure %q", p.Name, existing),
		}
	}
	if !strings.HasPrefix(p.Title, TitlePrefix(p.Name)) {
		return &Violation{
			Rule:    RuleTitleFormat,
			Field:   "youtubeTitle",
			Message: fmt.Sprintf("must start with %s", TitlePrefix(p.Name)),
		}
	}
	if !strings.ContainsFunc(p.Title, unicode.IsDigit) {
		return &Violation{
			Rule:    RuleTitleContent,
			Field:   "youtubeTitle",
			Message: "must contain a digit",
		}
	}
	return nil
}

func checkBounds(p *types.Proposal) error {
	switch {
	case isBlank(p.Name) || utf8.RuneCountInString(p.Name) > MaxNameLength:
		return &Violation{Rule: RuleStructure, Field: "name", Message: "must be 1-32 characters"}
	case names.Normalize(p.Name) == "":
		return &Violation{Rule: RuleStructure, Field: "name", Message: "must contain a letter or digit"}
	case isBlank(p.Title) || utf8.RuneCountInString(p.Title) > MaxTitleLength:
		return &Violation{Rule: RuleStructure, Field: "youtubeTitle", Message: "must be 1-100 characters"}
	case isBlank(p.Summary) || utf8.RuneCountInString(p.Summary) > MaxSummaryLength:
		return &Violation{Rule: RuleStructure, Field: "summary", Message: "must be 1-280 characters"}
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func decode(raw any) (*types.Proposal, error) {
	if err := schemas.ValidateDocument(schemas.Proposal, raw); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			first := ve.First()
			return nil, &Violation{Rule: RuleStructure, Field: first.Field, Message: first.Message}
		}
		return nil, err
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, &Violation{Rule: RuleStructure, Field: "(root)", Message: "must be a JSON object"}
	}

	p := &types.Proposal{
		Name:          stringField(doc, "name"),
		Title:         stringField(doc, "youtubeTitle"),
		Summary:       stringField(doc, "summary"),
		Hook:          stringField(doc, "hook"),
		ThumbnailIdea: stringField(doc, "thumbnailIdea"),
		Notes:         stringField(doc, "notes"),
	}

	var listOK bool
	if p.Tags, listOK = CoerceList(doc["tags"]); !listOK {
		return nil, &Violation{Rule: RuleStructure, Field: "tags", Message: "must be a list or delimited string"}
	}
	if p.SourceHints, listOK = CoerceList(doc["sourceHints"]); !listOK {
		return nil, &Violation{Rule: RuleStructure, Field: "sourceHints", Message: "must be a list or delimited string"}
	}
	return p, nil
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}
