package types

import "strings"

// Proposal is a generated candidate figure. It is never stored directly;
// accepting it copies a snapshot into Figure.Plan.
type Proposal struct {
	Name          string   `json:"name"`
	Title         string   `json:"youtubeTitle"`
	Summary       string   `json:"summary"`
	Hook          string   `json:"hook,omitempty"`
	ThumbnailIdea string   `json:"thumbnailIdea,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	SourceHints   []string `json:"sourceHints,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// Plan converts the proposal into the snapshot stored on a figure.
func (p *Proposal) Plan() *ProposalPlan {
	return &ProposalPlan{
		Summary:       p.Summary,
		Hook:          p.Hook,
		ThumbnailIdea: p.ThumbnailIdea,
		Sources:       p.SourceHints,
		Tags:          p.Tags,
	}
}

// NewFigureInput builds a creation request from the proposal.
func (p *Proposal) NewFigureInput() *NewFigureInput {
	return &NewFigureInput{
		Name:  p.Name,
		Title: p.Title,
		Notes: p.Notes,
		Tags:  p.Tags,
		Plan:  p.Plan(),
	}
}

// Intent carries the optional hints folded into a generation request.
type Intent struct {
	Theme       string   `json:"theme,omitempty"`
	Era         string   `json:"era,omitempty"`
	Focus       string   `json:"focus,omitempty"`
	ForbidNames []string `json:"forbidNames,omitempty"`
}

// IsEmpty reports whether no hint was given.
func (i Intent) IsEmpty() bool {
	return strings.TrimSpace(i.Theme) == "" && strings.TrimSpace(i.Era) == "" && strings.TrimSpace(i.Focus) == ""
}
