// Package types provides type definitions for structured data used throughout the figure-planner system.
package types

import (
	"fmt"
	"regexp"
	"strconv"
)

// Status is the publishing lifecycle state of a figure. The set is open:
// values written by other services are stored and displayed unchanged.
type Status string

// Well-known statuses.
const (
	StatusReady     Status = "ready"
	StatusAvailable Status = "available"
	StatusLocked    Status = "locked"
	StatusCompleted Status = "completed"
)

// KnownStatuses lists the statuses this system understands, in lifecycle order.
var KnownStatuses = []Status{StatusReady, StatusAvailable, StatusLocked, StatusCompleted}

// IsKnown reports whether s is one of the well-known statuses.
func (s Status) IsKnown() bool {
	for _, k := range KnownStatuses {
		if s == k {
			return true
		}
	}
	return false
}

// AwaitingAssets reports whether a record in this status may still be
// promoted to available once its assets are complete.
func (s Status) AwaitingAssets() bool {
	return s == "" || s == StatusReady
}

// IDPrefix is the prefix shared by every figure identifier.
const IDPrefix = "figure#"

var idPattern = regexp.MustCompile(`^figure#(\d+)$`)

// FormatID renders a sequence number as a figure identifier (figure#001).
func FormatID(seq int) string {
	return fmt.Sprintf("%s%03d", IDPrefix, seq)
}

// ParseID extracts the sequence number from a figure identifier.
// ok is false for identifiers that do not follow the figure#<digits> form.
func ParseID(id string) (seq int, ok bool) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ProposalPlan is the snapshot of an accepted proposal stored on a figure.
type ProposalPlan struct {
	Summary        string   `json:"summary,omitempty" dynamodbav:"summary,omitempty" yaml:"summary,omitempty"`
	Angle          string   `json:"angle,omitempty" dynamodbav:"angle,omitempty" yaml:"angle,omitempty"`
	Hook           string   `json:"hook,omitempty" dynamodbav:"hook,omitempty" yaml:"hook,omitempty"`
	ThumbnailIdea  string   `json:"thumbnailIdea,omitempty" dynamodbav:"thumbnailIdea,omitempty" yaml:"thumbnailIdea,omitempty"`
	ThumbnailTitle string   `json:"thumbnailTitle,omitempty" dynamodbav:"thumbnailTitle,omitempty" yaml:"thumbnailTitle,omitempty"`
	Sources        []string `json:"sources,omitempty" dynamodbav:"sources,omitempty" yaml:"sources,omitempty"`
	Tags           []string `json:"tags,omitempty" dynamodbav:"tags,omitempty" yaml:"tags,omitempty"`
}

// VideoInfo describes the rendered video. It is written by the rendering
// and upload workers and passed through untouched here.
type VideoInfo struct {
	S3Key      string `json:"s3Key,omitempty" dynamodbav:"s3Key,omitempty"`
	YoutubeID  string `json:"youtubeId,omitempty" dynamodbav:"youtubeId,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty" dynamodbav:"durationMs,omitempty"`
	UpdatedAt  int64  `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
}

// Figure is one historical figure and its publishing state.
type Figure struct {
	ID           string        `json:"pk" dynamodbav:"pk" yaml:"pk"`
	Name         string        `json:"name" dynamodbav:"name" yaml:"name"`
	Status       Status        `json:"status" dynamodbav:"status" yaml:"status"`
	Title        string        `json:"youtubeTitle,omitempty" dynamodbav:"youtubeTitle,omitempty" yaml:"youtubeTitle,omitempty"`
	Bio          string        `json:"bio,omitempty" dynamodbav:"bio,omitempty" yaml:"bio,omitempty"`
	Notes        string        `json:"notes,omitempty" dynamodbav:"notes,omitempty" yaml:"notes,omitempty"`
	Tags         []string      `json:"tags,omitempty" dynamodbav:"tags,omitempty" yaml:"tags,omitempty"`
	Plan         *ProposalPlan `json:"aiPlan,omitempty" dynamodbav:"aiPlan,omitempty" yaml:"aiPlan,omitempty"`
	ThumbnailKey string        `json:"thumbnailKey,omitempty" dynamodbav:"thumbnailKey,omitempty" yaml:"thumbnailKey,omitempty"`
	PortraitKey  string        `json:"portraitKey,omitempty" dynamodbav:"portraitKey,omitempty" yaml:"portraitKey,omitempty"`
	LockedUntil  *int64        `json:"lockedUntil,omitempty" dynamodbav:"lockedUntil,omitempty" yaml:"lockedUntil,omitempty"`
	Video        *VideoInfo    `json:"video,omitempty" dynamodbav:"video,omitempty" yaml:"-"`
	CreatedAt    int64         `json:"createdAt,omitempty" dynamodbav:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt    int64         `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// HasAssets reports whether both the thumbnail and the portrait are recorded.
func (f *Figure) HasAssets() bool {
	return f.ThumbnailKey != "" && f.PortraitKey != ""
}

// CheckShape verifies the fields every stored record must carry.
func (f *Figure) CheckShape() error {
	switch {
	case f.ID == "":
		return fmt.Errorf("missing pk")
	case f.Name == "":
		return fmt.Errorf("record %s: missing name", f.ID)
	case f.Status == "":
		return fmt.Errorf("record %s: missing status", f.ID)
	}
	return nil
}

// Clone returns a deep copy of the figure.
func (f *Figure) Clone() *Figure {
	c := *f
	if f.Tags != nil {
		c.Tags = append([]string(nil), f.Tags...)
	}
	if f.Plan != nil {
		p := *f.Plan
		p.Sources = append([]string(nil), f.Plan.Sources...)
		p.Tags = append([]string(nil), f.Plan.Tags...)
		c.Plan = &p
	}
	if f.LockedUntil != nil {
		v := *f.LockedUntil
		c.LockedUntil = &v
	}
	if f.Video != nil {
		v := *f.Video
		c.Video = &v
	}
	return &c
}
