package types

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/jonathan/figure-planner/internal/names"
)

// Field length ceilings enforced at the boundary.
const (
	MaxNameLength  = 32
	MaxTitleLength = 100
	MaxTextLength  = 2000
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	// figname rejects names with nothing left to compare once normalized.
	_ = v.RegisterValidation("figname", func(fl validator.FieldLevel) bool {
		return names.Normalize(fl.Field().String()) != ""
	})
	return v
}

// NewFigureInput is the request to create a figure.
type NewFigureInput struct {
	Name         string        `json:"name" yaml:"name" validate:"required,notblank,figname,max=32"`
	Title        string        `json:"youtubeTitle" yaml:"youtubeTitle" validate:"required,notblank,max=100"`
	Status       Status        `json:"status,omitempty" yaml:"status,omitempty"`
	Bio          string        `json:"bio,omitempty" yaml:"bio,omitempty" validate:"max=2000"`
	Notes        string        `json:"notes,omitempty" yaml:"notes,omitempty" validate:"max=2000"`
	Tags         []string      `json:"tags,omitempty" yaml:"tags,omitempty" validate:"omitempty,dive,required,notblank"`
	Plan         *ProposalPlan `json:"aiPlan,omitempty" yaml:"aiPlan,omitempty"`
	ThumbnailKey string        `json:"thumbnailKey,omitempty" yaml:"thumbnailKey,omitempty"`
	PortraitKey  string        `json:"portraitKey,omitempty" yaml:"portraitKey,omitempty"`
}

// Validate validates the NewFigureInput using the validator.
func (r *NewFigureInput) Validate() error {
	return validate.Struct(r)
}

// ToFigure builds the record to insert. Identifier and timestamps are left
// for the store to assign.
func (r *NewFigureInput) ToFigure() *Figure {
	status := r.Status
	if status == "" {
		status = StatusReady
	}
	return &Figure{
		Name:         r.Name,
		Status:       status,
		Title:        r.Title,
		Bio:          r.Bio,
		Notes:        r.Notes,
		Tags:         r.Tags,
		Plan:         r.Plan,
		ThumbnailKey: r.ThumbnailKey,
		PortraitKey:  r.PortraitKey,
	}
}

// Optional is a field of a partial update. Set is true whenever the field
// was present in the request, including an explicit null (Null is then true).
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked for keys present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON renders a null for cleared or absent fields.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// FigureChanges is a partial update to a figure. Fields left unset are not touched.
type FigureChanges struct {
	Name         Optional[string]        `json:"name"`
	Status       Optional[Status]        `json:"status"`
	Title        Optional[string]        `json:"youtubeTitle"`
	Bio          Optional[string]        `json:"bio"`
	Notes        Optional[string]        `json:"notes"`
	Tags         Optional[[]string]      `json:"tags"`
	Plan         Optional[*ProposalPlan] `json:"aiPlan"`
	ThumbnailKey Optional[string]        `json:"thumbnailKey"`
	PortraitKey  Optional[string]        `json:"portraitKey"`
}

// FieldChange is one attribute write in a partial update. Remove clears the
// attribute instead of setting Value.
type FieldChange struct {
	Attr   string
	Value  any
	Remove bool
}

func appendChange[T any](out []FieldChange, attr string, o Optional[T]) []FieldChange {
	if !o.Set {
		return out
	}
	if o.Null {
		return append(out, FieldChange{Attr: attr, Remove: true})
	}
	return append(out, FieldChange{Attr: attr, Value: o.Value})
}

// Fields lists the supplied fields in a stable order.
func (c *FigureChanges) Fields() []FieldChange {
	var out []FieldChange
	out = appendChange(out, "name", c.Name)
	out = appendChange(out, "status", c.Status)
	out = appendChange(out, "youtubeTitle", c.Title)
	out = appendChange(out, "bio", c.Bio)
	out = appendChange(out, "notes", c.Notes)
	out = appendChange(out, "tags", c.Tags)
	out = appendChange(out, "aiPlan", c.Plan)
	out = appendChange(out, "thumbnailKey", c.ThumbnailKey)
	out = appendChange(out, "portraitKey", c.PortraitKey)
	return out
}

// IsEmpty reports whether no field was supplied.
func (c *FigureChanges) IsEmpty() bool {
	return len(c.Fields()) == 0
}

// FieldError is a single invalid field in a request.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks every supplied field with the creation bounds.
// Name, title and status may not be cleared.
func (c *FigureChanges) Validate() error {
	if c.Name.Set {
		if c.Name.Null {
			return &FieldError{Field: "name", Message: "cannot be null"}
		}
		if err := validate.Var(c.Name.Value, "required,max=32"); err != nil {
			return &FieldError{Field: "name", Message: "must be 1-32 characters"}
		}
		if err := validate.Var(c.Name.Value, "notblank,figname"); err != nil {
			return &FieldError{Field: "name", Message: "must contain a letter or digit"}
		}
	}
	if c.Title.Set {
		if c.Title.Null {
			return &FieldError{Field: "youtubeTitle", Message: "cannot be null"}
		}
		if err := validate.Var(c.Title.Value, "required,notblank,max=100"); err != nil {
			return &FieldError{Field: "youtubeTitle", Message: "must be 1-100 non-blank characters"}
		}
	}
	if c.Status.Set && (c.Status.Null || c.Status.Value == "") {
		return &FieldError{Field: "status", Message: "cannot be empty"}
	}
	if c.Bio.Set {
		if err := validate.Var(c.Bio.Value, "max=2000"); err != nil {
			return &FieldError{Field: "bio", Message: "must be 2000 characters or fewer"}
		}
	}
	if c.Notes.Set {
		if err := validate.Var(c.Notes.Value, "max=2000"); err != nil {
			return &FieldError{Field: "notes", Message: "must be 2000 characters or fewer"}
		}
	}
	if c.Tags.Set && !c.Tags.Null {
		if err := validate.Var(c.Tags.Value, "omitempty,dive,required,notblank"); err != nil {
			return &FieldError{Field: "tags", Message: "entries must be non-empty"}
		}
	}
	return nil
}

// Apply returns a copy of f with the supplied fields written.
func (c *FigureChanges) Apply(f *Figure) *Figure {
	out := f.Clone()
	if c.Name.Set {
		out.Name = c.Name.Value
	}
	if c.Status.Set {
		out.Status = c.Status.Value
	}
	if c.Title.Set {
		out.Title = c.Title.Value
	}
	if c.Bio.Set {
		out.Bio = c.Bio.Value
	}
	if c.Notes.Set {
		out.Notes = c.Notes.Value
	}
	if c.Tags.Set {
		out.Tags = c.Tags.Value
	}
	if c.Plan.Set {
		out.Plan = c.Plan.Value
	}
	if c.ThumbnailKey.Set {
		out.ThumbnailKey = c.ThumbnailKey.Value
	}
	if c.PortraitKey.Set {
		out.PortraitKey = c.PortraitKey.Value
	}
	return out
}
