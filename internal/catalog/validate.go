package catalog

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata per type.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors line up with request payloads.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// CategoryInput is the payload for creating or renaming a category.
type CategoryInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	NameEn string `json:"nameEn" validate:"required,max=100"`
	Icon   string `json:"icon" validate:"max=16"`
}

func (in *CategoryInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.NameEn = strings.TrimSpace(in.NameEn)
	in.Icon = strings.TrimSpace(in.Icon)
}

// GameInput is the payload for creating a game.
type GameInput struct {
	Title         string   `json:"title" validate:"required,max=200"`
	TitleEn       string   `json:"titleEn" validate:"required,max=200"`
	Description   string   `json:"description" validate:"required,max=5000"`
	DescriptionEn string   `json:"descriptionEn" validate:"required,max=5000"`
	ImageURL      string   `json:"imageUrl" validate:"required,max=2048"`
	GameURL       string   `json:"gameUrl" validate:"required,max=2048"`
	CategoryID    string   `json:"categoryId" validate:"required"`
	Tags          []string `json:"tags" validate:"max=50,dive,max=50"`
	Screenshots   []string `json:"screenshots" validate:"max=50,dive,max=2048"`
	Developer     string   `json:"developer" validate:"max=200"`
	ReleaseDate   string   `json:"releaseDate" validate:"max=32"`
	Content       string   `json:"content" validate:"max=100000"`
	ContentEn     string   `json:"contentEn" validate:"max=100000"`
}

func (in *GameInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.TitleEn = strings.TrimSpace(in.TitleEn)
	in.Description = strings.TrimSpace(in.Description)
	in.DescriptionEn = strings.TrimSpace(in.DescriptionEn)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.GameURL = strings.TrimSpace(in.GameURL)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.Tags = cleanList(in.Tags)
	in.Screenshots = cleanList(in.Screenshots)
	in.Developer = strings.TrimSpace(in.Developer)
	in.ReleaseDate = strings.TrimSpace(in.ReleaseDate)
}

// GamePatch is a partial update. Nil fields are left unchanged; a non-nil
// empty slice clears a list.
type GamePatch struct {
	Title         *string  `json:"title" validate:"omitnil,min=1,max=200"`
	TitleEn       *string  `json:"titleEn" validate:"omitnil,min=1,max=200"`
	Description   *string  `json:"description" validate:"omitnil,min=1,max=5000"`
	DescriptionEn *string  `json:"descriptionEn" validate:"omitnil,min=1,max=5000"`
	ImageURL      *string  `json:"imageUrl" validate:"omitnil,min=1,max=2048"`
	GameURL       *string  `json:"gameUrl" validate:"omitnil,min=1,max=2048"`
	CategoryID    *string  `json:"categoryId" validate:"omitnil,min=1"`
	Tags          []string `json:"tags" validate:"max=50,dive,max=50"`
	Screenshots   []string `json:"screenshots" validate:"max=50,dive,max=2048"`
	Developer     *string  `json:"developer" validate:"omitempty,max=200"`
	ReleaseDate   *string  `json:"releaseDate" validate:"omitempty,max=32"`
	Content       *string  `json:"content" validate:"omitempty,max=100000"`
	ContentEn     *string  `json:"contentEn" validate:"omitempty,max=100000"`
}

func (p *GamePatch) normalize() {
	for _, f := range []*string{
		p.Title, p.TitleEn, p.Description, p.DescriptionEn,
		p.ImageURL, p.GameURL, p.CategoryID, p.Developer, p.ReleaseDate,
	} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if p.Tags != nil {
		p.Tags = cleanList(p.Tags)
	}
	if p.Screenshots != nil {
		p.Screenshots = cleanList(p.Screenshots)
	}
}

// cleanList trims entries and drops empty ones. The result is never nil.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// check runs struct validation and converts failures to *ValidationError.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath strips the struct name from the namespace ("GameInput.tags[2]"
// becomes "tags[2]").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "max":
		return "is too long (max " + fe.Param() + ")"
	}
	return "is invalid"
}
