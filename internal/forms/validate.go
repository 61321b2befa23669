// Package forms validates dialog input before it reaches the network and runs
// the single-submission flow every create/edit dialog shares.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"memeshare/internal/models"
)

const MaxUploadBytes = 5 << 20

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// FieldError is one failed rule, keyed by the JSON field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input fails client-side validation. No
// request has been sent when a caller sees it.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Field returns the message for field, or "".
func (e *ValidationError) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// TemplateUpload is the template dialog: metadata plus the image file.
type TemplateUpload struct {
	Input    models.TemplateInput
	Filename string
	Image    []byte
}

// Validator checks request bodies against their struct tags and the rules
// that tags cannot express.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Contains(models.Categories, fl.Field().String())
	})
	return &Validator{validate: v}
}

// Check validates in as of now. It returns a *ValidationError or nil.
func (v *Validator) Check(in any, now time.Time) error {
	verr := &ValidationError{}
	target := in
	if up, ok := in.(TemplateUpload); ok {
		target = up.Input
		checkImage(verr, up)
	}
	if up, ok := in.(*TemplateUpload); ok {
		target = up.Input
		checkImage(verr, *up)
	}

	if err := v.validate.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.add(fieldPath(fe), formatFieldError(fe))
		}
	}

	switch c := target.(type) {
	case models.ChallengeInput:
		checkEndDate(verr, c, now)
	case *models.ChallengeInput:
		checkEndDate(verr, *c, now)
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	sort.SliceStable(verr.Fields, func(i, j int) bool { return verr.Fields[i].Field < verr.Fields[j].Field })
	return verr
}

func checkEndDate(verr *ValidationError, c models.ChallengeInput, now time.Time) {
	if c.EndDate.IsZero() {
		return
	}
	if !c.EndDate.After(now) {
		verr.add("endDate", "endDate must be in the future")
	}
}

func checkImage(verr *ValidationError, up TemplateUpload) {
	switch {
	case len(up.Image) == 0:
		verr.add("image", "image is required")
		return
	case len(up.Image) > MaxUploadBytes:
		verr.add("image", fmt.Sprintf("image must be at most %d MiB", MaxUploadBytes>>20))
		return
	}
	mt := mimetype.Detect(up.Image)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		verr.add("image", fmt.Sprintf("image must be PNG, JPEG, GIF or WebP (got %s)", mt.String()))
	}
}

// fieldPath drops the struct name from the namespace: textAreas[0].width.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s items", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color like #ff5733", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "category":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(models.Categories, ", "))
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, lowerFirst(fe.Param()))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "alphanumunicode":
		return fmt.Sprintf("%s may only contain letters and digits", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
