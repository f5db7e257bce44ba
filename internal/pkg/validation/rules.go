package validation

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/pkg/academicyear"
)

// Custom validation tags usable in `binding` struct tags
const (
	// TagAcademicYear accepts "YYYY-YYYY" labels with consecutive years. Empty passes.
	TagAcademicYear = "academic_year"
	// TagSign accepts "positive" or "negative".
	TagSign = "credit_sign"
	// TagMinNonSpace requires at least param non-space characters.
	TagMinNonSpace = "min_nonspace"
)

// Length limits shared by request DTOs
const (
	TitleMaxLength = 200
	NotesMaxLength = 2000
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterRules installs the custom tags on gin's default validator. It is
// safe to call more than once.
func RegisterRules() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		registerErr = Register(v)
	})
	return registerErr
}

// Register installs the custom tags on v
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		TagAcademicYear: validAcademicYear,
		TagSign:         validSign,
		TagMinNonSpace:  minNonSpace,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func validAcademicYear(fl validator.FieldLevel) bool {
	label := fl.Field().String()
	return label == "" || academicyear.Valid(label)
}

func validSign(fl validator.FieldLevel) bool {
	return models.Sign(fl.Field().String()).Valid()
}

func minNonSpace(fl validator.FieldLevel) bool {
	min, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return CountNonSpace(fl.Field().String()) >= min
}

// CountNonSpace counts the runes of s that are not white space
func CountNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// Message renders a field error for API clients
func Message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case TagAcademicYear:
		return e.Field() + " must look like 2024-2025"
	case TagSign:
		return e.Field() + " must be positive or negative"
	case TagMinNonSpace:
		return e.Field() + " must contain at least " + e.Param() + " non-space characters"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
