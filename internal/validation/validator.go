package validation

import (
    "errors"
    "fmt"
    "reflect"
    "strconv"
    "strings"

    "github.com/go-playground/validator/v10"

    "github.com/bilemo/catalog-server/internal/fault"
    "github.com/bilemo/catalog-server/internal/models"
)

// Validator validates request bodies and reports violations by JSON field name
type Validator struct {
    validate *validator.Validate
}

// NewValidator creates a new validator
func NewValidator() *Validator {
    v := validator.New()
    v.RegisterTagNameFunc(func(fld reflect.StructField) string {
        name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        if name == "" {
            return fld.Name
        }
        return name
    })
    // bcrypt only accepts up to 72 bytes; max counts runes
    v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
        limit, err := strconv.Atoi(fl.Param())
        if err != nil {
            return false
        }
        return len(fl.Field().String()) <= limit
    })
    return &Validator{validate: v}
}

// Validate validates a struct carrying validate tags.
// Rule failures are returned as a fault validation error.
func (v *Validator) Validate(s interface{}) error {
    err := v.validate.Struct(s)
    if err == nil {
        return nil
    }

    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return fmt.Errorf("validate %T: %w", s, err)
    }

    violations := make([]fault.Violation, 0, len(verrs))
    for _, fe := range verrs {
        violations = append(violations, fault.Violation{
            Field:   fe.Field(),
            Message: message(fe),
        })
    }
    return fault.Validation(violations...)
}

type newUser struct {
    Username  string `json:"username" validate:"required,min=3,max=180"`
    Password  string `json:"password" validate:"required,min=6,maxbytes=72"`
    FirstName string `json:"first_name" validate:"required,max=255"`
    LastName  string `json:"last_name" validate:"required,max=255"`
    Email     string `json:"email" validate:"omitempty,email,max=255"`
}

type userUpdate struct {
    Username  string `json:"username" validate:"omitempty,min=3,max=180"`
    Password  string `json:"password" validate:"omitempty,min=6,maxbytes=72"`
    FirstName string `json:"first_name" validate:"omitempty,max=255"`
    LastName  string `json:"last_name" validate:"omitempty,max=255"`
    Email     string `json:"email" validate:"omitempty,email,max=255"`
}

// ValidateNewUser checks a create request
func (v *Validator) ValidateNewUser(in models.UserInput) error {
    return v.Validate(newUser(in))
}

// ValidateUserUpdate checks an update request; empty fields are kept as is
func (v *Validator) ValidateUserUpdate(in models.UserInput) error {
    return v.Validate(userUpdate(in))
}

func message(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return "this value should not be blank"
    case "min":
        return fmt.Sprintf("this value is too short, it should have %s characters or more", fe.Param())
    case "max":
        return fmt.Sprintf("this value is too long, it should have %s characters or less", fe.Param())
    case "maxbytes":
        return fmt.Sprintf("this value is too long, it should have %s bytes or less", fe.Param())
    case "email":
        return "this value is not a valid email address"
    default:
        return fmt.Sprintf("failed on the %q rule", fe.Tag())
    }
}
