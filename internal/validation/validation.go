package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"estatehub/internal/model"
	"estatehub/internal/permission"
	"estatehub/internal/workflow"

	"github.com/gin-gonic/gin/binding"
	playgroundvalidator "github.com/go-playground/validator/v10"
)

// Register installs json field naming and the domain tags on gin's binding
// validator. Call once at startup.
func Register() error {
	v, ok := binding.Validator.Engine().(*playgroundvalidator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Configure(v)
}

// Configure adds the custom tags to v.
func Configure(v *playgroundvalidator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validations := map[string]playgroundvalidator.Func{
		"review_action":      validateReviewAction,
		"review_status":      validateReviewStatus,
		"appointment_status": validateAppointmentStatus,
		"listing_status":     validateListingStatus,
		"admin_role":         validateAdminRole,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func validateReviewAction(fl playgroundvalidator.FieldLevel) bool {
	_, err := workflow.ParseAction(fl.Field().String())
	return err == nil
}

// review_status also accepts the ALL filter value.
func validateReviewStatus(fl playgroundvalidator.FieldLevel) bool {
	s := model.ReviewStatus(strings.ToUpper(fl.Field().String()))
	return s == model.ReviewAll || s.Valid()
}

func validateAppointmentStatus(fl playgroundvalidator.FieldLevel) bool {
	return model.AppointmentStatus(strings.ToUpper(fl.Field().String())).Valid()
}

func validateListingStatus(fl playgroundvalidator.FieldLevel) bool {
	return model.ListingStatus(strings.ToUpper(fl.Field().String())).Valid()
}

func validateAdminRole(fl playgroundvalidator.FieldLevel) bool {
	_, err := permission.ParseRole(fl.Field().String())
	return err == nil
}

// FieldErrors turns a binding error into field -> message pairs. It returns
// nil when err is not a validation error.
func FieldErrors(err error) map[string]string {
	var ve playgroundvalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email", field)
		case "uuid":
			out[field] = fmt.Sprintf("%s must be a valid UUID", field)
		case "min", "gte":
			out[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max", "lte":
			out[field] = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
		case "review_action":
			out[field] = fmt.Sprintf("%s must be one of approve, reject, needs_edit, revert_to_pending", field)
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}
