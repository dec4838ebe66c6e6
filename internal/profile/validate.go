package profile

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hpungsan/internmap/internal/errors"
)

// DateLayout is the format of StartDate and EndDate.
const DateLayout = "2006-01-02"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator with JSON field names and the
// fieldtag rule registered.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("fieldtag", func(fl validator.FieldLevel) bool {
			return IsField(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks p against the entry rules. It returns nil or an
// errors.ErrValidation AppError whose details map JSON field names to reasons.
func Validate(p Profile) error {
	problems := make(map[string]string)

	if err := validatorInstance().Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return errors.NewInternal(err)
		}
		for _, fe := range verrs {
			problems[fe.Field()] = describe(fe)
		}
	}

	checkLocation(p, problems)
	checkDates(p, problems)

	if p.TravelTime != nil && (p.TravelTime.Driving < 0 || p.TravelTime.Walking < 0 || p.TravelTime.Bus < 0) {
		problems["travelTime"] = "minutes must not be negative"
	}

	if len(problems) > 0 {
		return errors.NewValidation(problems)
	}
	return nil
}

// checkLocation enforces remote/address exclusivity.
func checkLocation(p Profile, problems map[string]string) {
	if p.IsRemote {
		if p.Address != nil {
			problems["address"] = "must be empty for remote internships"
		}
		if p.Coordinates != nil {
			problems["coordinates"] = "must be empty for remote internships"
		}
		return
	}

	if p.Address == nil || strings.TrimSpace(p.Address.FullAddress) == "" {
		problems["address"] = "is required for in-person internships"
	}
	if p.Coordinates == nil {
		problems["coordinates"] = "are required for in-person internships"
		return
	}
	c := p.Coordinates
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		problems["coordinates"] = "are out of range"
	}
}

// checkDates enforces endDate >= startDate when both parse.
func checkDates(p Profile, problems map[string]string) {
	start, errStart := time.Parse(DateLayout, p.StartDate)
	end, errEnd := time.Parse(DateLayout, p.EndDate)
	if errStart != nil || errEnd != nil {
		return
	}
	if end.Before(start) {
		problems["endDate"] = "must not be before startDate"
	}
}

// describe turns a validator failure into a short reason.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "fieldtag":
		return "must be one of the known fields"
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "min", "max":
		return "must be between 1 and 5"
	}
	return "is invalid"
}
