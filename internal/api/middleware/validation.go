package middleware

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"newsdesk/portal/internal/models"
)

var mobilePattern = regexp.MustCompile(`^\+?[0-9][0-9 -]{8,16}[0-9]$`)

var registerOnce sync.Once

// RegisterValidators adds the portal's binding tags to gin's validator:
//
//	mobile        a phone number of 10 to 18 characters, digits with optional +, spaces, dashes
//	agentreview   approved or rejected
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return mobilePattern.MatchString(fl.Field().String())
		}); err != nil {
			return
		}
		err = v.RegisterValidation("agentreview", func(fl validator.FieldLevel) bool {
			s := models.AgentStatus(fl.Field().String())
			return s == models.AgentStatusApproved || s == models.AgentStatusRejected
		})
	})
	return err
}
