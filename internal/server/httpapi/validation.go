package httpapi

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	// MaxTitleLength bounds thread titles.
	MaxTitleLength = 50
	// MaxTextLength bounds thread bodies, posts and chat messages.
	MaxTextLength = 1250
)

var (
	nicknameShape  = regexp.MustCompile(`^[A-Za-z0-9_.]{5,20}$`)
	passwordShape  = regexp.MustCompile(`^[A-Za-z0-9]{5,30}$`)
	emailLocalPart = regexp.MustCompile(`^[A-Za-z0-9_.]{1,20}$`)
)

// ValidNickname accepts 5 to 20 word characters or dots with at least one
// lowercase letter.
func ValidNickname(s string) bool {
	return nicknameShape.MatchString(s) && strings.ContainsFunc(s, unicode.IsLower)
}

// ValidPassword accepts 5 to 30 alphanumerics with at least one digit, one
// uppercase and one lowercase letter.
func ValidPassword(s string) bool {
	if !passwordShape.MatchString(s) {
		return false
	}
	return strings.ContainsFunc(s, unicode.IsDigit) &&
		strings.ContainsFunc(s, unicode.IsUpper) &&
		strings.ContainsFunc(s, unicode.IsLower)
}

// ValidEmail accepts a bounded local part and a nonempty domain with a dot.
func ValidEmail(s string) bool {
	local, domain, ok := strings.Cut(s, "@")
	if !ok {
		return false
	}
	return emailLocalPart.MatchString(local) &&
		strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// registerValidators hooks the account field rules into gin's binding
// engine so request structs can declare them as tags.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
		return ValidNickname(fl.Field().String())
	})
	_ = v.RegisterValidation("userpassword", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("useremail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
}
