package service

import (
	"unicode"
	"unicode/utf8"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

const minPasswordLength = 8

type passwordRule struct {
	label string
	check func(string) bool
}

var passwordRules = []passwordRule{
	{"At least 8 characters", func(p string) bool { return utf8.RuneCountInString(p) >= minPasswordLength }},
	{"An uppercase letter", hasRune(unicode.IsUpper)},
	{"A lowercase letter", hasRune(unicode.IsLower)},
	{"A number", hasRune(unicode.IsDigit)},
	{"A special character", hasRune(func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) })},
}

func hasRune(pred func(rune) bool) func(string) bool {
	return func(p string) bool {
		for _, r := range p {
			if pred(r) {
				return true
			}
		}
		return false
	}
}

// PasswordStrength evaluates the password checklist.
func PasswordStrength(password string) domain.PasswordStrength {
	out := domain.PasswordStrength{
		Rules: make([]domain.PasswordRule, 0, len(passwordRules)),
		Total: len(passwordRules),
	}
	for _, rule := range passwordRules {
		ok := rule.check(password)
		if ok {
			out.Passed++
		}
		out.Rules = append(out.Rules, domain.PasswordRule{Label: rule.label, Passed: ok})
	}
	return out
}

func firstFailedRule(s domain.PasswordStrength) string {
	for _, r := range s.Rules {
		if !r.Passed {
			return "Password needs: " + r.Label
		}
	}
	return ""
}
