package payment

import (
	"regexp"
	"strings"

	"parking-reservation/internal/pkg/errs"
)

type Method string

const (
	MethodMpesa  Method = "mpesa"
	MethodAirtel Method = "airtel"
)

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", errs.ErrInvalidPayMethod
	}
	return m, nil
}

func (m Method) String() string {
	return string(m)
}

func (m Method) IsValid() bool {
	switch m {
	case MethodMpesa, MethodAirtel:
		return true
	default:
		return false
	}
}

func (m Method) Label() string {
	switch m {
	case MethodMpesa:
		return "M-Pesa"
	case MethodAirtel:
		return "Airtel Money"
	default:
		return string(m)
	}
}

// Contact is a Kenyan mobile number in E.164 form, e.g. +254712345678.
type Contact string

var (
	localMSISDN = regexp.MustCompile(`^0([17]\d{8})$`)
	intlMSISDN  = regexp.MustCompile(`^\+?254([17]\d{8})$`)
	separators  = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

func ParseContact(s string) (Contact, error) {
	s = separators.Replace(strings.TrimSpace(s))
	if m := localMSISDN.FindStringSubmatch(s); m != nil {
		return Contact("+254" + m[1]), nil
	}
	if m := intlMSISDN.FindStringSubmatch(s); m != nil {
		return Contact("+254" + m[1]), nil
	}
	return "", errs.ErrInvalidContact
}

func (c Contact) String() string {
	return string(c)
}

func (c Contact) IsZero() bool {
	return c == ""
}
