package checkout

import (
	"regexp"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/backend"
	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/drafts"
)

var (
	emailRe = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	phoneRe = regexp.MustCompile(`^[0-9]{10}$`)
)

var supportedPayments = map[string]bool{
	backend.PaymentCashOnDelivery: true,
	backend.PaymentDirectTransfer: true,
	backend.PaymentCOD:            true,
	backend.PaymentPayPolo:        true,
	backend.PaymentKipiPay:        true,
}

// normalizeShipping trims every field and fills in the default country.
func normalizeShipping(s drafts.ShippingInfo) drafts.ShippingInfo {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	s.City = strings.TrimSpace(s.City)
	s.State = strings.TrimSpace(s.State)
	s.ZipCode = strings.TrimSpace(s.ZipCode)
	s.Country = strings.TrimSpace(s.Country)
	if s.Country == "" {
		s.Country = drafts.DefaultCountry
	}
	return s
}

// ValidateShipping checks required fields first, then the email and phone
// formats, and reports only the first problem found.
func ValidateShipping(s drafts.ShippingInfo) error {
	required := []struct {
		field, value string
	}{
		{"firstName", s.FirstName},
		{"lastName", s.LastName},
		{"email", s.Email},
		{"phone", s.Phone},
		{"address", s.Address},
		{"city", s.City},
		{"state", s.State},
		{"zipCode", s.ZipCode},
		{"country", s.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return invalid(r.field, "Please fill in all required fields")
		}
	}
	if !emailRe.MatchString(s.Email) {
		return invalid("email", "Please enter a valid email address")
	}
	if !phoneRe.MatchString(s.Phone) {
		return invalid("phone", "Phone number must be 10 digits")
	}
	return nil
}

func validatePayment(in PlaceOrderInput) error {
	if in.PaymentMethod == "" {
		return invalid("paymentMethod", "Please select a payment method")
	}
	if !supportedPayments[in.PaymentMethod] {
		return invalid("paymentMethod", "Unsupported payment method")
	}
	if !in.AcceptTerms {
		return invalid("acceptTerms", "Please accept the terms and conditions")
	}
	return nil
}

func customerName(s drafts.ShippingInfo) string {
	return s.FirstName + " " + s.LastName
}

func deliveryAddress(s drafts.ShippingInfo) string {
	return s.Address + ", " + s.City + ", " + s.State + " " + s.ZipCode + ", " + s.Country
}
