package service

// AddressBar abstracts the current address the application runs at. After a
// sign-in, the authentication callback fragment must be stripped without
// triggering navigation, so a reload does not replay a stale credential
// fragment.
type AddressBar interface {
	// Current returns the current address.
	Current() string

	// StripAuthFragment removes any authentication callback fragment from
	// the current address in place. Reports whether anything was stripped.
	StripAuthFragment() bool
}
