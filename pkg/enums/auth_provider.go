package enums

// AuthProvider records how an account was first created.
type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderGoogle AuthProvider = "google"
)

// String implements fmt.Stringer.
func (a AuthProvider) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuthProvider.
func (a AuthProvider) IsValid() bool {
	return a == AuthProviderLocal || a == AuthProviderGoogle
}
