package domain

// User is the identity of the authenticated agent as reported by the
// identity provider.
type User struct {
	ID          string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
