package models

// Key is an API key issued by the gateway. The dashboard only holds a copy
// for display; the gateway owns it.
type Key struct {
	// ID is the numeric identifier assigned by the gateway.
	ID int64 `json:"id"`
	// Name is the user-editable label of the key.
	Name string `json:"name"`
	// Passkey is the secret. It is generated by the gateway and replaced
	// wholesale when the key is regenerated.
	Passkey string `json:"passkey"`
}

// CreateKeyInput is the body of a key creation request. An empty name is
// omitted and the gateway picks one.
type CreateKeyInput struct {
	Name string `json:"name,omitempty"`
}

// UpdateKeyInput is the body of a key rename request.
type UpdateKeyInput struct {
	Name string `json:"name"`
}
