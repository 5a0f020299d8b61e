package types

// Envelope is the message event relayed to every connected client.
//
// Recipient is set only by the confidentiality variant for private lines, in
// which case Payload is base64 ciphertext. Signature is set only by the
// authenticity variant and is the hex RSA signature over Payload.
type Envelope struct {
	Sender    Username `json:"sender"`
	Payload   string   `json:"payload"`
	Recipient Username `json:"recipient,omitempty"`
	Signature string   `json:"signature,omitempty"`
}

// IsPrivate reports whether the envelope is addressed to a single recipient.
func (e Envelope) IsPrivate() bool { return e.Recipient != "" }

// IsSigned reports whether the envelope carries a signature.
func (e Envelope) IsSigned() bool { return e.Signature != "" }
