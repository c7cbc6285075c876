package ports

import "time"

// Tokenizer converts between nonces and signed nonce tickets
type Tokenizer interface {
	// NonceToTicket returns a signed ticket proving the server issued nonce.
	NonceToTicket(nonce string, ttl time.Duration) (string, error)
	// TicketToNonce verifies a ticket and returns the nonce it carries.
	TicketToNonce(ticket string) (string, error)
}
