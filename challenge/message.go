package challenge

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/goldencity/core"
	"github.com/spruceid/siwe-go"
)

// Version is the only EIP-4361 message version.
const Version = "1"

// Message is a parsed SIWE challenge.
type Message struct {
	Domain         string
	Address        common.Address
	Statement      string
	URI            string
	Version        string
	ChainID        int
	Nonce          string
	IssuedAt       time.Time
	ExpirationTime *time.Time
	NotBefore      *time.Time

	raw *siwe.Message
}

// WalletAddress returns the lower-cased hex address used as the wallet identity.
func (m *Message) WalletAddress() string {
	return strings.ToLower(m.Address.Hex())
}

// String returns the canonical text form of the message.
func (m *Message) String() string {
	return m.raw.String()
}

// BuildParams are the caller supplied fields of a challenge.
type BuildParams struct {
	Address        string
	Statement      string
	URI            string
	ChainID        int
	Nonce          string
	IssuedAt       time.Time  // Defaults to now
	ExpirationTime *time.Time // Optional
}

// Codec builds and parses SIWE messages for one domain.
type Codec struct {
	domain string
}

// NewCodec creates a codec for the given SIWE domain.
func NewCodec(domain string) *Codec {
	return &Codec{domain: domain}
}

// Build serializes a challenge to its canonical text form.
func (c *Codec) Build(p BuildParams) (string, error) {
	if !common.IsHexAddress(p.Address) || !strings.HasPrefix(p.Address, "0x") {
		return "", fmt.Errorf("address %q: %w", p.Address, core.ErrInvalidAddress)
	}
	issuedAt := p.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	options := map[string]interface{}{
		"chainId":  p.ChainID,
		"issuedAt": issuedAt.UTC().Format(time.RFC3339),
	}
	if p.Statement != "" {
		options["statement"] = p.Statement
	}
	if p.ExpirationTime != nil {
		options["expirationTime"] = p.ExpirationTime.UTC().Format(time.RFC3339)
	}
	// EIP-4361 requires the checksummed form of the address.
	checksummed := common.HexToAddress(p.Address).Hex()
	msg, err := siwe.InitMessage(c.domain, checksummed, p.URI, p.Nonce, options)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrMalformedMessage, err)
	}
	return msg.String(), nil
}

// Parse decodes the text form of a SIWE message. Any deviation from the
// EIP-4361 grammar is reported as core.ErrMalformedMessage.
func (c *Codec) Parse(text string) (*Message, error) {
	return Parse(text)
}

// Parse decodes the text form of a SIWE message.
func Parse(text string) (*Message, error) {
	raw, err := siwe.ParseMessage(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedMessage, err)
	}
	address := raw.GetAddress()
	if address == (common.Address{}) {
		return nil, fmt.Errorf("%w: missing address", core.ErrMalformedMessage)
	}
	uri := raw.GetURI()
	m := &Message{
		Domain:  raw.GetDomain(),
		Address: address,
		URI:     uri.String(),
		Version: raw.GetVersion(),
		ChainID: raw.GetChainID(),
		Nonce:   raw.GetNonce(),
		raw:     raw,
	}
	if s := raw.GetStatement(); s != nil {
		m.Statement = *s
	}
	if m.IssuedAt, err = parseTime("issued-at", raw.GetIssuedAt()); err != nil {
		return nil, err
	}
	if s := raw.GetExpirationTime(); s != nil {
		t, err := parseTime("expiration-time", *s)
		if err != nil {
			return nil, err
		}
		m.ExpirationTime = &t
	}
	if s := raw.GetNotBefore(); s != nil {
		t, err := parseTime("not-before", *s)
		if err != nil {
			return nil, err
		}
		m.NotBefore = &t
	}
	return m, nil
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q", core.ErrMalformedMessage, field, value)
	}
	return t, nil
}
