package connector

import (
	"strings"
	"time"

	"hubspot-connector/internal/hubspot"
)

// PendingState is the CSRF guard for one in-flight authorization. It is
// written to the store when a flow starts and embedded, serialized, in the
// `state` query parameter of the redirect URL; the provider echoes the
// parameter back unmodified at the callback.
type PendingState struct {
	// Nonce is 32 bytes of crypto/rand entropy, URL-safe base64 without padding
	Nonce string `json:"state"`
	// UserID identifies the end user the flow belongs to
	UserID string `json:"user_id"`
	// OrgID identifies the tenant organization
	OrgID string `json:"org_id"`
}

// Credentials is the provider's token payload plus issued_at, which is always
// stamped by this service as Unix seconds of the moment the payload was
// received, never trusted from the provider.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	IssuedAt     int64  `json:"issued_at,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// NeedsRefresh reports whether the payload has entered the renewal buffer
// ahead of its expiry. Payloads without both expires_in and issued_at never
// qualify; they carry no lifetime to measure against.
func (c *Credentials) NeedsRefresh(now time.Time, buffer time.Duration) bool {
	if c.ExpiresIn == 0 || c.IssuedAt == 0 {
		return false
	}
	return now.Unix() > c.IssuedAt+c.ExpiresIn-int64(buffer.Seconds())
}

// ItemTypeContact tags canonical items built from CRM contact records.
const ItemTypeContact = "contact"

// UnnamedContact is the display name used when a contact has no name parts.
const UnnamedContact = "Unnamed Contact"

// CanonicalItem is the provider-agnostic projection of one CRM record.
// Timestamps stay in the provider's string form.
type CanonicalItem struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Name             string `json:"name"`
	CreationTime     string `json:"creation_time,omitempty"`
	LastModifiedTime string `json:"last_modified_time,omitempty"`
	ParentID         string `json:"parent_id,omitempty"`
}

// TenantPair identifies one (user, org) credential owner.
type TenantPair struct {
	UserID string
	OrgID  string
}

// newCanonicalItem projects a provider contact onto the canonical shape.
// Contacts are a flat resource, so ParentID stays empty.
func newCanonicalItem(contact hubspot.Contact) CanonicalItem {
	return CanonicalItem{
		ID:               contact.ID,
		Type:             ItemTypeContact,
		Name:             contactDisplayName(contact.Properties.Firstname, contact.Properties.Lastname),
		CreationTime:     contact.CreatedAt,
		LastModifiedTime: contact.UpdatedAt,
	}
}

// contactDisplayName joins the trimmed name parts, falling back to
// UnnamedContact when both are empty.
func contactDisplayName(first, last string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return UnnamedContact
	}
	return name
}
