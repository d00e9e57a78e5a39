package model

import (
	"strings"

	"github.com/google/uuid"
)

// ProfileRecord is one platform-specific creator profile.
type ProfileRecord struct {
	ID       string `json:"id,omitempty"` // Platform-assigned ID (channel id, account id)
	Platform string `json:"platform"`
	Handle   string `json:"handle,omitempty"`
	Verified bool   `json:"verified"`
	Name     string `json:"name,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

var keyNamespace = uuid.MustParse("6f1c2b9e-0d4f-4f5a-9a57-3c1f0e6a2d11")

// Key identifies the record across the store, the vector index and the
// identity graph. It is "platform:id", falling back to the handle when the
// platform ID is unknown.
func (p ProfileRecord) Key() string {
	local := p.ID
	if local == "" {
		local = p.Handle
	}
	if p.Platform == "" && local == "" {
		// Anonymous records still need a stable key for clustering.
		return "anon:" + uuid.NewSHA1(keyNamespace, []byte(p.Name+"\x00"+p.Bio)).String()
	}
	return p.Platform + ":" + local
}

// HandleKey is the key the record had before its platform ID was known. ok
// is false when Key already is the handle key.
func (p ProfileRecord) HandleKey() (key string, ok bool) {
	if p.ID == "" || p.Handle == "" || p.Platform == "" {
		return "", false
	}
	return p.Platform + ":" + p.Handle, true
}

// IsMalformed reports a record that carries none of the comparable fields.
func (p ProfileRecord) IsMalformed() bool {
	return strings.TrimSpace(p.Handle) == "" &&
		strings.TrimSpace(p.Bio) == "" &&
		strings.TrimSpace(p.Name) == ""
}

// EmbeddingText is the text sent to the embedding provider for this profile.
func (p ProfileRecord) EmbeddingText() string {
	return strings.TrimSpace(p.Handle + " " + p.Bio)
}

// Metadata is the payload stored next to the profile's vector.
func (p ProfileRecord) Metadata() map[string]any {
	md := map[string]any{
		"platform": p.Platform,
		"handle":   p.Handle,
		"verified": p.Verified,
	}
	if p.Name != "" {
		md["name"] = p.Name
	}
	if p.Bio != "" {
		md["bio"] = p.Bio
	}
	return md
}
