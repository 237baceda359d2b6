// Package profile stores presence profiles as one JSON file per profile in
// the state directory.
package profile

import (
	"strings"
	"time"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/presence"
)

// Profile is one stored presence configuration. AppID identifies the Discord
// application; the remaining fields describe the payload to publish.
type Profile struct {
	Name  string `json:"name"`
	AppID string `json:"app_id"`

	Details        string            `json:"details,omitempty"`
	State          string            `json:"state,omitempty"`
	StartTimestamp *int64            `json:"start_timestamp,omitempty"`
	EndTimestamp   *int64            `json:"end_timestamp,omitempty"`
	LargeImageKey  string            `json:"large_image_key,omitempty"`
	LargeImageText string            `json:"large_image_text,omitempty"`
	SmallImageKey  string            `json:"small_image_key,omitempty"`
	SmallImageText string            `json:"small_image_text,omitempty"`
	PartySize      int               `json:"party_size,omitempty"`
	PartyMax       int               `json:"party_max,omitempty"`
	Buttons        []presence.Button `json:"buttons,omitempty"`
	Instance       *bool             `json:"instance,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Payload maps the profile onto the presence payload published on connect.
func (p *Profile) Payload() presence.Payload {
	return presence.Payload{
		Name:           p.Name,
		Details:        p.Details,
		State:          p.State,
		StartTimestamp: p.StartTimestamp,
		EndTimestamp:   p.EndTimestamp,
		LargeImageKey:  p.LargeImageKey,
		LargeImageText: p.LargeImageText,
		SmallImageKey:  p.SmallImageKey,
		SmallImageText: p.SmallImageText,
		PartySize:      p.PartySize,
		PartyMax:       p.PartyMax,
		Buttons:        p.Buttons,
		Instance:       p.Instance,
	}
}

// sanitizeName strips characters unsafe for file names, keeping letters,
// digits, spaces, hyphens, and underscores.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
