// Package presence defines the typed Rich Presence payload, its validation
// bounds, and its mapping onto the Discord activity wire shape.
package presence

import (
	"fmt"
	"regexp"
	"strings"
)

// Discord-imposed field bounds.
const (
	MaxTextLength        = 128
	MaxButtonLabelLength = 32
	MaxURLLength         = 512
	MaxButtons           = 2

	// Sanity window for timestamps: 2000-01-01 .. 2100-01-01 UTC.
	minTimestamp = 946684800
	maxTimestamp = 4102444800
)

var (
	appIDPattern = regexp.MustCompile(`^[0-9]{17,20}$`)
	urlPattern   = regexp.MustCompile(`(?i)^https?://` +
		`(?:(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,6}\.?|` +
		`localhost|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)
)

// Button is one (label, URL) pair shown under the presence.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Payload is the state published to Discord. Every field is optional; absent
// fields are omitted from the wire mapping entirely, since the protocol
// treats omission and null differently.
type Payload struct {
	Name           string   `json:"name,omitempty"`
	Details        string   `json:"details,omitempty"`
	State          string   `json:"state,omitempty"`
	StartTimestamp *int64   `json:"start_timestamp,omitempty"`
	EndTimestamp   *int64   `json:"end_timestamp,omitempty"`
	LargeImageKey  string   `json:"large_image_key,omitempty"`
	LargeImageText string   `json:"large_image_text,omitempty"`
	SmallImageKey  string   `json:"small_image_key,omitempty"`
	SmallImageText string   `json:"small_image_text,omitempty"`
	PartySize      int      `json:"party_size,omitempty"`
	PartyMax       int      `json:"party_max,omitempty"`
	Buttons        []Button `json:"buttons,omitempty"`
	Instance       *bool    `json:"instance,omitempty"`
}

// ValidateAppID checks a Discord application ID: 17-20 decimal digits.
func ValidateAppID(appID string) error {
	if appID == "" {
		return fmt.Errorf("application ID cannot be empty")
	}
	if !appIDPattern.MatchString(appID) {
		return fmt.Errorf("application ID must be 17-20 digits")
	}
	return nil
}

// Validate checks every bounded field before send. It returns the first
// violation found; a nil error means the payload maps cleanly onto the wire.
func (p *Payload) Validate() error {
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"details", p.Details},
		{"state", p.State},
		{"large image key", p.LargeImageKey},
		{"large image text", p.LargeImageText},
		{"small image key", p.SmallImageKey},
		{"small image text", p.SmallImageText},
	} {
		if len(f.value) > MaxTextLength {
			return fmt.Errorf("%s exceeds maximum length of %d characters", f.name, MaxTextLength)
		}
	}

	if err := validateTimestamp(p.StartTimestamp, "start timestamp"); err != nil {
		return err
	}
	if err := validateTimestamp(p.EndTimestamp, "end timestamp"); err != nil {
		return err
	}
	if p.StartTimestamp != nil && p.EndTimestamp != nil && *p.EndTimestamp < *p.StartTimestamp {
		return fmt.Errorf("end timestamp must not precede start timestamp")
	}

	if p.PartySize < 0 {
		return fmt.Errorf("party size cannot be negative")
	}
	if p.PartyMax < 0 {
		return fmt.Errorf("max party size cannot be negative")
	}
	if p.PartySize > 0 && p.PartyMax > 0 && p.PartySize > p.PartyMax {
		return fmt.Errorf("current party size cannot exceed maximum")
	}

	if len(p.Buttons) > MaxButtons {
		return fmt.Errorf("at most %d buttons are allowed", MaxButtons)
	}
	for i, b := range p.Buttons {
		if strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("button %d label cannot be empty", i+1)
		}
		if len(b.Label) > MaxButtonLabelLength {
			return fmt.Errorf("button %d label exceeds maximum length of %d characters", i+1, MaxButtonLabelLength)
		}
		if err := validateURL(b.URL); err != nil {
			return fmt.Errorf("button %d: %w", i+1, err)
		}
	}

	return nil
}

func validateTimestamp(ts *int64, name string) error {
	if ts == nil {
		return nil
	}
	if *ts < 0 {
		return fmt.Errorf("%s cannot be negative", name)
	}
	if *ts < minTimestamp || *ts > maxTimestamp {
		return fmt.Errorf("%s appears to be invalid", name)
	}
	return nil
}

func validateURL(url string) error {
	if url == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if len(url) > MaxURLLength {
		return fmt.Errorf("URL too long (max %d characters)", MaxURLLength)
	}
	if !urlPattern.MatchString(url) {
		return fmt.Errorf("invalid URL format (must start with http:// or https://)")
	}
	return nil
}

// IsZero reports whether the payload carries no fields at all.
func (p *Payload) IsZero() bool {
	return p.Name == "" && p.Details == "" && p.State == "" &&
		p.StartTimestamp == nil && p.EndTimestamp == nil &&
		p.LargeImageKey == "" && p.LargeImageText == "" &&
		p.SmallImageKey == "" && p.SmallImageText == "" &&
		p.PartySize == 0 && p.PartyMax == 0 &&
		len(p.Buttons) == 0 && p.Instance == nil
}
