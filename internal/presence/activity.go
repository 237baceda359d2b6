package presence

// The activity wire shape sent in SET_ACTIVITY frames. Nested objects exist
// only when at least one of their fields is set, so an empty payload section
// is omitted rather than serialized as an empty or null object.

// Timestamps is the activity timestamps object.
type Timestamps struct {
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
}

// Assets is the activity assets object.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Party is the activity party object. Size is [current, max].
type Party struct {
	Size [2]int `json:"size"`
}

// Activity is the JSON object Discord expects inside SET_ACTIVITY args.
type Activity struct {
	Name       string      `json:"name,omitempty"`
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Party      *Party      `json:"party,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`
	Instance   *bool       `json:"instance,omitempty"`
}

// Activity maps the payload onto the wire shape. The mapping is explicit:
// every present payload field lands in exactly one activity field, absent
// fields produce no JSON keys.
func (p *Payload) Activity() *Activity {
	a := &Activity{
		Name:     p.Name,
		Details:  p.Details,
		State:    p.State,
		Instance: p.Instance,
	}

	if p.StartTimestamp != nil || p.EndTimestamp != nil {
		a.Timestamps = &Timestamps{Start: p.StartTimestamp, End: p.EndTimestamp}
	}

	if p.LargeImageKey != "" || p.LargeImageText != "" || p.SmallImageKey != "" || p.SmallImageText != "" {
		a.Assets = &Assets{
			LargeImage: p.LargeImageKey,
			LargeText:  p.LargeImageText,
			SmallImage: p.SmallImageKey,
			SmallText:  p.SmallImageText,
		}
	}

	// The party object only makes sense with both sides populated.
	if p.PartySize > 0 && p.PartyMax > 0 {
		a.Party = &Party{Size: [2]int{p.PartySize, p.PartyMax}}
	}

	if len(p.Buttons) > 0 {
		a.Buttons = p.Buttons
	}

	return a
}
