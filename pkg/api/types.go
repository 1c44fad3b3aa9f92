package api

// BadgeResponse carries the current badge text; empty means cleared.
type BadgeResponse struct {
	Text string `json:"text"`
}

// SettingsResponse reports the polling interval and which providers have a
// credential configured. Credential values are never echoed back.
type SettingsResponse struct {
	UpdateIntervalMinutes int             `json:"update_interval_minutes"`
	Configured            map[string]bool `json:"configured"`
}

// SettingsUpdate is the PUT /v1/settings body. Absent fields are left
// unchanged; an empty credential string removes that provider's credential.
type SettingsUpdate struct {
	UpdateIntervalMinutes *int              `json:"update_interval_minutes,omitempty"`
	Credentials           map[string]string `json:"credentials,omitempty"`
}
