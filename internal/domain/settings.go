package domain

// IntegrationMode selects how entries are pushed to the firewall.
type IntegrationMode string

const (
	ModeEDL            IntegrationMode = "edl"
	ModeAddressObjects IntegrationMode = "address-objects"
)

// Settings is the singleton operator configuration. It is read fresh on every
// operation that needs it, never cached.
type Settings struct {
	IntegrationMode  IntegrationMode `json:"integration_mode"`
	DryRun           bool            `json:"dry_run"`
	EDLToken         string          `json:"edl_token,omitempty"`
	PaloAltoAPIURL   string          `json:"palo_alto_api_url,omitempty"`
	PaloAltoAPIKey   string          `json:"palo_alto_api_key,omitempty"`
	AddressGroupName string          `json:"address_group_name,omitempty"`
}

// DefaultSettings returns the initial configuration: EDL mode with dry-run
// enabled so a fresh install never touches a device.
func DefaultSettings() Settings {
	return Settings{
		IntegrationMode: ModeEDL,
		DryRun:          true,
	}
}

// SettingsPatch is a partial settings update. Nil fields keep their stored
// values (merge semantics).
type SettingsPatch struct {
	IntegrationMode  *IntegrationMode `json:"integration_mode,omitempty"`
	DryRun           *bool            `json:"dry_run,omitempty"`
	EDLToken         *string          `json:"edl_token,omitempty"`
	PaloAltoAPIURL   *string          `json:"palo_alto_api_url,omitempty"`
	PaloAltoAPIKey   *string          `json:"palo_alto_api_key,omitempty"`
	AddressGroupName *string          `json:"address_group_name,omitempty"`
}

// Apply merges the patch into the settings.
func (p SettingsPatch) Apply(s *Settings) {
	if p.IntegrationMode != nil {
		s.IntegrationMode = *p.IntegrationMode
	}
	if p.DryRun != nil {
		s.DryRun = *p.DryRun
	}
	if p.EDLToken != nil {
		s.EDLToken = *p.EDLToken
	}
	if p.PaloAltoAPIURL != nil {
		s.PaloAltoAPIURL = *p.PaloAltoAPIURL
	}
	if p.PaloAltoAPIKey != nil {
		s.PaloAltoAPIKey = *p.PaloAltoAPIKey
	}
	if p.AddressGroupName != nil {
		s.AddressGroupName = *p.AddressGroupName
	}
}
