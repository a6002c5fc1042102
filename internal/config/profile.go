package config

// CompanyProfile holds per-company configuration for one analysis target.
// This allows pinning market codes and evidence material per company.
type CompanyProfile struct {
	// Code is the market code for structured data lookups,
	// e.g. "600019.SH". If empty, the code parsed from the target
	// identifier is used.
	Code string `yaml:"code,omitempty"`

	// Documents are paths to uploaded evidence files (annual reports,
	// research notes) read into the evidence bundle at top priority.
	Documents []string `yaml:"documents,omitempty"`

	// Links are reference URLs whose titles are listed as supporting
	// evidence alongside the uploaded documents.
	Links []string `yaml:"links,omitempty"`

	// Notes is free-form text added to the uploaded evidence verbatim.
	// Useful for analyst context that lives in no file.
	Notes string `yaml:"notes,omitempty"`
}

// File represents the structure of the .stockscan configuration file.
type File struct {
	// Companies maps company names to their profiles.
	// Keys should match the name part of the target identifier
	// (e.g., "Acme Widgets" for the target "Acme Widgets, 600019.SH").
	Companies map[string]CompanyProfile `yaml:"companies,omitempty"`

	// Defaults contains the default profile applied to all companies
	// unless overridden in the company-specific profile.
	Defaults CompanyProfile `yaml:"defaults,omitempty"`
}

// GetCompanyProfile returns the profile for a specific company name.
// It merges the company-specific profile with defaults.
func (cf *File) GetCompanyProfile(name string) CompanyProfile {
	// Start with defaults
	result := cf.Defaults

	// Override with company-specific profile if present
	if profile, ok := cf.Companies[name]; ok {
		if profile.Code != "" {
			result.Code = profile.Code
		}
		if len(profile.Documents) > 0 {
			result.Documents = profile.Documents
		}
		if len(profile.Links) > 0 {
			result.Links = profile.Links
		}
		if profile.Notes != "" {
			result.Notes = profile.Notes
		}
	}

	return result
}
