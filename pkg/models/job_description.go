package models

// JobDescriptionParameters describes the position for the HR job description task.
// Only Name is required; empty fields are left out of the request.
type JobDescriptionParameters struct {
	Name                  string    `json:"name"                              validate:"required"`
	CompanyName           string    `json:"company_name,omitempty"`
	MinimumWorkExperience string    `json:"minimum_work_experience,omitempty"`
	MinimumEducation      string    `json:"minimum_education,omitempty"`
	EmploymentType        string    `json:"employment_type,omitempty"`
	RequiredSkills        []string  `json:"required_skills,omitempty"`
	OptionalSkills        []string  `json:"optional_skills,omitempty"`
	Country               string    `json:"country,omitempty"`
	Remote                *bool     `json:"remote,omitempty"`
	VisaSponsored         *bool     `json:"visa_sponsored,omitempty"`
	VoiceTone             VoiceTone `json:"voice_tone,omitempty"`
	Context               string    `json:"context,omitempty"`
	Language              string    `json:"language,omitempty"`
}

// Params flattens the parameters into the request field map.
func (p JobDescriptionParameters) Params() map[string]any {
	params := map[string]any{"name": p.Name}
	set := func(k, v string) {
		if v != "" {
			params[k] = v
		}
	}
	set("company_name", p.CompanyName)
	set("minimum_work_experience", p.MinimumWorkExperience)
	set("minimum_education", p.MinimumEducation)
	set("employment_type", p.EmploymentType)
	set("country", p.Country)
	set("voice_tone", string(p.VoiceTone))
	set("context", p.Context)
	set("language", p.Language)
	if len(p.RequiredSkills) > 0 {
		params["required_skills"] = p.RequiredSkills
	}
	if len(p.OptionalSkills) > 0 {
		params["optional_skills"] = p.OptionalSkills
	}
	if p.Remote != nil {
		params["remote"] = *p.Remote
	}
	if p.VisaSponsored != nil {
		params["visa_sponsored"] = *p.VisaSponsored
	}
	return params
}
