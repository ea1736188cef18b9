package candidate

import (
	"strings"

	"sift/internal/services"
)

// Profile is the structured representation of a resume/CV after extraction.
type Profile struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Summary         string   `json:"summary"`
	Skills          []string `json:"skills"`
	Certifications  []string `json:"certifications"`
	Education       []string `json:"education"`
	Roles           []Role   `json:"roles"`
	YearsExperience float64  `json:"years_experience"`
}

// Role is a single employment entry.
type Role struct {
	Title   string  `json:"title"`
	Company string  `json:"company"`
	Years   float64 `json:"years"`
}

// Normalize trims free-text fields and drops empty list entries.
func (p *Profile) Normalize() {
	if p == nil {
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Summary = strings.TrimSpace(p.Summary)
	p.Skills = trimList(p.Skills)
	p.Certifications = trimList(p.Certifications)
	p.Education = trimList(p.Education)
	roles := p.Roles[:0]
	for _, role := range p.Roles {
		role.Title = strings.TrimSpace(role.Title)
		role.Company = strings.TrimSpace(role.Company)
		if role.Title == "" && role.Company == "" {
			continue
		}
		roles = append(roles, role)
	}
	p.Roles = roles
	if p.YearsExperience < 0 {
		p.YearsExperience = 0
	}
}

// Validate performs the structural check the validate node applies after
// extraction. A profile that fails here is unusable for scoring.
func (p *Profile) Validate() error {
	if p == nil {
		return services.Wrap(services.ErrValidation, "", "validate profile", "no profile extracted", nil)
	}
	if p.Name == "" {
		return services.Wrap(services.ErrValidation, "", "validate profile", "candidate name missing", nil)
	}
	if len(p.Skills) == 0 && len(p.Roles) == 0 {
		return services.Wrap(services.ErrValidation, "", "validate profile", "no skills or work history extracted", nil)
	}
	return nil
}

// HasSkill reports whether the profile lists the skill, case-insensitively.
func (p *Profile) HasSkill(skill string) bool {
	return containsFold(p.Skills, skill)
}

// HasCertification reports whether the profile lists the certification,
// case-insensitively.
func (p *Profile) HasCertification(cert string) bool {
	return containsFold(p.Certifications, cert)
}

// TotalYears returns the explicit experience total when present, otherwise
// the sum over employment entries.
func (p *Profile) TotalYears() float64 {
	if p == nil {
		return 0
	}
	if p.YearsExperience > 0 {
		return p.YearsExperience
	}
	var total float64
	for _, role := range p.Roles {
		if role.Years > 0 {
			total += role.Years
		}
	}
	return total
}

func containsFold(values []string, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), want) {
			return true
		}
	}
	return false
}

func trimList(values []string) []string {
	out := values[:0]
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}
