package internal

import "time"

/* ===================== RESPONSE SHAPER ===================== */

const (
	ProfileTypeAthlete = "athlete"
	ProfileTypeOrg     = "organization"
	ProfileTypeNone    = "none"
)

type IdentityView struct {
	ID          int    `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	ProfileType string `json:"profileType"`
	HasProfile  bool   `json:"hasProfile"`
	IsVerified  bool   `json:"isVerified"`
	CreatedAt   string `json:"createdAt"`
}

// ShapeIdentity flattens an identity plus which profile variant exists into
// the wire record. Timestamps become display strings here and nowhere
// earlier.
func ShapeIdentity(u Identity, profileType string) IdentityView {
	return IdentityView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Status:      u.Status,
		ProfileType: profileType,
		HasProfile:  profileType != ProfileTypeNone,
		IsVerified:  u.EmailVerifiedAt != nil,
		CreatedAt:   displayTime(u.CreatedAt),
	}
}

func displayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ProfileCompletion reports how much of the athlete profile is filled in,
// as a whole percentage.
func ProfileCompletion(p AthleteProfile) int {
	filled, total := 0, 6
	if p.Sport != "" {
		filled++
	}
	if p.Position != "" {
		filled++
	}
	if p.ExperienceYears != nil {
		filled++
	}
	if p.HeightCM != nil {
		filled++
	}
	if p.WeightKG != nil {
		filled++
	}
	if p.Bio != "" {
		filled++
	}
	return filled * 100 / total
}
