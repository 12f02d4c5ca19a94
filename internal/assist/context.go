// Package assist generates patient-specific task assistance views:
// it resolves the task's care protocol, assembles a prompt from the
// patient chart, calls the LLM, and caches the structured result.
package assist

// Care team roles that can request task assistance.
const (
	RoleHealthCoach = "HC"
	RoleNurse       = "RN"
	RoleDietitian   = "RD"
	RolePharmacist  = "PharmD"
)

// DefaultRole is used when a request does not name a role.
const DefaultRole = RoleNurse

var validRoles = map[string]bool{
	RoleHealthCoach: true,
	RoleNurse:       true,
	RoleDietitian:   true,
	RolePharmacist:  true,
}

// NormalizeRole maps an empty role to the default and reports whether
// the result is a known care team role.
func NormalizeRole(role string) (string, bool) {
	if role == "" {
		return DefaultRole, true
	}
	return role, validRoles[role]
}

// ClinicContext maps the chart's clinic_member flag to the protocol
// variant label. Anything other than Yes/No is Unknown.
func ClinicContext(clinicMember string) string {
	switch clinicMember {
	case "Yes":
		return "Clinic"
	case "No":
		return "Non-Clinic"
	default:
		return "Unknown"
	}
}

// variantOrder is the fallback order when the preferred variant is absent.
var variantOrder = []string{"general", "clinic", "non_clinic"}

// SelectStepVariant picks exactly one step variant for the patient's
// clinic context: clinic members get the clinic steps, non-members the
// non_clinic steps, and an unknown status gets the general steps. A
// missing or empty variant falls back to general, then to the first
// non-empty variant. Returns the variant label and its step text, or
// empty strings when the protocol has no steps at all.
func SelectStepVariant(steps map[string]string, clinicMember string) (string, string) {
	var preferred string
	switch clinicMember {
	case "Yes":
		preferred = "clinic"
	case "No":
		preferred = "non_clinic"
	default:
		preferred = "general"
	}

	if text := steps[preferred]; text != "" {
		return preferred, text
	}
	for _, variant := range variantOrder {
		if text := steps[variant]; text != "" {
			return variant, text
		}
	}
	return "", ""
}
