package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightpath-health/careassist/internal/patient"
	"github.com/lightpath-health/careassist/internal/protocol"
)

func promptChart(clinicMember string) patient.Record {
	return patient.Record{
		"demographics": map[string]any{"name": "Maria Garcia", "age": 58},
		"participant_overview": map[string]any{
			"clinic_member": clinicMember,
			"conditions":    []any{"Type 2 Diabetes"},
		},
	}
}

func TestBuildPromptSelectsNonClinicSteps(t *testing.T) {
	proto := bgm104Record()

	prompt, err := BuildPrompt("RN", "Non-Clinic", "No", promptChart("No"), proto)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Task Code: BGM-104")
	assert.Contains(t, prompt, "Steps (non_clinic):")
	assert.Contains(t, prompt, "Send outreach SMS")
	assert.NotContains(t, prompt, "Escalate to the clinic provider")
	assert.Contains(t, prompt, "Patient Clinic Status: Non-Clinic (clinic_member: No)")
	assert.Contains(t, prompt, "Maria Garcia")
}

func TestBuildPromptSelectsClinicSteps(t *testing.T) {
	proto := bgm104Record()

	prompt, err := BuildPrompt("PharmD", "Clinic", "Yes", promptChart("Yes"), proto)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Steps (clinic):")
	assert.Contains(t, prompt, "Escalate to the clinic provider")
	assert.NotContains(t, prompt, "Send outreach SMS")
	assert.Contains(t, prompt, "Role: PharmD")
	assert.Contains(t, prompt, "medication review, dosing, titration, and drug interactions")
}

func TestBuildPromptUnknownStatusUsesGeneralSteps(t *testing.T) {
	proto := bgm104Record()

	prompt, err := BuildPrompt("RN", "Unknown", "Unknown", promptChart("Unknown"), proto)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Steps (general):")
	assert.Contains(t, prompt, "Review the reading")
}

func TestBuildPromptFallsBackToContent(t *testing.T) {
	proto := bgm104Record()
	proto.Steps = nil

	prompt, err := BuildPrompt("RN", "Clinic", "Yes", promptChart("Yes"), proto)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Steps (content):")
	assert.Contains(t, prompt, proto.Content)
}

func TestBuildPromptIncludesTrigger(t *testing.T) {
	prompt, err := BuildPrompt("RN", "Clinic", "Yes", promptChart("Yes"), bgm104Record())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Trigger: BG reading above 400 mg/dL")
}

func TestBuildPromptMissingProtocolFields(t *testing.T) {
	prompt, err := BuildPrompt("RN", "Unknown", "Unknown", promptChart("Unknown"), protocol.Record{})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Task Code: N/A")
	assert.Contains(t, prompt, "Trigger: N/A")
}
