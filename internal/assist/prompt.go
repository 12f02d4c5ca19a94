package assist

import (
	"encoding/json"
	"fmt"

	"github.com/lightpath-health/careassist/internal/patient"
	"github.com/lightpath-health/careassist/internal/protocol"
)

const systemPrompt = `You are a clinical AI assistant. Generate comprehensive, patient-specific clinical detail views in valid JSON format.`

const detailViewInstructions = `You are generating a task assistance view for a care team member working a clinical task queue. Using ONLY the patient chart and protocol provided, produce a JSON object with this structure:

{
  "task_title": "short title for the task",
  "ai_insight": {
    "summary": "2-3 sentence patient-specific summary of why this task fired and what matters most",
    "key_points": ["bullet points a clinician should know before acting"]
  },
  "participant_overview": {
    "conditions": ["condition names from the chart"],
    "devices": ["device names from the chart"],
    "clinic_member": "Yes or No",
    "insulin_strategy": "if applicable, else omit"
  },
  "clinical_incident": {
    "title": "name of the triggering incident",
    "timeline": [{"action": "what happened", "details": "values, dates, context"}]
  },
  "clinical_assessment": {
    "severity": "Low / Moderate / High / Critical",
    "urgency": "how quickly outreach is needed",
    "trends": "relevant trend in the patient's recent data",
    "contributing_factors": ["likely contributors from the chart"]
  },
  "suggested_messages": [
    {"category": "e.g. Outreach", "type": "sms or secure_message", "message": "ready-to-send patient message", "rationale": "why this message"}
  ],
  "protocol_steps": ["the protocol steps listed below, in order"]
}

Ground every statement in the chart or protocol. Do not invent values. Do not diagnose or give medical advice beyond what the protocol directs.`

// roleFocus tells the model what each care team role acts on.
var roleFocus = map[string]string{
	RoleHealthCoach: "member engagement, lifestyle coaching, and outreach messaging",
	RoleNurse:       "clinical triage, symptom assessment, and escalation decisions",
	RoleDietitian:   "nutrition patterns, dietary contributors, and meal guidance",
	RolePharmacist:  "medication review, dosing, titration, and drug interactions",
}

// BuildPrompt assembles the user prompt for one assistance request. The
// step variant matching the patient's clinic status is selected here, so
// the model only ever sees the steps that apply to this patient.
func BuildPrompt(role, clinicContext, clinicMember string, chart patient.Record, proto protocol.Record) (string, error) {
	chartJSON, err := json.MarshalIndent(chart, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal patient chart: %w", err)
	}

	variant, stepText := SelectStepVariant(proto.Steps, clinicMember)
	if stepText == "" {
		// Older records carry steps only inside the content block.
		variant, stepText = "content", proto.Content
	}

	return fmt.Sprintf(`%s

## User Context:
Role: %s (HC=Health Coach, RN=Registered Nurse, RD=Registered Dietitian, PharmD=Pharmacist)
Role Focus: %s
Patient Clinic Status: %s (clinic_member: %s)

## Patient Chart Data:
%s

## Protocol Data:
Task Code: %s
Task Name: %s
Priority: %s
Trigger: %s
Steps (%s):
%s

Generate the detailed clinical view now in JSON format.`,
		detailViewInstructions,
		role, roleFocus[role], clinicContext, clinicMember,
		chartJSON,
		orNA(proto.TaskCode), orNA(proto.TaskName), orNA(proto.Priority), orNA(proto.Trigger),
		variant, orNA(stepText),
	), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
