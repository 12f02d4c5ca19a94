package patient

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Scenario names for synthetic chart generation.
const (
	scenarioT2DHyperglycemia = "t2d_hyperglycemia"
	scenarioT2DControlled    = "t2d_controlled"
	scenarioT1DHypoglycemia  = "t1d_hypoglycemia"
	scenarioHypertension     = "hypertension_uncontrolled"
	scenarioNewMember        = "new_member"
	scenarioMentalHealth     = "mental_health_concern"
	scenarioMultiCondition   = "multiple_conditions"
)

var scenarios = []string{
	scenarioT2DHyperglycemia,
	scenarioT2DControlled,
	scenarioT1DHypoglycemia,
	scenarioHypertension,
	scenarioNewMember,
	scenarioMentalHealth,
	scenarioMultiCondition,
}

var firstNames = []string{
	"James", "Maria", "Robert", "Jennifer", "Michael", "Lisa", "William", "Nancy",
	"David", "Karen", "Richard", "Betty", "Joseph", "Helen", "Thomas", "Sandra",
	"Charles", "Donna", "Christopher", "Carol", "Daniel", "Ruth", "Matthew", "Sharon",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
	"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
}

// Generator builds synthetic patient charts for demo data.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator creates a generator seeded for reproducible output.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now(),
	}
}

// Generate produces one synthetic chart from a random clinical scenario.
func (g *Generator) Generate() Record {
	name := g.pick(firstNames) + " " + g.pick(lastNames)
	age := 35 + g.rng.Intn(41)
	gender := g.pick([]string{"Male", "Female"})
	dob := g.now.AddDate(-age, 0, 0).Format("2006-01-02")

	rec := Record{
		"demographics": map[string]any{
			"name":   name,
			"age":    age,
			"gender": gender,
			"dob":    dob,
			"phone":  fmt.Sprintf("(555) %d-%d", 200+g.rng.Intn(800), 1000+g.rng.Intn(9000)),
			"email":  strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@email.com",
		},
		"participant_overview": map[string]any{
			"clinic_member": g.pick([]string{"Yes", "No"}),
		},
	}

	switch g.pick(scenarios) {
	case scenarioT2DHyperglycemia:
		g.fillT2DHyperglycemia(rec)
	case scenarioT2DControlled:
		g.fillT2DControlled(rec)
	case scenarioT1DHypoglycemia:
		g.fillT1DHypoglycemia(rec)
	case scenarioHypertension:
		g.fillHypertension(rec)
	case scenarioNewMember:
		g.fillNewMember(rec)
	case scenarioMentalHealth:
		g.fillMentalHealth(rec)
	default:
		g.fillMultiCondition(rec)
	}

	// A minority of charts carry an unread patient message
	if g.rng.Float64() < 0.2 {
		rec["messages"] = []any{map[string]any{
			"date": g.daysAgo(g.rng.Intn(4)),
			"from": "patient",
			"content": g.pick([]string{
				"I've been experiencing headaches lately.",
				"My readings have been all over the place this week.",
				"I missed a few doses because I ran out of medication.",
				"Feeling much better after our last conversation, thank you!",
				"Had some questions about the new device.",
			}),
		}}
	}

	return rec
}

func (g *Generator) fillT2DHyperglycemia(rec Record) {
	rec["conditions"] = map[string]any{
		"primary_diagnosis":    "Type 2 Diabetes",
		"secondary_conditions": []any{"Hypertension"},
		"icd10_codes":          []any{"E11.9", "I10"},
	}
	rec["devices"] = map[string]any{
		"bgm": map[string]any{
			"brand": g.pick([]string{"OneTouch", "Contour", "Accu-Chek"}),
			"model": g.pick([]string{"Ultra Mini", "Next One", "Guide"}),
		},
	}
	rec["recent_events"] = map[string]any{
		"hyperglycemic_events": []any{map[string]any{
			"date":     g.daysAgo(1),
			"bg_value": 280 + g.rng.Intn(171),
			"context":  g.pick([]string{"Post-dinner spike", "After high-carb meal", "Forgot medication"}),
		}},
		"avg_glucose_7day": 180 + g.rng.Intn(61),
		"time_in_range":    fmt.Sprintf("%d%%", 15+g.rng.Intn(26)),
	}
	rec["medications"] = []any{
		map[string]any{"name": "Metformin", "dose": "1000mg", "frequency": "twice daily"},
		map[string]any{"name": g.pick([]string{"Jardiance", "Ozempic", "Trulicity"}), "dose": "10mg", "frequency": "once daily"},
	}
	rec["labs"] = g.a1cLabs(8.5, 10.5, 10, 40)
}

func (g *Generator) fillT2DControlled(rec Record) {
	rec["conditions"] = map[string]any{
		"primary_diagnosis":    "Type 2 Diabetes",
		"secondary_conditions": []any{},
		"icd10_codes":          []any{"E11.9"},
	}
	rec["devices"] = map[string]any{
		"bgm": map[string]any{
			"brand": g.pick([]string{"OneTouch", "Contour"}),
		},
	}
	rec["recent_events"] = map[string]any{
		"avg_glucose_7day": 110 + g.rng.Intn(31),
		"time_in_range":    fmt.Sprintf("%d%%", 75+g.rng.Intn(21)),
	}
	rec["medications"] = []any{
		map[string]any{"name": "Metformin", "dose": "500mg", "frequency": "twice daily"},
	}
	rec["labs"] = g.a1cLabs(6.2, 7.0, 30, 90)
}

func (g *Generator) fillT1DHypoglycemia(rec Record) {
	rec["conditions"] = map[string]any{
		"primary_diagnosis":    "Type 1 Diabetes",
		"secondary_conditions": []any{"Hypoglycemia unawareness"},
		"icd10_codes":          []any{"E10.9"},
	}
	rec["devices"] = map[string]any{
		"cgm": map[string]any{
			"brand":         g.pick([]string{"Dexcom", "FreeStyle"}),
			"model":         g.pick([]string{"G7", "Libre 3"}),
			"sensor_number": fmt.Sprintf("SN-2024-%d", 1000+g.rng.Intn(9000)),
		},
		"insulin_pump": map[string]any{
			"brand": g.pick([]string{"Tandem", "Medtronic", "Omnipod"}),
		},
	}
	rec["recent_events"] = map[string]any{
		"hypoglycemic_events": []any{map[string]any{
			"date":      g.daysAgo(g.rng.Intn(4)),
			"bg_value":  40 + g.rng.Intn(26),
			"context":   g.pick([]string{"Overnight, no warning symptoms", "After exercise", "Overcorrection from meal bolus"}),
			"treatment": "15g glucose tabs",
		}},
		"avg_glucose_7day": 120 + g.rng.Intn(41),
		"time_in_range":    fmt.Sprintf("%d%%", 55+g.rng.Intn(21)),
	}
	rec["medications"] = []any{
		map[string]any{"name": "Insulin via pump", "dose": fmt.Sprintf("Basal %du/day", 20+g.rng.Intn(16))},
		map[string]any{"name": "Glucagon", "dose": "1mg", "frequency": "as needed"},
	}
	rec["labs"] = g.a1cLabs(6.5, 7.5, 30, 90)
}

func (g *Generator) fillHypertension(rec Record) {
	systolic := 155 + g.rng.Intn(36)
	diastolic := 95 + g.rng.Intn(21)
	rec["conditions"] = map[string]any{
		"primary_diagnosis":    g.pick([]string{"Type 2 Diabetes", "Prediabetes"}),
		"secondary_conditions": []any{"Hypertension", "Hyperlipidemia"},
		"icd10_codes":          []any{"E11.9", "I10", "E78.5"},
	}
	rec["devices"] = map[string]any{
		"bp_monitor": map[string]any{
			"brand": g.pick([]string{"Omron", "Withings", "iHealth"}),
		},
	}
	rec["recent_events"] = map[string]any{
		"hypertensive_events": []any{map[string]any{
			"date":     g.daysAgo(g.rng.Intn(3)),
			"bp_value": fmt.Sprintf("%d/%d", systolic, diastolic),
			"context":  g.pick([]string{"Morning reading, after medication", "Evening, stressed from work", "After salty meal"}),
		}},
		"avg_bp_7day": fmt.Sprintf("%d/%d", systolic-10, diastolic-5),
	}
	rec["medications"] = []any{
		map[string]any{"name": g.pick([]string{"Lisinopril", "Losartan", "Amlodipine"}), "dose": "10mg", "frequency": "once daily"},
		map[string]any{"name": "Metformin", "dose": "500mg", "frequency": "twice daily"},
	}
	rec["labs"] = g.a1cLabs(6.8, 8.5, 20, 60)
}

func (g *Generator) fillNewMember(rec Record) {
	rec["conditions"] = map[string]any{
		"primary_diagnosis":    g.pick([]string{"Type 2 Diabetes", "Prediabetes"}),
		"secondary_conditions": []any{},
		"icd10_codes":          []any{"E11.9"},
	}
	rec["devices"] = map[string]any{}
	rec["recent_events"] = map[string]any{
		"enrollment_date": g.daysAgo(g.rng.Intn(8)),
		"status":          "Pending initial setup",
	}
	rec["medications"] = []any{
		map[string]any{"name": "Metformin", "dose": "500mg", "frequency": "once daily"},
	}
	rec["labs"] = g.a1cLabs(7.0, 8.5, 30, 90)
}

func (g *Generator) fillMentalHealth(rec Record) {
	rec["conditions"] = map[string]any{
		"primary_diagnosis":    "Type 2 Diabetes",
		"secondary_conditions": []any{"Depression", "Anxiety"},
		"icd10_codes":          []any{"E11.9", "F33.1", "F41.1"},
	}
	rec["recent_events"] = map[string]any{
		"avg_glucose_7day":     150 + g.rng.Intn(51),
		"medication_adherence": "Poor - frequent missed doses",
	}
	rec["medications"] = []any{
		map[string]any{"name": "Metformin", "dose": "1000mg", "frequency": "twice daily"},
		map[string]any{"name": g.pick([]string{"Sertraline", "Escitalopram"}), "dose": "50mg", "frequency": "once daily"},
	}
	rec["surveys"] = map[string]any{
		"phq9": map[string]any{"score": 10 + g.rng.Intn(9), "date": g.daysAgo(1 + g.rng.Intn(14))},
		"ddas": map[string]any{"score": 3.0 + g.rng.Float64()*1.5, "date": g.daysAgo(1 + g.rng.Intn(14))},
	}
	rec["labs"] = g.a1cLabs(8.0, 9.5, 30, 90)
}

func (g *Generator) fillMultiCondition(rec Record) {
	rec["conditions"] = map[string]any{
		"primary_diagnosis":    "Type 2 Diabetes",
		"secondary_conditions": []any{"Hypertension", "Hyperlipidemia", "Stage 3 CKD"},
		"icd10_codes":          []any{"E11.9", "I10", "E78.5", "N18.3"},
	}
	rec["recent_events"] = map[string]any{
		"avg_glucose_7day": 160 + g.rng.Intn(41),
		"avg_bp_7day":      fmt.Sprintf("%d/%d", 140+g.rng.Intn(26), 85+g.rng.Intn(11)),
		"time_in_range":    fmt.Sprintf("%d%%", 40+g.rng.Intn(21)),
	}
	rec["medications"] = []any{
		map[string]any{"name": "Jardiance", "dose": "25mg", "frequency": "once daily"},
		map[string]any{"name": "Lisinopril", "dose": "20mg", "frequency": "once daily"},
		map[string]any{"name": "Atorvastatin", "dose": "40mg", "frequency": "once daily"},
		map[string]any{"name": "Metformin", "dose": "1000mg", "frequency": "twice daily"},
	}
	labs := g.a1cLabs(7.2, 8.8, 20, 60)
	labs["kidney"] = map[string]any{"egfr": 35 + g.rng.Intn(21), "creatinine": 1.2 + g.rng.Float64()*0.6}
	rec["labs"] = labs
}

func (g *Generator) a1cLabs(low, high float64, minDays, maxDays int) map[string]any {
	return map[string]any{
		"a1c": []any{map[string]any{
			"value": float64(int((low+g.rng.Float64()*(high-low))*10)) / 10,
			"date":  g.daysAgo(minDays + g.rng.Intn(maxDays-minDays+1)),
		}},
	}
}

func (g *Generator) daysAgo(n int) string {
	return g.now.AddDate(0, 0, -n).Format("2006-01-02")
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}
