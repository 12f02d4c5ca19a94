package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lightpath-health/careassist/internal/patient"
)

var (
	patientsCount int
	patientsSeed  int64
)

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "Manage the local patient chart store",
}

var patientsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic patient charts",
	Long: `Generate synthetic patient charts for demos and local development.
Charts are written to the configured patients directory, one JSON file
per patient, overwriting existing charts with the same index.

Example:
  careassist patients generate --count 10`,
	RunE: runPatientsGenerate,
}

var patientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patient charts in the store",
	RunE:  runPatientsList,
}

func init() {
	patientsGenerateCmd.Flags().IntVarP(&patientsCount, "count", "c", 10, "number of patients to generate")
	patientsGenerateCmd.Flags().Int64Var(&patientsSeed, "seed", 0, "random seed (0 = time-based)")

	patientsCmd.AddCommand(patientsGenerateCmd)
	patientsCmd.AddCommand(patientsListCmd)
}

func runPatientsGenerate(cmd *cobra.Command, args []string) error {
	store, err := patient.NewStore(cfg.PatientsDir)
	if err != nil {
		return err
	}

	seed := patientsSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := patient.NewGenerator(seed)

	for i := 0; i < patientsCount; i++ {
		rec := gen.Generate()
		if _, err := store.Save(i, rec); err != nil {
			return fmt.Errorf("save patient %d: %w", i, err)
		}
		if verbose {
			fmt.Printf("  patient%d.json: %s\n", i, rec.Name())
		}
	}

	fmt.Printf("Generated %d patient charts in %s.\n", patientsCount, cfg.PatientsDir)
	return nil
}

func runPatientsList(cmd *cobra.Command, args []string) error {
	store, err := patient.NewStore(cfg.PatientsDir)
	if err != nil {
		return err
	}

	summaries, err := store.List()
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No patient charts found.")
		return nil
	}

	for _, s := range summaries {
		name, _ := s.Demographics["name"].(string)
		fmt.Printf("%3d  %s\n", s.Index, name)
	}
	return nil
}
