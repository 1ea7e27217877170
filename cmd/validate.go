package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/ThomasCrouzet/mediastack/internal/config"
	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/preflight"
	"github.com/ThomasCrouzet/mediastack/internal/stack"
	"github.com/ThomasCrouzet/mediastack/internal/ui"
	"github.com/ThomasCrouzet/mediastack/internal/util"
	"github.com/ThomasCrouzet/mediastack/internal/validate"
	"github.com/spf13/cobra"
)

var (
	validateFile  string
	skipPreflight bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check docker and a generated docker-compose.yml",
	Long: heredoc.Doc(`
		Check that docker and the compose plugin are installed and usable,
		then validate the generated docker-compose.yml: it must parse, hold a
		block for every configured service, declare its networks and load
		the way docker compose would load it.
	`),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "compose file to validate (default: the configured output dir)")
	validateCmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "only validate the compose file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	passed := 0

	if !skipPreflight {
		fmt.Println(ui.Bold("Checking prerequisites..."))
		outcomes := preflight.Run(cmd.Context(), nil, preflight.All())
		printOutcomes(outcomes)
		for _, o := range outcomes {
			if o.Passed() {
				passed++
			} else if o.Failure != nil {
				failed++
			}
		}
		fmt.Println()
	}

	path, expected, err := validateTarget()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load config", err.Error(), "pass --file to validate a compose file directly"))
		return err
	}

	fmt.Println(ui.Bold("Validating " + path + "..."))
	if expected == nil {
		data, err := os.ReadFile(path)
		if err == nil {
			expected, _ = validate.ServiceNames(data)
		}
	}
	issues, err := validate.ValidateFile(cmd.Context(), path, expected)
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Cannot validate", err.Error(), "run 'mediastack generate' first"))
		return err
	}
	if len(issues) == 0 {
		ui.CheckPassed(stack.ComposeFile, fmt.Sprintf("%d services", len(expected)))
		passed++
	}
	for _, i := range issues {
		name := string(i.Kind)
		if i.Service != "" {
			name += " " + i.Service
		}
		ui.CheckFailed(name, i.Message, "")
		failed++
	}

	fmt.Println()
	if failed == 0 {
		ui.Success(fmt.Sprintf("%d checks passed, 0 errors", passed))
		return nil
	}
	fmt.Printf("%d checks passed, %d errors\n", passed, failed)
	return fmt.Errorf("%d validation errors", failed)
}

// validateTarget resolves the file to validate and the services it must
// contain. expected is nil when no config names them.
func validateTarget() (string, []string, error) {
	if validateFile != "" {
		return util.ExpandPath(validateFile), nil, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(cfg.Facts(environment.Facts{}).OutputDir, stack.ComposeFile)
	if len(cfg.Services) == 0 {
		return path, nil, nil
	}
	expected := append(append([]string{}, cfg.Services...), model.MaintenanceID)
	return path, expected, nil
}

func printOutcomes(outcomes []preflight.Outcome) {
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			ui.CheckSkipped(o.Check.DisplayName)
		case o.Failure != nil:
			ui.CheckFailed(o.Check.DisplayName, o.Failure.Message, o.Failure.Suggestion)
		default:
			ui.CheckPassed(o.Check.DisplayName, o.Detail)
		}
	}
}
