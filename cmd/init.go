package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/config"
	"github.com/ThomasCrouzet/mediastack/internal/preflight"
	"github.com/ThomasCrouzet/mediastack/internal/ui"
	"github.com/ThomasCrouzet/mediastack/internal/util"
	"github.com/ThomasCrouzet/mediastack/internal/wizard"
	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a mediastack.yml config file interactively",
	Long: heredoc.Doc(`
		Detect the host (user, timezone, network address, docker bridge
		subnet), check that docker is ready, then walk through service
		selection and VPN setup to write mediastack.yml.
	`),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := config.FileName + ".yml"
	if cfgFile != "" {
		configPath = util.ExpandPath(cfgFile)
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("%s already exists.\n", configPath)
		fmt.Print("Overwrite? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println(ui.Bold("Scanning environment..."))
	detection := wizard.Detect(cmd.Context(), nil)
	log.WithFields(logrus.Fields{
		"user":     detection.Username,
		"timezone": detection.Timezone,
		"remote":   detection.Remote,
		"subnet":   detection.Subnet,
	}).Debug("environment detected")

	outcomes := preflight.Run(cmd.Context(), nil, preflight.All())
	printOutcomes(outcomes)
	if !preflight.OK(outcomes) {
		ui.Warn("docker is not ready: the stack can be generated but not started")
	}
	fmt.Println()

	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	answers, err := wizard.Run(cat, detection, nil)
	if err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	answers.GeneratedAt = time.Now()

	content, err := wizard.GenerateConfig(*answers)
	if err != nil {
		return fmt.Errorf("generating config: %w", err)
	}

	// The file can hold VPN credentials.
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	ui.Success(fmt.Sprintf("Created %s", configPath))

	generate := true
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Generate the stack now?").
			Value(&generate),
	)).Run(); err != nil {
		return err
	}
	if !generate {
		fmt.Println()
		fmt.Printf("Next step: %s\n", ui.Bold("mediastack generate"))
		fmt.Printf("           %s\n", ui.Hint("or edit "+configPath+" to fine-tune your config"))
		return nil
	}

	if err := config.Init(viper.GetViper(), configPath); err != nil {
		return err
	}
	return runGenerate(cmd, args)
}
