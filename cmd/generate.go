package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/config"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/render"
	"github.com/ThomasCrouzet/mediastack/internal/stack"
	"github.com/ThomasCrouzet/mediastack/internal/ui"
	"github.com/ThomasCrouzet/mediastack/internal/util"
	"github.com/ThomasCrouzet/mediastack/internal/wizard"
	"github.com/spf13/cobra"
)

var (
	outputDir    string
	serviceIDs   []string
	withDiagram  bool
	detailLevel  string
	autoRender   bool
	renderFormat string
	themeName    string
	direction    string
	startAfter   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate docker-compose.yml, .env and SETUP_GUIDE.md",
	Long: heredoc.Doc(`
		Read mediastack.yml, resolve the VPN network plan and write the
		stack files to the output directory.

		The .env file holds generated secrets and is written with mode 0600.
	`),
	Example: heredoc.Doc(`
		mediastack generate
		mediastack generate --services jellyfin,radarr,qbittorrent -o ./stack
		mediastack generate --diagram --render --format png
	`),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory the stack files are written to")
	generateCmd.Flags().StringSliceVar(&serviceIDs, "services", nil, "service ids, replacing the configured list")
	generateCmd.Flags().BoolVar(&withDiagram, "diagram", false, "also write a D2 diagram of the stack")
	generateCmd.Flags().StringVar(&detailLevel, "detail", "", "diagram detail level: minimal, standard, detailed")
	generateCmd.Flags().BoolVar(&autoRender, "render", false, "render the diagram to SVG/PNG (requires d2)")
	generateCmd.Flags().StringVar(&renderFormat, "format", "", "output format for --render: svg, png (default: svg)")
	generateCmd.Flags().StringVar(&themeName, "theme", "", "diagram theme: "+strings.Join(render.ThemeNames(), ", "))
	generateCmd.Flags().StringVar(&direction, "direction", "", "diagram direction: up, down, left, right")
	generateCmd.Flags().BoolVar(&startAfter, "up", false, "start the stack with docker compose once generated")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to load config", err.Error(), "run 'mediastack init' to create a config file"))
		return err
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Invalid flags", err.Error(), "run 'mediastack generate --help'"))
		return err
	}
	if len(cfg.Services) == 0 {
		err := errors.New("no services selected")
		fmt.Fprint(os.Stderr, ui.FormatError("Nothing to generate", err.Error(), "list services in mediastack.yml or pass --services"))
		return err
	}

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		printError("Failed to load the service catalog", err)
		return err
	}

	vpn, err := cfg.VPNConfig()
	if err != nil {
		printError("Invalid VPN settings", err)
		return err
	}

	detection := wizard.Detect(cmd.Context(), nil)
	facts := cfg.Facts(detection.Facts())
	facts.GeneratedAt = time.Now()

	res, err := stack.Generate(cat, stack.Request{
		Services: cfg.Services,
		VPN:      vpn,
		Facts:    facts,
	}, log)
	if err != nil {
		printError("Generation failed", err)
		return err
	}
	for _, issue := range res.Issues {
		ui.Warn(issue.String())
	}

	paths, err := res.Write(facts.OutputDir)
	if err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to write output", err.Error(), ""))
		return err
	}
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
	ui.Success(fmt.Sprintf("Generated %d services in %s", len(res.Manifest.Services), facts.OutputDir))
	if res.Plan.DownloadClientDelegates {
		fmt.Printf("  %s\n", ui.Hint(fmt.Sprintf("%s traffic is routed through %s", res.Plan.DownloadClientID, res.Plan.VPNServiceID)))
	}

	if cfg.Diagram.Enabled {
		if err := writeDiagram(cmd.Context(), cfg, cat, res, facts.OutputDir); err != nil {
			fmt.Fprint(os.Stderr, ui.FormatError("Diagram failed", err.Error(), ""))
		}
	}

	if startAfter {
		return startStack(cmd.Context(), cat, facts.OutputDir)
	}
	fmt.Println()
	fmt.Printf("Next step: %s\n", ui.Bold("mediastack up"))
	fmt.Printf("           %s\n", ui.Hint("then follow "+filepath.Join(facts.OutputDir, stack.GuideFile)))
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if outputDir != "" {
		cfg.OutputDir = util.ExpandPath(outputDir)
	}
	if len(serviceIDs) > 0 {
		cfg.Services = serviceIDs
	}
	if withDiagram {
		cfg.Diagram.Enabled = true
	}
	if detailLevel != "" {
		cfg.Diagram.DetailLevel = detailLevel
	}
	if autoRender {
		cfg.Diagram.Enabled = true
		cfg.Diagram.Render = true
	}
	if renderFormat != "" {
		cfg.Diagram.Format = renderFormat
	}
	if themeName != "" {
		cfg.Diagram.Theme = themeName
	}
	if direction != "" {
		cfg.Diagram.Direction = direction
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(util.ExpandPath(path))
}

// printError prints err with a hint matched to its type.
func printError(title string, err error) {
	hint := ""
	var consistency *catalog.ConsistencyError
	var load *catalog.CatalogLoadError
	var vpn *model.VPNConfigError
	switch {
	case errors.As(err, &consistency):
		hint = "run 'mediastack services' to list the available services"
	case errors.As(err, &load):
		hint = "check the catalog file, or remove 'catalog' from mediastack.yml to use the built-in one"
	case errors.As(err, &vpn):
		hint = "check the vpn section of mediastack.yml, or run 'mediastack init' again"
	}
	fmt.Fprint(os.Stderr, ui.FormatError(title, err.Error(), hint))
}

func writeDiagram(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, res *stack.Result, dir string) error {
	output := cfg.Diagram.Output
	if output == "" {
		output = "mediastack.d2"
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(dir, output)
	}

	vpn, err := cfg.VPNConfig()
	if err != nil {
		return err
	}
	content := render.RenderD2(render.Input{
		Manifest: res.Manifest,
		Catalog:  cat,
		Plan:     res.Plan,
		VPN:      vpn,
		HostIP:   res.Env.Facts.HostIP,
	}, render.Options{
		Direction:   cfg.Diagram.Direction,
		DetailLevel: cfg.Diagram.DetailLevel,
		Theme:       cfg.Diagram.Theme,
	})
	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Generated %s", output))

	if cfg.Diagram.Render {
		if err := autoRenderD2(ctx, output, cfg.Diagram.Format, cfg.Diagram.Layout); err != nil {
			fmt.Fprint(os.Stderr, ui.FormatError("Auto-render failed", err.Error(), "install d2: https://d2lang.com/tour/install"))
		}
	}
	return nil
}

func autoRenderD2(ctx context.Context, d2File, format, layout string) error {
	if format == "" {
		format = "svg"
	}

	d2Path, err := findExecutable("d2")
	if err != nil {
		return errors.New("d2 not found in PATH")
	}

	outFile := strings.TrimSuffix(d2File, filepath.Ext(d2File)) + "." + format
	args := []string{d2File, outFile}
	if layout != "" {
		args = append([]string{"--layout", layout}, args...)
	}

	c := execCommand(ctx, d2Path, args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("d2 render failed: %w", err)
	}

	ui.Success(fmt.Sprintf("Rendered %s", outFile))
	return nil
}
