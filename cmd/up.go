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
	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/preflight"
	"github.com/ThomasCrouzet/mediastack/internal/stack"
	"github.com/ThomasCrouzet/mediastack/internal/ui"
	"github.com/ThomasCrouzet/mediastack/internal/util"
	"github.com/ThomasCrouzet/mediastack/internal/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// upTimeout bounds image pulls and container start-up.
const upTimeout = 5 * time.Minute

var upDir string

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the generated stack with docker compose",
	Long: heredoc.Doc(`
		Run "docker compose up -d" in the output directory and print the
		address of every service once the containers are started.
	`),
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
	upCmd.Flags().StringVarP(&upDir, "dir", "d", "", "directory holding docker-compose.yml (default: configured output dir)")
}

func runUp(cmd *cobra.Command, args []string) error {
	dir := util.ExpandPath(upDir)
	catalogPath := ""
	if dir == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprint(os.Stderr, ui.FormatError("Failed to load config", err.Error(), "pass --dir or run 'mediastack init'"))
			return err
		}
		dir = cfg.Facts(environment.Facts{}).OutputDir
		catalogPath = cfg.Catalog
	}

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		printError("Failed to load the service catalog", err)
		return err
	}
	return startStack(cmd.Context(), cat, dir)
}

func startStack(ctx context.Context, cat *catalog.Catalog, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, stack.ComposeFile)); err != nil {
		fmt.Fprint(os.Stderr, ui.FormatError("No stack to start", err.Error(), "run 'mediastack generate' first"))
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, upTimeout)
	defer cancel()

	fmt.Println(ui.Bold("Starting containers..."))
	c := execCommand(ctx, preflight.Engine, "compose", "up", "-d")
	c.Dir = dir
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("docker compose up timed out after %s", upTimeout)
		} else {
			err = fmt.Errorf("docker compose up: %w", err)
		}
		fmt.Fprint(os.Stderr, ui.FormatError("Failed to start the stack", err.Error(), "run 'mediastack validate' to check docker"))
		return err
	}
	log.WithField("dir", dir).Debug("stack started")

	urls, err := accessURLs(dir, cat)
	if err != nil {
		return err
	}
	ui.Success("Stack is up")
	fmt.Print(ui.URLs(urls))
	return nil
}

type composeServices struct {
	Services map[string]struct {
		NetworkMode string `yaml:"network_mode"`
	} `yaml:"services"`
}

// accessURLs lists the web UI address of every catalog service in the
// manifest under dir, in manifest order.
func accessURLs(dir string, cat *catalog.Catalog) ([]ui.ServiceURL, error) {
	env, err := godotenv.Read(filepath.Join(dir, stack.EnvFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", stack.EnvFile, err)
	}
	host := env["HOST_IP"]
	if host == "" {
		host = environment.DefaultHostIP
	}

	data, err := os.ReadFile(filepath.Join(dir, stack.ComposeFile))
	if err != nil {
		return nil, err
	}
	names, err := validate.ServiceNames(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", stack.ComposeFile, err)
	}
	var doc composeServices
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", stack.ComposeFile, err)
	}

	var out []ui.ServiceURL
	for _, name := range names {
		d, ok := cat.Get(name)
		if !ok || !d.HasPrimaryPort() {
			continue
		}
		u := ui.ServiceURL{Name: d.DisplayName, URL: fmt.Sprintf("http://%s:%d", host, d.PrimaryPort)}
		if via, ok := strings.CutPrefix(doc.Services[name].NetworkMode, "service:"); ok {
			u.Note = "(via " + via + ")"
		}
		out = append(out, u)
	}
	return out, nil
}
