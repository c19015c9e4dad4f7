package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rv-tools/multibuild/internal/domain/values"
	"github.com/rv-tools/multibuild/internal/infrastructure/settings"
)

// moduleExt marks input modules when scanning a project.
const moduleExt = ".unity"

type initOptions struct {
	product      string
	version      string
	activeTarget string
	modules      []string
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the project settings file",
		Long: `Create the project settings file that lists the product name, version, and
input modules builds are made from. Without --module, every *.unity file under
the project's Assets directory is added in path order.`,
		Args: cobra.NoArgs,
		RunE: withContainer(func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			cfg := cc.Container.SystemConfig()
			doc, err := opts.document(cfg.Project.Path)
			if err != nil {
				return err
			}

			store := cc.Container.Settings()
			if err := store.Init(doc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successMsg("wrote %s with %d module(s)", store.Path(), len(doc.Modules)))
			return nil
		}),
	}

	cmd.Flags().StringVar(&opts.product, "product", "", "Product name (default: project directory name)")
	cmd.Flags().StringVar(&opts.version, "version", "0.1.0", "Product version (semver)")
	cmd.Flags().StringVar(&opts.activeTarget, "active-target", "", "Initially active target")
	cmd.Flags().StringSliceVarP(&opts.modules, "module", "m", nil, "Input module paths, in build order")
	return cmd
}

func init() {
	rootCmd.AddCommand(newInitCmd())
}

// document assembles and checks the settings to write.
func (opts *initOptions) document(projectPath string) (*settings.Document, error) {
	product := strings.TrimSpace(opts.product)
	if product == "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return nil, err
		}
		product = filepath.Base(abs)
		if isInteractive() {
			err := huh.NewInput().
				Title("Product name").
				Value(&product).
				Run()
			if err != nil {
				return nil, err
			}
		}
	}
	if product == "" || strings.ContainsAny(product, `/\`) {
		return nil, fmt.Errorf("invalid product name: %q", product)
	}

	if _, err := semver.StrictNewVersion(opts.version); err != nil {
		return nil, fmt.Errorf("invalid --version %q: %w", opts.version, err)
	}

	doc := &settings.Document{
		ProductName: product,
		Version:     opts.version,
	}

	if opts.activeTarget != "" {
		t, err := values.ParseTarget(opts.activeTarget)
		if err != nil {
			return nil, err
		}
		doc.ActiveTarget = t.String()
	}

	paths := opts.modules
	if len(paths) == 0 {
		scanned, err := scanModules(projectPath)
		if err != nil {
			return nil, err
		}
		paths = scanned
	}
	for _, p := range paths {
		doc.Modules = append(doc.Modules, settings.Module{Path: filepath.ToSlash(p)})
	}
	return doc, nil
}

// scanModules finds module files under <project>/Assets, relative to project.
func scanModules(projectPath string) ([]string, error) {
	assets := filepath.Join(projectPath, "Assets")

	var found []string
	err := filepath.WalkDir(assets, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), moduleExt) {
			return nil
		}
		rel, err := filepath.Rel(projectPath, path)
		if err != nil {
			return err
		}
		found = append(found, rel)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to scan for modules: %w", err)
	}

	sort.Strings(found)
	return found, nil
}
