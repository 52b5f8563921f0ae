package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/trainq/internal/config"
	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/spf13/cobra"
)

var (
	initForce bool
	initDir   string
)

// confirmOverwriteFunc asks before replacing an existing config. Replaced in tests.
var confirmOverwriteFunc = confirmOverwrite

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .trainq.yaml with the default settings",
	Long: `Write a .trainq.yaml in the current directory. Global flags such as
--backend, --source, --ssh-host and --interval are written into the file.

Examples:
  trainq init
  trainq init --backend http://gpu-box:8675 --source ssh --ssh-host gpu-box
  trainq init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config without asking")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "directory to write the config into")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()
	cfg.Apply(overridesFromFlags(cmd))
	if err := config.Validate(cfg); err != nil {
		return err
	}

	path := filepath.Join(initDir, config.ConfigFileName)
	force := initForce
	if _, err := os.Stat(path); err == nil && !force {
		if !interactiveFunc() {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}
		ok, err := confirmOverwriteFunc(path)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		force = true
	}

	if err := config.Write(path, cfg, force); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", okStyle.Render("✓"), path)
	return nil
}

func confirmOverwrite(path string) (bool, error) {
	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		),
	)
	if err := form.Run(); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Try running with --force to overwrite")
	}
	return overwrite, nil
}
