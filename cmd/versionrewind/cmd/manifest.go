package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grokify/versionrewind/internal/manifest"
	"github.com/grokify/versionrewind/pkg/model"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest <repo>",
	Short: "Recreate a historical dependency manifest",
	Long: `Recreate the manifest of a project as it was at one of its commits. The
project is pinned to that commit and every dependency listed in the
dependency file is pinned to its most recent release at the commit's time.

The dependency file is YAML (or TOML when it ends in .toml):

  dependencies:
    - repo: ros/catkin
    - name: messages
      repo: https://github.com/ros/genmsg.git

Examples:
  # rosinstall on stdout
  versionrewind manifest acme/my_robot --commit 1a2b3c4 --deps deps.yaml

  # JSON written to a file, keeping going when a dependency has no release
  versionrewind manifest acme/my_robot --commit 1a2b3c4 --deps deps.toml \
      --manifest-format json --allow-missing --output manifest.json`,
	Args: cobra.ExactArgs(1),
	RunE: runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)

	manifestCmd.Flags().String("commit", "", "Project commit SHA to recreate (required)")
	manifestCmd.Flags().String("deps", "", "Dependency file, YAML or TOML (required)")
	manifestCmd.Flags().String("manifest-format", manifest.FormatRosinstall, "Manifest format: rosinstall, json")
	manifestCmd.Flags().Bool("allow-missing", false, "Emit the manifest even if some dependencies cannot be resolved")
	manifestCmd.Flags().String("output", "", "Output file (default: stdout)")
	_ = manifestCmd.MarkFlagRequired("commit")
	_ = manifestCmd.MarkFlagRequired("deps")
}

func runManifest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repos, err := parseRepos(args)
	if err != nil {
		return err
	}
	project := repos[0]

	commit, _ := cmd.Flags().GetString("commit")
	depsFile, _ := cmd.Flags().GetString("deps")
	format, _ := cmd.Flags().GetString("manifest-format")
	allowMissing, _ := cmd.Flags().GetBool("allow-missing")
	output, _ := cmd.Flags().GetString("output")

	assembler, err := manifest.New(format)
	if err != nil {
		return model.NewError(model.KindInvalidInput, "manifest format", model.RepoRef{}, err)
	}

	deps, err := manifest.LoadDependencies(depsFile)
	if err != nil {
		return model.NewError(model.KindInvalidInput, "load dependencies", model.RepoRef{}, err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("recreating manifest", "project", project.FullName(), "commit", commit, "dependencies", len(deps))

	m, err := manifest.Recreate(ctx, a.resolver, project, commit, deps)
	if err != nil {
		return err
	}
	a.logger.Info("target instant", "at", m.At().Format(time.RFC3339), "commit", m.Commit.ShortSHA())

	for _, fail := range m.Failures {
		a.logger.Warn("dependency not resolved", "repo", fail.Repo.FullName(), "kind", fail.Kind, "err", fail.Error)
	}
	if !m.Complete() && !allowMissing {
		return fmt.Errorf("%d of %d dependencies could not be resolved (use --allow-missing to emit a partial manifest)",
			len(m.Failures), len(deps))
	}

	data, err := assembler.Assemble(m.Entries)
	if err != nil {
		return err
	}
	return writeOutput(output, string(data))
}
