package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grokify/versionrewind/internal/tagindex"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <repo>",
	Short: "List a repository's tags in commit order",
	Long: `List every tag of a repository with the commit it points to, oldest
first. Tags sharing a commit time are ordered by name. This is the index that
resolve searches.

Examples:
  versionrewind tags ros/catkin
  versionrewind tags ros/catkin --semver-only --format markdown
  versionrewind tags https://github.com/ros/catkin.git --lenient --progress`,
	Args: cobra.ExactArgs(1),
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)

	tagsCmd.Flags().Bool("progress", false, "Print indexing progress to stderr")
	tagsCmd.Flags().String("output", "", "Output file (default: stdout)")
}

func runTags(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repos, err := parseRepos(args)
	if err != nil {
		return err
	}
	repo := repos[0]

	showProgress, _ := cmd.Flags().GetBool("progress")
	output, _ := cmd.Flags().GetString("output")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []tagindex.Option
	if showProgress {
		opts = append(opts, tagindex.WithProgress(tagindex.NewWriterProgress(tagindex.ProgressConfig{})))
	}

	idx, err := a.resolver.Index(ctx, repo, opts...)
	if err != nil {
		return err
	}
	a.logger.Debug("indexed tags", "repo", repo.FullName(), "records", idx.Len(), "skipped", len(idx.Skipped()))

	report := idx.Report()
	out, err := a.formatter.FormatIndexReport(&report)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return writeOutput(output, out)
}
