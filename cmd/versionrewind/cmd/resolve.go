package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grokify/versionrewind/pkg/model"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <repo>...",
	Short: "Resolve the most recent release at a point in time",
	Long: `Resolve the tagged release of each repository that was the most recent
one at the target moment. The target is one of:

  --date   a calendar day (YYYY-MM-DD), meaning the end of that day in UTC
  --at     an RFC 3339 instant
  --commit a commit of the first repository; its commit time is the target
  --tag    a tag of the first repository; its commit time is the target

Repositories are given as owner/name or GitHub URLs.

Examples:
  # Release of catkin at the end of 2020-04-15
  versionrewind resolve ros/catkin --date 2020-04-15

  # Releases of several repositories at an exact instant
  versionrewind resolve ros/catkin ros/genmsg --at 2020-04-15T10:00:00Z

  # Releases current when a commit of the first repository was made
  versionrewind resolve acme/my_robot ros/catkin --commit 1a2b3c4

  # Output as JSON
  versionrewind resolve ros/catkin --date 2020-04-15 --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().String("date", "", "Target day (YYYY-MM-DD, end of day UTC)")
	resolveCmd.Flags().String("at", "", "Target instant (RFC 3339)")
	resolveCmd.Flags().String("commit", "", "Target commit SHA in the first repository")
	resolveCmd.Flags().String("tag", "", "Target tag in the first repository")
	resolveCmd.Flags().String("output", "", "Output file (default: stdout)")
	resolveCmd.MarkFlagsMutuallyExclusive("date", "at", "commit", "tag")
	resolveCmd.MarkFlagsOneRequired("date", "at", "commit", "tag")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repos, err := parseRepos(args)
	if err != nil {
		return err
	}

	date, _ := cmd.Flags().GetString("date")
	at, _ := cmd.Flags().GetString("at")
	commit, _ := cmd.Flags().GetString("commit")
	tag, _ := cmd.Flags().GetString("tag")
	output, _ := cmd.Flags().GetString("output")

	target, err := parseTarget(date, at, commit, tag)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	instant, err := a.resolver.TargetInstant(ctx, repos[0], target)
	if err != nil {
		return err
	}
	a.logger.Info("resolving", "repositories", len(repos), "at", instant.Format(time.RFC3339))

	queries := make([]model.ResolutionQuery, 0, len(repos))
	for _, repo := range repos {
		queries = append(queries, model.ResolutionQuery{Repo: repo, At: instant})
	}

	var result *model.ResolutionReport
	if len(queries) == 1 {
		// A single repository keeps its typed error for the exit status.
		res, err := a.resolver.ResolveQuery(ctx, queries[0])
		if err != nil {
			return err
		}
		result = &model.ResolutionReport{
			Timestamp: time.Now().UTC(),
			Results:   []model.ResolutionResult{res},
			Resolved:  1,
		}
	} else {
		result, err = a.resolver.ResolveAll(ctx, queries)
		if err != nil {
			return err
		}
	}

	out, err := a.formatter.FormatResolutionReport(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if err := writeOutput(output, out); err != nil {
		return err
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d repositories could not be resolved", result.Failed, len(queries))
	}
	return nil
}

// parseTarget builds the resolution target from the mutually exclusive
// target flags.
func parseTarget(date, at, commit, tag string) (model.Target, error) {
	var target model.Target

	switch {
	case date != "":
		day, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return target, model.NewError(model.KindInvalidInput, "parse date", model.RepoRef{},
				fmt.Errorf("expected YYYY-MM-DD: %w", err))
		}
		target.At = endOfDay(day)
	case at != "":
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return target, model.NewError(model.KindInvalidInput, "parse instant", model.RepoRef{},
				fmt.Errorf("expected RFC 3339: %w", err))
		}
		target.At = t.UTC()
	case commit != "":
		target.Commit = commit
	case tag != "":
		target.Tag = tag
	}

	return target, target.Validate()
}

// endOfDay returns the last second of day in UTC.
func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}
