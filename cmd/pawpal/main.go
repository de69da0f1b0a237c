package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pawpal/internal/adapters/storage/yamlfile"
	"pawpal/internal/domain/care"
	"pawpal/internal/domain/planner"
	"pawpal/internal/platform/logger"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "pawpal",
		Short: "PawPal daily pet care planner",
		Long: `PawPal builds a daily care plan for a household's pets.
- Household file: YAML with the owner's availability windows and each pet's care tasks.
- Plan: tasks due on the date, placed by priority into the owner's free time.
- Unscheduled: due tasks that did not fit anywhere.
- Conflicts: overlapping placements (same pet or the owner's attention across pets).
- Issues: badly configured tasks, reported and left out of the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			v.SetEnvPrefix("PAWPAL")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
		},
	}

	root.PersistentFlags().StringP("file", "f", "household.yaml", "household YAML file")
	root.PersistentFlags().Bool("json", false, "output JSON")
	root.PersistentFlags().String("log-level", "error", "log level (debug|info|warn|error)")
	_ = v.BindPFlag("file", root.PersistentFlags().Lookup("file"))
	_ = v.BindPFlag("json", root.PersistentFlags().Lookup("json"))
	_ = v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(planCmd(v), tasksCmd(v))
	return root
}

func planCmd(v *viper.Viper) *cobra.Command {
	var (
		date string
		pet  string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build and print the plan for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			owner, err := yamlfile.Load(v.GetString("file"))
			if err != nil {
				return err
			}

			log := logger.New(logger.Options{
				Level: logger.ParseLevel(v.GetString("log-level")),
				App:   "pawpal-cli",
			})
			plan := planner.NewScheduler(log).GenerateDailyPlan(owner, day)

			var f planner.Filter
			if strings.TrimSpace(pet) != "" {
				f.PetName = &pet
			}

			out := cmd.OutOrStdout()
			if v.GetBool("json") {
				return printJSON(out, toPlanView(plan, f))
			}
			renderPlan(out, plan, f)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to plan, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&pet, "pet", "", "only show tasks for this pet")
	return cmd
}

func tasksCmd(v *viper.Viper) *cobra.Command {
	var (
		pet       string
		completed string
	)
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List every task in the household, including derived care requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := yamlfile.Load(v.GetString("file"))
			if err != nil {
				return err
			}

			var f planner.Filter
			if strings.TrimSpace(pet) != "" {
				f.PetName = &pet
			}
			if strings.TrimSpace(completed) != "" {
				b, err := strconv.ParseBool(completed)
				if err != nil {
					return fmt.Errorf("--completed must be true or false")
				}
				f.Completed = &b
			}

			tasks := planner.SortByTime(planner.FilterTasks(care.PlanningTasks(owner), f))

			out := cmd.OutOrStdout()
			if v.GetBool("json") {
				return printJSON(out, toTaskViews(tasks))
			}
			renderTasks(out, tasks)
			return nil
		},
	}
	cmd.Flags().StringVar(&pet, "pet", "", "pet name filter")
	cmd.Flags().StringVar(&completed, "completed", "", "true|false")
	return cmd
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return care.DateOf(time.Now()), nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}
