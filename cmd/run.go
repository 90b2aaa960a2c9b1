package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

var runCmd = &cobra.Command{
	Use:       "run [job_type]",
	Short:     "Run one bulk sweep of a job",
	Long:      "Run one bulk sweep of a job type under the same guard and batch deadline as the scheduler, then exit.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: jobTypeNames(),
	RunE:      runJob,
}

// init registers the run command.
func init() {
	rootCmd.AddCommand(runCmd)
}

func runJob(cmd *cobra.Command, args []string) error {
	jobType, err := entity.ParseJobType(args[0])
	if err != nil {
		return err
	}

	ctx, stop := exitOnSignal(cmd.Context())
	defer stop()

	d, err := loadDeps(ctx, depOptions{lock: true})
	if err != nil {
		return err
	}
	defer d.Close()

	sched, err := d.newScheduler()
	if err != nil {
		return err
	}

	result, ran, err := sched.RunNow(ctx, jobType)
	if err != nil {
		return err
	}
	if !ran {
		return fmt.Errorf("%s is already running elsewhere", jobType)
	}

	d.logger.WithFields(logrus.Fields{
		"run_id":    result.RunID,
		"attempted": result.Attempted,
		"sent":      result.Sent,
		"failed":    result.Failed,
		"truncated": result.Truncated,
	}).Info("run finished")
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d records failed", result.Failed, result.Attempted)
	}
	return nil
}

func jobTypeNames() []string {
	names := make([]string, 0, len(entity.JobTypes))
	for _, jt := range entity.JobTypes {
		names = append(names, string(jt))
	}
	return names
}
