package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-dispatcher/app/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume queued messages",
	Long:  "Consume queued messages from Redis streams.",
}

// init registers consume subcommands.
func init() {
	consumeCmd.AddCommand(consumeTriggersCmd)
	rootCmd.AddCommand(consumeCmd)
}

var consumeTriggersCmd = &cobra.Command{
	Use:   "triggers [consumer_name]",
	Short: "Start the dispatch trigger consumer",
	Long:  "Start a worker that reads user.created and order.placed events from the Redis stream and dispatches the matching email.",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsumeTriggers,
}

// runConsumeTriggers starts the trigger consumer worker.
func runConsumeTriggers(cmd *cobra.Command, args []string) error {
	ctx, stop := exitOnSignal(cmd.Context())
	defer stop()

	d, err := loadDeps(ctx, depOptions{redis: true})
	if err != nil {
		return err
	}
	defer d.Close()

	consumer := queue.NewTriggerConsumer(d.rdb, d.dispatcher, args[0], d.logger)
	if err := consumer.Run(ctx); err != nil {
		return err
	}

	d.logger.Info("consumer stopped")
	return nil
}
