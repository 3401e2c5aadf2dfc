package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/employee-records/internal/core/events"
	"github.com/frahmantamala/employee-records/internal/employee"
	"github.com/frahmantamala/employee-records/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the employee event bus: publish test events through the audit subscriber`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a test employee event",
	Long:      `Publish a test event to a local event bus wired with the audit subscriber, for debugging log output`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeEmployeeCreated, events.EventTypeEmployeeUpdated, events.EventTypeEmployeeDeleted},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var (
	eventEmployeeID int64
	eventDepartment string
	eventChanged    []string
)

func publishTestEvent(ctx context.Context, eventType string) error {
	lg := logger.LoggerWrapper()

	var event *events.EmployeeEvent
	switch eventType {
	case events.EventTypeEmployeeCreated:
		event = events.NewEmployeeCreatedEvent(eventEmployeeID, eventDepartment)
	case events.EventTypeEmployeeUpdated:
		event = events.NewEmployeeUpdatedEvent(eventEmployeeID, eventDepartment, eventChanged)
	case events.EventTypeEmployeeDeleted:
		event = events.NewEmployeeDeletedEvent(eventEmployeeID)
	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}

	eventBus := events.NewEventBus(lg)
	employee.NewAuditSubscriber(lg, nil).Register(eventBus)

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	if err := eventBus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventEmployeeID, "employee-id", 1, "employee id carried by the event")
	publishEventCmd.Flags().StringVar(&eventDepartment, "department", "IT", "department carried by the event")
	publishEventCmd.Flags().StringSliceVar(&eventChanged, "changed", nil, "changed fields for employee.updated, e.g. firstName,email")

	eventCmd.AddCommand(publishEventCmd)
}
