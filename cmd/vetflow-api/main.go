package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/vetflow/vetflow/pkg/audit"
	"github.com/vetflow/vetflow/pkg/cmd"
	"github.com/vetflow/vetflow/pkg/intake/queue"
	"github.com/vetflow/vetflow/pkg/janitor"
	"github.com/vetflow/vetflow/pkg/log"
	"github.com/vetflow/vetflow/pkg/orchestrator"
	"github.com/vetflow/vetflow/pkg/otelhelper"
	"github.com/vetflow/vetflow/pkg/registry"
	"github.com/vetflow/vetflow/pkg/runner"
	"github.com/vetflow/vetflow/pkg/stages"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "vetflow-api",
		Usage:                 "Run proposal evaluation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka broker addresses (required when --event-bus=kafka)",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "duplicate-policy",
				Usage:   "What to do when a proposal is registered twice (reject, reset)",
				Value:   "reject",
				Sources: cli.EnvVars("DUPLICATE_POLICY"),
			},
			&cli.StringFlag{
				Name:    "cleanup-cron",
				Usage:   "Cron expression for scheduled registry cleanup (empty disables it)",
				Sources: cli.EnvVars("CLEANUP_CRON"),
			},
			&cli.IntFlag{
				Name:    "cleanup-max-age-hours",
				Usage:   "Age in hours after which workflows are removed by scheduled cleanup",
				Value:   24,
				Sources: cli.EnvVars("CLEANUP_MAX_AGE_HOURS"),
			},
			&cli.StringFlag{
				Name:    "intake-queue",
				Usage:   "Redis list to consume queued proposals from (empty disables queue intake)",
				Sources: cli.EnvVars("INTAKE_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for queue intake",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password for queue intake",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database for queue intake",
				Sources: cli.EnvVars("REDIS_DB"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces via OTLP/HTTP (endpoint from OTEL_EXPORTER_OTLP_ENDPOINT)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Vetflow API")

			policy, err := registry.ParsePolicy(command.String("duplicate-policy"))
			if err != nil {
				return err
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var tracer trace.Tracer

			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, "vetflow-api")
				if err != nil {
					return err
				}
			}

			workflowRegistry := registry.NewRegistry(logger, registry.WithPolicy(policy))
			stageRunner := runner.NewRunner(stages.Default(logger), logger, tracer)
			manager := orchestrator.NewManager(workflowRegistry, stageRunner, eventBus, logger)

			auditLogger := audit.NewLogger(eventBus, logger)
			if err := auditLogger.Start(ctx); err != nil {
				return err
			}

			if cronExpr := command.String("cleanup-cron"); cronExpr != "" {
				cleanupJanitor := janitor.NewJanitor(manager, logger, janitor.Config{
					CronExpr: cronExpr,
					MaxAge:   time.Duration(command.Int("cleanup-max-age-hours")) * time.Hour,
				})

				if err := cleanupJanitor.Start(ctx); err != nil {
					return err
				}

				defer func() {
					if err := cleanupJanitor.Stop(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to stop cleanup scheduler", "error", err)
					}
				}()
			}

			if queueName := command.String("intake-queue"); queueName != "" {
				consumer, err := queue.NewConsumer(
					manager,
					logger,
					command.String("redis-addr"),
					command.String("redis-password"),
					int(command.Int("redis-db")),
					queueName,
				)
				if err != nil {
					return err
				}

				if err := consumer.Start(ctx); err != nil {
					return err
				}

				defer func() {
					if err := consumer.Stop(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to stop queue intake", "error", err)
					}
				}()
			}

			api := NewAPI(logger, manager)
			app := api.App()

			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh

				logger.InfoContext(ctx, "Shutting down",
					"active_workflows", manager.CountActive())

				if err := app.Shutdown(); err != nil {
					logger.ErrorContext(ctx, "Failed to shut down server", "error", err)
				}
			}()

			if err := api.Start(app, int(command.Int("port"))); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
