package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/pws/adapter"
	"github.com/pithecene-io/pws/adapter/redis"
	"github.com/pithecene-io/pws/adapter/webhook"
	pwsconfig "github.com/pithecene-io/pws/cli/config"
	"github.com/pithecene-io/pws/fsm"
	"github.com/pithecene-io/pws/gpio"
	"github.com/pithecene-io/pws/iox"
	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/metrics"
	"github.com/pithecene-io/pws/runtime"
	"github.com/pithecene-io/pws/shell"
	"github.com/pithecene-io/pws/transport"
	"github.com/pithecene-io/pws/types"
)

// RunCommand returns the run command, the orchestrator daemon.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the orchestrator until SIGINT or SIGTERM",
		Flags: []cli.Flag{
			ConfigFlag,
			HostFlag,
			&cli.IntFlag{
				Name:  "port",
				Usage: "Receive port (manager role)",
				Value: types.DefaultPorts[types.RoleManager],
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write logs to this size-rotated file (default " + pwsconfig.DefaultLogFile + `, "" disables)`,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Log OS commands instead of running them",
			},
			&cli.StringFlag{
				Name:  "gpio",
				Usage: "Boot button source: static or sysfs",
				Value: pwsconfig.GPIOStatic,
			},
			&cli.IntFlag{
				Name:  "notify-queue",
				Usage: "Pending transition notifications before new ones are dropped",
				Value: runtime.DefaultQueueSize,
			},
			&cli.BoolFlag{
				Name:  "no-boot-check",
				Usage: "Skip the boot button check",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyRunFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), exitConfigError)
	}

	bootID := log.NewBootID()
	logger, err := log.New(bootID, log.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer iox.DiscardErr(logger.Sync)

	collector := metrics.NewCollector(bootID, cfg.ManagerPort())

	listener, err := openListener(cfg.Host, cfg.ManagerPort())
	if err != nil {
		logger.Error("cannot open receive socket", map[string]any{"error": err.Error()})
		return err
	}
	defer iox.DiscardClose(listener)

	sender := transport.NewSender(cfg.Host, cfg.Ports,
		transport.WithLogger(logger.Named("send")),
		transport.WithMetrics(collector),
		transport.WithWriteTimeout(cfg.WriteTimeout.Duration),
	)
	runner := shell.NewRunner(cfg.Commands,
		shell.WithDryRun(cfg.DryRun),
		shell.WithLogger(logger.Named("shell")),
		shell.WithMetrics(collector),
	)
	machine := fsm.NewMachine(fsm.NewActions(sender, runner))

	var notifier *runtime.Notifier
	if cfg.Adapter.Enabled() {
		a, err := buildAdapter(cfg.Adapter)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid adapter config: %v", err), exitConfigError)
		}
		notifier = runtime.NewNotifier(a, runtime.NotifierConfig{
			QueueSize:    cfg.Notify.QueueSize,
			DrainTimeout: cfg.Notify.DrainTimeout.Duration,
			Logger:       logger,
			Collector:    collector,
		})
	}

	dispatcher, err := runtime.NewDispatcher(runtime.DispatcherConfig{
		Listener:  listener,
		Machine:   machine,
		Notifier:  notifier,
		Logger:    logger,
		Collector: collector,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	board := gpio.NewBoard(buildPins(cfg.GPIO), gpio.BootPins{
		APButton:   cfg.GPIO.APButton,
		ModeButton: cfg.GPIO.ModeButton,
	}, logger.Named("gpio"))
	if err := board.Open(); err != nil {
		logger.Warn("gpio bring-up failed", map[string]any{"error": err.Error()})
	}
	if !c.Bool("no-boot-check") {
		if err := board.CheckBootMode(ctx, sender); err != nil {
			logger.Warn("boot check failed", map[string]any{"error": err.Error()})
		}
	}

	logger.Info("orchestrator started", map[string]any{
		"version": types.Version,
		"host":    cfg.Host,
		"port":    listener.Port(),
		"dry_run": cfg.DryRun,
		"adapter": cfg.Adapter.Type,
	})

	runErr := dispatcher.Run(ctx)

	if err := iox.CloseAll(board, notifier); err != nil {
		logger.Warn("teardown failed", map[string]any{"error": err.Error()})
	}
	logger.Info("orchestrator stopped", map[string]any{
		"state":   machine.State().String(),
		"metrics": collector.Snapshot(),
	})

	if runErr != nil {
		return receiveFailed(runErr)
	}
	return cli.Exit("", exitSuccess)
}

func receiveFailed(err error) error {
	return cli.Exit(fmt.Sprintf("receive failed: %v", err), exitRecvError)
}

// applyRunFlags layers explicitly set flags over the config file.
func applyRunFlags(c *cli.Context, cfg *pwsconfig.Config) {
	cfg.Host = resolveString(c, "host", cfg.Host)
	if c.IsSet("port") {
		cfg.Ports[types.RoleManager] = c.Int("port")
	}
	cfg.Log.Level = resolveString(c, "log-level", cfg.Log.Level)
	cfg.Log.File = resolveString(c, "log-file", cfg.Log.File)
	cfg.DryRun = resolveBool(c, "dry-run", cfg.DryRun)
	cfg.GPIO.Mode = resolveString(c, "gpio", cfg.GPIO.Mode)
	cfg.Notify.QueueSize = resolveInt(c, "notify-queue", cfg.Notify.QueueSize)
}

// openListener binds the receive socket and maps open failures to the
// socket and bind exit codes.
func openListener(host string, port int) (*transport.Listener, error) {
	l, err := transport.Listen(host, port)
	if err == nil {
		return l, nil
	}
	var openErr *transport.OpenError
	if errors.As(err, &openErr) && openErr.Kind == transport.OpenBind {
		return nil, cli.Exit(err.Error(), exitBindError)
	}
	return nil, cli.Exit(err.Error(), exitSocketError)
}

func buildAdapter(cfg pwsconfig.AdapterConfig) (adapter.Adapter, error) {
	retries := -1
	if cfg.Retries != nil {
		retries = *cfg.Retries
	}
	switch cfg.Type {
	case pwsconfig.AdapterRedis:
		if retries < 0 {
			retries = redis.DefaultRetries
		}
		return redis.New(redis.Config{
			URL:      cfg.URL,
			Channel:  cfg.Channel,
			Encoding: cfg.Encoding,
			Timeout:  cfg.Timeout.Duration,
			Retries:  retries,
		})
	case pwsconfig.AdapterWebhook:
		if retries < 0 {
			retries = webhook.DefaultRetries
		}
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Type)
	}
}

func buildPins(cfg pwsconfig.GPIOConfig) gpio.PinReader {
	if cfg.Mode == pwsconfig.GPIOSysfs {
		return gpio.SysfsPins{Root: cfg.SysfsRoot}
	}
	return gpio.StaticPins(cfg.Levels)
}
