package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heycatch/wirewizard/internal/activity"
	"github.com/heycatch/wirewizard/internal/conf"
	"github.com/heycatch/wirewizard/internal/config"
	"github.com/heycatch/wirewizard/internal/debug"
	"github.com/heycatch/wirewizard/internal/history"
	"github.com/heycatch/wirewizard/internal/logging"
	"github.com/heycatch/wirewizard/internal/tunnel"
	"github.com/heycatch/wirewizard/internal/wg"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wirewizard",
		Short:         "WireGuard tunnel manager",
		Long:          "wirewizard manages WireGuard tunnel definitions and their activation via wg-quick.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to config file (default: none)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("dev-mode", false, "enable development mode")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newUpCmd(),
		newDownCmd(),
		newToggleCmd(),
		newCreateCmd(),
		newRenameCmd(),
		newDeleteCmd(),
		newImportCmd(),
		newExportCmd(),
		newGenkeyCmd(),
		newQRCmd(),
		newLogsCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// app holds the wired dependencies shared by the lifecycle commands.
type app struct {
	cfg     *config.Config
	bridge  wg.Bridge
	store   *conf.Store
	ctrl    *tunnel.Controller
	archive *history.Archive
}

func newApp(cmd *cobra.Command) (*app, func(), error) {
	cfg, logger, _, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	bridge, err := wg.NewBridge(cfg.Tunnels.Dirs, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := conf.NewStore(cfg.Tunnels.Dirs, logger)
	if err != nil {
		bridge.Close()
		return nil, nil, err
	}

	log := activity.NewLog(cfg.Activity.Capacity)

	var runner tunnel.Runner
	runner, err = tunnel.NewRunner(cfg.WGQuick.Path, cfg.CommandTimeout(), logger)
	if err != nil {
		bridge.Close()
		return nil, nil, err
	}

	var archive *history.Archive
	if cfg.History.Path != "" {
		archive, err = history.Open(cmd.Context(), cfg.History.Path, logger)
		if err != nil {
			bridge.Close()
			return nil, nil, err
		}
		runner = &archivingRunner{inner: runner, archive: archive}
	}

	ctrl, err := tunnel.NewController(bridge, runner, store, log, logger)
	if err != nil {
		bridge.Close()
		if archive != nil {
			archive.Close()
		}
		return nil, nil, err
	}

	a := &app{
		cfg:     cfg,
		bridge:  bridge,
		store:   store,
		ctrl:    ctrl,
		archive: archive,
	}
	cleanup := func() {
		a.bridge.Close()
		if a.archive != nil {
			a.archive.Close()
		}
	}
	return a, cleanup, nil
}

// loadConfig builds the effective config and logger. Warnings and
// errors logged during the invocation are captured in the returned
// ring buffer so the doctor report can replay them.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, *logging.RingBuffer, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	// Flags that don't map directly to koanf paths.
	if f := cmd.Flags().Lookup("dev-mode"); f != nil && f.Changed {
		cfg.DevMode, _ = cmd.Flags().GetBool("dev-mode")
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cfg.DevMode && cfg.Logging.Level == "info" {
		cfg.Logging.Level = "debug"
	}

	ring := logging.NewRingBuffer(0)
	logger := logging.NewWithRing(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		DevMode: cfg.DevMode,
	}, ring)

	logger.Debug("wirewizard_starting",
		"version", version,
		"go_version", runtime.Version(),
		"pid", os.Getpid(),
		"uid", os.Getuid(),
		"tunnel_dirs", strings.Join(cfg.Tunnels.Dirs, ":"),
		"component", "main",
	)

	return cfg, logger, ring, nil
}

// archivingRunner mirrors every invocation into the on-disk history
// archive in addition to the in-memory activity log kept by the
// controller.
type archivingRunner struct {
	inner   tunnel.Runner
	archive *history.Archive
}

func (r *archivingRunner) Run(ctx context.Context, verb, name string) (tunnel.Result, error) {
	res, err := r.inner.Run(ctx, verb, name)
	_ = r.archive.Record(context.WithoutCancel(ctx), activity.Entry{
		Command: res.Command,
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	}, err == nil)
	return res, err
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tunnels and their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			names := a.bridge.InterfaceNames()
			if len(names) == 0 {
				fmt.Println("No tunnels configured.")
				return nil
			}
			for _, name := range names {
				marker := " "
				if a.bridge.ReadConfig(name).Active() {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <tunnel>",
		Short: "Show a tunnel's configuration and live stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			name := args[0]
			cfg := a.bridge.ReadConfig(name)
			if cfg == nil {
				return fmt.Errorf("show %s: %w", name, conf.ErrNotFound)
			}

			printConfig(name, cfg)
			if !cfg.Active() {
				return nil
			}

			watch, _ := cmd.Flags().GetBool("watch")
			if !watch {
				if stats := a.bridge.ReadStats(name); stats != nil {
					fmt.Printf("  handshake: %s\n", stats.LastHandshake)
					fmt.Printf("  transfer:  %s\n", stats.Transfer)
				}
				return nil
			}

			ctx, cancel := signalContext()
			defer cancel()
			err = a.ctrl.WatchStats(ctx, name, a.cfg.StatsPollInterval(), func(stats *wg.TunnelStats) {
				if stats == nil {
					return
				}
				fmt.Printf("handshake: %-40s transfer: %s\n", stats.LastHandshake, stats.Transfer)
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Bool("watch", false, "refresh stats until interrupted")
	return cmd
}

func printConfig(name string, cfg *wg.InterfaceConfig) {
	state := "inactive"
	if cfg.Active() {
		state = fmt.Sprintf("active (port %d)", cfg.ListenPort)
	}
	fmt.Printf("%s: %s\n", name, state)
	fmt.Printf("  public key: %s\n", cfg.PublicKey)
	if cfg.Address != "" {
		fmt.Printf("  address:    %s\n", cfg.Address)
	}
	if cfg.DNS != "" {
		fmt.Printf("  dns:        %s\n", cfg.DNS)
	}
	fmt.Printf("  peer:       %s\n", cfg.PeerPublicKey)
	if cfg.PeerEndpoint != "" {
		fmt.Printf("  endpoint:   %s\n", cfg.PeerEndpoint)
	}
	if cfg.PeerAllowedIPs != "" {
		fmt.Printf("  allowed:    %s\n", cfg.PeerAllowedIPs)
	}
	if cfg.PeerKeepalive != "" {
		fmt.Printf("  keepalive:  %s\n", cfg.PeerKeepalive)
	}
}

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up <tunnel>",
		Short: "Activate a tunnel, deactivating any other active tunnel first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext()
			defer cancel()
			if err := a.ctrl.Up(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("%s is up\n", args[0])
			return nil
		},
	}
}

func newDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down [tunnel]",
		Short: "Deactivate a tunnel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext()
			defer cancel()

			all, _ := cmd.Flags().GetBool("all")
			if all {
				return a.ctrl.Shutdown(ctx)
			}
			if len(args) == 0 {
				return fmt.Errorf("down: tunnel name required (or --all)")
			}
			if err := a.ctrl.Down(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("%s is down\n", args[0])
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "bring down every active tunnel")
	return cmd
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <tunnel>",
		Short: "Flip a tunnel between active and inactive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext()
			defer cancel()
			if err := a.ctrl.Toggle(ctx, args[0]); err != nil {
				return err
			}
			if a.ctrl.ActiveTunnel() == args[0] {
				fmt.Printf("%s is up\n", args[0])
			} else {
				fmt.Printf("%s is down\n", args[0])
			}
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <tunnel>",
		Short: "Create a tunnel definition",
		Long: "Create a tunnel definition. Content is read from stdin when piped;\n" +
			"otherwise a skeleton with a freshly generated private key is written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			name := args[0]
			content, err := createContent(cmd, a)
			if err != nil {
				return err
			}
			if err := a.store.Create(name, content); err != nil {
				return err
			}
			path, _ := a.store.Path(name)
			fmt.Printf("created %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("file", "", "read tunnel content from a file instead of stdin")
	return cmd
}

func createContent(cmd *cobra.Command, a *app) (string, error) {
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("create: read %s: %w", file, err)
		}
		return string(data), nil
	}

	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("create: read stdin: %w", err)
		}
		if len(data) > 0 {
			return string(data), nil
		}
	}

	priv, _, err := a.bridge.GenerateKeyPair()
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	return "[Interface]\nPrivateKey = " + priv + "\n", nil
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a tunnel, deactivating it first if active",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext()
			defer cancel()
			if err := a.ctrl.Rename(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("renamed %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tunnel>",
		Short: "Delete a tunnel, deactivating it first if active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext()
			defer cancel()
			if err := a.ctrl.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.conf>...",
		Short: "Import tunnel definitions from .conf files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			overwrite, _ := cmd.Flags().GetBool("overwrite")
			var policy func(string) bool
			if overwrite {
				policy = func(string) bool { return true }
			}

			n, errs := a.store.Import(args, policy)
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, "Warning:", e)
			}
			fmt.Printf("imported %d tunnel(s)\n", n)
			if len(errs) > 0 {
				return fmt.Errorf("import: %d file(s) failed", len(errs))
			}
			return nil
		},
	}
	cmd.Flags().Bool("overwrite", false, "replace existing tunnels with the same name")
	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <archive.zip> [tunnel]...",
		Short: "Export tunnel definitions to a zip archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			dst := args[0]
			if len(args) > 1 {
				if err := a.store.ExportZip(dst, args[1:]); err != nil {
					return err
				}
				fmt.Printf("exported %d tunnel(s) to %s\n", len(args)-1, dst)
				return nil
			}

			n, err := a.store.ExportAll(dst)
			if err != nil {
				return err
			}
			fmt.Printf("exported %d tunnel(s) to %s\n", n, dst)
			return nil
		},
	}
}

func newGenkeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Generate a WireGuard key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if priv, _ := cmd.Flags().GetString("pubkey"); priv != "" {
				pub, err := wg.PublicKeyFromPrivate(priv)
				if err != nil {
					return err
				}
				fmt.Println(pub)
				return nil
			}

			if psk, _ := cmd.Flags().GetBool("preshared"); psk {
				key, err := wg.GeneratePresharedKey()
				if err != nil {
					return err
				}
				fmt.Println(key)
				return nil
			}

			priv, pub, err := wg.GenerateKeyPair()
			if err != nil {
				return err
			}
			fmt.Printf("private key: %s\n", priv)
			fmt.Printf("public key:  %s\n", pub)
			return nil
		},
	}
	cmd.Flags().Bool("preshared", false, "generate a preshared key instead")
	cmd.Flags().String("pubkey", "", "derive the public key from an existing private key")
	return cmd
}

func newQRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr <tunnel>",
		Short: "Render a tunnel's config as a QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			content, err := a.store.Read(args[0])
			if err != nil {
				return err
			}

			if out, _ := cmd.Flags().GetString("output"); out != "" {
				size, _ := cmd.Flags().GetInt("size")
				png, err := wg.GenerateQRCode(content, size)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, png, 0o600); err != nil {
					return fmt.Errorf("qr: write %s: %w", out, err)
				}
				fmt.Printf("wrote %s\n", out)
				return nil
			}

			art, err := wg.GenerateQRTerminal(content)
			if err != nil {
				return err
			}
			fmt.Print(art)
			return nil
		},
	}
	cmd.Flags().String("output", "", "write a PNG to this path instead of the terminal")
	cmd.Flags().Int("size", 256, "PNG size in pixels")
	return cmd
}

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the activation command history",
		Long: "Show the activation command history from the on-disk archive\n" +
			"(requires history.path to be configured).",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if save, _ := cmd.Flags().GetString("save"); save != "" {
				return saveLogs(cmd, a, save)
			}

			if a.archive == nil {
				fmt.Println("History archive disabled; set history.path to record command history.")
				return nil
			}

			if keep, _ := cmd.Flags().GetDuration("prune-before"); keep > 0 {
				n, err := a.archive.Prune(cmd.Context(), time.Now().Add(-keep))
				if err != nil {
					return err
				}
				fmt.Printf("pruned %d record(s) older than %s\n", n, keep)
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			records, err := a.archive.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range records {
				status := "ok"
				if !r.ExitOK {
					status = "FAILED"
				}
				fmt.Printf("[%s] %s (%s)\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.Command, status)
				if r.Stdout != "" {
					fmt.Print(r.Stdout)
				}
				if r.Stderr != "" {
					fmt.Print(r.Stderr)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 50, "maximum records to show")
	cmd.Flags().String("save", "", "write the archived history to a .log file")
	cmd.Flags().Duration("prune-before", 0, "delete records older than this age, e.g. 720h")
	return cmd
}

func saveLogs(cmd *cobra.Command, a *app, path string) error {
	if a.archive == nil {
		return fmt.Errorf("logs: history archive disabled; set history.path")
	}
	records, err := a.archive.List(cmd.Context(), 10000)
	if err != nil {
		return err
	}
	log := activity.NewLog(0)
	// Archive lists newest first; the saved file reads oldest first.
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		log.Append(activity.Entry{
			Time:    r.Timestamp,
			Command: strings.Fields(r.Command),
			Stdout:  r.Stdout,
			Stderr:  r.Stderr,
		})
	}
	if err := log.Save(path); err != nil {
		return err
	}
	fmt.Printf("saved %d record(s) to %s\n", len(records), path)
	return nil
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run environment diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, ring, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// The bridge may be unavailable; the report still covers
			// everything else.
			var tunnels []debug.TunnelInfo
			if bridge, err := wg.NewBridge(cfg.Tunnels.Dirs, logger); err == nil {
				defer bridge.Close()
				for _, name := range bridge.InterfaceNames() {
					info := debug.TunnelInfo{Name: name}
					if c := bridge.ReadConfig(name); c.Active() {
						info.Active = true
						info.ListenPort = c.ListenPort
						if present, err := bridge.LinkExists(name); err == nil {
							info.LinkPresent = present
						}
						if stats := bridge.ReadStats(name); stats != nil {
							info.LastHandshake = stats.LastHandshake
							info.Transfer = stats.Transfer
						}
					}
					tunnels = append(tunnels, info)
				}
			} else {
				logger.Warn("control_plane_unavailable",
					"error", err,
					"hint", wg.ClassifyControlError(err),
					"component", "doctor",
				)
			}

			var warnings []debug.RuntimeWarning
			for _, e := range ring.Recent(logging.DefaultRingSize) {
				warnings = append(warnings, debug.RuntimeWarning{
					Time:    e.Timestamp,
					Level:   e.Level.String(),
					Message: e.Message,
					Attrs:   e.Attrs,
				})
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			return debug.Run(debug.Config{
				Version:     version,
				TunnelDirs:  cfg.Tunnels.Dirs,
				WGQuickPath: cfg.WGQuick.Path,
				HistoryPath: cfg.History.Path,
				Tunnels:     tunnels,
				Warnings:    warnings,
				JSONOutput:  jsonOut,
			})
		},
	}
	cmd.Flags().Bool("json", false, "emit the report as JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wirewizard %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
