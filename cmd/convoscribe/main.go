package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/do/v2"

	audioimpl "github.com/sambhavnoobcoder/solvent-ai/external/audio"
	configloader "github.com/sambhavnoobcoder/solvent-ai/external/config"
	discordimpl "github.com/sambhavnoobcoder/solvent-ai/external/discord"
	repositoryimpl "github.com/sambhavnoobcoder/solvent-ai/external/repository"
	summarizerimpl "github.com/sambhavnoobcoder/solvent-ai/external/summarizer"
	transcriberimpl "github.com/sambhavnoobcoder/solvent-ai/external/transcriber"
	transcriptimpl "github.com/sambhavnoobcoder/solvent-ai/external/transcript"
	watcherimpl "github.com/sambhavnoobcoder/solvent-ai/external/watcher"
	webhookimpl "github.com/sambhavnoobcoder/solvent-ai/external/webhook"
	"github.com/sambhavnoobcoder/solvent-ai/internal/audio"
	"github.com/sambhavnoobcoder/solvent-ai/internal/cli"
	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/sambhavnoobcoder/solvent-ai/internal/console"
	"github.com/sambhavnoobcoder/solvent-ai/internal/logging"
	"github.com/sambhavnoobcoder/solvent-ai/internal/session"
	"github.com/sambhavnoobcoder/solvent-ai/internal/summarizer"
	"github.com/sambhavnoobcoder/solvent-ai/internal/transcript"
	"github.com/sambhavnoobcoder/solvent-ai/internal/tui"
	"github.com/sambhavnoobcoder/solvent-ai/internal/watcher"
)

const (
	binaryName  = "convoscribe"
	eventBuffer = 64
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, cli.HelpText(binaryName))
		return 2
	}
	if parsed.ShowHelp {
		fmt.Print(cli.HelpText(binaryName))
		return 0
	}

	cfg, err := configloader.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config validation failed:", err)
		return 1
	}

	rt, err := initLogger(cfg, parsed.Command)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open log file:", err)
		return 1
	}
	defer func() {
		_ = rt.Close()
	}()
	slog.Info("startup: configuration loaded",
		"env", cfg.Env,
		"command", parsed.Command,
		"summarizer_backend", cfg.SummarizerBackend,
		"archive_enabled", cfg.ArchiveEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := setupDI(cfg)
	defer shutdown(injector)

	switch parsed.Command {
	case cli.CommandUI:
		err = runUI(ctx, cfg, injector)
	case cli.CommandListen:
		err = runListen(ctx, cfg, injector)
	case cli.CommandSummarize:
		err = runSummarize(ctx, injector)
	case cli.CommandDevices:
		err = runDevices(ctx, injector, os.Stdout)
	}
	if err != nil {
		slog.Error("command failed", "command", parsed.Command, "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// initLogger keeps the terminal UI screen clean by logging to a file.
func initLogger(cfg *config.Config, cmd cli.Command) (logging.Runtime, error) {
	level := logging.Level(cfg.IsDevelopment())
	var rt logging.Runtime
	if cmd == cli.CommandUI {
		var err error
		rt, err = logging.NewFile(cfg.LogPath, level)
		if err != nil {
			return logging.Runtime{}, err
		}
	} else {
		rt = logging.NewWriter(os.Stderr, level)
	}
	slog.SetDefault(rt.Logger)
	return rt, nil
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	transcriptimpl.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	discordimpl.RegisterDI(injector)
	watcherimpl.RegisterDI(injector)
	summarizerimpl.RegisterDI(injector)
	summarizer.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

func shutdown(injector do.Injector) {
	if report := injector.Shutdown(); report != nil {
		slog.Info("dependencies shut down", "result", report.Error())
	}
}

// prepareCapture resets the transcript and resolves the controller.
func prepareCapture(cfg *config.Config, injector do.Injector) (*session.Controller, transcript.Store, error) {
	if err := cfg.ValidateCapture(); err != nil {
		return nil, nil, err
	}
	store, err := do.Invoke[transcript.Store](injector)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve transcript store: %w", err)
	}
	if err := store.Reset(); err != nil {
		return nil, nil, err
	}
	ctrl, err := do.Invoke[*session.Controller](injector)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve session controller: %w", err)
	}
	return ctrl, store, nil
}

func runUI(ctx context.Context, cfg *config.Config, injector do.Injector) error {
	ctrl, store, err := prepareCapture(cfg, injector)
	if err != nil {
		return err
	}
	pipeline, err := do.Invoke[*summarizer.Pipeline](injector)
	if err != nil {
		return fmt.Errorf("resolve summarizer: %w", err)
	}

	var changes <-chan struct{}
	if w, err := do.Invoke[watcher.Watcher](injector); err != nil {
		slog.Warn("transcript watcher unavailable, falling back to polling", "error", err)
	} else {
		changes = w.Changes()
	}

	observer, events := tui.EventChannel(eventBuffer)
	ctrl.SetObserver(observer)
	defer ctrl.SetObserver(nil)

	model := tui.New(ctx, tui.Deps{
		Session:    ctrl,
		Summarizer: pipeline,
		Transcript: store,
		Changes:    changes,
		Events:     events,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui: %w", err)
	}

	if _, err := ctrl.Stop(context.Background()); err != nil {
		slog.Error("failed to stop transcription", "error", err)
	}
	fmt.Printf("Transcript saved to '%s'\n", store.Path())
	return nil
}

func runListen(ctx context.Context, cfg *config.Config, injector do.Injector) error {
	ctrl, store, err := prepareCapture(cfg, injector)
	if err != nil {
		return err
	}

	con := console.New(os.Stdout)
	ctrl.SetObserver(con.Observer())
	defer ctrl.SetObserver(nil)

	con.Println(console.MessageIntro)
	if cfg.AmbientCalibration > 0 {
		con.Println("Adjusting for ambient noise. Please wait...")
	}
	if _, err := ctrl.Start(ctx); err != nil {
		return err
	}

	err = runConsole(ctx, con, os.Stdin, ctrl)
	if _, stopErr := ctrl.Stop(context.Background()); stopErr != nil {
		slog.Error("failed to stop transcription", "error", stopErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	con.Println(fmt.Sprintf("\nConversation ended. Transcript saved to '%s'", store.Path()))
	return nil
}

type consoleSession interface {
	console.Switcher
	Wait()
}

// runConsole reads commands until the user quits or the capture loop ends on
// its own, e.g. the microphone went away.
func runConsole(ctx context.Context, con *console.Console, in io.Reader, s consoleSession) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		s.Wait()
		cancel()
	}()
	return con.Run(runCtx, in, s)
}

func runSummarize(ctx context.Context, injector do.Injector) error {
	pipeline, err := do.Invoke[*summarizer.Pipeline](injector)
	if err != nil {
		return fmt.Errorf("resolve summarizer: %w", err)
	}
	res, err := pipeline.Run(ctx)
	if err != nil {
		fmt.Println(summarizer.StatusMessage(err))
		return err
	}
	fmt.Println(res.Summary)
	return nil
}

func runDevices(ctx context.Context, injector do.Injector, out io.Writer) error {
	lister, err := do.Invoke[audio.DeviceLister](injector)
	if err != nil {
		return fmt.Errorf("resolve device lister: %w", err)
	}
	devices, err := lister.ListDevices(ctx)
	if err != nil {
		return err
	}
	return writeDevices(out, devices)
}

func writeDevices(out io.Writer, devices []audio.Device) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEFAULT\tID\tDESCRIPTION\tSTATE\tAVAILABLE\tMUTED")
	for _, d := range devices {
		marker := ""
		if d.Default {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n", marker, d.ID, d.Description, d.State, d.Available, d.Muted)
	}
	return tw.Flush()
}
