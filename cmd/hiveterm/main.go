package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"hiveterm/cmd/hiveterm/chat"
	"hiveterm/cmd/hiveterm/ui"
	"hiveterm/internal/artifact"
	"hiveterm/internal/config"
	"hiveterm/internal/logging"
	"hiveterm/internal/session"
	"hiveterm/internal/stream"
	"hiveterm/internal/submit"
	"hiveterm/internal/widget"
)

var (
	// Global flags
	verbose   bool
	workspace string
	headless  bool
	chunkSize int
	script    string

	// replay flags
	follow bool

	cfg config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hiveterm",
	Short: "hiveterm - artifact-aware terminal client for agent streams",
	Long: `hiveterm renders an agent's output stream live in the terminal.

Plain prose flows into the transcript as it arrives; delimited artifact
blocks become widgets: forms collect input and send it back to the agent,
documents render as markdown. Invalid blocks degrade to visible text
instead of being dropped.

With no arguments, hiveterm reads the agent stream from stdin. Use
--script to play a scripted demo agent instead.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: config not loaded: %v\n", err)
		}
		// Only an explicit flag overrides the config file, so
		// --headless=false can switch off a configured default.
		if cmd.Flags().Changed("headless") {
			cfg.Headless = headless
		}
		if chunkSize > 0 {
			cfg.ChunkSize = chunkSize
		}

		if workspace == "" {
			workspace, _ = os.Getwd()
		}
		if err := logging.Init(workspace, cfg.Debug || verbose); err != nil {
			// Logging is best-effort; the session still runs.
			fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if script != "" {
			src, err := session.LoadScript(script, cfg.ChunkSize)
			if err != nil {
				return err
			}
			return runSession(src, src.Deliver)
		}
		return runSession(session.NewReaderSource(os.Stdin, cfg.ChunkSize), nil)
	},
}

// replayCmd streams a recorded transcript file through the full pipeline
var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Replay a recorded agent transcript",
	Long: `Replays a transcript file through the scanner and decoder exactly as a
live stream would flow, including artifact rendering. With --follow the
file is tailed, so a writer on the other end drives the session live.
Pass - to read the transcript from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src session.Source
		switch {
		case args[0] == "-":
			src = session.NewReaderSource(os.Stdin, cfg.ChunkSize)
		case follow:
			src = session.NewFollowSource(args[0], cfg.ChunkSize)
		default:
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			src = session.NewReaderSource(f, cfg.ChunkSize)
		}
		return runSession(src, nil)
	},
}

// runSession wires one source through the pipeline and into either the
// TUI or the headless printer.
func runSession(src session.Source, deliver submit.Deliverer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	delims := stream.Delimiters(cfg.Delimiters)
	dec := artifact.NewDecoder(nil)
	pipeline := session.NewPipeline(src, delims, dec)
	events := pipeline.Run(ctx)

	if deliver == nil {
		deliver = fileDeliverer(workspace)
	}
	channel := submit.NewChannel(deliver, logging.Get(logging.CategorySubmit))

	if cfg.Headless {
		return chat.RunHeadless(events, os.Stdout, channel)
	}

	m := chat.New(chat.Options{
		Events:   events,
		Registry: widget.NewRegistry(widget.ModeInteractive),
		Channel:  channel,
		Styles:   ui.NewStyles(ui.ThemeByName(cfg.Theme)),
		Cancel:   cancel,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// fileDeliverer appends submissions as JSON lines under the workspace dot
// dir. It is the back-channel of last resort when the source has none:
// the agent side can tail the file.
func fileDeliverer(ws string) submit.Deliverer {
	path := filepath.Join(ws, ".hiveterm", "submissions.jsonl")
	return func(_ context.Context, payload []byte) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		if !json.Valid(payload) {
			return fmt.Errorf("refusing to append invalid JSON")
		}
		_, err = f.Write(append(payload, '\n'))
		return err
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "Render artifacts as structured text, no TUI")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", 0, "Stream read size in bytes (default from config)")
	rootCmd.Flags().StringVar(&script, "script", "", "Play a scripted demo agent from a YAML file")

	replayCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep reading as the file grows")

	rootCmd.AddCommand(replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
