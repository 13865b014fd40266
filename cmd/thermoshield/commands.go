package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/thermoshield/internal/adc"
	"github.com/sweeney/thermoshield/internal/gpio"
	"github.com/sweeney/thermoshield/internal/history"
	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/sampler"
	"github.com/sweeney/thermoshield/internal/settings"
	"github.com/sweeney/thermoshield/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Profile string
	EnvFile string
}

// profile loads the hardware profile named by --profile.
func (o *RootOptions) profile() (settings.Profile, error) {
	return settings.Load(o.Profile)
}

// NewRootCommand creates the thermoshield command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "thermoshield",
		Short:         "Thermostatic controller for up to eight heating channels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "hardware profile (YAML); built-in defaults when empty")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", DefaultEnvFile, "env file with network state (empty to skip)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCheckConfigCommand(opts))
	cmd.AddCommand(NewDumpDurableCommand(opts))
	cmd.AddCommand(NewPrintStateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// RunOptions are the daemon flags.
type RunOptions struct {
	Poll      time.Duration
	Broker    string
	Heartbeat time.Duration
	HTTPAddr  string
	Display   string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the control loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, opts)
		},
	}
	cmd.Flags().DurationVar(&opts.Poll, "poll", 10*time.Millisecond, "control loop interval")
	cmd.Flags().StringVar(&opts.Broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	cmd.Flags().DurationVar(&opts.Heartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	cmd.Flags().StringVar(&opts.HTTPAddr, "http", ":80", "HTTP status address (empty to disable)")
	cmd.Flags().StringVar(&opts.Display, "display", "", `display output: a tty or file path, "-" for stdout, empty to disable`)
	return cmd
}

// NewCheckConfigCommand creates the check-config command.
func NewCheckConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config [file]",
		Short: "Parse a channel config file and print the result",
		Long: `Parse a channel config file and print every channel as it would be
loaded. Without an argument the config file on the profile's medium is read.
Rejected lines are reported and the command fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				prof, err := rootOpts.profile()
				if err != nil {
					return err
				}
				path = filepath.Join(prof.Storage.Medium, store.ConfigFileName)
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			return checkConfig(f, cmd.OutOrStdout())
		},
	}
}

// checkConfig prints the channels a config file yields over the defaults.
func checkConfig(r io.Reader, w io.Writer) error {
	lines, parseErr := store.ParseConfig(r)

	var channels [logic.ChannelCount]store.Channel
	for i := range channels {
		channels[i] = store.DefaultChannel(i)
	}
	for _, lc := range lines {
		lc.Apply(&channels[lc.Channel])
	}
	for i, ch := range channels {
		fmt.Fprintln(w, store.FormatLine(i, ch))
	}

	if parseErr != nil {
		fmt.Fprintln(w, "rejected:")
		for _, err := range unjoin(parseErr) {
			fmt.Fprintf(w, "  %v\n", err)
		}
	}
	return parseErr
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// NewDumpDurableCommand creates the dump-durable command.
func NewDumpDurableCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump-durable [file]",
		Short: "Decode and print the durable configuration tier",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				prof, err := rootOpts.profile()
				if err != nil {
					return err
				}
				path = prof.Storage.Durable
			}
			return dumpDurable(&store.FileDurable{Path: path}, cmd.OutOrStdout())
		},
	}
}

func dumpDurable(d store.Durable, w io.Writer) error {
	channels, ok, err := store.ReadDurable(d)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "durable tier empty or invalid")
		return nil
	}
	for i, ch := range channels {
		fmt.Fprintf(w, "%s  override=%s\n", store.FormatLine(i, ch), ch.Override)
	}
	return nil
}

// NewPrintStateCommand creates the print-state command.
func NewPrintStateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "print-state",
		Short: "Print the button level and one reading per channel, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := rootOpts.profile()
			if err != nil {
				return err
			}
			return printState(prof, cmd.OutOrStdout())
		},
	}
}

func printState(prof settings.Profile, w io.Writer) error {
	chip, err := gpio.OpenChip(prof.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	button, err := chip.Input(prof.Button.Pin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer button.Close()
	pressed, err := button.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}

	reader, err := adc.NewIIO(prof.ADC.Dir, prof.ADC.Channels)
	if err != nil {
		return err
	}
	return printReadings(w, pressed, reader, prof.SamplerConfig())
}

func printReadings(w io.Writer, pressed bool, reader adc.Reader, cfg sampler.Config) error {
	fmt.Fprintf(w, "button: %s\n", logic.StateOf(pressed))
	for i := 0; i < logic.ChannelCount; i++ {
		t, err := sampler.New(i, reader, cfg).Temperature(0)
		switch {
		case err != nil:
			fmt.Fprintf(w, "CH%d: error: %v\n", i+1, err)
		case t < store.TemperatureFloor:
			fmt.Fprintf(w, "CH%d: disconnected\n", i+1)
		default:
			fmt.Fprintf(w, "CH%d: %.1fC\n", i+1, t)
		}
	}
	return nil
}

// HistoryOptions are the history command flags.
type HistoryOptions struct {
	Channel int
	Limit   int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent duty-cycle records from the SQLite history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prof, err := rootOpts.profile()
			if err != nil {
				return err
			}
			if prof.History.SQLite == "" {
				return errors.New("no sqlite history configured in the profile")
			}
			db, err := history.OpenSQLite(prof.History.SQLite)
			if err != nil {
				return err
			}
			defer db.Close()
			return printHistory(cmd.Context(), db, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&opts.Channel, "channel", "c", 0, "channel 1..8 (0 for all)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 24, "number of records")
	return cmd
}

type recentRecords interface {
	Recent(ctx context.Context, channel, limit int) ([]store.DutyRecord, error)
}

func printHistory(ctx context.Context, src recentRecords, opts *HistoryOptions, w io.Writer) error {
	if opts.Channel < 0 || opts.Channel > logic.ChannelCount {
		return fmt.Errorf("channel %d out of range 1..%d", opts.Channel, logic.ChannelCount)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	records, err := src.Recent(ctx, opts.Channel, opts.Limit)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(w, "CH%d  %s\n", r.Channel+1, r.Line())
	}
	return nil
}
