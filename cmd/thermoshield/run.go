package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/thermoshield/internal/actuator"
	"github.com/sweeney/thermoshield/internal/adc"
	"github.com/sweeney/thermoshield/internal/control"
	"github.com/sweeney/thermoshield/internal/display"
	"github.com/sweeney/thermoshield/internal/gpio"
	"github.com/sweeney/thermoshield/internal/history"
	"github.com/sweeney/thermoshield/internal/logic"
	"github.com/sweeney/thermoshield/internal/metrics"
	"github.com/sweeney/thermoshield/internal/mqtt"
	"github.com/sweeney/thermoshield/internal/sampler"
	"github.com/sweeney/thermoshield/internal/settings"
	"github.com/sweeney/thermoshield/internal/status"
	"github.com/sweeney/thermoshield/internal/store"
	"github.com/sweeney/thermoshield/internal/web"
)

func run(rootOpts *RootOptions, opts *RunOptions) error {
	prof, err := rootOpts.profile()
	if err != nil {
		return err
	}
	if err := loadEnvFile(rootOpts.EnvFile); err != nil {
		log.Printf("env file: %v", err)
	}

	// Initialize GPIO
	chip, err := gpio.OpenChip(prof.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	bank, err := openActuators(chip, prof.Actuators)
	if err != nil {
		return fmt.Errorf("init actuators: %w", err)
	}
	defer func() {
		if err := bank.Close(); err != nil {
			log.Printf("actuator close: %v", err)
		}
	}()

	button, err := chip.Input(prof.Button.Pin)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	defer button.Close()

	alarmLine, err := chip.Output(prof.Alarm.Pin, !prof.Alarm.ActiveHigh)
	if err != nil {
		return fmt.Errorf("init alarm: %w", err)
	}
	defer alarmLine.Close()

	reader, err := adc.NewIIO(prof.ADC.Dir, prof.ADC.Channels)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	samplers := make([]*sampler.Sampler, logic.ChannelCount)
	for i := range samplers {
		samplers[i] = sampler.New(i, reader, prof.SamplerConfig())
	}

	st := store.New(bank, &store.FileDurable{Path: prof.Storage.Durable}, store.DirMedium{Root: prof.Storage.Medium})
	st.LogInterval = prof.Storage.LogInterval

	sink, err := openHistory(prof)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Printf("history close: %v", err)
		}
	}()

	screen, closeScreen, err := openDisplay(opts.Display)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	defer closeScreen()

	// Initialize MQTT
	var publisher mqtt.Publisher = discard{}
	var mqttStatus mqtt.ConnectionStatus
	if opts.Broker != "" {
		p, err := mqtt.NewRealPublisher(opts.Broker)
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			publisher, mqttStatus = p, p
		}
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	start := time.Now()
	tracker := status.NewTracker(start, status.Config{
		PollMs:         opts.Poll.Milliseconds(),
		SamplePeriodMs: prof.Sampling.Period.Milliseconds(),
		HeartbeatMs:    opts.Heartbeat.Milliseconds(),
		Broker:         opts.Broker,
		HTTPAddr:       opts.HTTPAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	ctrl := control.New(control.Deps{
		Store:             st,
		Samplers:          samplers,
		Actuators:         bank,
		Button:            button,
		Alarm:             gpio.WithPolarity(alarmLine, prof.Alarm.ActiveHigh),
		Screen:            screen,
		Publisher:         publisher,
		Sink:              sink,
		Tracker:           tracker,
		Ticks:             logic.NewTickClock(start, time.Now),
		DebounceDelay:     prof.Button.Debounce,
		PressAndHoldDelay: prof.Button.Hold,
	})
	if err := ctrl.Begin(); err != nil {
		log.Printf("config: %v", err)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.HTTPAddr != "" {
		srv := web.New(opts.HTTPAddr, tracker, metrics.NewRegistry(tracker))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.HTTPAddr)
	}

	log.Printf("started: poll=%v sample=%v broker=%s heartbeat=%v", opts.Poll, prof.Sampling.Period, opts.Broker, opts.Heartbeat)

	tick := time.NewTicker(opts.Poll)
	defer tick.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, mqttStatus, tracker, opts.Heartbeat, time.Now, tick.C, sigCh)
}

func openActuators(chip *gpio.Chip, lines []settings.Line) (*actuator.Bank, error) {
	var bankLines []actuator.Line
	for i, l := range lines {
		out, err := chip.Output(l.Pin, !l.ActiveHigh)
		if err != nil {
			for _, bl := range bankLines {
				bl.Out.Close()
			}
			return nil, fmt.Errorf("actuator %d: %w", i+1, err)
		}
		bankLines = append(bankLines, actuator.Line{Out: out, ActiveHigh: l.ActiveHigh})
	}
	return actuator.NewBank(bankLines)
}

func openHistory(prof settings.Profile) (history.Multi, error) {
	var sinks history.Multi
	if prof.History.SQLite != "" {
		db, err := history.OpenSQLite(prof.History.SQLite)
		if err != nil {
			return nil, fmt.Errorf("init history: %w", err)
		}
		sinks = append(sinks, db)
		log.Printf("history: sqlite %s", prof.History.SQLite)
	}
	if cfg, ok := prof.InfluxConfig(); ok {
		sinks = append(sinks, history.NewInflux(cfg))
		log.Printf("history: influx %s bucket=%s", cfg.URL, cfg.Bucket)
	}
	return sinks, nil
}

// openDisplay resolves the --display flag.
func openDisplay(target string) (display.Screen, func(), error) {
	switch target {
	case "":
		return nil, func() {}, nil
	case "-":
		return display.NewConsole(os.Stdout), func() {}, nil
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return display.NewConsole(f), func() { f.Close() }, nil
}

// discard is the publisher used when MQTT is disabled.
type discard struct{}

func (discard) Publish(logic.Event) error            { return nil }
func (discard) PublishDuty([]store.DutyRecord) error { return nil }
func (discard) PublishSystem(mqtt.SystemEvent) error { return nil }
func (discard) Close() error                         { return nil }
