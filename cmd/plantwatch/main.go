// Command plantwatch waters plants from the soil moisture probes of a Grow HAT
// and reports what it does over MQTT and HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sweeney/plantwatch/internal/config"
	"github.com/sweeney/plantwatch/internal/gpio"
	"github.com/sweeney/plantwatch/internal/light"
	"github.com/sweeney/plantwatch/internal/logic"
	"github.com/sweeney/plantwatch/internal/menu"
	"github.com/sweeney/plantwatch/internal/metrics"
	"github.com/sweeney/plantwatch/internal/mqtt"
	"github.com/sweeney/plantwatch/internal/readings"
	"github.com/sweeney/plantwatch/internal/settings"
	"github.com/sweeney/plantwatch/internal/status"
	"github.com/sweeney/plantwatch/internal/store"
	"github.com/sweeney/plantwatch/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Daemon config file (empty: environment only)")
	settingsPath := flag.String("settings", "", "Settings file, overrides the config")
	printState := flag.Bool("print-state", false, "Print current readings and exit")

	flag.Parse()

	if err := run(*configPath, *settingsPath, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, settingsPath string, printState bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if settingsPath != "" {
		cfg.SettingsPath = settingsPath
	}

	logger, err := config.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	cfg.PrintConfig(logger)

	// Settings are loaded before touching hardware: unknown thresholds are fatal.
	sf, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		return err
	}
	lightLow, err := sf.LightLevelLow()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	board, err := gpio.OpenBoard(cfg.Hardware.Chip, cfg.Pins(), logger)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	var lightSensor light.Sensor
	if ltr, err := light.Open(byte(cfg.Hardware.LightAddress)); err != nil {
		logger.Warn("light sensor unavailable, lights-out detection disabled", zap.Error(err))
	} else {
		defer ltr.Close()
		lightSensor = ltr
	}

	if printState {
		// Moisture meters need a full second of pulses before the first reading.
		time.Sleep(1100 * time.Millisecond)
		return printReadings(os.Stdout, board, lightSensor)
	}

	journal, err := store.Open(cfg.Readings.Journal, logger)
	if err != nil {
		return err
	}
	defer journal.Close()

	fileLog, err := readings.NewFileLogger(cfg.Readings.Dir, logger)
	if err != nil {
		return err
	}
	defer fileLog.Close()

	m := metrics.New()
	sink := readings.Tee{
		readings.NewThrottle(readings.Tee{fileLog, journal}, cfg.Readings.Interval),
		m,
	}

	pruner, err := schedulePrune(journal, cfg.Readings.PruneSchedule, cfg.Readings.Retention, logger)
	if err != nil {
		return err
	}
	if pruner != nil {
		pruner.Start()
		defer pruner.Stop()
	}

	start := time.Now()
	channels, err := newChannels(board, sf, sink, start, logger)
	if err != nil {
		return err
	}
	alarm := logic.NewAlarm(board.Piezo, logic.DefaultAlarmConfig(), start, logic.WithAlarmLogger(logger))
	if err := alarm.UpdateFromMap(sf.Alarm()); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(start, status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.Update(channelStatuses(channels), status.AlarmStatusOf(alarm, start), 0, false, logic.EventCounts{})

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	if cfg.MQTT.Broker != "" {
		rp, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Logger:      logger,
			OnReconnect: announceReconnect,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher = rp
	}
	defer publisher.Close()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	if err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}); err != nil {
		logger.Warn("failed to publish startup event", zap.Error(err))
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, web.Options{
			History: journal,
			Metrics: m.Handler(),
			Logger:  logger,
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", zap.String("addr", cfg.HTTP.Addr))
	}

	wd := newWatchdog(logger)
	wd.notify(daemon.SdNotifyReady)
	logger.Info("started", zap.Int("channels", len(channels)), zap.Float64("light_level_low", lightLow))

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &loopDeps{
		channels:   channels,
		alarm:      alarm,
		app:        &menu.App{Controller: menu.Layout(channels, alarm), Alarm: alarm, Log: logger},
		buttons:    board.Buttons,
		light:      lightSensor,
		lightLow:   lightLow,
		settings:   sf,
		publisher:  publisher,
		mqttStatus: connectionStatus(publisher),
		tracker:    tracker,
		metrics:    m,
		heartbeat:  cfg.MQTT.Heartbeat,
		watchdog:   wd,
		log:        logger,
	}
	return runLoop(d, time.Now, ticker.C, sigCh)
}

// newChannels builds one channel per sensor/pump pair and applies its settings.
func newChannels(board *gpio.Board, sf *settings.File, sink logic.RecordSink, now time.Time, logger *zap.Logger) ([]*logic.Channel, error) {
	channels := make([]*logic.Channel, 0, board.Channels())
	for i := 0; i < board.Channels(); i++ {
		c := logic.NewChannel(i+1, board.Sensors[i], board.Pumps[i], logic.DefaultChannelConfig(), now,
			logic.WithLogger(logger), logic.WithRecordSink(sink))
		if err := c.UpdateFromMap(sf.Channel(c.ID())); err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, nil
}

// schedulePrune returns a cron scheduler that drops journal records older than
// retention. An empty schedule disables pruning and returns nil.
func schedulePrune(j *store.Journal, schedule string, retention time.Duration, logger *zap.Logger) (*cron.Cron, error) {
	if schedule == "" {
		logger.Info("journal pruning disabled")
		return nil, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		pruneJournal(j, time.Now().Add(-retention), logger)
	}); err != nil {
		return nil, fmt.Errorf("schedule journal prune: %w", err)
	}
	return c, nil
}

// announceReconnect publishes RECONNECTED without holding up the client's
// goroutine.
func announceReconnect(p *mqtt.RealPublisher) {
	go p.PublishSystem(mqtt.SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
}

func pruneJournal(j *store.Journal, before time.Time, logger *zap.Logger) {
	n, err := j.Prune(before)
	if err != nil {
		logger.Error("journal prune failed", zap.Error(err))
		return
	}
	logger.Info("journal pruned", zap.Int("records", n), zap.Time("before", before))
}

func connectionStatus(p mqtt.Publisher) mqtt.ConnectionStatus {
	if cs, ok := p.(mqtt.ConnectionStatus); ok {
		return cs
	}
	return nil
}

func printReadings(w io.Writer, board *gpio.Board, lightSensor light.Sensor) error {
	for i, s := range board.Sensors {
		fmt.Fprintf(w, "channel %d: %.2fHz %.1f%% active=%v\n", i+1, s.Moisture(), s.Saturation()*100, s.Active())
	}
	if lightSensor == nil {
		fmt.Fprintln(w, "light: unavailable")
		return nil
	}
	lux, err := lightSensor.Lux()
	if err != nil {
		return fmt.Errorf("read light: %w", err)
	}
	fmt.Fprintf(w, "light: %.1f lux\n", lux)
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
