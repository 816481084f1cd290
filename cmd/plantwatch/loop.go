package main

import (
	"os"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"github.com/sweeney/plantwatch/internal/gpio"
	"github.com/sweeney/plantwatch/internal/light"
	"github.com/sweeney/plantwatch/internal/logic"
	"github.com/sweeney/plantwatch/internal/menu"
	"github.com/sweeney/plantwatch/internal/metrics"
	"github.com/sweeney/plantwatch/internal/mqtt"
	"github.com/sweeney/plantwatch/internal/settings"
	"github.com/sweeney/plantwatch/internal/status"
)

// loopDeps is everything the tick loop owns or reports to. Optional fields
// may be nil.
type loopDeps struct {
	channels []*logic.Channel
	alarm    *logic.Alarm
	app      *menu.App
	buttons  <-chan gpio.Button
	light    light.Sensor
	lightLow float64
	settings *settings.File

	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	heartbeat  time.Duration
	watchdog   *watchdog
	log        *zap.Logger

	lux float64 // last good light reading
}

func runLoop(d *loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	if d.log == nil {
		d.log = zap.NewNop()
	}
	if d.publisher == nil {
		d.publisher = mqtt.NopPublisher{}
	}
	hb := logic.NewHeartbeat(now())

	for {
		select {
		case s := <-sig:
			d.log.Info("shutting down", zap.String("signal", s.String()))
			d.watchdog.notify(daemon.SdNotifyStopping)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			d.publishStatus(now(), "SHUTDOWN", signalName, true)
			d.saveSettings()
			return nil

		case b := <-d.buttons:
			if d.app != nil {
				d.app.HandleButton(b, now())
			}

		case <-tick:
			t := now()
			events := d.step(t)
			hb.Record(events...)
			if d.metrics != nil {
				d.metrics.ObserveEvents(events...)
			}

			for _, event := range events {
				if err := d.publisher.Publish(event); err != nil {
					// Don't crash on publish failure
					d.log.Warn("publish error", zap.String("event", string(event.Type)), zap.Error(err))
				}
			}

			d.report(t, hb.Counts())

			if hbData := hb.Check(t, d.heartbeat); hbData != nil {
				d.log.Info("heartbeat",
					zap.Duration("uptime", hbData.Uptime),
					zap.Int("doses", hbData.Counts.Doses),
					zap.Int("alarms", hbData.Counts.Alarms),
					zap.Int("faults", hbData.Counts.Faults),
					zap.Int("beeps", hbData.Counts.Beeps))
				if net := readNetworkInfo(); net != nil && d.tracker != nil {
					d.tracker.SetNetwork(net)
				}
				d.publishStatus(hbData.Timestamp, "HEARTBEAT", "", false)
			}

			d.watchdog.kick(t)
		}
	}
}

// step runs one control tick: every channel, then the alarm, then persistence.
func (d *loopDeps) step(t time.Time) []logic.Event {
	if d.light != nil {
		lux, err := d.light.Lux()
		if err != nil {
			d.log.Warn("light read error", zap.Error(err))
		} else {
			d.lux = lux
		}
	}
	lightsOut := d.light != nil && d.lux < d.lightLow

	var events []logic.Event
	for _, c := range d.channels {
		d.settings.SetChannel(c.ID(), c.ToMap())
		for _, e := range c.Update(t, d.lux) {
			d.log.Debug("event", zap.String("type", string(e.Type)), zap.Int("channel", e.Channel))
			events = append(events, e)
		}
		if c.Alarm() {
			d.alarm.Trigger()
		}
	}

	if d.alarm.Update(t, lightsOut) {
		events = append(events, logic.Event{Timestamp: t, Type: logic.EventBeep})
	}

	d.settings.SetAlarm(d.alarm.ToMap())
	d.saveSettings()
	return events
}

func (d *loopDeps) saveSettings() {
	if written, err := d.settings.Save(); err != nil {
		d.log.Error("settings save failed", zap.String("path", d.settings.Path()), zap.Error(err))
	} else if written {
		d.log.Debug("settings saved", zap.String("path", d.settings.Path()))
	}
}

// report refreshes the status tracker and metrics.
func (d *loopDeps) report(t time.Time, counts logic.EventCounts) {
	lightsOut := d.light != nil && d.lux < d.lightLow
	alarm := status.AlarmStatusOf(d.alarm, t)

	if d.metrics != nil {
		d.metrics.SetLight(d.lux)
		d.metrics.SetAlarmState(alarm.State)
	}
	if d.tracker != nil {
		d.tracker.Update(channelStatuses(d.channels), alarm, d.lux, lightsOut, counts)
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
	}
}

func (d *loopDeps) publishStatus(t time.Time, event, reason string, retained bool) {
	ev := mqtt.SystemEvent{
		Timestamp: t,
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if d.tracker != nil {
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
		ev.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), event, reason)
	}
	if err := d.publisher.PublishSystem(ev); err != nil {
		d.log.Warn("system event publish error", zap.String("event", event), zap.Error(err))
	}
}

func channelStatuses(channels []*logic.Channel) []status.ChannelStatus {
	out := make([]status.ChannelStatus, len(channels))
	for i, c := range channels {
		out[i] = status.ChannelStatusOf(c)
	}
	return out
}

// watchdog reports to systemd. Without NOTIFY_SOCKET every call is a no-op.
type watchdog struct {
	interval time.Duration // zero when the unit has no WatchdogSec
	last     time.Time
	sdNotify func(state string) (bool, error)
	log      *zap.Logger
}

func newWatchdog(logger *zap.Logger) *watchdog {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("systemd watchdog check failed", zap.Error(err))
	}
	return &watchdog{
		interval: interval,
		sdNotify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
		log:      logger,
	}
}

func (w *watchdog) notify(state string) {
	if w == nil {
		return
	}
	if _, err := w.sdNotify(state); err != nil {
		w.log.Warn("systemd notify failed", zap.String("state", state), zap.Error(err))
	}
}

// kick pings the watchdog at half its interval.
func (w *watchdog) kick(now time.Time) {
	if w == nil || w.interval <= 0 {
		return
	}
	if now.Sub(w.last) < w.interval/2 {
		return
	}
	w.last = now
	w.notify(daemon.SdNotifyWatchdog)
}
