// Package readings writes the per-channel reading log and decides which
// reading records are worth keeping.
package readings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sweeney/plantwatch/internal/logic"
)

// FilePath returns the log file of channel id under dir.
func FilePath(dir string, id int) string {
	return filepath.Join(dir, fmt.Sprintf("plantwatch_channel_%d.log", id))
}

// FileLogger appends records to one logfmt file per channel.
// Files are opened on the first record of each channel.
type FileLogger struct {
	dir string
	log *zap.Logger

	mu      sync.Mutex
	loggers map[int]*zap.Logger
	files   []*os.File
}

// NewFileLogger creates dir if needed. log receives errors opening files.
func NewFileLogger(dir string, log *zap.Logger) (*FileLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileLogger{dir: dir, log: log, loggers: map[int]*zap.Logger{}}, nil
}

// LogValues appends rec to its channel's file.
func (l *FileLogger) LogValues(rec logic.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	logger, err := l.channelLogger(rec.Channel)
	if err != nil {
		l.log.Error("open reading log", zap.Int("channel", rec.Channel), zap.Error(err))
		return
	}
	logger.Info("reading",
		zap.Time("time", rec.Time),
		zap.Int("channel", rec.Channel),
		zap.Float64("moisture_hz", rec.Moisture),
		zap.Float64("saturation_pct", rec.SaturationPercent()),
		zap.Bool("watered", rec.Watered),
		zap.Float64("light_lux", rec.Light),
	)
}

func (l *FileLogger) channelLogger(id int) (*zap.Logger, error) {
	if logger, ok := l.loggers[id]; ok {
		return logger, nil
	}

	f, err := os.OpenFile(FilePath(l.dir, id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l.files = append(l.files, f)

	enc := zaplogfmt.NewEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	logger := zap.New(zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.InfoLevel))
	l.loggers[id] = logger
	return logger, nil
}

// Close flushes and closes every open file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, logger := range l.loggers {
		_ = logger.Sync()
	}
	for _, f := range l.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.loggers = map[int]*zap.Logger{}
	l.files = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Throttle forwards the first record of each channel, every record where the
// pump ran, and otherwise at most one record per channel per interval.
// A zero interval forwards everything.
type Throttle struct {
	next     logic.RecordSink
	interval time.Duration
	last     map[int]time.Time
}

// NewThrottle wraps next.
func NewThrottle(next logic.RecordSink, interval time.Duration) *Throttle {
	return &Throttle{next: next, interval: interval, last: map[int]time.Time{}}
}

// LogValues forwards rec if it is the first for its channel, a watered
// record, or the interval has passed since the last one forwarded.
func (t *Throttle) LogValues(rec logic.Record) {
	last, seen := t.last[rec.Channel]
	if seen && !rec.Watered && rec.Time.Sub(last) < t.interval {
		return
	}
	t.last[rec.Channel] = rec.Time
	t.next.LogValues(rec)
}

// Tee sends every record to all of its sinks in order.
type Tee []logic.RecordSink

// LogValues sends rec to every sink.
func (t Tee) LogValues(rec logic.Record) {
	for _, s := range t {
		s.LogValues(rec)
	}
}
