//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/zap"
)

const buttonDebounce = 200 * time.Millisecond

// realBoard owns the requested lines so they can be released on Close.
type realBoard struct {
	chip    *gpiocdev.Chip
	inputs  []*gpiocdev.Line
	outputs []*gpiocdev.Line
	pumps   []*Pump
	piezo   *Piezo
	presses chan Button
	log     *zap.Logger
}

// OpenBoard requests every HAT line on chipName and returns a ready Board.
func OpenBoard(chipName string, pins Pins, log *zap.Logger) (*Board, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	rb := &realBoard{
		chip:    chip,
		presses: make(chan Button, 8),
		log:     log,
	}
	board := &Board{Buttons: rb.presses, close: rb.close}

	for i, pin := range pins.Moisture {
		meter := NewMoistureMeter(nil)
		line, err := chip.RequestLine(pin,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
				meter.Pulse(time.Now())
			}))
		if err != nil {
			rb.close()
			return nil, fmt.Errorf("request moisture %d pin %d: %w", i+1, pin, err)
		}
		rb.inputs = append(rb.inputs, line)
		board.Sensors = append(board.Sensors, meter)
	}

	var doseLock sync.Mutex
	for i, pin := range pins.Pumps {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			rb.close()
			return nil, fmt.Errorf("request pump %d pin %d: %w", i+1, pin, err)
		}
		rb.outputs = append(rb.outputs, line)
		pump := NewPump(i+1, NewPWM(line, nil), &doseLock, log)
		rb.pumps = append(rb.pumps, pump)
		board.Pumps = append(board.Pumps, pump)
	}

	piezoLine, err := chip.RequestLine(pins.Piezo, gpiocdev.AsOutput(0))
	if err != nil {
		rb.close()
		return nil, fmt.Errorf("request piezo pin %d: %w", pins.Piezo, err)
	}
	rb.outputs = append(rb.outputs, piezoLine)
	rb.piezo = NewPiezo(NewPWM(piezoLine, nil), log)
	board.Piezo = rb.piezo

	for i, pin := range pins.Buttons {
		button := buttonOrder[i]
		line, err := chip.RequestLine(pin,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(buttonDebounce),
			gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
				rb.press(button)
			}))
		if err != nil {
			rb.close()
			return nil, fmt.Errorf("request button %s pin %d: %w", button, pin, err)
		}
		rb.inputs = append(rb.inputs, line)
	}

	return board, nil
}

// press hands a button to the tick loop. Presses are dropped if the loop is
// not keeping up rather than blocking the event goroutine.
func (rb *realBoard) press(b Button) {
	select {
	case rb.presses <- b:
	default:
		rb.log.Warn("button press dropped", zap.String("button", string(b)))
	}
}

// close stops actuators, drives outputs low and releases every line.
func (rb *realBoard) close() error {
	var errs []error

	for _, p := range rb.pumps {
		p.Wait()
	}
	if rb.piezo != nil {
		rb.piezo.Wait()
	}

	for _, l := range rb.outputs {
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive line low: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output line: %w", err))
		}
	}
	for _, l := range rb.inputs {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input line: %w", err))
		}
	}
	if rb.chip != nil {
		if err := rb.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
