package menu

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/plantwatch/internal/gpio"
	"github.com/sweeney/plantwatch/internal/logic"
)

// View reacts to buttons. Each handler reports whether it consumed the press.
type View interface {
	Name() string
	ButtonA() bool
	ButtonB() bool
	ButtonX() bool
	ButtonY() bool
}

// passive is embedded by views that consume no buttons.
type passive struct{}

func (passive) ButtonA() bool { return false }
func (passive) ButtonB() bool { return false }
func (passive) ButtonX() bool { return false }
func (passive) ButtonY() bool { return false }

// HomeView is the overview of all channels.
type HomeView struct {
	passive
	Channels []*logic.Channel
	Alarm    *logic.Alarm
}

// Name returns "home".
func (v *HomeView) Name() string { return "home" }

// DetailView shows the history of one channel.
type DetailView struct {
	passive
	Channel *logic.Channel
}

// Name returns "channelN".
func (v *DetailView) Name() string { return fmt.Sprintf("channel%d", v.Channel.ID()) }

// ChannelEditView is an Editor over a channel's options that also knows the
// channel, so the live reading matching the selected option can be shown.
type ChannelEditView struct {
	*Editor
	Channel *logic.Channel
}

// NewChannelEditView creates the edit menu of c.
func NewChannelEditView(c *logic.Channel) *ChannelEditView {
	return &ChannelEditView{
		Editor:  NewEditor(fmt.Sprintf("channel%d settings", c.ID()), ChannelOptions(c)),
		Channel: c,
	}
}

// ContextLine returns the live reading for the selected option, or "".
func (v *ChannelEditView) ContextLine() string {
	s := v.Channel.Sensor()
	switch v.Current().Context {
	case ContextSaturation:
		return fmt.Sprintf("Now: %.2f%%", s.Saturation()*100)
	case ContextFrequency:
		return fmt.Sprintf("Now: %.2fHz", s.Moisture())
	default:
		return ""
	}
}

// Controller navigates pages of views. Page 0, subview 0 is home.
// A moves to the next page when on a page's first view; X cycles the
// subviews of the current page.
type Controller struct {
	pages   [][]View
	page    int
	subview int
}

// NewController creates a controller. Every page needs at least one view.
func NewController(pages [][]View) *Controller {
	return &Controller{pages: pages}
}

// Layout builds the standard pages: home + general settings, then a detail
// and edit view per channel.
func Layout(channels []*logic.Channel, alarm *logic.Alarm) *Controller {
	pages := [][]View{{
		&HomeView{Channels: channels, Alarm: alarm},
		NewEditor("settings", AlarmOptions(alarm)),
	}}
	for _, c := range channels {
		pages = append(pages, []View{&DetailView{Channel: c}, NewChannelEditView(c)})
	}
	return NewController(pages)
}

// View returns the active view.
func (c *Controller) View() View { return c.pages[c.page][c.subview] }

// Home reports whether the home view is active.
func (c *Controller) Home() bool { return c.page == 0 && c.subview == 0 }

// NextView moves to the next page. It does nothing inside a subview.
func (c *Controller) NextView() {
	if c.subview != 0 {
		return
	}
	c.page = (c.page + 1) % len(c.pages)
}

// PrevView moves to the previous page. It does nothing inside a subview.
func (c *Controller) PrevView() {
	if c.subview != 0 {
		return
	}
	c.page = (c.page - 1 + len(c.pages)) % len(c.pages)
}

// NextSubview cycles the views of the current page.
func (c *Controller) NextSubview() {
	c.subview = (c.subview + 1) % len(c.pages[c.page])
}

// ButtonA goes to the next page unless the view consumes the press.
func (c *Controller) ButtonA() bool {
	if !c.View().ButtonA() {
		c.NextView()
	}
	return true
}

// ButtonB forwards the press to the current view.
func (c *Controller) ButtonB() bool { return c.View().ButtonB() }

// ButtonX goes to the next subview unless the view consumes the press.
func (c *Controller) ButtonX() bool {
	if !c.View().ButtonX() {
		c.NextSubview()
	}
	return true
}

// ButtonY forwards the press to the current view.
func (c *Controller) ButtonY() bool { return c.View().ButtonY() }

// App is the state the button handler needs. It is built once at startup and
// owned by the tick loop.
type App struct {
	Controller *Controller
	Alarm      *logic.Alarm
	Log        *zap.Logger
}

// HandleButton routes a press. B on the home view toggles the alarm snooze.
func (a *App) HandleButton(b gpio.Button, now time.Time) {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("button", zap.String("button", string(b)), zap.String("view", a.Controller.View().Name()))

	switch b {
	case gpio.ButtonA:
		a.Controller.ButtonA()
	case gpio.ButtonB:
		if a.Controller.ButtonB() || !a.Controller.Home() {
			return
		}
		if a.Alarm.Sleeping() {
			a.Alarm.CancelSleep()
		} else {
			a.Alarm.Sleep(now, logic.DefaultSnooze)
		}
	case gpio.ButtonX:
		a.Controller.ButtonX()
	case gpio.ButtonY:
		a.Controller.ButtonY()
	}
}
