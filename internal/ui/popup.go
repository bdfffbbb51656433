//go:build !nogtk && cgo

package ui

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cpuguy83/anomalybar/internal/board"
	"github.com/cpuguy83/anomalybar/internal/links"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// cardWidgets are the labels of one card row that change on every tick.
type cardWidgets struct {
	row     *gtk.Box
	primary *gtk.Label
	meta    *gtk.Label
}

// Popup is the popup window listing the anomaly board.
type Popup struct {
	window    *gtk.Window
	content   *gtk.Box
	listBox   *gtk.ListBox
	statusBar *gtk.Label

	mu       sync.RWMutex
	view     *board.View
	loadErr  error
	lastSync time.Time
	loading  bool

	// widgets maps the shown cards to their rows. Main thread only.
	widgets map[*board.Card]*cardWidgets

	dismissTimer glib.SourceHandle
	onOpen       func(url string)
}

// NewPopup creates a new popup window.
func NewPopup() *Popup {
	return &Popup{
		loading: true,
		widgets: make(map[*board.Card]*cardWidgets),
	}
}

// Init initializes the GTK widgets. Must be called from GTK main thread.
func (p *Popup) Init() {
	adw.Init()

	p.window = gtk.NewWindow()
	p.window.SetTitle("AnomalyBar")
	p.window.SetDefaultSize(400, 560)

	if gtk4layershell.IsSupported() {
		slog.Debug("layer shell supported")
		gtk4layershell.InitForWindow(p.window)
		gtk4layershell.SetLayer(p.window, gtk4layershell.LayerShellLayerTop)
		gtk4layershell.SetAnchor(p.window, gtk4layershell.LayerShellEdgeTop, true)
		gtk4layershell.SetAnchor(p.window, gtk4layershell.LayerShellEdgeRight, true)
		gtk4layershell.SetMargin(p.window, gtk4layershell.LayerShellEdgeTop, 8)
		gtk4layershell.SetMargin(p.window, gtk4layershell.LayerShellEdgeRight, 8)
		gtk4layershell.SetKeyboardMode(p.window, gtk4layershell.LayerShellKeyboardModeOnDemand)
		gtk4layershell.SetNamespace(p.window, "anomalybar-popup")
		p.window.SetDecorated(false)

		// Auto-dismiss on focus loss
		p.window.NotifyProperty("is-active", func() {
			if !p.window.IsVisible() {
				return
			}
			if p.window.IsActive() {
				if p.dismissTimer != 0 {
					glib.SourceRemove(p.dismissTimer)
					p.dismissTimer = 0
				}
				return
			}
			p.mu.RLock()
			loading := p.loading
			p.mu.RUnlock()
			if !loading && p.dismissTimer == 0 {
				p.dismissTimer = glib.TimeoutAdd(300, func() bool {
					if p.window.IsVisible() && !p.window.IsActive() {
						p.hideAll()
					}
					p.dismissTimer = 0
					return false
				})
			}
		})
	}

	p.window.ConnectCloseRequest(func() bool {
		p.window.SetVisible(false)
		return true
	})

	keyController := gtk.NewEventControllerKey()
	keyController.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape {
			p.hideAll()
			return true
		}
		return false
	})
	p.window.AddController(keyController)

	p.buildUI()
	p.applyCSS()
	p.updateList()
}

func (p *Popup) buildUI() {
	p.content = gtk.NewBox(gtk.OrientationVertical, 0)
	p.content.AddCSSClass("popup-container")
	p.window.SetChild(p.content)

	header := gtk.NewBox(gtk.OrientationHorizontal, 0)
	header.AddCSSClass("popup-header")
	icon := gtk.NewImageFromIconName("appointment-soon-symbolic")
	icon.AddCSSClass("header-icon")
	icon.SetPixelSize(20)
	header.Append(icon)
	title := gtk.NewLabel("Anomalies")
	title.AddCSSClass("header-title")
	title.SetHExpand(true)
	title.SetXAlign(0)
	header.Append(title)
	p.content.Append(header)

	scrolled := gtk.NewScrolledWindow()
	scrolled.SetVExpand(true)
	scrolled.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	p.content.Append(scrolled)

	p.listBox = gtk.NewListBox()
	p.listBox.SetSelectionMode(gtk.SelectionNone)
	p.listBox.AddCSSClass("anomaly-list")
	scrolled.SetChild(p.listBox)

	p.statusBar = gtk.NewLabel("")
	p.statusBar.AddCSSClass("status-bar")
	p.statusBar.SetXAlign(0)
	p.content.Append(p.statusBar)
}

// applyCSS applies the card styling with libadwaita color variables.
func (p *Popup) applyCSS() {
	css := `
		.popup-container {
			background: @window_bg_color;
			border-radius: 12px;
			border: 1px solid alpha(@borders, 0.5);
		}

		.popup-header {
			padding: 16px 16px 12px 16px;
			border-bottom: 1px solid alpha(@borders, 0.3);
		}

		.header-icon {
			margin-right: 10px;
			color: @accent_color;
		}

		.header-title {
			font-size: 15px;
			font-weight: 600;
		}

		.anomaly-list, .anomaly-list > row {
			background: transparent;
			padding: 0;
		}

		.series-separator {
			padding: 8px 16px 6px 16px;
			font-size: 11px;
			font-weight: 600;
			color: alpha(@view_fg_color, 0.5);
			text-transform: uppercase;
			letter-spacing: 0.5px;
			background: alpha(@view_bg_color, 0.3);
		}

		.anomaly-card {
			padding: 10px 16px 10px 12px;
			border-left: 4px solid transparent;
			border-bottom: 1px solid alpha(@borders, 0.2);
		}

		.anomaly-card.border-active { border-left-color: @accent_color; }
		.anomaly-card.border-resistance-won { border-left-color: #0088ff; }
		.anomaly-card.border-enlightened-won { border-left-color: #03dc03; }
		.anomaly-card.border-prep { border-left-color: @warning_color; }
		.anomaly-card.highlight-today { background: alpha(@accent_color, 0.06); }
		.anomaly-card.pulse .countdown { color: @accent_color; font-weight: 700; }
		.anomaly-card.dim { opacity: 0.55; }
		.anomaly-card.past .card-time { text-decoration: line-through; }

		.card-title {
			font-size: 14px;
			font-weight: 500;
		}

		.countdown {
			font-size: 13px;
			font-weight: 600;
		}

		.card-time, .card-meta {
			font-size: 12px;
			color: alpha(@view_fg_color, 0.6);
			margin-top: 2px;
		}

		.link-btn {
			min-height: 26px;
			padding: 0 10px;
			border-radius: 8px;
			font-size: 12px;
			margin: 6px 6px 0 0;
		}

		.status-bar {
			padding: 8px 16px;
			font-size: 11px;
			color: alpha(@view_fg_color, 0.5);
			border-top: 1px solid alpha(@borders, 0.2);
			border-radius: 0 0 12px 12px;
		}

		.status-bar.stale {
			color: @warning_color;
		}

		.empty-state {
			padding: 48px 24px;
		}

		.empty-icon {
			opacity: 0.3;
			margin-bottom: 16px;
		}

		.empty-subtitle {
			font-size: 13px;
			color: alpha(@view_fg_color, 0.5);
		}
	`

	provider := gtk.NewCSSProvider()
	provider.LoadFromData(css)

	if display := gdk.DisplayGetDefault(); display != nil {
		gtk.StyleContextAddProviderForDisplay(display, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	}
}

// Show shows the popup window.
func (p *Popup) Show() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(func() {
		p.updateList()
		p.window.SetVisible(true)
		p.window.Present()
	})
}

// Hide hides the popup window.
func (p *Popup) Hide() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(p.hideAll)
}

func (p *Popup) hideAll() {
	p.window.SetVisible(false)
	if p.dismissTimer != 0 {
		glib.SourceRemove(p.dismissTimer)
		p.dismissTimer = 0
	}
}

// Toggle shows or hides the popup.
func (p *Popup) Toggle() {
	if p.window == nil {
		return
	}
	glib.IdleAdd(func() {
		if p.window.IsVisible() {
			p.hideAll()
			return
		}
		p.updateList()
		p.window.SetVisible(true)
		p.window.Present()
	})
}

// SetView replaces the board. A non-nil err keeps the last sync time so the
// status bar can show the board as stale.
func (p *Popup) SetView(v *board.View, err error) {
	p.mu.Lock()
	p.view = v
	p.loadErr = err
	if err == nil {
		p.lastSync = time.Now()
	}
	p.loading = false
	p.mu.Unlock()

	glib.IdleAdd(p.updateList)
}

// CardChanged redraws the row of c, if it is shown.
func (p *Popup) CardChanged(c *board.Card) {
	glib.IdleAdd(func() {
		p.updateCard(c)
	})
}

// OnOpen sets the callback for when a link button is clicked.
func (p *Popup) OnOpen(fn func(url string)) {
	p.onOpen = fn
}

func (p *Popup) updateList() {
	if p.listBox == nil {
		return
	}

	for child := p.listBox.FirstChild(); child != nil; child = p.listBox.FirstChild() {
		p.listBox.Remove(child)
	}
	p.widgets = make(map[*board.Card]*cardWidgets)

	p.mu.RLock()
	v, loadErr, loading := p.view, p.loadErr, p.loading
	p.mu.RUnlock()

	switch {
	case loading:
		p.showLoadingState()
	case v == nil:
		msg := board.ErrNothingToShow
		if loadErr != nil {
			msg = loadErr
		}
		p.showEmptyState(board.Message(msg))
	default:
		for _, c := range v.Cards() {
			if c.SeriesBreak {
				title := c.Event.Series
				if title == "" {
					title = "Anomalies"
				}
				sep := gtk.NewLabel(title)
				sep.AddCSSClass("series-separator")
				sep.SetXAlign(0)
				p.listBox.Append(sep)
			}
			p.listBox.Append(p.createCardRow(c))
		}
	}

	p.updateStatusBar()
}

func (p *Popup) showLoadingState() {
	box := gtk.NewBox(gtk.OrientationVertical, 0)
	box.AddCSSClass("empty-state")
	box.SetHAlign(gtk.AlignCenter)
	box.SetVAlign(gtk.AlignCenter)
	box.SetVExpand(true)

	spinner := gtk.NewSpinner()
	spinner.SetSizeRequest(32, 32)
	spinner.Start()
	box.Append(spinner)

	label := gtk.NewLabel("Loading anomalies...")
	label.AddCSSClass("empty-subtitle")
	box.Append(label)

	p.listBox.Append(box)
}

func (p *Popup) showEmptyState(msg string) {
	box := gtk.NewBox(gtk.OrientationVertical, 0)
	box.AddCSSClass("empty-state")
	box.SetHAlign(gtk.AlignCenter)
	box.SetVAlign(gtk.AlignCenter)
	box.SetVExpand(true)

	icon := gtk.NewImageFromIconName("weather-clear-symbolic")
	icon.AddCSSClass("empty-icon")
	icon.SetPixelSize(48)
	box.Append(icon)

	label := gtk.NewLabel(msg)
	label.AddCSSClass("empty-subtitle")
	label.SetWrap(true)
	box.Append(label)

	p.listBox.Append(box)
}

func (p *Popup) createCardRow(c *board.Card) *gtk.Box {
	r := rowFor(c)

	row := gtk.NewBox(gtk.OrientationVertical, 0)
	row.AddCSSClass("anomaly-card")

	top := gtk.NewBox(gtk.OrientationHorizontal, 8)
	title := gtk.NewLabel(r.Title)
	title.AddCSSClass("card-title")
	title.SetXAlign(0)
	title.SetHExpand(true)
	title.SetEllipsize(3) // PANGO_ELLIPSIZE_END
	top.Append(title)
	primary := gtk.NewLabel(r.Primary)
	primary.AddCSSClass("countdown")
	top.Append(primary)
	row.Append(top)

	when := gtk.NewLabel(r.Secondary)
	when.AddCSSClass("card-time")
	when.SetXAlign(0)
	row.Append(when)

	meta := gtk.NewLabel(r.Meta)
	meta.AddCSSClass("card-meta")
	meta.SetXAlign(0)
	meta.SetEllipsize(3)
	meta.SetVisible(r.Meta != "")
	row.Append(meta)

	if len(r.Links) > 0 {
		buttons := gtk.NewBox(gtk.OrientationHorizontal, 0)
		for _, l := range r.Links {
			buttons.Append(p.createLinkButton(l))
		}
		row.Append(buttons)
	}

	setClasses(row, r.Classes)
	p.widgets[c] = &cardWidgets{row: row, primary: primary, meta: meta}
	return row
}

func (p *Popup) updateCard(c *board.Card) {
	w, ok := p.widgets[c]
	if !ok {
		return
	}
	r := rowFor(c)
	w.primary.SetText(r.Primary)
	w.meta.SetText(r.Meta)
	w.meta.SetVisible(r.Meta != "")
	setClasses(w.row, r.Classes)
	p.updateStatusBar()
}

func setClasses(row *gtk.Box, classes []string) {
	for _, k := range cardClasses {
		row.RemoveCSSClass(k)
	}
	for _, k := range classes {
		row.AddCSSClass(k)
	}
}

func (p *Popup) createLinkButton(l links.Link) *gtk.Button {
	btn := gtk.NewButtonWithLabel(l.Label)
	btn.AddCSSClass("link-btn")
	btn.ConnectClicked(func() {
		slog.Debug("link clicked", "url", l.URL)
		if p.onOpen != nil {
			p.onOpen(l.URL)
		} else {
			links.Open(l.URL)
		}
		p.Hide()
	})
	return btn
}

func (p *Popup) updateStatusBar() {
	if p.statusBar == nil {
		return
	}

	p.mu.RLock()
	v, loadErr, lastSync, loading := p.view, p.loadErr, p.lastSync, p.loading
	p.mu.RUnlock()

	var cards int
	if v != nil {
		cards = len(v.Cards())
	}
	text, stale := statusText(loading, loadErr, lastSync, cards)

	p.statusBar.RemoveCSSClass("stale")
	if stale {
		p.statusBar.AddCSSClass("stale")
	}
	p.statusBar.SetText(text)
}
