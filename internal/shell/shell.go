// Package shell owns the dashboard document: it mounts page fragments into
// the content region, starts and stops polling as the dashboard fragment
// comes and goes, and is the surface readouts and canvases are written to.
package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/abelzeko/station-dashboard/internal/entities"
	"github.com/abelzeko/station-dashboard/internal/view"
)

// ErrUnknownFragment is returned when a fragment cannot be found
var ErrUnknownFragment = errors.New("unknown fragment")

// Defaults
const (
	HomeFragment   = "home.html"
	ParamsFragment = "params.html"
	InitializerID  = "dashboard-init"
	FailedText     = "Failed to load content."
)

// Lifecycle is the polling lifecycle driven by mounts
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop()
}

// Redrawer repaints a component onto freshly mounted canvases
type Redrawer interface {
	Redraw()
}

// Options configure a Shell
type Options struct {
	// Home is the fragment that carries the dashboard initializer
	Home string
	// InitializerID identifies the initializer element for deduplication
	InitializerID string
	Logger        *zap.Logger
}

// Shell is the in-memory dashboard document
type Shell struct {
	loader Loader
	home   string
	initID string
	logger *zap.Logger

	mu  sync.RWMutex
	doc *goquery.Document

	bindMu    sync.Mutex
	runCtx    context.Context
	lifecycle Lifecycle
	redrawers []Redrawer
}

// New parses the layout and returns a shell with an empty content region
func New(loader Loader, opts Options) (*Shell, error) {
	if loader == nil {
		return nil, errors.New("shell needs a fragment loader")
	}
	if opts.Home == "" {
		opts.Home = HomeFragment
	}
	if opts.InitializerID == "" {
		opts.InitializerID = InitializerID
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(layoutHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if doc.Find("#"+view.ContentRegion).Length() == 0 {
		return nil, fmt.Errorf("layout has no #%s region", view.ContentRegion)
	}

	return &Shell{
		loader: loader,
		home:   opts.Home,
		initID: opts.InitializerID,
		logger: opts.Logger,
		doc:    doc,
	}, nil
}

// Bind attaches the polling lifecycle and the components to repaint after
// the dashboard is mounted. ctx bounds every lifecycle started by a mount.
func (s *Shell) Bind(ctx context.Context, lifecycle Lifecycle, redrawers ...Redrawer) {
	s.bindMu.Lock()
	defer s.bindMu.Unlock()
	s.runCtx = ctx
	s.lifecycle = lifecycle
	s.redrawers = redrawers
}

// Home returns the name of the dashboard fragment
func (s *Shell) Home() string {
	return s.home
}

// Mount replaces the content region with a fragment. Mounting the home
// fragment attaches its initializer once and starts polling, restarting it
// when already running; any other fragment stops polling. A fragment that
// fails to load leaves a failure message in the content region.
func (s *Shell) Mount(ctx context.Context, fragment string) error {
	s.logger.Info("Mounting fragment", zap.String("fragment", fragment))

	markup, err := s.loader.Load(ctx, fragment)

	s.mu.Lock()
	region := s.doc.Find("#" + view.ContentRegion)
	if err != nil {
		region.SetHtml(`<p class="load-error">` + FailedText + `</p>`)
		region.RemoveAttr("data-current")
		s.mu.Unlock()

		s.logger.Error("Error loading fragment", zap.String("fragment", fragment), zap.Error(err))
		s.stop()
		return fmt.Errorf("failed to load fragment %s: %w", fragment, err)
	}
	region.SetHtml(markup)
	region.SetAttr("data-current", fragment)

	isHome := fragment == s.home
	if isHome && s.doc.Find("#"+s.initID).Length() == 0 {
		s.doc.Find("body").AppendHtml(`<script id="` + s.initID + `" data-fragment="` + fragment + `"></script>`)
		s.logger.Debug("Attached dashboard initializer", zap.String("id", s.initID))
	}
	s.mu.Unlock()

	if !isHome {
		s.stop()
		return nil
	}
	return s.start()
}

func (s *Shell) start() error {
	s.bindMu.Lock()
	ctx, lifecycle, redrawers := s.runCtx, s.lifecycle, s.redrawers
	s.bindMu.Unlock()

	for _, r := range redrawers {
		r.Redraw()
	}
	if lifecycle == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := lifecycle.Start(ctx); err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	return nil
}

func (s *Shell) stop() {
	s.bindMu.Lock()
	lifecycle := s.lifecycle
	s.bindMu.Unlock()

	if lifecycle != nil {
		lifecycle.Stop()
	}
}

// Current returns the mounted fragment, or "" when none is loaded
func (s *Shell) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	current, _ := s.doc.Find("#" + view.ContentRegion).Attr("data-current")
	return current
}

// Initializers counts the attached dashboard initializers
func (s *Shell) Initializers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Find("#" + s.initID).Length()
}

// SetText replaces an element's text. Writes to elements that are not
// mounted are dropped.
func (s *Shell) SetText(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.doc.Find("#" + id)
	if sel.Length() == 0 {
		return
	}
	sel.SetText(text)
}

// Text returns an element's trimmed text
func (s *Shell) Text(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.doc.Find("#" + id).Text())
}

// ContentText returns the text of the content region
func (s *Shell) ContentText() string {
	return s.Text(view.ContentRegion)
}

// RangeControls lists the ranges offered by the mounted range buttons
func (s *Shell) RangeControls() []entities.Range {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ranges []entities.Range
	s.doc.Find("#" + view.ContentRegion + " .range-btn[data-range]").Each(func(_ int, sel *goquery.Selection) {
		raw, _ := sel.Attr("data-range")
		rng, err := entities.ParseRange(raw)
		if err != nil {
			s.logger.Warn("Ignoring range control", zap.String("range", raw), zap.Error(err))
			return
		}
		ranges = append(ranges, rng)
	})
	return ranges
}

// Attr returns an attribute of an element
func (s *Shell) Attr(id, name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Find("#" + id).Attr(name)
}

// HTML renders the whole document
func (s *Shell) HTML() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return goquery.OuterHtml(s.doc.Selection)
}

var _ view.Surface = (*Shell)(nil)
