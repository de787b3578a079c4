// Package app wires the decorator together: storage, catalog, the
// decoration store, the placement controller, the scene and the overlay,
// and runs them in one render loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/blobstore"
	"tree-decor/internal/catalog"
	"tree-decor/internal/commands"
	"tree-decor/internal/config"
	"tree-decor/internal/debug"
	"tree-decor/internal/decor"
	"tree-decor/internal/editor"
	"tree-decor/internal/fonts"
	"tree-decor/internal/geom"
	"tree-decor/internal/graphics"
	"tree-decor/internal/logger"
	"tree-decor/internal/particles"
	"tree-decor/internal/scene"
	"tree-decor/internal/state"
	"tree-decor/internal/storage"
	"tree-decor/internal/terminal"
	"tree-decor/internal/textures"
	"tree-decor/internal/ui"
)

// Content directory layout.
const (
	CatalogFile = "catalog.json"
	DecorFile   = "decor.json"
)

// App is one running decorator. Everything except the background jobs runs
// on the render goroutine.
type App struct {
	cfg     config.Config
	cfgPath string
	log     *logger.Logger
	slog    *slog.Logger

	db      *storage.DB
	state   state.Store
	blobs   *blobstore.Store
	library *catalog.Library
	catalog *catalog.Catalog
	decor   *decor.Store
	session *editor.Session
	ctrl    *editor.Controller
	tex     *textures.Cache

	scene  *scene.Scene
	snow   *particles.Field
	snowOn bool

	reg       *commands.Registry
	term      *terminal.Terminal
	dbg       *debug.Debug
	ui        *ui.Engine
	hud       *ui.HUD
	inspector *ui.Inspector
	nodes     []*ui.Node

	tip      editor.Tooltip
	tipShown bool
	fontDone bool

	jobs chan func()
	wg   sync.WaitGroup
}

// Options configures New.
type Options struct {
	Config     config.Config
	ConfigPath string
	Log        *logger.Logger
	// Seed fixes the snow layout; zero picks one from the clock.
	Seed uint64
}

// New opens storage, loads the catalog and the saved arrangement and builds
// every component. It needs no window.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = logger.New(cfg.LogPath)
	}
	a := &App{
		cfg:     cfg,
		cfgPath: opts.ConfigPath,
		log:     log,
		slog:    log.Slog(parseLevel(cfg.LogLevel)),
		snowOn:  cfg.Snow.Enabled,
		jobs:    make(chan func(), 16),
	}
	if err := a.openStores(); err != nil {
		return nil, err
	}
	if err := a.loadCatalog(ctx); err != nil {
		a.Close()
		return nil, err
	}

	opt := []decor.Option{decor.WithLogger(a.slog)}
	if !cfg.Editing() {
		opt = append(opt, decor.ReadOnly())
	}
	a.decor = decor.NewStore(a.state, opt...)
	a.session = editor.NewSession(a.catalog, cfg.Editing())
	if cfg.PlacementScale > 0 {
		a.session.PlacementScale = decor.Clamp(cfg.PlacementScale)
	}
	restored, err := a.decor.Restore(ctx, a.catalog.Has, a.session.PlacementScale)
	if err != nil {
		a.slog.Warn("arrangement not restored", "err", err)
	}
	a.slog.Info("arrangement restored", "decorations", len(restored), "mode", cfg.Mode)

	a.tex = textures.NewCache(a.catalog.Lookup, textures.Source{Blobs: a.blobs, Root: cfg.ContentDir}, a.slog)
	a.scene = scene.New(scene.Options{
		ModelPath:   cfg.ModelPath,
		ModelHeight: cfg.ModelHeight,
		StandRadius: cfg.Stand.Radius,
		StandHeight: cfg.Stand.Height,
		Log:         a.slog,
	}, a.tex)
	a.ctrl = editor.NewController(a.session, a.decor, a.scene.Caster(),
		editor.WithNotifier(a.log),
		editor.WithLogger(a.slog),
		editor.WithSurfaceOffset(cfg.SurfaceOffset),
		editor.WithAspect(a.tex.Aspect),
	)
	a.ctrl.SetView(a.scene.Camera, geom.Viewport{Width: 1280, Height: 800})

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Snow.Seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	a.snow = particles.NewField(cfg.Particles(), rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))

	a.reg = commands.NewRegistry()
	a.registerCommands()
	a.term = terminal.New(a.log, a.reg)
	a.dbg = debug.New()
	a.dbg.ShowFPS = cfg.ShowFPS
	a.dbg.ShowMemAlloc = cfg.ShowMemAlloc
	a.dbg.Counts = a.counters
	a.ui = ui.New()
	if cfg.Stylesheet != "" {
		if err := a.ui.LoadCSS(cfg.Stylesheet); err != nil {
			a.slog.Warn("stylesheet not loaded", "path", cfg.Stylesheet, "err", err)
		}
	}
	a.hud = ui.NewHUD()
	a.inspector = ui.NewInspector()
	return a, nil
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// openStores picks the state store and the blob driver. View mode reads the
// content directory and never writes.
func (a *App) openStores() error {
	cfg := a.cfg
	if !cfg.Editing() {
		a.state = state.NewDir(cfg.ContentDir, map[string]string{decor.StateKey: DecorFile})
		a.blobs = blobstore.New(blobstore.NewMemory(), blobstore.WithLogger(a.slog))
		return nil
	}
	if cfg.BlobDriver == blobstore.DriverMemory {
		a.state = state.NewMemory()
		a.blobs = blobstore.New(blobstore.NewMemory(), blobstore.WithLogger(a.slog))
		return nil
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	a.db = db
	a.state = db
	switch cfg.BlobDriver {
	case blobstore.DriverFS:
		fs, err := blobstore.NewFS(cfg.BlobDir)
		if err != nil {
			_ = db.Close()
			return err
		}
		a.blobs = blobstore.New(fs, blobstore.WithLogger(a.slog))
	default:
		a.blobs = blobstore.New(db.Blobs(), blobstore.WithLogger(a.slog))
	}
	a.slog.Info("storage open", "db", db.Path(), "blobs", a.blobs.Driver())
	return nil
}

func (a *App) loadCatalog(ctx context.Context) error {
	base, err := catalog.LoadBase(filepath.Join(a.cfg.ContentDir, CatalogFile))
	if err != nil {
		return err
	}
	if !a.cfg.Editing() {
		a.catalog, err = catalog.Merge(base, nil)
		return err
	}
	a.library, err = catalog.NewLibrary(base, a.state, a.blobs, catalog.WithLibraryLogger(a.slog))
	if err != nil {
		return err
	}
	if err := a.library.Load(ctx); err != nil {
		a.slog.Warn("custom catalog not loaded", "err", err)
	}
	a.catalog = a.library.Catalog()
	return nil
}

// setCatalog publishes a re-merged catalog to every reader.
func (a *App) setCatalog(cat *catalog.Catalog) {
	a.catalog = cat
	a.session.SetCatalog(cat)
	a.tex.SetLookup(cat.Lookup)
}

// Close waits for background jobs, dropping their results, and closes storage.
func (a *App) Close() error {
	a.wait(func(func()) {})
	if a.session != nil {
		a.session.Close()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Run opens the window and blocks until it is closed.
func (a *App) Run() {
	graphics.Run(graphics.Window{Title: "Tree Decorator"}, a.Update, a.Draw)
	a.scene.Unload()
}

// background runs work off the render goroutine. done, if non-nil, is
// queued back and runs on the render goroutine in a later Update.
func (a *App) background(work func() func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if done := work(); done != nil {
			a.jobs <- done
		}
	}()
}

// runJobs applies finished background work.
func (a *App) runJobs() {
	for {
		select {
		case job := <-a.jobs:
			job()
		default:
			return
		}
	}
}

// Settle waits for background work and applies its results.
func (a *App) Settle() {
	a.wait(func(job func()) { job() })
}

// wait blocks until every background goroutine is done, handing each
// result queued meanwhile to apply. Results are drained while waiting so a
// full queue never blocks a finishing job.
func (a *App) wait(apply func(job func())) {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	for {
		select {
		case job := <-a.jobs:
			apply(job)
		case <-done:
			for {
				select {
				case job := <-a.jobs:
					apply(job)
				default:
					return
				}
			}
		}
	}
}

// Update advances one frame: console, pointer and keys, camera and snow.
func (a *App) Update(dt float32) {
	a.runJobs()
	consumed := a.term.Update()
	vp := geom.Viewport{Width: float32(rl.GetScreenWidth()), Height: float32(rl.GetScreenHeight())}
	a.ctrl.SetView(a.scene.Camera, vp)
	in := readInput(!consumed && !a.term.IsOpen())
	a.apply(context.Background(), Events(in, a.ctrl.Dragging()))
	a.tip, a.tipShown = a.ctrl.Hover(in.X, in.Y)
	a.scene.Update(dt, a.ctrl.Dragging())
	a.step(dt)
}

// apply feeds events to the controller and logs what changed.
func (a *App) apply(ctx context.Context, events []editor.Event) {
	for _, ev := range events {
		if ch := a.ctrl.Handle(ctx, ev); ch != editor.NoChange && ch != editor.Moved {
			a.slog.Debug("edit", "change", ch.String())
		}
	}
}

func (a *App) step(dt float32) {
	if a.snowOn {
		a.snow.Step(dt)
	}
}

// Draw renders the scene and the overlay.
func (a *App) Draw() {
	a.loadFont()
	frame := scene.Frame{
		Decorations: a.decor.List(),
		Selected:    a.session.Selected,
	}
	if a.tipShown {
		frame.Hovered = a.tip.Decoration
	}
	if a.snowOn {
		frame.Snow = a.snow
	}
	a.scene.Draw(frame)

	a.nodes = a.overlay(a.nodes[:0])
	a.ui.SetNodes(a.nodes)
	a.ui.Draw()
	a.dbg.Draw()
	a.term.Draw()
}

// overlay builds the overlay nodes for the current frame.
func (a *App) overlay(dst []*ui.Node) []*ui.Node {
	tip := ""
	if a.tipShown {
		tip = ui.TooltipText(a.tip.Name, a.tip.Attribution, a.tip.Note)
	}
	dst = a.hud.AppendNodes(dst, a.status(), tip, a.tip.X, a.tip.Y)
	sel := a.session.Selected
	if sel == nil {
		return dst
	}
	s := ui.Selection{
		CatalogID:   sel.CatalogID,
		Position:    [3]float32{sel.Position.X, sel.Position.Y, sel.Position.Z},
		Scale:       sel.Scale,
		Attribution: sel.Attribution,
		Note:        sel.Note,
	}
	if e, ok := a.catalog.Lookup(sel.CatalogID); ok {
		s.Name = e.Name
	}
	return a.inspector.AppendNodes(dst, true, s)
}

func (a *App) status() ui.Status {
	c := a.counters()
	return ui.Status{
		Mode:     a.cfg.Mode,
		Active:   a.session.ActiveID,
		Scale:    a.session.PlacementScale,
		Count:    a.decor.Len(),
		Selected: a.session.Selected != nil,
		Dragging: a.ctrl.Dragging(),
		SnowOn:   a.snowOn,
		Pending:  c.Pending,
	}
}

func (a *App) counters() debug.Counters {
	c := debug.Counters{Decorations: a.decor.Len(), Textures: a.scene.Textures(), Fetches: a.tex.Fetches()}
	if a.snowOn {
		c.Particles = a.snow.Len()
	}
	seen := make(map[string]bool)
	for _, d := range a.decor.List() {
		if seen[d.CatalogID] {
			continue
		}
		seen[d.CatalogID] = true
		if _, st := a.tex.Peek(d.CatalogID); st == textures.Pending {
			c.Pending++
		}
	}
	return c
}

// loadFont loads the configured font once the GL context exists.
func (a *App) loadFont() {
	if a.fontDone {
		return
	}
	a.fontDone = true
	if a.cfg.Font == "" {
		return
	}
	path, err := fonts.Find(fonts.Dirs(a.cfg.ContentDir), a.cfg.Font)
	if err == nil {
		err = a.ui.LoadFont(path)
	}
	if err != nil {
		a.slog.Warn("font not loaded", "font", a.cfg.Font, "err", err)
		return
	}
	a.term.SetFont(a.ui.Font())
	a.dbg.SetFont(a.ui.Font())
}

// userError formats err for the console.
func userError(op string, err error) error {
	var msg string
	switch {
	case errors.Is(err, context.Canceled):
		msg = "cancelled"
	default:
		msg = err.Error()
	}
	return fmt.Errorf("%s failed: %s", op, msg)
}
