package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"tree-decor/internal/archive"
	"tree-decor/internal/catalog"
	"tree-decor/internal/commands"
	"tree-decor/internal/config"
	"tree-decor/internal/decor"
	"tree-decor/internal/download"
	"tree-decor/internal/editor"
	"tree-decor/internal/faults"
)

var errViewMode = errors.New("read-only in view mode")

func (a *App) registerCommands() {
	r := a.reg
	r.Register("help", "list commands", nil, func([]string) error {
		for _, line := range r.Help() {
			a.log.Log(line)
		}
		return nil
	})
	r.Register("toys", "list catalog entries (* = active)", nil, a.cmdToys)
	r.Register("toy", "<id>  use this entry for new placements", nil, a.cmdToy)

	scaleFS := commands.NewFlagSet("scale")
	placement := scaleFS.Bool("placement", false, "set the placement scale even when something is selected")
	r.Register("scale", "<value>  scale the selection, or the next placement", scaleFS, func(args []string) error {
		return a.cmdScale(args, *placement)
	})

	r.Register("delete", "delete the selected decoration", nil, a.edit(editor.Delete{}))
	r.Register("deselect", "clear the selection", nil, a.edit(editor.Deselect{}))
	r.Register("clear", "remove every decoration and the saved arrangement", nil, a.edit(editor.Clear{}))

	nudgeFS := commands.NewFlagSet("nudge")
	coarse := nudgeFS.Bool("coarse", false, "step 0.06")
	fine := nudgeFS.Bool("fine", false, "step 0.008")
	r.Register("nudge", "<left|right|up|down>  move the selection along the view", nudgeFS, func(args []string) error {
		return a.cmdNudge(args, *coarse, *fine)
	})

	addFS := commands.NewFlagSet("add")
	name := addFS.String("name", "", "display name (default: file name)")
	by := addFS.String("by", "", "attribution")
	note := addFS.String("note", "", "note shown in the tooltip")
	scale := addFS.Float32("scale", 0, "default scale (default: current placement scale)")
	r.Register("add", "<file|url>  add a custom decoration", addFS, func(args []string) error {
		return a.cmdAdd(args, catalog.Upload{Name: *name, Attribution: *by, Note: *note, DefaultScale: *scale})
	})
	r.Register("remove", "<id>  remove a custom decoration and its placements", nil, a.cmdRemove)

	r.Register("export", "<file.zip>  write catalog, arrangement and assets", nil, a.cmdExport)
	importFS := commands.NewFlagSet("import")
	dir := importFS.String("dir", "", "target directory (default: content dir)")
	r.Register("import", "<file.zip>  unpack an export into the content directory", importFS, func(args []string) error {
		return a.cmdImport(args, *dir)
	})

	r.Register("snow", "[on|off]  toggle the snow", nil, func(args []string) error {
		on, err := toggle(args, a.snowOn)
		if err != nil {
			return err
		}
		a.snowOn = on
		a.log.Log("snow " + onOff(on))
		return nil
	})
	r.Register("spin", "[on|off]  toggle the idle camera spin", nil, func(args []string) error {
		on, err := toggle(args, a.scene.Orbit.AutoRotate)
		if err != nil {
			return err
		}
		a.scene.Orbit.AutoRotate = on
		a.log.Log("spin " + onOff(on))
		return nil
	})
	r.Register("debug", "<fps|mem|counts>  toggle an overlay", nil, func(args []string) error {
		if len(args) != 1 || !a.dbg.Toggle(args[0]) {
			return fmt.Errorf("usage: cmd debug <fps|mem|counts>")
		}
		return nil
	})
	r.Register("config", "save  write the current settings", nil, func(args []string) error {
		if len(args) != 1 || args[0] != "save" {
			return fmt.Errorf("usage: cmd config save")
		}
		cfg := a.cfg
		cfg.Snow.Enabled = a.snowOn
		cfg.PlacementScale = a.session.PlacementScale
		cfg.ShowFPS, cfg.ShowMemAlloc = a.dbg.ShowFPS, a.dbg.ShowMemAlloc
		path := a.cfgPath
		if path == "" {
			path = config.DefaultPath
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		a.log.Log("settings saved to " + path)
		return nil
	})
}

// edit returns a command that sends ev to the controller.
func (a *App) edit(ev editor.Event) func([]string) error {
	return func([]string) error {
		if !a.session.Editing {
			return errViewMode
		}
		ch := a.ctrl.Handle(context.Background(), ev)
		if ch == editor.NoChange {
			a.log.Log("nothing to do")
			return nil
		}
		a.log.Log(ch.String())
		return nil
	}
}

func (a *App) cmdToys([]string) error {
	custom := make(map[string]bool)
	if a.library != nil {
		for _, e := range a.library.Custom() {
			custom[e.ID] = true
		}
	}
	for _, e := range a.catalog.Entries() {
		mark := " "
		if e.ID == a.session.ActiveID {
			mark = "*"
		}
		line := fmt.Sprintf("%s %s  %s  (scale %.2f)", mark, e.ID, e.Name, e.DefaultScale)
		if custom[e.ID] {
			line += "  [custom]"
		}
		a.log.Log(line)
	}
	return nil
}

func (a *App) cmdToy(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cmd toy <id>")
	}
	if !a.session.Editing {
		return errViewMode
	}
	if a.ctrl.Handle(context.Background(), editor.SelectCatalog{ID: args[0]}) == editor.NoChange {
		return fmt.Errorf("toy %q: %w", args[0], faults.ErrNotFound)
	}
	a.log.Log("active toy: " + args[0])
	return nil
}

func (a *App) cmdScale(args []string, placement bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cmd scale <value>")
	}
	if !a.session.Editing {
		return errViewMode
	}
	v, err := strconv.ParseFloat(args[0], 32)
	if err != nil || v <= 0 {
		return fmt.Errorf("scale: %q is not a positive number", args[0])
	}
	if placement && a.session.Selected != nil {
		a.session.PlacementScale = decor.Clamp(float32(v))
		a.log.Log(fmt.Sprintf("placement scale %.2f", a.session.PlacementScale))
		return nil
	}
	switch a.ctrl.Handle(context.Background(), editor.SetScale{Value: float32(v)}) {
	case editor.Scaled:
		a.log.Log(fmt.Sprintf("scale %.2f", a.session.Selected.Scale))
	default:
		a.log.Log(fmt.Sprintf("placement scale %.2f", a.session.PlacementScale))
	}
	return nil
}

func (a *App) cmdNudge(args []string, coarse, fine bool) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cmd nudge <left|right|up|down>")
	}
	dirs := map[string]rl.Vector2{
		"left":  rl.NewVector2(-1, 0),
		"right": rl.NewVector2(1, 0),
		"up":    rl.NewVector2(0, 1),
		"down":  rl.NewVector2(0, -1),
	}
	dir, ok := dirs[args[0]]
	if !ok {
		return fmt.Errorf("nudge: unknown direction %q", args[0])
	}
	return a.edit(editor.Nudge{Dir: dir, Step: NudgeStep(coarse, fine)})(nil)
}

// cmdAdd reads or downloads the image in the background, then ingests it on
// the render goroutine.
func (a *App) cmdAdd(args []string, up catalog.Upload) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cmd add <file|url> [--name N] [--by B] [--note T]")
	}
	if a.library == nil {
		return errViewMode
	}
	src := args[0]
	if up.DefaultScale <= 0 {
		up.DefaultScale = a.session.PlacementScale
	}
	a.log.Log("adding " + src + " ...")
	a.background(func() func() {
		ctx := context.Background()
		var err error
		if download.IsRemote(src) {
			var f download.File
			f, err = download.Fetch(ctx, src)
			up.FileName, up.Data = f.FileName(), f.Data
		} else {
			up.FileName = filepath.Base(src)
			up.Data, err = os.ReadFile(src)
		}
		if err != nil {
			a.log.Notify(userError("add", err).Error())
			return nil
		}
		return func() { a.finishAdd(ctx, up) }
	})
	return nil
}

func (a *App) finishAdd(ctx context.Context, up catalog.Upload) {
	entry, err := a.library.AddCustom(ctx, up)
	if err != nil {
		a.log.Notify(userError("add", err).Error())
		return
	}
	a.setCatalog(a.library.Catalog())
	a.tex.Forget(entry.ID)
	a.scene.Forget(entry.ID)
	a.session.SelectCatalog(entry.ID)
	a.log.Notify(fmt.Sprintf("added %s (%s)", entry.Name, entry.ID))
}

// cmdRemove drops a custom entry and every decoration that uses it, so the
// list keeps resolving.
func (a *App) cmdRemove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cmd remove <id>")
	}
	if a.library == nil {
		return errViewMode
	}
	ctx := context.Background()
	id := args[0]
	if err := a.library.RemoveCustom(ctx, id); err != nil {
		return userError("remove", err)
	}
	removed := 0
	for _, d := range append([]*decor.Decoration(nil), a.decor.List()...) {
		if d.CatalogID != id {
			continue
		}
		if a.session.Selected == d {
			a.ctrl.Handle(ctx, editor.Deselect{})
		}
		a.decor.Remove(d)
		removed++
	}
	if removed > 0 {
		if err := a.decor.Persist(ctx); err != nil {
			a.log.Notify("Could not save the arrangement")
		}
	}
	a.setCatalog(a.library.Catalog())
	a.tex.Forget(id)
	a.scene.Forget(id)
	a.log.Log(fmt.Sprintf("removed %s and %d placement(s)", id, removed))
	return nil
}

// cmdExport snapshots the catalog and the saved list, then writes the zip in
// the background.
func (a *App) cmdExport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cmd export <file.zip>")
	}
	path := args[0]
	if !strings.HasSuffix(strings.ToLower(path), ".zip") {
		path += ".zip"
	}
	ctx := context.Background()
	data, err := a.state.Get(ctx, decor.StateKey)
	if errors.Is(err, faults.ErrNotFound) {
		data, err = []byte("[]"), nil
	}
	if err != nil {
		return userError("export", err)
	}
	exp := archive.Export{
		Catalog: a.catalog.Entries(),
		Decor:   data,
		Blobs:   a.blobs,
		Log:     a.slog,
	}
	a.log.Log("exporting to " + path + " ...")
	a.background(func() func() {
		rep, err := exp.WriteFile(ctx, path)
		if err != nil {
			a.log.Notify(userError("export", err).Error())
			return nil
		}
		msg := fmt.Sprintf("exported %d entries, %d assets to %s", rep.Entries, len(rep.Assets), path)
		if len(rep.Skipped) > 0 {
			msg += fmt.Sprintf(" (%d without image skipped)", len(rep.Skipped))
		}
		a.log.Notify(msg)
		return nil
	})
	return nil
}

func (a *App) cmdImport(args []string, dir string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cmd import <file.zip> [--dir D]")
	}
	if dir == "" {
		dir = a.cfg.ContentDir
	}
	files, err := archive.Unzip(args[0], dir)
	if err != nil {
		return userError("import", err)
	}
	a.log.Log(fmt.Sprintf("imported %d files into %s; start with --mode view --content %s to show it", len(files), dir, dir))
	return nil
}

func toggle(args []string, cur bool) (bool, error) {
	if len(args) == 0 {
		return !cur, nil
	}
	switch args[0] {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return cur, fmt.Errorf("want on or off, got %q", args[0])
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
