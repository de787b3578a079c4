package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"tree-decor/internal/app"
	"tree-decor/internal/config"
	"tree-decor/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "decorator:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("decorator", pflag.ContinueOnError)
	cfgPath := fs.String("config", config.DefaultPath, "settings file")
	envPath := fs.String("env", ".env", "dotenv file with DECOR_* overrides")
	mode := fs.String("mode", "", "build or view")
	content := fs.String("content", "", "content directory with catalog.json (and decor.json in view mode)")
	db := fs.String("db", "", "SQLite database path")
	blobDriver := fs.String("blob-driver", "", "sqlite, fs or memory")
	blobDir := fs.String("blob-dir", "", "directory for the fs blob driver")
	model := fs.String("model", "", "model file to decorate")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	snow := fs.Bool("snow", true, "show the snow")
	showFPS := fs.Bool("fps", false, "show the FPS overlay")
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if err := config.LoadEnvFile(*envPath); err != nil {
		return err
	}
	cfg, cfgErr := config.Load(*cfgPath)
	if err := cfg.ApplyEnv(nil); err != nil {
		return err
	}
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("mode", &cfg.Mode, *mode)
	set("content", &cfg.ContentDir, *content)
	set("db", &cfg.DBPath, *db)
	set("blob-driver", &cfg.BlobDriver, *blobDriver)
	set("blob-dir", &cfg.BlobDir, *blobDir)
	set("model", &cfg.ModelPath, *model)
	set("log-level", &cfg.LogLevel, *logLevel)
	if fs.Changed("snow") {
		cfg.Snow.Enabled = *snow
	}
	if fs.Changed("fps") {
		cfg.ShowFPS = *showFPS
	}

	log := logger.New(cfg.LogPath)
	if cfgErr != nil {
		log.Log("settings ignored: " + cfgErr.Error())
	}
	a, err := app.New(context.Background(), app.Options{Config: cfg, ConfigPath: *cfgPath, Log: log})
	if err != nil {
		return err
	}
	log.Log(fmt.Sprintf("decorator started in %s mode; ESC opens the console, try \"cmd help\"", cfg.Mode))
	a.Run()
	return a.Close()
}
