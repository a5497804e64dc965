package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/df-mc/splatgen/terrain"
	"github.com/df-mc/splatgen/terrain/biome"
	"github.com/df-mc/splatgen/terrain/host"
	"github.com/df-mc/splatgen/terrain/store"
	"github.com/pelletier/go-toml"
)

func main() {
	log := slog.Default()
	if err := run(log); err != nil {
		log.Error("Terrain generation failed.", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	uc, err := readConfig()
	if err != nil {
		return err
	}
	conf, err := uc.Config(log)
	if err != nil {
		return err
	}
	h := host.New(uc.Terrain.AlphamapResolution)
	conf.Host = h

	if uc.Store.Enabled {
		db, err := store.Open(uc.Store.Folder)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Close terrain db.", "err", err)
			}
		}()
		conf.Host = db.Wrap(h)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := conf.New().Generate(ctx)
	if err != nil {
		return err
	}
	lo, hi := res.Heights.Range()
	log.Info("Terrain generated.",
		"generation", res.ID.String(),
		"size", fmt.Sprintf("%dx%d", res.Heights.Width(), res.Heights.Height()),
		"min", lo, "max", hi,
		"heights", res.HeightsDuration, "splat", res.SplatDuration,
		"fallbacks", res.Splatmap.Fallbacks())
	for _, l := range biome.Layers() {
		log.Info("Layer coverage.", "layer", l.String(), "texels", res.Coverage[l])
	}
	return nil
}

// readConfig reads the configuration from the config.toml file, or creates the file if it does not yet exist.
func readConfig() (terrain.UserConfig, error) {
	c := terrain.DefaultConfig()
	if _, err := os.Stat("config.toml"); os.IsNotExist(err) {
		data, err := toml.Marshal(c)
		if err != nil {
			return c, fmt.Errorf("encode default config: %v", err)
		}
		if err := os.WriteFile("config.toml", data, 0644); err != nil {
			return c, fmt.Errorf("create default config: %v", err)
		}
		return c, nil
	}
	data, err := os.ReadFile("config.toml")
	if err != nil {
		return c, fmt.Errorf("read config: %v", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode config: %v", err)
	}
	return c, nil
}
