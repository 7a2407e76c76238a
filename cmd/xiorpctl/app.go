/*
 * MIT License
 *
 * Copyright (c) 2026 the xiorpc authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/xiorpc/config"
	"github.com/nabbar/xiorpc/logger"
	"github.com/nabbar/xiorpc/metrics"
	prmsdk "github.com/prometheus/client_golang/prometheus"
)

// app bundles the state every subcommand needs: the process-wide config
// (viper-backed knobs), the logger, and the metrics registry. Each
// subcommand's run function (runListen, runDial, runInspect) builds its own
// through newApp, instead of relying on package-level globals.
type app struct {
	cfg *config.Config
	log logger.Logger
	reg *prmsdk.Registry
	met *metrics.Collector
}

func newApp(logLevel string, envPrefix string) *app {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log := logger.New(os.Stderr, lvl, "xiorpctl")
	logger.SetDefault(log)

	cfg := config.New()
	if envPrefix != "" {
		cfg.BindEnv(envPrefix)
	}

	reg := prmsdk.NewRegistry()
	met := metrics.New(reg)

	return &app{cfg: cfg, log: log, reg: reg, met: met}
}

var rootFlags struct {
	logLevel  string
	envPrefix string
	cfgFile   string
}

// loadConfigFile layers path onto cfg if path is non-empty, inferring the
// viper format from its extension. A path with no extension is read as
// json; any other extension is handed to viper unchanged.
func loadConfigFile(cfg *config.Config, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "json"
	}
	return cfg.Load(f, format)
}
