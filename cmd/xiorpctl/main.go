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

// Command xiorpctl is a small operator CLI over the xiorpc stream
// transport: it can listen for peers, dial one, and inspect a running
// configuration, built with spf13/cobra the way the teacher's own CLI
// wrapper approaches a root command plus flag-bearing subcommands (see
// DESIGN.md for why this tree uses spf13/cobra directly rather than
// reproducing the teacher's generic 20-type flag-wrapper layer).
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xiorpctl",
		Short: "operate and inspect xiorpc stream-transport endpoints",
		Long: "xiorpctl listens for or dials xiorpc peers over the TCP stream transport,\n" +
			"exercising the same session/connection/transport stack the library embeds.",
	}

	root.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&rootFlags.envPrefix, "env-prefix", "XIORPC", "environment variable prefix for config overrides")
	root.PersistentFlags().StringVar(&rootFlags.cfgFile, "config", "", "path to a JSON config file overriding the default knobs")

	root.AddCommand(newListenCmd(), newDialCmd(), newInspectCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
