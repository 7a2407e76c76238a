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
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("root command", func() {
	It("registers every subcommand with its persistent flags", func() {
		root := newRootCmd()

		Expect(root.Use).To(Equal("xiorpctl"))
		Expect(root.PersistentFlags().Lookup("log-level")).ToNot(BeNil())
		Expect(root.PersistentFlags().Lookup("env-prefix")).ToNot(BeNil())
		Expect(root.PersistentFlags().Lookup("config")).ToNot(BeNil())

		names := map[string]bool{}
		for _, c := range root.Commands() {
			names[c.Name()] = true
		}
		Expect(names).To(HaveKey("listen"))
		Expect(names).To(HaveKey("dial"))
		Expect(names).To(HaveKey("inspect"))
	})
})

var _ = Describe("newApp", func() {
	It("seeds a config, logger and metrics collector sharing one registry", func() {
		a := newApp("debug", "")

		Expect(a.cfg).ToNot(BeNil())
		Expect(a.log).ToNot(BeNil())
		Expect(a.reg).ToNot(BeNil())
		Expect(a.met).ToNot(BeNil())
		Expect(a.met.Registry()).To(BeIdenticalTo(a.reg))
	})

	It("still builds an app when the log level does not parse", func() {
		a := newApp("not-a-level", "")
		Expect(a).ToNot(BeNil())
	})
})

var _ = Describe("newListenCmd and newDialCmd", func() {
	It("expose their own flag sets independent of each other", func() {
		l := newListenCmd()
		d := newDialCmd()

		Expect(l.Flags().Lookup("uri")).ToNot(BeNil())
		Expect(l.Flags().Lookup("metrics-addr")).ToNot(BeNil())
		Expect(d.Flags().Lookup("uri")).ToNot(BeNil())
		Expect(d.Flags().Lookup("payload")).ToNot(BeNil())
		Expect(d.Flags().Lookup("one-way")).ToNot(BeNil())
	})
})

var _ = Describe("newInspectCmd", func() {
	It("prints the resolved config to its configured output", func() {
		i := newInspectCmd()
		Expect(i.Use).To(Equal("inspect"))

		var buf bytes.Buffer
		i.SetOut(&buf)
		Expect(i.RunE(i, nil)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("trans_buf_threshold: 4096"))
	})
})
