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

package tcp

import "os"

// dmaLatencyPin holds /dev/cpu_dma_latency open with a zero value for as
// long as it is alive, pinning the CPU out of deep sleep states (spec §4.2:
// "if enable_dma_latency, hold /dev/cpu_dma_latency open with a zero value
// for the process lifetime"). Opening it is best-effort: most development
// and CI environments either lack the device or lack permission to write
// it, so a failure here is logged by the caller and otherwise ignored
// rather than failing transport construction.
type dmaLatencyPin struct {
	f *os.File
}

func pinDMALatency() (*dmaLatencyPin, error) {
	f, err := os.OpenFile("/dev/cpu_dma_latency", os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write([]byte{0, 0, 0, 0}); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &dmaLatencyPin{f: f}, nil
}

func (p *dmaLatencyPin) Close() error {
	if p == nil || p.f == nil {
		return nil
	}
	return p.f.Close()
}
