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

package nexus

import (
	"sync"

	"github.com/nabbar/xiorpc/logger"
)

// Observer receives events published by a Nexus.
type Observer func(Event)

// Nexus is one stream-transport endpoint's observer registry. A session
// registers a per-session observer keyed on its own session id so
// find_session (spec §4.1) can route without scanning; a listener registers
// a default observer to learn about brand new child connections before any
// session id is known.
//
// Registration is a "borrowed observation" (spec §9 design notes): the
// Nexus owns the callback record, and a session must Unregister it during
// its own teardown rather than relying on the Nexus to notice the session
// is gone.
type Nexus interface {
	// Publish routes ev to the single per-session observer named by
	// ev.Task's destination session id, falling back to the default
	// observer when no session is registered yet (spec §4.1 find_session:
	// "first queries the nexus's per-session observer registry... falls
	// back to the process-wide sessions cache"). Use this for NewMessage.
	Publish(ev Event)

	// Broadcast fans ev out to every session observer currently registered
	// on this nexus plus the default observer, for transport-wide events
	// that aren't addressed to one session (spec §4.1 Nexus events:
	// Disconnected/Reconnected/Closed/Error, one nexus may carry many
	// sessions per the glossary).
	Broadcast(ev Event)

	// RegisterSession installs (or replaces) the observer for sessionID.
	// Spec §4.1 assign_nexus: "releases any prior observer on the old
	// nexus and binds the new one" — callers are expected to Unregister
	// from the old Nexus themselves before calling this on the new one.
	RegisterSession(sessionID uint32, obs Observer)

	// UnregisterSession drops the observer for sessionID, if any.
	UnregisterSession(sessionID uint32)

	// Lookup returns the observer registered for sessionID, if any —
	// used by find_session's fast path before falling back to the
	// sessions cache (spec §4.1).
	Lookup(sessionID uint32) (Observer, bool)

	// RegisterDefault installs the observer invoked for events that don't
	// carry (or haven't yet resolved) a destination session id — e.g. a
	// listener's NewConnection notifications.
	RegisterDefault(obs Observer)

	// UnregisterDefault drops the default observer.
	UnregisterDefault()
}

type bus struct {
	mu      sync.RWMutex
	byID    map[uint32]Observer
	dflt    Observer
	hasDflt bool
	log     logger.Logger
}

// New builds an empty Nexus.
func New() Nexus {
	return &bus{
		byID: make(map[uint32]Observer),
		log:  logger.Component("nexus"),
	}
}

func (b *bus) Publish(ev Event) {
	b.mu.RLock()
	dflt, hasDflt := b.dflt, b.hasDflt
	var sessObs Observer
	var hasSess bool
	if ev.Task != nil {
		sessObs, hasSess = b.byID[ev.Task.Header.DestSessionID]
	}
	b.mu.RUnlock()

	if hasSess {
		sessObs(ev)
		return
	}
	if hasDflt {
		dflt(ev)
		return
	}
	b.log.WithField("kind", ev.Kind.String()).Debugf("nexus: event dropped, no observer registered")
}

func (b *bus) Broadcast(ev Event) {
	b.mu.RLock()
	obs := make([]Observer, 0, len(b.byID)+1)
	for _, o := range b.byID {
		obs = append(obs, o)
	}
	dflt, hasDflt := b.dflt, b.hasDflt
	b.mu.RUnlock()

	for _, o := range obs {
		o(ev)
	}
	if hasDflt {
		dflt(ev)
	}
}

func (b *bus) RegisterSession(sessionID uint32, obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byID[sessionID] = obs
}

func (b *bus) UnregisterSession(sessionID uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byID, sessionID)
}

func (b *bus) Lookup(sessionID uint32) (Observer, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obs, ok := b.byID[sessionID]
	return obs, ok
}

func (b *bus) RegisterDefault(obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dflt, b.hasDflt = obs, true
}

func (b *bus) UnregisterDefault() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dflt, b.hasDflt = nil, false
}
