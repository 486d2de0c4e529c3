/*
 * Copyright 2025 The Collabboard Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package text_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/collabboard/collabboard/api/types/events"
	"github.com/collabboard/collabboard/pkg/text"
	"github.com/collabboard/collabboard/test/helper"
)

func TestEditor(t *testing.T) {
	t.Run("local edit test", func(t *testing.T) {
		loopback := helper.NewLoopback()
		p1, p2, p3 := loopback.Join(), loopback.Join(), loopback.Join()
		e1 := text.NewEditor(p1, text.WithQuietPeriod(helper.QuietPeriod))
		e2 := text.NewEditor(p2, text.WithQuietPeriod(helper.QuietPeriod))
		e3 := text.NewEditor(p3, text.WithQuietPeriod(helper.QuietPeriod))
		defer e1.Close()
		defer e2.Close()
		defer e3.Close()

		assert.NoError(t, e1.LocalEdit("hello"))
		assert.Equal(t, []events.Type{events.SendText, events.Typing}, p1.SentEvents())

		for _, e := range []*text.Editor{e1, e2, e3} {
			assert.Equal(t, "hello", e.Buffer())
		}
		assert.False(t, e1.PeerTyping())
		assert.True(t, e2.PeerTyping())
		assert.True(t, e3.PeerTyping())
	})

	t.Run("remote update overwrites test", func(t *testing.T) {
		loopback := helper.NewLoopback()
		p1, p2 := loopback.Join(), loopback.Join()
		e1 := text.NewEditor(p1)
		e2 := text.NewEditor(p2)
		defer e1.Close()
		defer e2.Close()

		assert.NoError(t, e2.LocalEdit("my long local draft"))
		assert.NoError(t, e1.LocalEdit("hi"))
		assert.Equal(t, "hi", e2.Buffer())

		e2.OnRemoteTextUpdate("")
		assert.Equal(t, "", e2.Buffer())
	})

	t.Run("every keystroke carries the full buffer test", func(t *testing.T) {
		loopback := helper.NewLoopback()
		p1, p2 := loopback.Join(), loopback.Join()
		e1 := text.NewEditor(p1)
		e2 := text.NewEditor(p2)
		defer e1.Close()
		defer e2.Close()

		for _, value := range []string{"h", "he", "hel", "hell", "hello"} {
			assert.NoError(t, e1.LocalEdit(value))
		}

		var sent []string
		for _, envelope := range p1.Sent() {
			if envelope.Event != events.SendText {
				continue
			}
			value, err := events.DecodeString(envelope.Data)
			assert.NoError(t, err)
			sent = append(sent, value)
		}
		assert.Equal(t, []string{"h", "he", "hel", "hell", "hello"}, sent)
		assert.Equal(t, "hello", e2.Buffer())
	})

	t.Run("typing window resets test", func(t *testing.T) {
		quiet := 300 * time.Millisecond
		e := text.NewEditor(helper.NewLoopback().Join(), text.WithQuietPeriod(quiet))
		defer e.Close()

		e.OnRemoteTyping()
		time.Sleep(150 * time.Millisecond)
		e.OnRemoteTyping()
		time.Sleep(200 * time.Millisecond)

		// the first window has passed but the second has not.
		assert.True(t, e.PeerTyping())
		assert.Eventually(t, func() bool {
			return !e.PeerTyping()
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("typing clears after quiet period test", func(t *testing.T) {
		loopback := helper.NewLoopback()
		p1, p2 := loopback.Join(), loopback.Join()
		e1 := text.NewEditor(p1)
		e2 := text.NewEditor(p2, text.WithQuietPeriod(helper.QuietPeriod))
		defer e1.Close()
		defer e2.Close()

		assert.NoError(t, e1.LocalEdit("a"))
		assert.True(t, e2.PeerTyping())
		assert.Eventually(t, func() bool {
			return !e2.PeerTyping()
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("malformed update is dropped test", func(t *testing.T) {
		peer := helper.NewLoopback().Join()
		e := text.NewEditor(peer)
		defer e.Close()

		e.OnRemoteTextUpdate("kept")
		peer.Deliver(events.TextUpdate, []byte(`{"text":"nope"}`))
		peer.Deliver(events.TextUpdate, []byte(`42`))
		assert.Equal(t, "kept", e.Buffer())

		loopback := helper.NewLoopback()
		receiver, sender := loopback.Join(), loopback.Join()
		other := text.NewEditor(receiver)
		defer other.Close()
		other.OnRemoteTextUpdate("keep me")
		assert.NoError(t, sender.Emit(events.SendText, json.RawMessage("null")))
		assert.NoError(t, sender.Emit(events.SendText, nil))
		assert.Equal(t, "keep me", other.Buffer())

		peer.Deliver(events.TextUpdate, []byte(`"next"`))
		assert.Equal(t, "next", e.Buffer())
	})

	t.Run("observers test", func(t *testing.T) {
		var mu sync.Mutex
		var buffers []string
		var typing []bool

		loopback := helper.NewLoopback()
		p1, p2 := loopback.Join(), loopback.Join()
		e1 := text.NewEditor(p1)
		e2 := text.NewEditor(p2,
			text.WithQuietPeriod(helper.QuietPeriod),
			text.WithOnChange(func(buffer string) {
				mu.Lock()
				defer mu.Unlock()
				buffers = append(buffers, buffer)
			}),
			text.WithOnTypingChange(func(v bool) {
				mu.Lock()
				defer mu.Unlock()
				typing = append(typing, v)
			}),
		)
		defer e1.Close()
		defer e2.Close()

		assert.NoError(t, e1.LocalEdit("a"))
		assert.NoError(t, e1.LocalEdit("ab"))

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(typing) == 2
		}, time.Second, 10*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"a", "ab"}, buffers)
		assert.Equal(t, []bool{true, false}, typing)
	})

	t.Run("last observed buffer is the current buffer test", func(t *testing.T) {
		var mu sync.Mutex
		var last string

		local := helper.NewLoopback().Join()
		e := text.NewEditor(local, text.WithOnChange(func(buffer string) {
			mu.Lock()
			defer mu.Unlock()
			last = buffer
		}))
		defer e.Close()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				assert.NoError(t, e.LocalEdit(fmt.Sprintf("local-%d", i)))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				local.Deliver(events.TextUpdate, []byte(fmt.Sprintf(`"remote-%d"`, i)))
			}
		}()
		wg.Wait()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, e.Buffer(), last)
	})

	t.Run("close test", func(t *testing.T) {
		peer := helper.NewLoopback().Join()
		e := text.NewEditor(peer)
		assert.Equal(t, 1, peer.Handlers(events.TextUpdate))
		assert.Equal(t, 1, peer.Handlers(events.ShowTyping))

		e.Close()
		e.Close()
		assert.Equal(t, 0, peer.Handlers(events.TextUpdate))
		assert.Equal(t, 0, peer.Handlers(events.ShowTyping))
		assert.ErrorIs(t, e.LocalEdit("late"), text.ErrClosed)
	})
}
