/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"sync"
	"testing"
)

func TestSubscribeReceivesPublished(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventNowPlaying)
	defer b.Unsubscribe(EventNowPlaying, sub)

	b.Publish(EventNowPlaying, Payload{"path": "/media/a.mp4"})

	select {
	case payload := <-sub:
		if payload["path"] != "/media/a.mp4" {
			t.Fatalf("payload = %+v", payload)
		}
	default:
		t.Fatal("no payload delivered")
	}
}

func TestPublishDoesNotReachOtherEventTypes(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventSyncHealth)
	defer b.Unsubscribe(EventSyncHealth, sub)

	b.Publish(EventNowPlaying, Payload{})
	if len(sub) != 0 {
		t.Fatal("subscriber received an event of another type")
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventNowPlaying)
	defer b.Unsubscribe(EventNowPlaying, sub)

	for i := 0; i < cap(sub)+5; i++ {
		b.Publish(EventNowPlaying, Payload{"n": i})
	}
	if len(sub) != cap(sub) {
		t.Fatalf("buffered %d events, want %d", len(sub), cap(sub))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventRenderFailure)
	b.Unsubscribe(EventRenderFailure, sub)

	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}

	// Publishing after the unsubscribe must not panic.
	b.Publish(EventRenderFailure, Payload{})
}

// Publishers race subscriber churn. A send on a channel that Unsubscribe
// just closed would panic here; run with -race.
func TestPublishDuringUnsubscribeChurn(t *testing.T) {
	b := NewBus()
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					b.Publish(EventNowPlaying, Payload{"path": "/media/a.mp4"})
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		sub := b.Subscribe(EventNowPlaying)
		// Leave the buffer full so concurrent publishes exercise the
		// drop branch as well.
		for filled := true; filled; {
			select {
			case sub <- Payload{}:
			default:
				filled = false
			}
		}
		b.Unsubscribe(EventNowPlaying, sub)
	}

	close(done)
	wg.Wait()
}
