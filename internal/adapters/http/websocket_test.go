package http

import (
	"errors"
	"testing"
)

type fakeSubscription struct {
	unsubscribed int
}

func (f *fakeSubscription) Unsubscribe() error {
	f.unsubscribed++
	return nil
}

func TestSubscribeAll(t *testing.T) {
	made := map[string]*fakeSubscription{}
	subscribe := func(subject string) (subscription, error) {
		s := &fakeSubscription{}
		made[subject] = s
		return s, nil
	}

	subs, err := subscribeAll(subscribe, []string{"overlay.render.a", "overlay.notices"})
	if err != nil {
		t.Fatalf("subscribeAll: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
	for subject, s := range made {
		if s.unsubscribed != 0 {
			t.Errorf("%s unsubscribed on success", subject)
		}
	}
}

func TestSubscribeAll_FailureReleasesEarlierSubscriptions(t *testing.T) {
	errClosed := errors.New("nats: connection closed")
	first := &fakeSubscription{}
	subscribe := func(subject string) (subscription, error) {
		if subject == "overlay.notices" {
			return nil, errClosed
		}
		return first, nil
	}

	subs, err := subscribeAll(subscribe, []string{"overlay.render.a", "overlay.notices"})
	if !errors.Is(err, errClosed) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if subs != nil {
		t.Errorf("expected no subscriptions, got %v", subs)
	}
	if first.unsubscribed != 1 {
		t.Errorf("expected first subscription released once, got %d", first.unsubscribed)
	}
}
