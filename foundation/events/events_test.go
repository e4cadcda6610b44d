package events_test

import (
	"testing"

	"github.com/ardanlabs/ledgerview/foundation/events"
)

func TestEvents(t *testing.T) {
	type table struct {
		name string
		ids  []string
	}

	tt := []table{
		{name: "none", ids: nil},
		{name: "one", ids: []string{"a"}},
		{name: "many", ids: []string{"a", "b", "c"}},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			evts := events.New()

			var chs []<-chan string
			for _, id := range tst.ids {
				chs = append(chs, evts.Acquire(id))
			}

			if sent := evts.Send("refresh"); sent != len(tst.ids) {
				t.Logf("Test %s:\tgot: %d", tst.name, sent)
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.ids))
				t.Fatalf("Test %s:\tShould deliver to every subscriber.", tst.name)
			}

			for _, ch := range chs {
				if msg := <-ch; msg != "refresh" {
					t.Fatalf("Test %s:\tShould receive the message: %q", tst.name, msg)
				}
			}

			if len(tst.ids) > 0 {
				if err := evts.Release(tst.ids[0]); err != nil {
					t.Fatalf("Test %s:\tShould be able to release: %v", tst.name, err)
				}
				if _, open := <-chs[0]; open {
					t.Fatalf("Test %s:\tShould close the released channel.", tst.name)
				}
				if err := evts.Release(tst.ids[0]); err == nil {
					t.Fatalf("Test %s:\tShould not release twice.", tst.name)
				}
			}

			evts.Shutdown()
			if evts.Len() != 0 {
				t.Fatalf("Test %s:\tShould remove every subscriber on shutdown.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}
