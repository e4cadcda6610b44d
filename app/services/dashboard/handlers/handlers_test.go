package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ledgerview/app/services/dashboard/handlers"
	"github.com/ardanlabs/ledgerview/app/services/dashboard/handlers/dashgrp"
	"github.com/ardanlabs/ledgerview/business/core/chainview"
	"github.com/ardanlabs/ledgerview/business/core/ledger"
	"github.com/ardanlabs/ledgerview/business/core/ledger/ledgertest"
	"github.com/ardanlabs/ledgerview/foundation/events"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type dashboardTests struct {
	app  http.Handler
	srv  *ledgertest.Server
	evts *events.Events
}

func newTests(t *testing.T) *dashboardTests {
	log := zap.NewNop().Sugar()

	srv := ledgertest.New()
	t.Cleanup(srv.Close)

	evts := events.New()

	app, err := handlers.UIMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		Ledger:   ledger.New(log, srv.URL),
		Loc:      time.UTC,
		Evts:     evts,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the mux: %v", err)
	}

	return &dashboardTests{
		app:  app,
		srv:  srv,
		evts: evts,
	}
}

func postForm(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Accept", "text/html")
	return r
}

// errorsTotal reads the request error counter from the default registry.
func errorsTotal(t *testing.T) float64 {
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Should be able to gather metrics : %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() == "ledgerview_errors_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}

	t.Fatalf("Should find the errors counter.")
	return 0
}

// waitFor polls until the condition holds or a second passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestDashboard(t *testing.T) {
	dt := newTests(t)

	t.Run("index", dt.index)
	t.Run("submitSuccess", dt.submitSuccess)
	t.Run("submitFailure", dt.submitFailure)
	t.Run("submitMissingField", dt.submitMissingField)
	t.Run("chainAPI", dt.chainAPI)
	t.Run("fetchFailure", dt.fetchFailure)
}

func (dt *dashboardTests) index(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	dt.app.ServeHTTP(w, r)

	t.Log("Given the need to render the dashboard.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the ledger holds the genesis block.", testID)
		{
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200 for the response.", success, testID)

			body := w.Body.String()
			if strings.Count(body, "(Genesis Block)") != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould mark the genesis block once.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mark the genesis block once.", success, testID)

			if !strings.Contains(body, chainview.NoTransactions) {
				t.Fatalf("\t%s\tTest %d:\tShould render the empty transactions placeholder.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould render the empty transactions placeholder.", success, testID)

			if !strings.Contains(body, ">Add Transaction</button>") || strings.Contains(body, " disabled>") {
				t.Fatalf("\t%s\tTest %d:\tShould render an enabled submit button.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould render an enabled submit button.", success, testID)

			if w.Header().Get("Cache-Control") != "no-store" {
				t.Fatalf("\t%s\tTest %d:\tShould mark the page as not cacheable.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mark the page as not cacheable.", success, testID)
		}
	}
}

func (dt *dashboardTests) submitSuccess(t *testing.T) {
	ch := dt.evts.Acquire("test")
	defer dt.evts.Release("test")

	values := url.Values{"sender": {"a"}, "recipient": {"b"}, "amount": {"5"}}
	w := httptest.NewRecorder()
	dt.app.ServeHTTP(w, postForm(values))

	t.Log("Given the need to submit a transaction from the dashboard.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the ledger accepts the transaction.", testID)
		{
			if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
				t.Fatalf("\t%s\tTest %d:\tShould redirect back to the index : %v %s", failed, testID, w.Code, w.Header().Get("Location"))
			}
			t.Logf("\t%s\tTest %d:\tShould redirect back to the index.", success, testID)

			subs := dt.srv.Submissions()
			const exp = `[{"sender":"a","recipient":"b","amount":5}]`
			if len(subs) != 1 || string(subs[0]) != exp {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, subs)
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould forward the transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould forward the transaction.", success, testID)

			select {
			case msg := <-ch:
				if msg != dashgrp.RefreshEvent {
					t.Fatalf("\t%s\tTest %d:\tShould notify open dashboards : %s", failed, testID, msg)
				}
			default:
				t.Fatalf("\t%s\tTest %d:\tShould notify open dashboards.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould notify open dashboards.", success, testID)
		}
	}
}

func (dt *dashboardTests) submitFailure(t *testing.T) {
	dt.srv.FailSubmit(http.StatusInternalServerError)
	defer dt.srv.FailSubmit(http.StatusOK)

	fetches := dt.srv.Fetches()
	errCount := errorsTotal(t)

	values := url.Values{"sender": {"alice"}, "recipient": {"bob"}, "amount": {"12.5"}}
	w := httptest.NewRecorder()
	dt.app.ServeHTTP(w, postForm(values))

	t.Log("Given the need to keep the form when a submission fails.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the ledger rejects the transaction.", testID)
		{
			if w.Code != http.StatusBadGateway {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 502 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 502 for the response.", success, testID)

			body := w.Body.String()
			for _, v := range []string{`value="alice"`, `value="bob"`, `value="12.5"`} {
				if !strings.Contains(body, v) {
					t.Fatalf("\t%s\tTest %d:\tShould keep the entered values : %s", failed, testID, v)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould keep the entered values.", success, testID)

			if dt.srv.Fetches() != fetches {
				t.Fatalf("\t%s\tTest %d:\tShould not fetch the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not fetch the chain.", success, testID)

			if got := errorsTotal(t); got != errCount+1 {
				t.Fatalf("\t%s\tTest %d:\tShould count the failure as an error : %v", failed, testID, got-errCount)
			}
			t.Logf("\t%s\tTest %d:\tShould count the failure as an error.", success, testID)
		}
	}
}

func (dt *dashboardTests) submitMissingField(t *testing.T) {
	subs := len(dt.srv.Submissions())

	values := url.Values{"sender": {"a"}, "amount": {"5"}}
	w := httptest.NewRecorder()
	dt.app.ServeHTTP(w, postForm(values))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Should receive a status code of 400 for the response : %v", w.Code)
	}

	if len(dt.srv.Submissions()) != subs {
		t.Fatalf("Should not forward an incomplete transaction.")
	}
}

func (dt *dashboardTests) chainAPI(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/chain", nil)
	w := httptest.NewRecorder()
	dt.app.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Should receive a status code of 200 for the response : %v", w.Code)
	}

	var view chainview.View
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("Should be able to unmarshal the response : %v", err)
	}

	if len(view.Blocks) != 2 || !view.Blocks[0].Genesis || view.Blocks[1].Genesis {
		t.Fatalf("Should get back the genesis block and the submitted block : %+v", view.Blocks)
	}

	if view.Blocks[1].Transactions[0].Amount != "5" {
		t.Fatalf("Should get back the submitted amount : %+v", view.Blocks[1].Transactions)
	}
}

func (dt *dashboardTests) fetchFailure(t *testing.T) {
	dt.srv.FailFetch(http.StatusServiceUnavailable)
	defer dt.srv.FailFetch(http.StatusOK)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	dt.app.ServeHTTP(w, r)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("Should receive a status code of 502 for the response : %v", w.Code)
	}

	body := w.Body.String()
	if strings.Contains(body, "Genesis Block") || !strings.Contains(body, "Something went wrong") {
		t.Fatalf("Should render the generic failure page only.")
	}
}

func TestEvents(t *testing.T) {
	dt := newTests(t)

	app := httptest.NewServer(dt.app)
	defer app.Close()

	wsURL := "ws" + strings.TrimPrefix(app.URL, "http") + "/v1/events"

	t.Log("Given the need to tell open dashboards about new blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a dashboard is listening and a transaction is added.", testID)
		{
			c, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the socket : %v", failed, testID, err)
			}
			defer c.Close()
			t.Logf("\t%s\tTest %d:\tShould be able to open the socket.", success, testID)

			if !waitFor(func() bool { return dt.evts.Len() == 1 }) {
				t.Fatalf("\t%s\tTest %d:\tShould subscribe the socket : %d", failed, testID, dt.evts.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould subscribe the socket.", success, testID)

			client := http.Client{
				CheckRedirect: func(*http.Request, []*http.Request) error {
					return http.ErrUseLastResponse
				},
			}
			values := url.Values{"sender": {"a"}, "recipient": {"b"}, "amount": {"5"}}
			resp, err := client.PostForm(app.URL+"/transactions", values)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit : %v", failed, testID, err)
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusSeeOther {
				t.Fatalf("\t%s\tTest %d:\tShould redirect after submitting : %d", failed, testID, resp.StatusCode)
			}
			t.Logf("\t%s\tTest %d:\tShould redirect after submitting.", success, testID)

			c.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, msg, err := c.ReadMessage()
			if err != nil || string(msg) != dashgrp.RefreshEvent {
				t.Fatalf("\t%s\tTest %d:\tShould receive the refresh event : %q %v", failed, testID, msg, err)
			}
			t.Logf("\t%s\tTest %d:\tShould receive the refresh event.", success, testID)

			c.Close()

			if !waitFor(func() bool { return dt.evts.Len() == 0 }) {
				t.Fatalf("\t%s\tTest %d:\tShould release the socket once closed : %d", failed, testID, dt.evts.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould release the socket once closed.", success, testID)
		}
	}
}

func TestDebugMux(t *testing.T) {
	log := zap.NewNop().Sugar()

	srv := ledgertest.New()
	defer srv.Close()

	mux := handlers.DebugMux("test", log, ledger.New(log, srv.URL))

	tt := []struct {
		name   string
		path   string
		status int
		fail   bool
	}{
		{"readiness", "/debug/readiness", http.StatusOK, false},
		{"readinessDown", "/debug/readiness", http.StatusInternalServerError, true},
		{"liveness", "/debug/liveness", http.StatusOK, false},
		{"metrics", "/metrics", http.StatusOK, false},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			if tst.fail {
				srv.FailFetch(http.StatusServiceUnavailable)
				defer srv.FailFetch(http.StatusOK)
			}

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tst.path, nil))

			if w.Code != tst.status {
				t.Fatalf("Should receive a status code of %d for %s : %d", tst.status, tst.path, w.Code)
			}
		})
	}
}
