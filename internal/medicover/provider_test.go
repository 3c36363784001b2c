package medicover

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/Freeeeeet/medicony/internal/pace"
	"go.uber.org/zap"
)

const testPassword = "secret"

// fakeProvider имитирует сервис входа и API-шлюз на одном httptest-сервере
type fakeProvider struct {
	t   *testing.T
	srv *httptest.Server

	logins       atomic.Int32
	slotCalls    atomic.Int32
	priceCalls   atomic.Int32
	bookCalls    atomic.Int32
	deleteCalls  atomic.Int32
	slots401     atomic.Int32
	prices401    atomic.Int32
	tokenStatus  int
	omitCSRF     bool
	omitItems    bool
	price        string
	slotItems    []map[string]any
	plannedItems []map[string]any
	filters      map[string]any

	mu        sync.Mutex
	challenge string
	lastQuery map[string]string
}

// newFakeProvider настраивает поля до старта сервера, дальше они только читаются
func newFakeProvider(t *testing.T, setup ...func(p *fakeProvider)) *fakeProvider {
	t.Helper()
	p := &fakeProvider{
		t:           t,
		tokenStatus: http.StatusOK,
		price:       FreePrice,
		lastQuery:   map[string]string{},
	}
	for _, fn := range setup {
		fn(p)
	}
	p.srv = httptest.NewUnstartedServer(http.HandlerFunc(p.handle))
	p.srv.Start()
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) endpoints() Endpoints {
	return Endpoints{
		LoginURL:     p.srv.URL,
		OIDCRedirect: "https://online24.medicover.pl/signin-oidc",
		VersionURL:   p.srv.URL + "/env-config.js",
		APIBase:      p.srv.URL,
	}
}

func (p *fakeProvider) options() Options {
	return Options{
		Endpoints:    p.endpoints(),
		AuthRetry:    RetryPolicy{MaxAttempts: 1, Wait: time.Millisecond},
		RequestRetry: RetryPolicy{MaxAttempts: 3, Wait: time.Millisecond, Retryable: IsTransient},
		Timeout:      5 * time.Second,
		Pauser:       pace.Off{},
	}
}

func (p *fakeProvider) client(accounts ...model.Account) *Client {
	p.t.Helper()
	if len(accounts) == 0 {
		accounts = []model.Account{{Alias: "main", Username: "user", Password: testPassword}}
	}
	c, err := NewClient(accounts, p.options(), zap.NewNop())
	if err != nil {
		p.t.Fatalf("new client: %v", err)
	}
	return c
}

func (p *fakeProvider) query(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.lastQuery[key]
	return v, ok
}

func (p *fakeProvider) currentToken() string {
	return fmt.Sprintf("tok-%d", p.logins.Load())
}

func (p *fakeProvider) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+p.currentToken() {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (p *fakeProvider) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (p *fakeProvider) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/env-config.js":
		_, _ = io.WriteString(w, `window.env = { VITE_API: "x", VITE_VERSION: "3.4.5" };`)

	case r.URL.Path == "/connect/authorize":
		p.mu.Lock()
		p.challenge = r.URL.Query().Get("code_challenge")
		p.mu.Unlock()
		w.Header().Set("Location", p.srv.URL+"/Account/Login?ReturnUrl=%2Fconnect%2Fauthorize%2Fcallback%3Fclient_id%3Dweb")
		w.WriteHeader(http.StatusFound)

	case r.URL.Path == "/Account/Login" && r.Method == http.MethodGet:
		http.SetCookie(w, &http.Cookie{Name: "antiforgery", Value: "cookie-1", Path: "/"})
		if p.omitCSRF {
			_, _ = io.WriteString(w, `<html><body><form></form></body></html>`)
			return
		}
		_, _ = io.WriteString(w, `<html><body><form method="post">
<input type="hidden" name="Input.ReturnUrl" value="/x">
<input name="__RequestVerificationToken" type="hidden" value="csrf-123" />
</form></body></html>`)

	case r.URL.Path == "/Account/Login" && r.Method == http.MethodPost:
		_ = r.ParseForm()
		if c, err := r.Cookie("antiforgery"); err != nil || c.Value != "cookie-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("__RequestVerificationToken") != "csrf-123" ||
			r.PostForm.Get("Input.Password") != testPassword ||
			r.PostForm.Get("Input.LoginType") != "FullLogin" {
			_, _ = io.WriteString(w, `<div class="error">INVALID_CREDENTIALS</div>`)
			return
		}
		w.Header().Set("Location", "/connect/authorize/callback?client_id=web")
		w.WriteHeader(http.StatusFound)

	case r.URL.Path == "/connect/authorize/callback":
		w.Header().Set("Location", "https://online24.medicover.pl/signin-oidc?code=auth-code&state=s")
		w.WriteHeader(http.StatusFound)

	case r.URL.Path == "/connect/token":
		_ = r.ParseForm()
		p.mu.Lock()
		challenge := p.challenge
		p.mu.Unlock()
		if p.tokenStatus != http.StatusOK {
			w.WriteHeader(p.tokenStatus)
			return
		}
		if r.PostForm.Get("code") != "auth-code" || codeChallenge(r.PostForm.Get("code_verifier")) != challenge {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n := p.logins.Add(1)
		p.writeJSON(w, map[string]string{"access_token": fmt.Sprintf("tok-%d", n)})

	case r.URL.Path == "/appointments/api/search-appointments/slots":
		p.slotCalls.Add(1)
		if p.slots401.Load() > 0 {
			p.slots401.Add(-1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !p.authorized(w, r) {
			return
		}
		p.mu.Lock()
		for k := range r.URL.Query() {
			p.lastQuery[k] = r.URL.Query().Get(k)
		}
		p.mu.Unlock()
		if p.omitItems {
			p.writeJSON(w, map[string]any{"totalCount": 0})
			return
		}
		p.writeJSON(w, map[string]any{"items": p.slotItems})

	case r.URL.Path == "/payment-gateway/api/v1/visit-prices":
		p.priceCalls.Add(1)
		if p.prices401.Load() > 0 {
			p.prices401.Add(-1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !p.authorized(w, r) {
			return
		}
		p.writeJSON(w, []map[string]string{{"price": p.price}})

	case r.URL.Path == "/appointments/api/search-appointments/book-appointment":
		p.bookCalls.Add(1)
		if !p.authorized(w, r) {
			return
		}
		var req bookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookingString == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.writeJSON(w, map[string]any{"appointmentId": 987654})

	case r.URL.Path == "/appointments/api/search-appointments/filters":
		if !p.authorized(w, r) {
			return
		}
		p.writeJSON(w, p.filters)

	case r.URL.Path == "/appointments/api/person-appointments/appointments" && r.Method == http.MethodGet:
		if !p.authorized(w, r) {
			return
		}
		p.writeJSON(w, map[string]any{"items": p.plannedItems})

	case r.Method == http.MethodDelete:
		p.deleteCalls.Add(1)
		if !p.authorized(w, r) {
			return
		}
		if r.URL.Path != "/appointments/api/person-appointments/appointments/srv-42" {
			p.writeJSON(w, map[string]any{"status": "Failure", "errorDetails": "not found"})
			return
		}
		p.writeJSON(w, map[string]any{"status": "Success"})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func slotItem(bookingString string, clinicID int, clinicName string, doctorID int, specialtyID int, date string) map[string]any {
	return map[string]any{
		"appointmentDate": date,
		"bookingString":   bookingString,
		"clinic":          map[string]any{"id": clinicID, "name": clinicName},
		"doctor":          map[string]any{"id": fmt.Sprint(doctorID), "name": "Dr Test"},
		"specialty":       map[string]any{"id": specialtyID, "name": "Ortopeda"},
		"visitType":       "Center",
	}
}
