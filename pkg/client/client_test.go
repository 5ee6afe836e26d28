package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/naveenspark/plangate/pkg/domain"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var creds domain.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if creds.Email != "a@b.com" || creds.Password != "x" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "T1"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	tok, err := c.Login(context.Background(), "a@b.com", "x")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if tok != "T1" {
		t.Errorf("token = %q, want %q", tok, "T1")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected error for invalid credentials")
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("IsStatus(err, 401) = false, err = %v", err)
	}
	if got := Message(err, "Login failed"); got != "Invalid credentials" {
		t.Errorf("Message() = %q, want %q", got, "Invalid credentials")
	}
}

func TestLogin_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token_type": "bearer"}) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "a@b.com", "x")
	if err == nil || !strings.Contains(err.Error(), "missing access_token") {
		t.Errorf("err = %v, want missing access_token", err)
	}
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Email already registered"}) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL).Register(context.Background(), "a@b.com", "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := Message(err, "Register failed"); got != "Email already registered" {
		t.Errorf("Message() = %q", got)
	}
}

func TestRegister_ValidationList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":[{"loc":["body","email"],"msg":"field required"},{"msg":"bad password"}]}`) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL).Register(context.Background(), "", "")
	if got := Message(err, "Register failed"); got != "field required; bad password" {
		t.Errorf("Message() = %q", got)
	}
}

func TestListPlans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plans" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `[{"id":1,"name":"Basic","price":5,"currency":"USD","recurrence":"monthly","duration":"1mo"}]`) //nolint:errcheck
	}))
	defer srv.Close()

	plans, err := New(srv.URL).ListPlans(context.Background())
	if err != nil {
		t.Fatalf("ListPlans() error: %v", err)
	}
	want := domain.Plan{ID: 1, Name: "Basic", Price: 5, Currency: "USD", Recurrence: "monthly", Duration: "1mo"}
	if len(plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(plans))
	}
	if plans[0] != want {
		t.Errorf("plans[0] = %+v, want %+v", plans[0], want)
	}
}

func TestListPlans_BearerHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `[]`) //nolint:errcheck
	}))
	defer srv.Close()

	token := ""
	c := New(srv.URL, WithTokenSource(func() string { return token }))

	if _, err := c.ListPlans(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q without session, want empty", gotAuth)
	}

	token = "T1"
	if _, err := c.ListPlans(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer T1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer T1")
	}
}

func TestSubscribe_Multipart(t *testing.T) {
	const page = "<html><body><form id=\"payhere_form\"></form><script>document.getElementById('payhere_form').submit();</script></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		want := map[string]string{"first_name": "A", "last_name": "B", "email": "a@b.com", "plan_id": "1"}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				http.Error(w, k+"="+got, http.StatusBadRequest)
				return
			}
		}
		if _, ok := r.MultipartForm.Value["phone"]; ok {
			http.Error(w, "unexpected phone", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, page) //nolint:errcheck
	}))
	defer srv.Close()

	payload, err := New(srv.URL).Subscribe(context.Background(), domain.SubscriptionRequest{
		FirstName: "A", LastName: "B", Email: "a@b.com", PlanID: 1,
	})
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	if string(payload) != page {
		t.Errorf("payload = %q, want %q", payload, page)
	}
}

func TestSubscribe_OptionalFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, r.FormValue("phone")+"|"+r.FormValue("city")) //nolint:errcheck
	}))
	defer srv.Close()

	payload, err := New(srv.URL).Subscribe(context.Background(), domain.SubscriptionRequest{
		FirstName: "A", LastName: "B", Email: "a@b.com", PlanID: 2, Phone: "0771234567", City: "Colombo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "0771234567|Colombo" {
		t.Errorf("payload = %q", payload)
	}
}

func TestSubscribe_BodySizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"at limit", maxBodySize, false},
		{"over limit", maxBodySize + 13, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := strings.Repeat("a", tt.size)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				io.WriteString(w, page) //nolint:errcheck
			}))
			defer srv.Close()

			payload, err := New(srv.URL).Subscribe(context.Background(), domain.SubscriptionRequest{
				FirstName: "A", LastName: "B", Email: "a@b.com", PlanID: 1,
			})
			if tt.wantErr {
				if !errors.Is(err, ErrBodyTooLarge) {
					t.Fatalf("err = %v, want ErrBodyTooLarge", err)
				}
				if payload != nil {
					t.Errorf("got %d bytes of a truncated payload", len(payload))
				}
				return
			}
			if err != nil {
				t.Fatalf("Subscribe() error: %v", err)
			}
			if string(payload) != page {
				t.Errorf("payload length = %d, want %d", len(payload), len(page))
			}
		})
	}
}

func TestSubscribe_PlanNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Plan not found"}) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL).Subscribe(context.Background(), domain.SubscriptionRequest{PlanID: 99})
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("err = %v, want 404", err)
	}
	if got := Message(err, "Subscribe failed"); got != "Plan not found" {
		t.Errorf("Message() = %q", got)
	}
}

func TestProtectedData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			http.Error(w, "session token leaked", http.StatusBadRequest)
			return
		}
		switch r.Header.Get("x-api-key") {
		case "good":
			io.WriteString(w, `{"msg":"Hello, API client","quota_left":9}`) //nolint:errcheck
		case "":
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Missing API key"}`) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"detail":"Quota exhausted"}`) //nolint:errcheck
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("session-token"))
	data, err := c.ProtectedData(context.Background(), "good")
	if err != nil {
		t.Fatalf("ProtectedData() error: %v", err)
	}
	if data.Msg != "Hello, API client" || data.QuotaLeft == nil || *data.QuotaLeft != 9 {
		t.Errorf("data = %+v", data)
	}
	if !strings.Contains(string(data.Raw), "quota_left") {
		t.Errorf("Raw = %s", data.Raw)
	}

	_, err = c.ProtectedData(context.Background(), "spent")
	if !IsStatus(err, http.StatusTooManyRequests) {
		t.Errorf("err = %v, want 429", err)
	}
	if got := Message(err, "Request failed"); got != "Quota exhausted" {
		t.Errorf("Message() = %q", got)
	}
}

func TestHTTPError_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "Internal Server Error") //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListPlans(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if got := err.Error(); !strings.Contains(got, "HTTP 500") {
		t.Errorf("error = %q, want it to contain 'HTTP 500'", got)
	}
	if got := Message(err, "Something went wrong"); got != "Something went wrong" {
		t.Errorf("Message() = %q, want fallback", got)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).ListPlans(context.Background())
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	if !IsTransport(err) {
		t.Errorf("IsTransport(%v) = false", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "do request" {
		t.Errorf("TransportError = %+v", te)
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second) // slow server
		io.WriteString(w, `[]`)     //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.ListPlans(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}

func TestRequestID(t *testing.T) {
	ids := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[r.Header.Get("X-Request-ID")] = true
		io.WriteString(w, `[]`) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := c.ListPlans(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if len(ids) != 3 || ids[""] {
		t.Errorf("request IDs = %v, want 3 distinct non-empty", ids)
	}
}

func TestReturnURL(t *testing.T) {
	c := New("http://localhost:8000/")
	if got, want := c.ReturnURL("ab12"), "http://localhost:8000/subscribe/return?order_id=ab12"; got != want {
		t.Errorf("ReturnURL() = %q, want %q", got, want)
	}
}
