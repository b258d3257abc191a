package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var err error
	out := captureOutput(t, func() {
		cmd := rootCmd()
		cmd.SetArgs(args)
		err = cmd.Execute()
	})
	return out, err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			A int `json:"a"`
		}{A: 1})
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestHashPasswordCmd(t *testing.T) {
	orig := bcryptGenerate
	bcryptGenerate = func(p []byte, cost int) ([]byte, error) {
		return []byte("hashed-value"), nil
	}
	defer func() { bcryptGenerate = orig }()

	out, err := execute(t, "hash-password", "secret")
	require.NoError(t, err)

	if strings.TrimSpace(out) != "hashed-value" {
		t.Fatalf("expected hashed-value, got %q", out)
	}
}

func TestDepositCmd(t *testing.T) {
	origKey := newKey
	newKey = func() string { return "fixed-key" }
	defer func() { newKey = origKey }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/transactions/deposit", r.URL.Path)
		assert.Equal(t, "alice", r.Header.Get("X-Client-ID"))
		assert.Equal(t, "fixed-key", r.Header.Get("Idempotency-Key"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12.50", body["amount"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"tx-1","type":"DEPOSIT","amount":"12.5"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "--client", "alice", "deposit", "12.50")
	require.NoError(t, err)
	assert.Contains(t, out, "deposit recorded (idempotency key fixed-key)")
	assert.Contains(t, out, `"id": "tx-1"`)
}

func TestWithdrawCmd_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"insufficient funds"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "--url", srv.URL, "--client", "alice", "withdraw", "10", "--idempotency-key", "k1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds (status 422)")
}

func TestBalanceCmd_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"client_id":"alice","balance":"70"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "--token", "tok", "balance")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 70")
}

func TestTransactionsCmd_Recent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions/recent", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"transactions":[
			{"id":"01HZX0000000000000000000AA","type":"WITHDRAW","amount":"5","created_at":"2024-01-02T00:00:00Z"},
			{"id":"01HZX0000000000000000000AB","type":"DEPOSIT","amount":"10","created_at":"2024-01-01T00:00:00Z"}
		],"total":3}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "--client", "alice", "transactions", "--recent", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "WITHDRAW")
	assert.Contains(t, out, "01HZX000000...")
	assert.Contains(t, out, "Showing 2 of 3")
}

func TestReconcileCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		path    string
		method  string
		body    string
		wantErr string
		wantOut string
	}{
		{
			name:    "all consistent",
			path:    "/api/v1/reconciliation/",
			method:  http.MethodGet,
			body:    `{"total_accounts":2,"reconciled_accounts":2,"consistent":true,"discrepancies":[]}`,
			wantOut: "Reconciliation PASSED",
		},
		{
			name:    "all inconsistent",
			path:    "/api/v1/reconciliation/",
			method:  http.MethodGet,
			body:    `{"total_accounts":2,"reconciled_accounts":1,"consistent":false,"discrepancies":[{"account_id":"bob"}]}`,
			wantErr: "ledger is inconsistent",
			wantOut: "1 of 2 accounts diverge",
		},
		{
			name:    "single account",
			args:    []string{"alice"},
			path:    "/api/v1/reconciliation/alice",
			method:  http.MethodGet,
			body:    `{"account_id":"alice","is_reconciled":true}`,
			wantOut: `"account_id": "alice"`,
		},
		{
			name:    "rebuild",
			args:    []string{"alice", "--rebuild"},
			path:    "/api/v1/reconciliation/alice/rebuild",
			method:  http.MethodPost,
			body:    `{"account_id":"alice","is_reconciled":true}`,
			wantOut: `"is_reconciled": true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				assert.Equal(t, tt.method, r.Method)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			args := append([]string{"--url", srv.URL, "reconcile"}, tt.args...)
			out, err := execute(t, args...)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestReconcileCmd_RebuildNeedsAccount(t *testing.T) {
	_, err := execute(t, "reconcile", "--rebuild")
	require.Error(t, err)
}
