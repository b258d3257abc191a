package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	baseURL  string
	timeout  time.Duration
	clientID string
	token    string

	bcryptGenerate = bcrypt.GenerateFromPassword
	newKey         = uuid.NewString
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clientledger-cli",
		Short:         "ClientLedger CLI tool",
		Long:          `A command line interface for interacting with the ClientLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ClientLedger API")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	root.PersistentFlags().StringVar(&clientID, "client", os.Getenv("CLIENTLEDGER_CLIENT_ID"), "Client ID sent as X-Client-ID when auth is disabled")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("CLIENTLEDGER_TOKEN"), "Bearer token")

	root.AddCommand(
		amountCmd("deposit", "Deposit funds into the client account"),
		amountCmd("withdraw", "Withdraw funds from the client account"),
		balanceCmd(),
		transactionsCmd(),
		registerCmd(),
		tokenCmd(),
		reconcileCmd(),
		hashPasswordCmd(),
	)

	return root
}

func amountCmd(op, short string) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   op + " AMOUNT",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = newKey()
			}

			var tx map[string]any
			if err := call(http.MethodPost, "/api/v1/transactions/"+op, map[string]string{"amount": args[0]}, key, &tx); err != nil {
				return err
			}

			fmt.Printf("%s recorded (idempotency key %s)\n", op, key)
			printJSON(tx)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "idempotency-key", "", "Idempotency key (random when empty)")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the client balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				ClientID string `json:"client_id"`
				Balance  string `json:"balance"`
			}
			if err := call(http.MethodGet, "/api/v1/transactions/balance", nil, "", &result); err != nil {
				return err
			}

			fmt.Printf("Client:  %s\nBalance: %s\n", result.ClientID, result.Balance)
			return nil
		},
	}
}

type transactionRow struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func transactionsCmd() *cobra.Command {
	var (
		recent bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List the client's transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/transactions/"
			if recent {
				path = "/api/v1/transactions/recent?limit=" + strconv.Itoa(limit)
			}

			var result struct {
				Transactions []transactionRow `json:"transactions"`
				Total        int              `json:"total"`
			}
			if err := call(http.MethodGet, path, nil, "", &result); err != nil {
				return err
			}

			printTransactions(result.Transactions)
			fmt.Printf("\nShowing %d of %d\n", len(result.Transactions), result.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&recent, "recent", false, "Newest first")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent transactions")
	return cmd
}

func printTransactions(rows []transactionRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tAMOUNT\tCREATED")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", truncate(row.ID, 14), row.Type, row.Amount, row.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()
}

func registerCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var client map[string]any
			body := map[string]string{"name": name, "email": email, "password": password}
			if err := call(http.MethodPost, "/api/v1/auth/register", body, "", &client); err != nil {
				return err
			}

			printJSON(client)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Client name")
	cmd.Flags().StringVar(&email, "email", "", "Client email")
	cmd.Flags().StringVar(&password, "password", "", "Client password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func tokenCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Token string `json:"token"`
			}
			body := map[string]string{"email": email, "password": password}
			if err := call(http.MethodPost, "/api/v1/auth/token", body, "", &result); err != nil {
				return err
			}

			fmt.Println(result.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Client email")
	cmd.Flags().StringVar(&password, "password", "", "Client password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func reconcileCmd() *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "reconcile [ACCOUNT_ID]",
		Short: "Compare materialized balances with the event history (needs an operator token)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if rebuild {
					return fmt.Errorf("--rebuild needs an account id")
				}
				return reconcileAll()
			}

			path := "/api/v1/reconciliation/" + url.PathEscape(args[0])
			method := http.MethodGet
			if rebuild {
				path += "/rebuild"
				method = http.MethodPost
			}

			var result map[string]any
			if err := call(method, path, nil, "", &result); err != nil {
				return err
			}

			printJSON(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Rebuild the account projection from its events")
	return cmd
}

func reconcileAll() error {
	var report struct {
		TotalAccounts      int              `json:"total_accounts"`
		ReconciledAccounts int              `json:"reconciled_accounts"`
		Consistent         bool             `json:"consistent"`
		Discrepancies      []map[string]any `json:"discrepancies"`
	}
	if err := call(http.MethodGet, "/api/v1/reconciliation/", nil, "", &report); err != nil {
		return err
	}

	if !report.Consistent {
		fmt.Printf("Reconciliation FAILED: %d of %d accounts diverge\n",
			report.TotalAccounts-report.ReconciledAccounts, report.TotalAccounts)
		printJSON(report.Discrepancies)
		return fmt.Errorf("ledger is inconsistent")
	}

	fmt.Printf("Reconciliation PASSED\n")
	fmt.Printf("Accounts checked: %d\n", report.TotalAccounts)
	return nil
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password PASSWORD",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Println(string(hash))
			return nil
		},
	}
}

// call sends a JSON request and decodes a 2xx response into out.
func call(method, path string, body any, idempotencyKey string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to encode output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
