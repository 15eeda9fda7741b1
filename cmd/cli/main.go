package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
)

var (
	baseURL string
	timeout time.Duration
	secret  string

	bcryptGenerate = bcrypt.GenerateFromPassword
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gobank-cli",
		Short: "GoBank CLI tool",
		Long:  `A command line interface for operating the GoBank API.`,
	}

	root.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the GoBank API")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	root.PersistentFlags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret shared with the server")

	root.AddCommand(tokenCmd(), qrCmd(), transactionsCmd(), hashPasswordCmd())

	return root
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := auth.NewJWTManager(auth.NewSigner(secret), ttl).Generate(&domain.User{ID: userID, Email: email, Role: r})
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "USER or ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func qrCmd() *cobra.Command {
	qr := &cobra.Command{
		Use:   "qr",
		Short: "QR token operations",
	}

	var (
		kind  string
		owner string
		ttl   time.Duration
	)

	encode := &cobra.Command{
		Use:   "encode <number>",
		Short: "Mint a QR token for an account or card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := domain.ParseEndpointKind(kind)
			if err != nil {
				return err
			}

			token, err := auth.NewQRCodec(auth.NewSigner(secret), ttl).Encode(domain.Endpoint{Number: args[0], Kind: k}, owner)
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}
	encode.Flags().StringVar(&kind, "kind", string(domain.EndpointAccount), "ACCOUNT or CARD")
	encode.Flags().StringVar(&owner, "owner", "", "Owner user ID")
	encode.Flags().DurationVar(&ttl, "ttl", 10*time.Minute, "Token lifetime")

	decode := &cobra.Command{
		Use:   "decode <token>",
		Short: "Verify a QR token and print its endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, err := auth.NewQRCodec(auth.NewSigner(secret), 0).Decode(args[0])
			if err != nil {
				return err
			}

			printJSON(map[string]string{"number": endpoint.Number, "kind": string(endpoint.Kind)})
			return nil
		},
	}

	qr.AddCommand(encode, decode)
	return qr
}

func transactionsCmd() *cobra.Command {
	transactions := &cobra.Command{
		Use:   "transactions",
		Short: "Transaction operations",
	}

	var (
		token   string
		asUser  string
		asRole  string
		filters = map[string]*string{}
		page    int
		size    int
	)

	query := &cobra.Command{
		Use:   "query",
		Short: "Query one page of transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for name, value := range filters {
				if *value != "" {
					q.Set(name, *value)
				}
			}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if size > 0 {
				q.Set("size", strconv.Itoa(size))
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, baseURL+"/api/v1/transactions?"+q.Encode(), nil)
			if err != nil {
				return err
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			} else {
				req.Header.Set(middleware.DevUserHeader, asUser)
				req.Header.Set(middleware.DevRoleHeader, asRole)
			}

			return doJSON(req)
		},
	}

	for flag, param := range map[string]string{
		"account":     "accountNumber",
		"card":        "cardNumber",
		"user":        "userId",
		"from":        "dateFrom",
		"to":          "dateTo",
		"min":         "amountMin",
		"max":         "amountMax",
		"credit":      "isCredit",
		"done":        "isDone",
		"description": "description",
	} {
		filters[param] = query.Flags().String(flag, "", "Filter by "+param)
	}
	query.Flags().IntVar(&page, "page", 0, "Page number, starting at 1")
	query.Flags().IntVar(&size, "size", 0, "Page size")
	query.Flags().StringVar(&token, "token", "", "Bearer token")
	query.Flags().StringVar(&asUser, "as-user", "", "Caller user ID when the server runs without auth")
	query.Flags().StringVar(&asRole, "as-role", string(domain.RoleUser), "Caller role when the server runs without auth")

	transactions.AddCommand(query)
	return transactions
}

func hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Hash a password for seeding the identity service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), cost)
			if err != nil {
				return err
			}

			fmt.Println(string(hash))
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func doJSON(req *http.Request) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printJSON(result)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to encode output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
