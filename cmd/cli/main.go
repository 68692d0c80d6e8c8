package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "moment-cli",
		Short: "Moment CLI tool",
		Long:  `A command line interface for interacting with the Moment API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Moment API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Transaction commands
	txnCmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transaction operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Run: func(cmd *cobra.Command, args []string) {
			listTransactions()
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a transaction (undoable for a few seconds)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			deleteTransaction(args[0])
		},
	}

	undoCmd := &cobra.Command{
		Use:   "undo <id>",
		Short: "Undo a pending deletion",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doPost(fmt.Sprintf("/api/v1/transactions/%s/deletion/undo", args[0]), "deletion undone")
		},
	}

	confirmCmd := &cobra.Command{
		Use:   "confirm <id>",
		Short: "Confirm a pending deletion without waiting for the window",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doPost(fmt.Sprintf("/api/v1/transactions/%s/deletion/confirm", args[0]), "deletion confirmed")
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show the deletion lifecycle state of a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			deletionStatus(args[0])
		},
	}

	txnCmd.AddCommand(listCmd, deleteCmd, undoCmd, confirmCmd, statusCmd)
	rootCmd.AddCommand(txnCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func listTransactions() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/transactions")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result struct {
		Transactions []map[string]any `json:"transactions"`
		Total        int64            `json:"total"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Total: %d\n", result.Total)
	for _, txn := range result.Transactions {
		fmt.Printf("%s  %-8s  %v  %s\n", txn["id"], txn["kind"], txn["amount"], txn["description"])
	}
}

func deleteTransaction(id string) {
	client := &http.Client{Timeout: timeout}
	req, _ := http.NewRequest(http.MethodDelete, baseURL+"/api/v1/transactions/"+id, nil)
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		fmt.Printf("Delete FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result struct {
		State             string           `json:"state"`
		UndoWindowMS      int64            `json:"undo_window_ms"`
		ImpactedTransfers []map[string]any `json:"impacted_transfers"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Deletion started (state: %s), undoable for %dms\n", result.State, result.UndoWindowMS)
	if len(result.ImpactedTransfers) > 0 {
		ids := make([]string, 0, len(result.ImpactedTransfers))
		for _, t := range result.ImpactedTransfers {
			if id, ok := t["id"].(string); ok {
				ids = append(ids, id)
			}
		}
		fmt.Printf("Warning: later transfers may be affected: %s\n", strings.Join(ids, ", "))
	}
}

func deletionStatus(id string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(fmt.Sprintf("%s/api/v1/transactions/%s/deletion", baseURL, id))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result struct {
		State       string `json:"state"`
		RemainingMS int64  `json:"remaining_ms"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("State: %s\n", result.State)
	if result.State == "PENDING_DELETION" {
		fmt.Printf("Remaining: %dms\n", result.RemainingMS)
	}
}

func doPost(path, successMsg string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", nil)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	fmt.Println(successMsg)
}
