package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the custody signing service")
	testType  = flag.String("test", "full", "Test type: ping, account, sign, metrics, full")
	accountID = flag.String("account-id", "", "Custody account (vault) id")
	autofill  = flag.Bool("autofill", true, "Let the service fill sequence and fee")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := NewTestClient(*baseURL)

	switch *testType {
	case "ping":
		if err := client.TestPing(ctx); err != nil {
			log.Fatal().Err(err).Msg("Ping test failed")
		}
	case "account":
		requireAccountID()
		if err := testAccount(ctx, client); err != nil {
			log.Fatal().Err(err).Msg("Account test failed")
		}
	case "sign":
		requireAccountID()
		if err := testSign(ctx, client); err != nil {
			log.Fatal().Err(err).Msg("Sign test failed")
		}
	case "metrics":
		if err := testMetrics(ctx, client); err != nil {
			log.Fatal().Err(err).Msg("Metrics test failed")
		}
	case "full":
		requireAccountID()
		if err := testFullFlow(ctx, client); err != nil {
			log.Fatal().Err(err).Msg("Full flow test failed")
		}
	default:
		log.Fatal().Str("test-type", *testType).Msg("Unknown test type")
	}

	log.Info().Msg("All tests completed successfully")
}

func requireAccountID() {
	if *accountID == "" {
		log.Fatal().Msg("account-id is required for this test")
	}
}

func testAccount(ctx context.Context, client *TestClient) error {
	log.Info().Msg("=== Testing Account Lookup ===")

	info, err := client.TestGetAccount(ctx, *accountID)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}

	log.Info().
		Str("address", info.Address).
		Str("public_key", info.PublicKey).
		Bool("connected", info.Connected).
		Msg("Account resolved")
	return nil
}

func testSign(ctx context.Context, client *TestClient) error {
	log.Info().Msg("=== Testing Sign Transaction ===")

	info, err := client.TestGetAccount(ctx, *accountID)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}

	signed, err := client.TestSignTransaction(ctx, *accountID, samplePayment(info.Address), *autofill)
	if err != nil {
		return fmt.Errorf("sign transaction failed: %w", err)
	}

	log.Info().Str("hash", signed.Hash).Msg("Transaction signed successfully")
	return nil
}

func testMetrics(ctx context.Context, client *TestClient) error {
	log.Info().Msg("=== Testing Pool Metrics ===")

	metrics, err := client.TestGetPoolMetrics(ctx)
	if err != nil {
		return fmt.Errorf("pool metrics failed: %w", err)
	}

	log.Info().
		Int64("total", metrics.Total).
		Int64("in_use", metrics.InUse).
		Int64("idle", metrics.Idle).
		Msg("Pool metrics fetched")
	return nil
}

func testFullFlow(ctx context.Context, client *TestClient) error {
	log.Info().Msg("=== Testing Full Flow ===")

	log.Info().Msg("Step 1: Health")
	if err := client.TestPing(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	log.Info().Msg("Step 2: Account Lookup")
	info, err := client.TestGetAccount(ctx, *accountID)
	if err != nil {
		return fmt.Errorf("account lookup failed: %w", err)
	}

	log.Info().Msg("Step 3: Sign Transaction")
	signed, err := client.TestSignTransaction(ctx, *accountID, samplePayment(info.Address), *autofill)
	if err != nil {
		return fmt.Errorf("sign transaction failed: %w", err)
	}

	log.Info().Msg("Step 4: Pool Metrics")
	metrics, err := client.TestGetPoolMetrics(ctx)
	if err != nil {
		return fmt.Errorf("pool metrics failed: %w", err)
	}

	log.Info().
		Str("address", info.Address).
		Str("hash", signed.Hash).
		Int64("pool_total", metrics.Total).
		Msg("Full flow test completed successfully")
	return nil
}

// samplePayment builds a minimal self-payment for smoke testing. With
// autofill on, the service fills sequence and fee.
func samplePayment(address string) map[string]any {
	return map[string]any{
		"TransactionType": "Payment",
		"Account":         address,
		"Destination":     address,
		"Amount":          "1",
	}
}
