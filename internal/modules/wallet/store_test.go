// README: DB-backed wallet tests covering debit atomicity under concurrency.
package wallet

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"nomnomgo/internal/types"
)

func TestDebit_InsufficientFunds(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	customerID := types.ID("cust-insufficient")

	if err := store.SetBalance(ctx, customerID, types.NewMoney(500)); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	_, err := store.Debit(ctx, customerID, types.NewMoney(1000))
	var ife *InsufficientFundsError
	if !errors.As(err, &ife) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if ife.CurrentBalance.Amount != 500 {
		t.Fatalf("expected reported balance 500, got %d", ife.CurrentBalance.Amount)
	}
	if ife.Required.Amount != 1000 {
		t.Fatalf("expected reported required 1000, got %d", ife.Required.Amount)
	}

	w, err := store.Get(ctx, customerID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.Balance.Amount != 500 {
		t.Fatalf("balance changed on failed debit: %d", w.Balance.Amount)
	}
}

func TestDebit_ConcurrentNeverOverdraws(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	customerID := types.ID("cust-race")

	// 10 debits of 300 against a balance of 1000: exactly 3 can succeed.
	if err := store.SetBalance(ctx, customerID, types.NewMoney(1000)); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	const attempts = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Debit(ctx, customerID, types.NewMoney(300))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			var ife *InsufficientFundsError
			if !errors.As(err, &ife) {
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 3 {
		t.Fatalf("expected exactly 3 successful debits, got %d", success)
	}
	w, err := store.Get(ctx, customerID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.Balance.Amount != 100 {
		t.Fatalf("expected final balance 100, got %d", w.Balance.Amount)
	}
}

func TestGet_CreatesEmptyWallet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	w, err := store.Get(ctx, types.ID("cust-fresh"))
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if !w.Balance.IsZero() {
		t.Fatalf("expected fresh wallet at zero, got %d", w.Balance.Amount)
	}
}

func TestCredit_UpsertsAndAccumulates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	customerID := types.ID("cust-credit")

	b, err := store.Credit(ctx, customerID, types.NewMoney(250))
	if err != nil {
		t.Fatalf("first credit: %v", err)
	}
	if b.Amount != 250 {
		t.Fatalf("expected 250 after first credit, got %d", b.Amount)
	}
	b, err = store.Credit(ctx, customerID, types.NewMoney(750))
	if err != nil {
		t.Fatalf("second credit: %v", err)
	}
	if b.Amount != 1000 {
		t.Fatalf("expected 1000 after second credit, got %d", b.Amount)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("NOMNOM_TEST_DSN")
	if dsn == "" {
		t.Skip("NOMNOM_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE wallets"); err != nil {
		t.Fatalf("truncate wallets: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
