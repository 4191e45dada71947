package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ledgerpay/ledgerpay/internal/notification"
	"github.com/ledgerpay/ledgerpay/internal/wallet"
)

type allowAllOwners struct{}

func (allowAllOwners) OwnerExists(_ context.Context, _ string) (bool, error) { return true, nil }

type recordingNotifier struct {
	sent []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	n.sent = append(n.sent, m)
	return nil
}

func setupHandlerApp(t *testing.T) (*fiber.App, *wallet.Directory, *recordingNotifier, string) {
	t.Helper()
	store := wallet.NewMemoryStore()
	directory := wallet.NewDirectory(store, allowAllOwners{}, "USD")
	engine := NewEngine(store)
	notifier := &recordingNotifier{}
	handler := NewHandler(engine, directory, notifier)
	walletHandler := wallet.NewHandler(directory)

	ownerID := uuid.NewString()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("owner_id", ownerID)
		return c.Next()
	})
	app.Post("/wallets", walletHandler.Create)
	app.Post("/wallets/:walletId/deposit", handler.Deposit)
	app.Post("/wallets/:walletId/withdraw", handler.Withdraw)
	app.Post("/wallets/:walletId/transactions/:transactionId/confirm", handler.Confirm)

	return app, directory, notifier, ownerID
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var payload map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return resp.StatusCode, payload
}

func TestHandlerDepositWithdrawConfirmFlow(t *testing.T) {
	app, _, _, _ := setupHandlerApp(t)

	status, created := doJSON(t, app, fiber.MethodPost, "/wallets", `{"name":"Spending"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create wallet: status %d", status)
	}
	walletID, _ := created["id"].(string)

	status, dep := doJSON(t, app, fiber.MethodPost, "/wallets/"+walletID+"/deposit", `{"amount":"100.00"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("deposit: status %d body %v", status, dep)
	}
	if dep["balance_after"] != "100" && dep["balance_after"] != "100.00" {
		t.Fatalf("unexpected balance_after: %v", dep["balance_after"])
	}

	// Pending withdrawal leaves the balance alone until confirmed.
	status, pending := doJSON(t, app, fiber.MethodPost, "/wallets/"+walletID+"/withdraw", `{"amount":"30.00","confirmed":false}`)
	if status != fiber.StatusCreated {
		t.Fatalf("pending withdraw: status %d body %v", status, pending)
	}
	if confirmed, _ := pending["confirmed"].(bool); confirmed {
		t.Fatal("withdraw should be pending")
	}

	txID, _ := pending["id"].(string)
	status, settled := doJSON(t, app, fiber.MethodPost,
		fmt.Sprintf("/wallets/%s/transactions/%s/confirm", walletID, txID), "")
	if status != fiber.StatusOK {
		t.Fatalf("confirm: status %d body %v", status, settled)
	}
	if confirmed, _ := settled["confirmed"].(bool); !confirmed {
		t.Fatal("confirm did not settle the transaction")
	}

	// Overdraw is rejected with a client error.
	status, _ = doJSON(t, app, fiber.MethodPost, "/wallets/"+walletID+"/withdraw", `{"amount":"1000.00"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("overdraw: expected 400, got %d", status)
	}
}

func TestHandlerConfirmNotifiesOnce(t *testing.T) {
	app, _, notifier, _ := setupHandlerApp(t)

	status, created := doJSON(t, app, fiber.MethodPost, "/wallets", `{"name":"Spending"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create wallet: status %d", status)
	}
	walletID, _ := created["id"].(string)

	status, pending := doJSON(t, app, fiber.MethodPost, "/wallets/"+walletID+"/deposit", `{"amount":"25.00","confirmed":false}`)
	if status != fiber.StatusCreated {
		t.Fatalf("pending deposit: status %d body %v", status, pending)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("pending deposit sent %d notifications", len(notifier.sent))
	}

	txID, _ := pending["id"].(string)
	confirmPath := fmt.Sprintf("/wallets/%s/transactions/%s/confirm", walletID, txID)

	if status, _ := doJSON(t, app, fiber.MethodPost, confirmPath, ""); status != fiber.StatusOK {
		t.Fatalf("confirm: status %d", status)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one notification after confirm, got %d", len(notifier.sent))
	}

	// Re-confirming returns the record but does not notify again.
	if status, _ := doJSON(t, app, fiber.MethodPost, confirmPath, ""); status != fiber.StatusOK {
		t.Fatalf("repeat confirm: status %d", status)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("repeat confirm re-sent notifications: %d", len(notifier.sent))
	}
}

func TestHandlerRejectsForeignWallet(t *testing.T) {
	app, directory, _, _ := setupHandlerApp(t)

	other, err := directory.CreateWallet(context.Background(), wallet.CreateInput{
		OwnerID: uuid.NewString(),
		Name:    "Not Yours",
	})
	if err != nil {
		t.Fatalf("create foreign wallet: %v", err)
	}

	status, _ := doJSON(t, app, fiber.MethodPost, "/wallets/"+other.ID+"/deposit", `{"amount":"5.00"}`)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for foreign wallet, got %d", status)
	}
}
