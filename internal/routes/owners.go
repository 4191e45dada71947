package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ledgerpay/ledgerpay/internal/owners"
	"github.com/ledgerpay/ledgerpay/internal/wallet"
)

// RegisterOwnerRoutes wires owner registration and auto-provisions a default
// wallet for every new owner.
func RegisterOwnerRoutes(r fiber.Router, svc *owners.Service, directory *wallet.Directory, logger *slog.Logger) {
	r.Post("/owners/register", func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		owner, err := svc.Register(c.UserContext(), owners.RegisterInput{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
		})
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		var walletID string
		if directory != nil {
			w, _ := directory.CreateWallet(c.UserContext(), wallet.CreateInput{OwnerID: owner.ID, Name: "Main"})
			walletID = w.ID
		}
		if logger != nil {
			logger.Info("owner registered",
				slog.String("owner_id", owner.ID),
				slog.String("email", owner.Email),
				slog.String("wallet_id", walletID),
			)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"owner_id":  owner.ID,
			"email":     owner.Email,
			"name":      owner.Name,
			"wallet_id": walletID,
		})
	})
}
