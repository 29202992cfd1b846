package handler

import (
	"errors"
	"log/slog"

	"go-site-inventory/internal/export"
	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/service"
	"go-site-inventory/internal/storage"
	"go-site-inventory/pkg/jwt"
	"go-site-inventory/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps service errors to a status code and an {"error": ...} body.
func respondError(c *fiber.Ctx, err error) error {
	var short *ledger.InsufficientStockError
	if errors.As(err, &short) {
		return c.Status(409).JSON(fiber.Map{
			"error":     err.Error(),
			"requested": short.Requested,
			"available": short.Available,
		})
	}

	switch {
	case errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, validator.ErrValidation),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrEmpty),
		errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrBadPath),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrWeakPassword):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateSiteCode):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSiteNotFound),
		errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, storage.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, jwt.ErrInvalidToken):
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}

// actor reads the user set by the auth middleware.
func actor(c *fiber.Ctx) service.Actor {
	a := service.Actor{ID: "system", Name: "Unknown"}
	if v, ok := c.Locals("user_id").(string); ok {
		a.ID = v
	}
	if v, ok := c.Locals("user_name").(string); ok {
		a.Name = v
	}
	if v, ok := c.Locals("user_email").(string); ok {
		a.Email = v
	}
	return a
}

func siteParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("siteID"))
	if err != nil {
		return uuid.Nil, &ledger.InvalidInputError{Field: "site_id", Reason: "must be a UUID"}
	}
	return id, nil
}

func materialParam(c *fiber.Ctx) (ledger.Material, error) {
	return ledger.ParseMaterial(c.Params("material"))
}

// scope parses the site and material path parameters shared by the ledger routes.
func scope(c *fiber.Ctx) (uuid.UUID, ledger.Material, error) {
	siteID, err := siteParam(c)
	if err != nil {
		return uuid.Nil, "", err
	}
	m, err := materialParam(c)
	if err != nil {
		return uuid.Nil, "", err
	}
	return siteID, m, nil
}

func periodQuery(c *fiber.Ctx) (ledger.PeriodFilter, error) {
	return ledger.ParsePeriod(c.Query("period"), c.Query("start"), c.Query("end"))
}
