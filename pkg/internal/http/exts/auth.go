package exts

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AccountHeader carries the caller identity, set by the gateway in front of
// this service after it authenticated the request.
const AccountHeader = "X-Account-Id"

func EnsureAuthenticated(c *fiber.Ctx) error {
	account := strings.TrimSpace(c.Get(AccountHeader))
	if len(account) == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	c.Locals("user", account)
	return nil
}

func GetAccount(c *fiber.Ctx) string {
	account, _ := c.Locals("user").(string)
	return account
}
