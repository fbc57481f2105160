package portal

import "github.com/gofiber/fiber/v2"

// Respond renders a view: 404 on not found, 500 with the generic message on
// failure, and the data otherwise.
func Respond[T any](c *fiber.Ctx, v View[T]) error {
	switch {
	case v.NotFound:
		return fiber.NewError(fiber.StatusNotFound, MsgNotFound)
	case v.Error != "":
		return fiber.NewError(fiber.StatusInternalServerError, MsgLoadFailed)
	}
	return c.JSON(v.Data)
}
