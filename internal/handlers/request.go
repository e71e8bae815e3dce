package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// rawInput reads a flat key/value body from JSON or form encoding.
// Repeated form keys keep their last value.
func rawInput(c *fiber.Ctx) (map[string]string, error) {
	raw := map[string]string{}

	if strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEApplicationJSON) {
		if len(c.Body()) == 0 {
			return raw, nil
		}
		var decoded map[string]any
		if err := c.BodyParser(&decoded); err != nil {
			return nil, err
		}
		for key, value := range decoded {
			switch v := value.(type) {
			case nil:
			case string:
				raw[key] = v
			case float64:
				raw[key] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				raw[key] = fmt.Sprint(v)
			}
		}
		return raw, nil
	}

	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		raw[string(key)] = string(value)
	})
	if form, err := c.MultipartForm(); err == nil {
		for key, values := range form.Value {
			if len(values) > 0 {
				raw[key] = values[len(values)-1]
			}
		}
	}
	return raw, nil
}
