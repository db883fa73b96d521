package shared

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

// JSONMarshal and JSONUnmarshal are handed to fiber.Config so request
// bodies and c.JSON share the sonic codec with ResponseJSON.
func JSONMarshal(v interface{}) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

func JSONUnmarshal(data []byte, v interface{}) error {
	return jsonAPI.Unmarshal(data, v)
}

var (
	successResponse       = mustMarshal(Response{Code: 200, Message: "Success"})
	createdResponse       = mustMarshal(Response{Code: 201, Message: "Created"})
	notFoundResponse      = mustMarshal(Response{Code: 404, Message: "Not Found"})
	unauthorizedResponse  = mustMarshal(Response{Code: 401, Message: "Unauthorized"})
	forbiddenResponse     = mustMarshal(Response{Code: 403, Message: "Forbidden"})
	internalErrorResponse = mustMarshal(Response{Code: 500, Message: "Internal Server Error"})
)

func mustMarshal(v interface{}) []byte {
	b, _ := jsonAPI.Marshal(v)
	return b
}

func ResponseJSON(c *fiber.Ctx, httpCode int, message string, data interface{}) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)

	if data == nil {
		switch {
		case httpCode == 200 && message == "Success":
			return c.Status(httpCode).Send(successResponse)
		case httpCode == 201 && message == "Created":
			return c.Status(httpCode).Send(createdResponse)
		case httpCode == 404 && message == "Not Found":
			return c.Status(httpCode).Send(notFoundResponse)
		case httpCode == 401 && message == "Unauthorized":
			return c.Status(httpCode).Send(unauthorizedResponse)
		case httpCode == 403 && message == "Forbidden":
			return c.Status(httpCode).Send(forbiddenResponse)
		case httpCode == 500 && message == "Internal Server Error":
			return c.Status(httpCode).Send(internalErrorResponse)
		}
	}

	body, err := jsonAPI.Marshal(Response{
		Code:    httpCode,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return err
	}
	return c.Status(httpCode).Send(body)
}

func ResponseNotFound(c *fiber.Ctx) error {
	return ResponseJSON(c, fiber.StatusNotFound, "Not Found", nil)
}

func ResponseUnauthorized(c *fiber.Ctx, detail string) error {
	if detail == "" {
		return ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", nil)
	}
	return ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", detail)
}

func ResponseForbidden(c *fiber.Ctx) error {
	return ResponseJSON(c, fiber.StatusForbidden, "Forbidden", nil)
}

func ResponseInternalError(c *fiber.Ctx) error {
	return ResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", nil)
}
