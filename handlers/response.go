package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"interview_booking_app_go/services"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Response is the envelope of every API response
type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Page wraps one page of a listing
type Page struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func okMessage(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func paginated(c echo.Context, items interface{}, page, pageSize int, total int64) error {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}
	return ok(c, Page{Items: items, Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages})
}

// pageParams reads ?page= and ?page_size= with defaults
func pageParams(c echo.Context, defaultSize, maxSize int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}

// CustomValidator adapts go-playground/validator to echo.Validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their json name
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// bindAndValidate binds the request body into dst and runs struct validation
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(dst)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// errorStatus maps service errors onto HTTP status codes
var errorStatus = []struct {
	err  error
	code int
}{
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrNoRecipients, http.StatusBadRequest},
	{services.ErrDateBlocked, http.StatusBadRequest},
	{services.ErrSlotUnavailable, http.StatusBadRequest},
	{services.ErrInvalidTransition, http.StatusBadRequest},
	{services.ErrBookingNotEditable, http.StatusBadRequest},
	{services.ErrTemplateInactive, http.StatusBadRequest},
	{services.ErrResetTokenInvalid, http.StatusBadRequest},
	{services.ErrCaptchaFailed, http.StatusBadRequest},

	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrInvalidToken, http.StatusUnauthorized},

	{services.ErrAccountInactive, http.StatusForbidden},
	{services.ErrCannotModifySelf, http.StatusForbidden},

	{services.ErrSlotNotFound, http.StatusNotFound},
	{services.ErrBlockedDateNotFound, http.StatusNotFound},
	{services.ErrConfigNotFound, http.StatusNotFound},
	{services.ErrBookingNotFound, http.StatusNotFound},
	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrTemplateNotFound, http.StatusNotFound},
	{services.ErrCampaignNotFound, http.StatusNotFound},
	{services.ErrDocumentNotFound, http.StatusNotFound},

	{services.ErrSlotFull, http.StatusConflict},
	{services.ErrSlotExists, http.StatusConflict},
	{services.ErrSlotHasBookings, http.StatusConflict},
	{services.ErrDateAlreadyBlocked, http.StatusConflict},
	{services.ErrConfigOverlap, http.StatusConflict},
	{services.ErrActiveBookingExists, http.StatusConflict},
	{services.ErrBookingHasDocuments, http.StatusConflict},
	{services.ErrDuplicateEmail, http.StatusConflict},
	{services.ErrTemplateNameTaken, http.StatusConflict},
	{services.ErrCampaignFinished, http.StatusConflict},
	{services.ErrCampaignRunning, http.StatusConflict},
}

// statusFor returns the HTTP status for a service error, 500 when unknown
func statusFor(err error) int {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// HTTPErrorHandler renders every error as the JSON envelope. Unknown errors
// are logged and answered with a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	resp := Response{Success: false}

	var he *echo.HTTPError
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		code = http.StatusBadRequest
		resp.Error = "validation failed"
		resp.Errors = make(map[string]string, len(ve))
		for _, fe := range ve {
			resp.Errors[fe.Field()] = validationMessage(fe)
		}
	case errors.As(err, &he):
		code = he.Code
		if msg, isString := he.Message.(string); isString {
			resp.Error = msg
		} else {
			resp.Error = http.StatusText(code)
		}
	default:
		code = statusFor(err)
		resp.Error = err.Error()
	}

	if code >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		resp.Error = "Internal server error"
	}
	if resp.Message == "" {
		resp.Message = http.StatusText(code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, resp)
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
