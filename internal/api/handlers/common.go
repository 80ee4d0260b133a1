package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/convolens/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	_ = c.Error(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func badRequest(op, msg string) error {
	return utils.E(utils.CodeInvalidArgument, op, msg, nil)
}

// parseDate accepts YYYY-MM-DD or RFC 3339. A bare date used as an upper
// bound covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

// dateRange reads start_date and end_date from the query string.
func dateRange(c *gin.Context, op string) (start, end *time.Time, err error) {
	start, err = parseDate(c.Query("start_date"), false)
	if err != nil {
		return nil, nil, badRequest(op, "start_date must be YYYY-MM-DD or RFC3339")
	}
	end, err = parseDate(c.Query("end_date"), true)
	if err != nil {
		return nil, nil, badRequest(op, "end_date must be YYYY-MM-DD or RFC3339")
	}
	return start, end, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(c *gin.Context, op, name string, def int) (int, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, badRequest(op, name+" must be an integer")
	}
	return n, nil
}
