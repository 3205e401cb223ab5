package handler

import (
	"net/http"

	"shop/internal/domain/apperr"
	"shop/internal/middleware"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError はusecaseのエラー種別をHTTPステータスに写す。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	if e, ok := apperr.As(err); ok {
		status := http.StatusInternalServerError
		switch e.Kind {
		case apperr.KindInvalidInput:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindPermissionDenied:
			status = http.StatusForbidden
		case apperr.KindInvalidState, apperr.KindInsufficientStock:
			status = http.StatusConflict
		case apperr.KindGatewayFailure:
			status = http.StatusBadGateway
		}
		return c.JSON(status, ErrorResponse{Error: e.Message, Code: string(e.Kind)})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}
	return id, true
}
