package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shop/internal/domain/apperr"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.InvalidInput("bad"), http.StatusBadRequest},
		{apperr.NotFound("order"), http.StatusNotFound},
		{apperr.PermissionDenied("admin only"), http.StatusForbidden},
		{apperr.InvalidState("cart is empty"), http.StatusConflict},
		{apperr.InsufficientStock("Clavier"), http.StatusConflict},
		{apperr.GatewayFailure("card declined"), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		ctx := e.NewContext(req, rec)

		require.NoError(t, writeError(ctx, c.err))
		assert.Equalf(t, c.status, rec.Code, "%v", c.err)
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	require.NoError(t, writeError(ctx, errors.New("pq: connection refused")))
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
