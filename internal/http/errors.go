package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/velodex/route-advisor/internal/common"
	"github.com/velodex/route-advisor/internal/http/httputil"
	"github.com/velodex/route-advisor/internal/services/router"
)

// httpErrorFor maps router errors onto the HTTP error taxonomy: bad input
// is the caller's fault (400), an unroutable pair is a valid query with no
// answer (404), anything else is ours (500).
func httpErrorFor(err error) *common.HttpError {
	switch {
	case errors.Is(err, router.ErrInvalidInput), errors.Is(err, router.ErrInvalidAmount):
		return common.HTTPErrorBadRequest(err.Error())
	case errors.Is(err, router.ErrNoRouteFound), errors.Is(err, router.ErrInsufficientLiquidity):
		return common.HTTPErrorNotFound(err.Error())
	default:
		return common.HTTPErrorInternalError(err.Error())
	}
}

func writeError(c *gin.Context, err error) {
	he := httpErrorFor(err)
	httputil.Error(c, he.StatusCode, he.Message)
}
