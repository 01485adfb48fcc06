package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func bindQuoteParams(t *testing.T, target string) QuoteParams {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)

	var params QuoteParams
	require.NoError(t, c.ShouldBindQuery(&params))
	return params
}

func TestQuoteParamsSlippageAbsentVsZero(t *testing.T) {
	base := "/quote?asset_in=0x01&asset_out=0x02&amount_in=100"

	absent := bindQuoteParams(t, base)
	require.Nil(t, absent.SlippageBps, "absent slippage_bps must stay nil so the default applies")

	zero := bindQuoteParams(t, base+"&slippage_bps=0")
	require.NotNil(t, zero.SlippageBps)
	require.Equal(t, 0, *zero.SlippageBps)

	custom := bindQuoteParams(t, base+"&slippage_bps=75")
	require.NotNil(t, custom.SlippageBps)
	require.Equal(t, 75, *custom.SlippageBps)
}
