package httpserver

import (
	"bytes"
	"log"
	"net/http"

	"shophub/internal/storefront"

	"github.com/gin-gonic/gin"
)

// storefrontHandler renders the shop page. ?userId= preloads that account's saved cart.
func storefrontHandler(logger *log.Logger, products productService, users userService, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		catalog, err := products.List(c.Request.Context())
		if err != nil {
			writeError(c, logger, err)
			return
		}
		page := storefront.Page{
			Products:       catalog,
			PublishableKey: opts.PublishableKey,
			Currency:       opts.Currency,
		}
		if userID := c.Query("userId"); userID != "" && !opts.CartRequireAuth {
			lines, err := users.Cart(c.Request.Context(), userID)
			if err != nil {
				logger.Printf("api: storefront cart user_id=%s error=%v", userID, err)
			} else {
				page.UserID = userID
				page.Cart = storefront.FromLines(lines, catalog)
			}
		}

		var buf bytes.Buffer
		if err := storefront.Render(&buf, page); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	}
}
