package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// Search looks products up by title for linking
// GET /api/products-search?q=
func (ctrl *ProductController) Search(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	products, err := ctrl.productService.Search(c.Request.Context(), shop, c.Query("q"))
	if err != nil {
		respondServiceError(c, err, "search products")
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}
