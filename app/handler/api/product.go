package handler

import (
	"log/slog"
	"strconv"

	"inventory-sync-service/app/domain"
	"inventory-sync-service/app/handler/api/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	productUsecase domain.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productUsecase domain.ProductService, validator *validator.Validate) *ProductHandler {
	return &ProductHandler{
		productUsecase: productUsecase,
		validator:      validator,
	}
}

func (h *ProductHandler) GetAll(c *fiber.Ctx) error {
	products, err := h.productUsecase.ListProducts(c.Context())
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetAll", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(products))
}

func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	productID, err := productIDParam(c)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetByID", "productID", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	product, err := h.productUsecase.GetProduct(c.Context(), productID)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] GetByID", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(product))
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req domain.ProductCreateRequest
	if err := c.BodyParser(&req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "bodyParser", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	result, err := h.productUsecase.CreateProduct(c.Context(), req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] Create", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusCreated).JSON(response.Success(result))
}

// UpdateStock takes the new value from a JSON body or, when the body has
// none, from the stock query parameter.
func (h *ProductHandler) UpdateStock(c *fiber.Ctx) error {
	productID, err := productIDParam(c)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] UpdateStock", "productID", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
	}

	var req domain.UpdateStockRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			slog.ErrorContext(c.Context(), "[productHandler] UpdateStock", "bodyParser", err)
			return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
		}
	}
	if req.Stock == nil {
		if raw := c.Query("stock"); raw != "" {
			stock, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				slog.ErrorContext(c.Context(), "[productHandler] UpdateStock", "parseInt:"+raw, err)
				return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrBadRequest))
			}
			req.Stock = &stock
		}
	}

	if err := h.validator.Struct(req); err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] UpdateStock", "validation", err)
		return c.Status(fiber.StatusBadRequest).JSON(response.Error(domain.ErrValidation))
	}

	result, err := h.productUsecase.UpdateStock(c.Context(), productID, req)
	if err != nil {
		slog.ErrorContext(c.Context(), "[productHandler] UpdateStock", "usecase", err)
		status, resp := response.FromError(err)
		return c.Status(status).JSON(resp)
	}

	return c.Status(fiber.StatusOK).JSON(response.Success(result))
}

func productIDParam(c *fiber.Ctx) (int64, error) {
	raw := c.Params("product_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
