package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/invoicing-portal/internal/middleware"
	"github.com/iliyamo/invoicing-portal/internal/service"
)

// BuyerHandler serves the buyers of the resolved tenant.
type BuyerHandler struct {
	Svc *service.BuyerService
}

func NewBuyerHandler(s *service.BuyerService) *BuyerHandler {
	return &BuyerHandler{Svc: s}
}

type createBuyerReq struct {
	BuyerName        string `json:"buyer_name" validate:"required"`
	RegistrationType string `json:"registration_type" validate:"required,registration_type"`
	Province         string `json:"province" validate:"required,province"`
	NTN              string `json:"ntn"`
	CNIC             string `json:"cnic"`
	STRN             string `json:"strn"`
	FullAddress      string `json:"full_address" validate:"required"`
}

type updateBuyerReq struct {
	BuyerName        *string `json:"buyer_name" validate:"omitempty,min=1"`
	RegistrationType *string `json:"registration_type" validate:"omitempty,registration_type"`
	Province         *string `json:"province" validate:"omitempty,province"`
	NTN              *string `json:"ntn"`
	CNIC             *string `json:"cnic"`
	STRN             *string `json:"strn"`
	FullAddress      *string `json:"full_address" validate:"omitempty,min=1"`
}

type listBuyersReq struct {
	BuyerName        string `query:"buyer_name"`
	NTN              string `query:"ntn"`
	CNIC             string `query:"cnic"`
	RegistrationType string `query:"registration_type"`
	Province         string `query:"province"`
	Status           string `query:"status"`
	DateFrom         string `query:"date_from"`
	DateTo           string `query:"date_to"`
	Page             int    `query:"page"`
	Limit            int    `query:"limit"`
}

func (h *BuyerHandler) Create(c echo.Context) error {
	var req createBuyerReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	b, err := h.Svc.Create(ctx, middleware.TenantFrom(c), service.BuyerInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List filters and pages the tenant's buyers.
func (h *BuyerHandler) List(c echo.Context) error {
	var req listBuyersReq
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return respondError(c, errInvalidQuery)
	}
	created, err := service.ParseCreatedRange(req.DateFrom, req.DateTo)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.Svc.List(ctx, middleware.TenantFrom(c), service.BuyerFilter{
		BuyerName:        req.BuyerName,
		NTN:              req.NTN,
		CNIC:             req.CNIC,
		RegistrationType: req.RegistrationType,
		Province:         req.Province,
		Status:           req.Status,
		Created:          created,
		Page:             req.Page,
		Limit:            req.Limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListActive returns the buyers an invoice can be issued to.
func (h *BuyerHandler) ListActive(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Svc.ListActive(ctx, middleware.TenantFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BuyerHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	b, err := h.Svc.Get(ctx, middleware.TenantFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BuyerHandler) Update(c echo.Context) error {
	var req updateBuyerReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	b, err := h.Svc.Update(ctx, middleware.TenantFrom(c), c.Param("id"), service.BuyerPatch(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BuyerHandler) ToggleStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	b, err := h.Svc.ToggleStatus(ctx, middleware.TenantFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}
