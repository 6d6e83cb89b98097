package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/invoicing-portal/internal/service"
)

// EntityHandler serves the operator endpoints under /v1/admin/entities.
type EntityHandler struct {
	Svc *service.EntityService
}

func NewEntityHandler(s *service.EntityService) *EntityHandler {
	return &EntityHandler{Svc: s}
}

// ----- DTOs -----

type createEntityReq struct {
	Username         string `json:"username" validate:"required"`
	Password         string `json:"password" validate:"required,min=8"`
	Image            string `json:"image"`
	BusinessName     string `json:"business_name" validate:"required"`
	RegistrationType string `json:"registration_type" validate:"required,registration_type"`
	Province         string `json:"province" validate:"required,province"`
	NTN              string `json:"ntn"`
	CNIC             string `json:"cnic"`
	STRN             string `json:"strn"`
	FullAddress      string `json:"full_address" validate:"required"`
}

type updateEntityReq struct {
	Image            *string `json:"image"`
	BusinessName     *string `json:"business_name" validate:"omitempty,min=1"`
	RegistrationType *string `json:"registration_type" validate:"omitempty,registration_type"`
	Province         *string `json:"province" validate:"omitempty,province"`
	NTN              *string `json:"ntn"`
	CNIC             *string `json:"cnic"`
	STRN             *string `json:"strn"`
	FullAddress      *string `json:"full_address" validate:"omitempty,min=1"`
}

type resetPasswordReq struct {
	Password string `json:"password" validate:"required,min=8"`
}

type listEntitiesReq struct {
	BusinessName     string `query:"business_name"`
	RegistrationType string `query:"registration_type"`
	Province         string `query:"province"`
	NTN              string `query:"ntn"`
	CNIC             string `query:"cnic"`
	STRN             string `query:"strn"`
	Status           string `query:"status"`
	DateFrom         string `query:"date_from"`
	DateTo           string `query:"date_to"`
	Page             int    `query:"page"`
	Limit            int    `query:"limit"`
}

// Create registers an entity and its client login in one step.
func (h *EntityHandler) Create(c echo.Context) error {
	var req createEntityReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, acct, err := h.Svc.Create(ctx, service.CreateEntityInput{
		Username:         req.Username,
		Password:         req.Password,
		Image:            req.Image,
		BusinessName:     req.BusinessName,
		RegistrationType: req.RegistrationType,
		Province:         req.Province,
		NTN:              req.NTN,
		CNIC:             req.CNIC,
		STRN:             req.STRN,
		FullAddress:      req.FullAddress,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"entity": e, "user": acct})
}

func (h *EntityHandler) List(c echo.Context) error {
	var req listEntitiesReq
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return respondError(c, errInvalidQuery)
	}
	created, err := service.ParseCreatedRange(req.DateFrom, req.DateTo)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.Svc.List(ctx, service.EntityFilter{
		BusinessName:     req.BusinessName,
		RegistrationType: req.RegistrationType,
		Province:         req.Province,
		NTN:              req.NTN,
		CNIC:             req.CNIC,
		STRN:             req.STRN,
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

func (h *EntityHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	e, err := h.Svc.Get(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Update applies a partial update; absent fields are kept.
func (h *EntityHandler) Update(c echo.Context) error {
	var req updateEntityReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Svc.Update(ctx, c.Param("id"), service.EntityPatch(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// ToggleStatus flips the entity.  Deactivation logs its client out.
func (h *EntityHandler) ToggleStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	e, err := h.Svc.ToggleStatus(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EntityHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Svc.ResetPassword(ctx, c.Param("id"), req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated"})
}
