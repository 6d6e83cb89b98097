package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/invoicing-portal/internal/apperr"
	"github.com/iliyamo/invoicing-portal/internal/middleware"
	"github.com/iliyamo/invoicing-portal/internal/model"
	"github.com/iliyamo/invoicing-portal/internal/service"
	"github.com/iliyamo/invoicing-portal/internal/sheet"
)

// DefaultUploadMaxBytes caps a bulk upload when no limit is configured.
const DefaultUploadMaxBytes = 10 << 20

// InvoiceHandler serves the invoices of the resolved tenant.
type InvoiceHandler struct {
	Svc       *service.InvoiceService
	Bulk      *service.BulkReconciler
	MaxUpload int64
}

// multipartOverhead leaves room for part headers and boundaries around the
// uploaded file.
const multipartOverhead = 4 << 10

// UploadBodyLimit bounds the whole bulk upload request, in the notation of
// echo's BodyLimit middleware.
func (h *InvoiceHandler) UploadBodyLimit() string {
	return strconv.FormatInt(h.MaxUpload+multipartOverhead, 10) + "B"
}

func NewInvoiceHandler(s *service.InvoiceService, b *service.BulkReconciler, maxUpload int64) *InvoiceHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultUploadMaxBytes
	}
	return &InvoiceHandler{Svc: s, Bulk: b, MaxUpload: maxUpload}
}

// invoiceReq is the body of create and update.  invoice_date accepts an
// RFC 3339 or calendar date string, or a spreadsheet serial day.  Totals
// sent by the client are ignored.
type invoiceReq struct {
	BuyerID       string          `json:"buyer_id" validate:"required"`
	InvoiceNumber string          `json:"invoice_number" validate:"required"`
	InvoiceDate   any             `json:"invoice_date"`
	InvoiceType   string          `json:"invoice_type" validate:"required"`
	InvoiceRefNo  string          `json:"invoice_ref_no"`
	Salesman      string          `json:"salesman"`
	Items         []model.RawItem `json:"items"`
}

func (r invoiceReq) input(now time.Time) (service.InvoiceInput, error) {
	var date time.Time
	if r.InvoiceDate != nil && r.InvoiceDate != "" {
		d, err := service.ParseInvoiceDate(r.InvoiceDate, now)
		if err != nil {
			return service.InvoiceInput{}, apperr.Validation(err.Error())
		}
		date = d
	}
	return service.InvoiceInput{
		BuyerID: r.BuyerID,
		Header: model.InvoiceHeader{
			InvoiceNumber: r.InvoiceNumber,
			InvoiceDate:   date,
			InvoiceType:   r.InvoiceType,
			InvoiceRefNo:  r.InvoiceRefNo,
			Salesman:      r.Salesman,
		},
		Items: r.Items,
	}, nil
}

func (h *InvoiceHandler) decode(c echo.Context) (service.InvoiceInput, error) {
	var req invoiceReq
	if err := bind(c, &req); err != nil {
		return service.InvoiceInput{}, err
	}
	return req.input(time.Now().UTC())
}

func (h *InvoiceHandler) Create(c echo.Context) error {
	in, err := h.decode(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	inv, err := h.Svc.Create(ctx, middleware.TenantFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *InvoiceHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Svc.List(ctx, middleware.TenantFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InvoiceHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	inv, err := h.Svc.Get(ctx, middleware.TenantFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// Update rewrites an unsent invoice.  A sent invoice answers 404.
func (h *InvoiceHandler) Update(c echo.Context) error {
	in, err := h.decode(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	inv, err := h.Svc.Update(ctx, middleware.TenantFrom(c), c.Param("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Svc.Delete(ctx, middleware.TenantFrom(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Invoice deleted"})
}

func (h *InvoiceHandler) MarkSent(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	inv, err := h.Svc.MarkSent(ctx, middleware.TenantFrom(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// BulkUpload imports the spreadsheet in the multipart field "file".
func (h *InvoiceHandler) BulkUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respondError(c, apperr.Validation("file is required"))
	}
	if fh.Size > h.MaxUpload {
		return respondError(c, apperr.Validation(fmt.Sprintf("file exceeds %d bytes", h.MaxUpload)))
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	rows, err := sheet.Read(f, fh.Filename)
	if errors.Is(err, sheet.ErrUnsupportedFormat) {
		return respondError(c, apperr.Validation("Only .xlsx and .csv files are supported"))
	}
	if err != nil {
		return respondError(c, apperr.ErrValidation.WithMessage("Could not read spreadsheet").Wrap(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()
	ids, err := h.Bulk.Reconcile(ctx, middleware.TenantFrom(c), rows)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":    fmt.Sprintf("%d invoices imported", len(ids)),
		"count":      len(ids),
		"invoiceIds": ids,
	})
}
