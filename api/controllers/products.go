package controllers

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shivshakti/boutique-backend/api/responses"
	"github.com/shivshakti/boutique-backend/api/validators"
	product "github.com/shivshakti/boutique-backend/internal/products"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

const (
	productImageField     = "imageFile"
	multipartMemoryBytes  = 8 << 20
	multipartFieldsBudget = 1 << 20
	maxFilterLength       = 100
)

func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), product.ListFilters{
			Category: validators.ParseQueryString(r, "category", maxFilterLength),
			Query:    validators.ParseQueryString(r, "q", maxFilterLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ProductCreate accepts JSON with an image URL, or a multipart form whose
// imageFile part is uploaded to object storage.
func ProductCreate(svc product.Service, maxImageBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			input product.CreateProductInput
			err   error
		)
		if isMultipart(r) {
			r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+multipartFieldsBudget)
			var cleanup func()
			input, cleanup, err = decodeProductForm(r)
			if cleanup != nil {
				defer cleanup()
			}
		} else {
			err = validators.DecodeJSONBody(r, &input)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"id": id.String(), "status": "deleted"})
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func decodeProductForm(r *http.Request) (product.CreateProductInput, func(), error) {
	var input product.CreateProductInput
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return input, nil, pkgerrors.New(pkgerrors.CodeValidation, "upload too large").
				WithDetails(map[string]string{productImageField: "exceeds the upload limit"})
		}
		return input, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	input.Name = strings.TrimSpace(r.FormValue("name"))
	input.Description = strings.TrimSpace(r.FormValue("description"))
	input.Category = strings.TrimSpace(r.FormValue("category"))
	input.ImageURL = strings.TrimSpace(r.FormValue("image"))

	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return input, cleanup, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price").
				WithDetails(map[string]string{"price": "must be numeric"})
		}
		input.Price = price
	}

	file, header, err := r.FormFile(productImageField)
	switch {
	case err == nil:
		input.Image = &product.ImageUpload{Filename: header.Filename, Body: file}
		inner := cleanup
		cleanup = func() {
			_ = file.Close()
			inner()
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		return input, cleanup, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image upload")
	}

	if err := validators.ValidateStruct(&input); err != nil {
		return input, cleanup, err
	}
	return input, cleanup, nil
}
