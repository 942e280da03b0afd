package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"shop-backend/internal/catalog"
)

const maxImageMemory = 10 << 20 // 10 MiB kept in memory before spooling

type ProductsHandler struct {
	Svc *catalog.Service
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.get)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Svc.List(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	var in catalog.CreateInput
	var ok bool
	if in.Name, ok = formField(r, "name"); !ok {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if in.Description, ok = formField(r, "description"); !ok {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	priceRaw, ok := formField(r, "price")
	if !ok {
		writeError(w, http.StatusBadRequest, "price is required")
		return
	}
	price, err := decimal.NewFromString(priceRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	in.Price = price
	stockRaw, ok := formField(r, "stock_count")
	if !ok {
		writeError(w, http.StatusBadRequest, "stock_count is required")
		return
	}
	if in.StockCount, err = strconv.Atoi(stockRaw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid stock_count")
		return
	}
	in.Category, _ = formField(r, "category")

	img, err := imageFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image attachment")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.Svc.Create(ctx, in, img)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Product created", "id": p.ID})
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	var params catalog.UpdateParams
	if v, ok := formField(r, "name"); ok {
		params.Name = &v
	}
	if v, ok := formField(r, "description"); ok {
		params.Description = &v
	}
	if v, ok := formField(r, "price"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid price")
			return
		}
		params.Price = &price
	}
	if v, ok := formField(r, "stock_count"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid stock_count")
			return
		}
		params.StockCount = &n
	}
	if v, ok := formField(r, "category"); ok {
		params.Category = &v
	}

	img, err := imageFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image attachment")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.Svc.Update(ctx, id, params, img)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product updated", "id": p.ID})
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Svc.Delete(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product deleted", "id": id})
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// parseForm accepts multipart (image attachment) and plain urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxImageMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func formField(r *http.Request, name string) (string, bool) {
	vs, ok := r.PostForm[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func imageFile(r *http.Request) (*catalog.Image, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &catalog.Image{ContentType: hdr.Header.Get("Content-Type"), Body: f}, nil
}
