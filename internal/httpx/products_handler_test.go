package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-backend/internal/catalog"
	"shop-backend/internal/errx"
)

type stubCatalogStore struct {
	createFn func(*catalog.Product) error
	getFn    func(int64) (catalog.Product, error)
	updateFn func(int64, catalog.UpdateParams) (catalog.Product, error)
	setImage func(int64, string) error
	deleteFn func(int64) error
}

func (s *stubCatalogStore) List(ctx context.Context) ([]catalog.Product, error) { return nil, nil }

func (s *stubCatalogStore) Get(ctx context.Context, id int64) (catalog.Product, error) {
	return s.getFn(id)
}

func (s *stubCatalogStore) Create(ctx context.Context, p *catalog.Product) error {
	return s.createFn(p)
}

func (s *stubCatalogStore) Update(ctx context.Context, id int64, params catalog.UpdateParams) (catalog.Product, error) {
	return s.updateFn(id, params)
}

func (s *stubCatalogStore) SetImageURL(ctx context.Context, id int64, u string) error {
	return s.setImage(id, u)
}

func (s *stubCatalogStore) Delete(ctx context.Context, id int64) error { return s.deleteFn(id) }

type recordUploader struct {
	key  string
	fail bool
}

func (u *recordUploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if u.fail {
		return "", errors.New("bucket unreachable")
	}
	u.key = key
	_, _ = io.Copy(io.Discard, body)
	return "https://cdn.example.com/" + key, nil
}

func newProductsRouter(store catalog.Store, up catalog.Uploader) *chi.Mux {
	r := chi.NewRouter()
	h := &ProductsHandler{Svc: &catalog.Service{Store: store, Blobs: up}}
	h.Register(r)
	return r
}

func postForm(r http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func productForm() url.Values {
	return url.Values{
		"name":        {"Keyboard"},
		"description": {"Tenkeyless"},
		"price":       {"10.00"},
		"stock_count": {"5"},
	}
}

func TestCreateProductEndpoint(t *testing.T) {
	var created catalog.Product
	store := &stubCatalogStore{
		createFn: func(p *catalog.Product) error {
			p.ID = 3
			created = *p
			return nil
		},
	}
	r := newProductsRouter(store, nil)

	rec := postForm(r, "/products", productForm())
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Product created", body["message"])
	assert.EqualValues(t, 3, body["id"])

	assert.Equal(t, "Keyboard", created.Name)
	assert.Equal(t, "10.00", created.Price.StringFixed(2))
	assert.Equal(t, 5, created.StockCount)
	assert.Equal(t, catalog.DefaultCategory, created.Category)
}

func TestCreateProductEndpointBadRequests(t *testing.T) {
	r := newProductsRouter(&stubCatalogStore{}, nil)

	missingName := productForm()
	missingName.Del("name")
	badPrice := productForm()
	badPrice.Set("price", "ten")
	badStock := productForm()
	badStock.Set("stock_count", "many")

	for name, form := range map[string]url.Values{
		"missing name": missingName,
		"bad price":    badPrice,
		"bad stock":    badStock,
	} {
		t.Run(name, func(t *testing.T) {
			rec := postForm(r, "/products", form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func multipartProductForm(t *testing.T, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range productForm() {
		require.NoError(t, mw.WriteField(k, vs[0]))
	}
	if withImage {
		fw, err := mw.CreateFormFile("image", "keyboard.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateProductEndpointWithImage(t *testing.T) {
	store := &stubCatalogStore{
		createFn: func(p *catalog.Product) error { p.ID = 4; return nil },
		setImage: func(id int64, u string) error {
			assert.EqualValues(t, 4, id)
			assert.Equal(t, "https://cdn.example.com/products/4", u)
			return nil
		},
	}
	up := &recordUploader{}
	r := newProductsRouter(store, up)

	body, contentType := multipartProductForm(t, true)
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "products/4", up.key)
}

func TestCreateProductEndpointUploadFailure(t *testing.T) {
	store := &stubCatalogStore{
		createFn: func(p *catalog.Product) error { p.ID = 4; return nil },
	}
	r := newProductsRouter(store, &recordUploader{fail: true})

	body, contentType := multipartProductForm(t, true)
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload product image failed")
}

func TestUpdateProductEndpointPartial(t *testing.T) {
	store := &stubCatalogStore{
		updateFn: func(id int64, params catalog.UpdateParams) (catalog.Product, error) {
			require.NotNil(t, params.StockCount)
			assert.Equal(t, 9, *params.StockCount)
			assert.Nil(t, params.Name)
			assert.Nil(t, params.Price)
			return catalog.Product{ID: id, StockCount: 9}, nil
		},
	}
	r := newProductsRouter(store, nil)

	req := httptest.NewRequest(http.MethodPut, "/products/3",
		strings.NewReader(url.Values{"stock_count": {"9"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetProductEndpoint(t *testing.T) {
	store := &stubCatalogStore{
		getFn: func(id int64) (catalog.Product, error) {
			return catalog.Product{}, &errx.NotFoundError{Entity: "product", ID: id}
		},
	}
	r := newProductsRouter(store, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/oops", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProductEndpoint(t *testing.T) {
	store := &stubCatalogStore{
		deleteFn: func(id int64) error {
			if id != 3 {
				return &errx.NotFoundError{Entity: "product", ID: id}
			}
			return nil
		},
	}
	r := newProductsRouter(store, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
