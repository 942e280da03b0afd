package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-backend/internal/errx"
)

type memCatalog struct {
	products map[int64]*Product
	nextID   int64
}

func newMemCatalog() *memCatalog {
	return &memCatalog{products: map[int64]*Product{}}
}

func (m *memCatalog) List(ctx context.Context) ([]Product, error) {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memCatalog) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, &errx.NotFoundError{Entity: "product", ID: id}
	}
	return *p, nil
}

func (m *memCatalog) Create(ctx context.Context, p *Product) error {
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memCatalog) Update(ctx context.Context, id int64, params UpdateParams) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, &errx.NotFoundError{Entity: "product", ID: id}
	}
	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	if params.Price != nil {
		p.Price = *params.Price
	}
	if params.StockCount != nil {
		p.StockCount = *params.StockCount
	}
	if params.Category != nil {
		p.Category = *params.Category
	}
	return *p, nil
}

func (m *memCatalog) SetImageURL(ctx context.Context, id int64, url string) error {
	p, ok := m.products[id]
	if !ok {
		return &errx.NotFoundError{Entity: "product", ID: id}
	}
	p.ImageURL = &url
	return nil
}

func (m *memCatalog) Delete(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return &errx.NotFoundError{Entity: "product", ID: id}
	}
	delete(m.products, id)
	return nil
}

type fakeUploader struct {
	keys []string
	fail bool
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if f.fail {
		return "", errors.New("bucket unreachable")
	}
	f.keys = append(f.keys, key)
	_, _ = io.Copy(io.Discard, body)
	return "https://cdn.example.com/" + key, nil
}

func validCreate() CreateInput {
	return CreateInput{
		Name:        "Keyboard",
		Description: "Tenkeyless",
		Price:       decimal.RequireFromString("10.00"),
		StockCount:  5,
	}
}

func TestCreateDefaultsCategory(t *testing.T) {
	store := newMemCatalog()
	svc := &Service{Store: store}

	p, err := svc.Create(context.Background(), validCreate(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, p.Category)
	assert.Nil(t, p.ImageURL)
	assert.Equal(t, DefaultCategory, store.products[p.ID].Category)
}

func TestCreateValidation(t *testing.T) {
	svc := &Service{Store: newMemCatalog()}
	ctx := context.Background()

	cases := []func(*CreateInput){
		func(in *CreateInput) { in.Name = "" },
		func(in *CreateInput) { in.Description = "" },
		func(in *CreateInput) { in.Price = decimal.RequireFromString("-0.01") },
		func(in *CreateInput) { in.StockCount = 0 },
		func(in *CreateInput) { in.StockCount = -2 },
	}
	for _, mutate := range cases {
		in := validCreate()
		mutate(&in)
		_, err := svc.Create(ctx, in, nil)
		var ve *errx.ValidationError
		require.True(t, errors.As(err, &ve), "input %+v: got %v", in, err)
	}
}

func TestCreateWithImage(t *testing.T) {
	store := newMemCatalog()
	up := &fakeUploader{}
	svc := &Service{Store: store, Blobs: up}

	img := &Image{ContentType: "image/png", Body: strings.NewReader("png bytes")}
	p, err := svc.Create(context.Background(), validCreate(), img)
	require.NoError(t, err)
	require.NotNil(t, p.ImageURL)
	assert.Equal(t, "https://cdn.example.com/products/1", *p.ImageURL)
	assert.Equal(t, []string{"products/1"}, up.keys)
}

func TestCreateUploadFailureKeepsRow(t *testing.T) {
	store := newMemCatalog()
	svc := &Service{Store: store, Blobs: &fakeUploader{fail: true}}

	img := &Image{ContentType: "image/png", Body: strings.NewReader("png bytes")}
	p, err := svc.Create(context.Background(), validCreate(), img)

	var ext *errx.ExternalError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, "upload product image", ext.Op)

	// the row survives with no image set
	require.NotZero(t, p.ID)
	stored, ok := store.products[p.ID]
	require.True(t, ok)
	assert.Nil(t, stored.ImageURL)
}

func TestUpdatePartialFields(t *testing.T) {
	store := newMemCatalog()
	svc := &Service{Store: store}
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate(), nil)
	require.NoError(t, err)

	price := decimal.RequireFromString("12.50")
	stock := 9
	got, err := svc.Update(ctx, p.ID, UpdateParams{Price: &price, StockCount: &stock}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", got.Name)
	assert.Equal(t, "12.50", got.Price.StringFixed(2))
	assert.Equal(t, 9, got.StockCount)
}

func TestUpdateUploadFailureAbortsFieldChanges(t *testing.T) {
	store := newMemCatalog()
	up := &fakeUploader{}
	svc := &Service{Store: store, Blobs: up}
	ctx := context.Background()

	p, err := svc.Create(ctx, validCreate(), nil)
	require.NoError(t, err)

	up.fail = true
	name := "Renamed"
	img := &Image{ContentType: "image/jpeg", Body: strings.NewReader("jpeg bytes")}
	_, err = svc.Update(ctx, p.ID, UpdateParams{Name: &name}, img)

	var ext *errx.ExternalError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, "Keyboard", store.products[p.ID].Name)
}

func TestUpdateValidation(t *testing.T) {
	svc := &Service{Store: newMemCatalog()}
	neg := decimal.RequireFromString("-1")
	_, err := svc.Update(context.Background(), 1, UpdateParams{Price: &neg}, nil)
	var ve *errx.ValidationError
	require.True(t, errors.As(err, &ve))

	bad := -1
	_, err = svc.Update(context.Background(), 1, UpdateParams{StockCount: &bad}, nil)
	require.True(t, errors.As(err, &ve))
}

func TestUpdateUnknownProduct(t *testing.T) {
	svc := &Service{Store: newMemCatalog()}
	name := "x"
	_, err := svc.Update(context.Background(), 42, UpdateParams{Name: &name}, nil)
	var nf *errx.NotFoundError
	require.True(t, errors.As(err, &nf))
}

func TestDeleteUnknownProduct(t *testing.T) {
	svc := &Service{Store: newMemCatalog()}
	err := svc.Delete(context.Background(), 42)
	var nf *errx.NotFoundError
	require.True(t, errors.As(err, &nf))
}
