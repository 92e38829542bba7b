// Package routes contém os handlers do gateway: proxy de produtos e
// endpoints de health. Cada rota mapeia 1:1 para o verbo equivalente do
// serviço de produtos; payloads 2xx passam direto.
package routes

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"retail-gateway/backend"
	"retail-gateway/middleware/auth"
	"retail-gateway/web"
)

// DefaultProductFallback é o payload servido quando o serviço de produtos
// está fora do ar e a política de degradação está habilitada.
var DefaultProductFallback = json.RawMessage(`{
  "data": {
    "id": "demo-product-1",
    "sku": "DEMO-12345",
    "name": "Demo Product",
    "description": "This is a demo product used when the product service is unavailable",
    "category": "Demo",
    "price": {
      "amount": 99.99,
      "currency": "USD",
      "is_discounted": true,
      "original_amount": 129.99
    },
    "inventory": 42,
    "images": [
      {
        "url": "https://example.com/images/demo-product.jpg",
        "alt_text": "Demo Product Image",
        "is_primary": true
      }
    ],
    "attributes": {"color": "Blue", "size": "Medium", "weight": "1.2kg"}
  },
  "meta": {"is_mock": true, "source": "gateway_fallback"}
}`)

// Products é o conjunto de handlers do proxy de produtos.
type Products struct {
	Backend *backend.Client
	// Fallback, quando não-nil, cobre GET por id com backend fora do ar.
	Fallback *backend.Fallback
	Logger   *slog.Logger
}

func NewProducts(client *backend.Client, fallback *backend.Fallback, logger *slog.Logger) *Products {
	if logger == nil {
		logger = slog.Default()
	}
	return &Products{
		Backend:  client,
		Fallback: fallback,
		Logger:   logger.With("component", "routes"),
	}
}

// Register liga as rotas de produto no mux com os gates de autorização:
// leitura exige apenas autenticação, escrita exige admin/store_manager e
// remoção exige admin.
func (p *Products) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/products", auth.RequireAuth(http.HandlerFunc(p.List)))
	mux.Handle("GET /api/products/{id}", auth.RequireAuth(http.HandlerFunc(p.Get)))
	mux.Handle("POST /api/products", auth.RequireRoles("admin", "store_manager")(http.HandlerFunc(p.Create)))
	mux.Handle("PUT /api/products/{id}", auth.RequireRoles("admin", "store_manager")(http.HandlerFunc(p.Update)))
	mux.Handle("PATCH /api/products/{id}", auth.RequireRoles("admin", "store_manager")(http.HandlerFunc(p.Patch)))
	mux.Handle("DELETE /api/products/{id}", auth.RequireRoles("admin")(http.HandlerFunc(p.Delete)))
}

// List repassa filtros, ordenação e paginação via query string.
func (p *Products) List(w http.ResponseWriter, r *http.Request) {
	result, err := p.Backend.Do(r.Context(), http.MethodGet, "/products",
		backend.WithQuery(r.URL.Query()),
		backend.WithForward(r))
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	web.WriteRaw(w, result.Status, result.Payload)
}

func (p *Products) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := p.Backend.Do(r.Context(), http.MethodGet, "/products/"+id,
		backend.WithForward(r))
	if err != nil {
		// política de degradação cobre backend fora do ar (e 404 quando
		// configurada); fora dela o erro propaga classificado
		if payload, ok := p.Fallback.Apply(err); ok {
			p.Logger.Warn("serving fallback payload",
				"fallback", p.Fallback.Name,
				"product_id", id,
				"error", err)
			web.WriteRaw(w, http.StatusOK, payload)
			return
		}
		p.writeError(w, r, err)
		return
	}
	web.WriteRaw(w, result.Status, result.Payload)
}

func (p *Products) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		web.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := p.Backend.Do(r.Context(), http.MethodPost, "/products",
		backend.WithRawBody(body),
		backend.WithForward(r))
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	web.WriteRaw(w, result.Status, result.Payload)
}

func (p *Products) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		web.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := p.Backend.Do(r.Context(), http.MethodPut, "/products/"+id,
		backend.WithRawBody(body),
		backend.WithForward(r))
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	web.WriteRaw(w, result.Status, result.Payload)
}

// Patch repassa atualizações parciais, com o mesmo gate do Update.
func (p *Products) Patch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		web.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := p.Backend.Do(r.Context(), http.MethodPatch, "/products/"+id,
		backend.WithRawBody(body),
		backend.WithForward(r))
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	web.WriteRaw(w, result.Status, result.Payload)
}

func (p *Products) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	_, err := p.Backend.Do(r.Context(), http.MethodDelete, "/products/"+id,
		backend.WithForward(r))
	if err != nil {
		p.writeError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Product deleted successfully",
	})
}

// writeError traduz o erro classificado do backend no status do gateway.
func (p *Products) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var backendErr *backend.Error
	if errors.As(err, &backendErr) {
		web.Error(w, backendErr.HTTPStatus(), backendErr.Detail)
		return
	}
	p.Logger.Error("unexpected proxy error", "path", r.URL.Path, "error", err)
	web.Error(w, http.StatusInternalServerError, "Internal server error")
}
