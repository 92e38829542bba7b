package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"
)

// Exemplo: serviço de produtos em memória para testar o gateway localmente.

type product struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Inventory   int     `json:"inventory"`
}

type catalog struct {
	mu       sync.RWMutex
	products map[string]product
	nextID   int
}

func newCatalog() *catalog {
	return &catalog{
		products: map[string]product{
			"1": {ID: "1", SKU: "TSHIRT-001", Name: "Basic T-Shirt", Category: "Apparel", Price: 19.99, Inventory: 120},
			"2": {ID: "2", SKU: "MUG-042", Name: "Coffee Mug", Category: "Kitchen", Price: 9.5, Inventory: 30},
		},
		nextID: 3,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Product not found"})
}

func main() {
	cat := newCatalog()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		cat.mu.RLock()
		list := make([]product, 0, len(cat.products))
		for _, p := range cat.products {
			list = append(list, p)
		}
		cat.mu.RUnlock()
		writeJSON(w, http.StatusOK, map[string]any{"data": list})
	})

	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		cat.mu.RLock()
		p, ok := cat.products[r.PathValue("id")]
		cat.mu.RUnlock()
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": p})
	})

	mux.HandleFunc("POST /products", func(w http.ResponseWriter, r *http.Request) {
		var p product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid product payload"})
			return
		}
		cat.mu.Lock()
		p.ID = strconv.Itoa(cat.nextID)
		cat.nextID++
		cat.products[p.ID] = p
		cat.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"data": p})
	})

	mux.HandleFunc("PUT /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var p product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid product payload"})
			return
		}
		cat.mu.Lock()
		_, ok := cat.products[id]
		if ok {
			p.ID = id
			cat.products[id] = p
		}
		cat.mu.Unlock()
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": p})
	})

	mux.HandleFunc("DELETE /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		cat.mu.Lock()
		_, ok := cat.products[id]
		delete(cat.products, id)
		cat.mu.Unlock()
		if !ok {
			notFound(w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	addr := ":8001"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("example product service listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
