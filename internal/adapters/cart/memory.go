// Package cart implements the shopper's cart, mirrored into local
// storage so a reload keeps the lines.
package cart

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

const storageKey = "cart"

// Store keeps cart lines in memory and mirrors every mutation into the
// backing KV store as JSON. Persistence failures are logged and the
// in-memory state stays authoritative.
type Store struct {
	mu     sync.Mutex
	log    zerolog.Logger
	kv     ports.KVStore
	slot   string
	nextID int64
	items  []domain.CartItem
}

var _ ports.Cart = (*Store)(nil)

// NewStore creates a cart, restoring any lines saved under the KV slot.
// prefix namespaces the slot when several carts share one store.
func NewStore(kv ports.KVStore, prefix string, baseLogger *zerolog.Logger) *Store {
	s := &Store{
		log:    baseLogger.With().Str("component", "cart").Logger(),
		kv:     kv,
		slot:   prefix + storageKey,
		nextID: 1,
	}
	if raw, ok := kv.Get(s.slot); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.items); err != nil {
			s.log.Warn().Err(err).Msg("Discarding unreadable saved cart")
			s.items = nil
		}
		for _, item := range s.items {
			if item.ID >= s.nextID {
				s.nextID = item.ID + 1
			}
		}
	}
	return s
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Add appends a line for product, or bumps the quantity when a line
// with the same product and strength already exists.
func (s *Store) Add(product domain.Product, strength string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == product.ID && s.items[i].Strength == strength {
			s.items[i].Quantity += quantity
			s.persistLocked()
			return
		}
	}
	price, err := strconv.ParseFloat(product.Price, 64)
	if err != nil {
		s.log.Warn().Err(err).Int("product_id", product.ID).Msg("Unparseable product price, using zero")
	}
	s.items = append(s.items, domain.CartItem{
		ID:        s.nextID,
		ProductID: product.ID,
		NameAr:    product.NameAr,
		NameEn:    product.NameEn,
		Strength:  strength,
		Price:     price,
		Quantity:  quantity,
		ImageURL:  product.ImageURL,
	})
	s.nextID++
	s.persistLocked()
}

// Remove drops every line for productID.
func (s *Store) Remove(productID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.persistLocked()
}

// UpdateQuantity sets the quantity for productID. Zero or negative
// removes the line.
func (s *Store) UpdateQuantity(productID, quantity int) {
	if quantity < 1 {
		s.Remove(productID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
		}
	}
	s.persistLocked()
}

// UpdateStrength sets the strength variant for productID.
func (s *Store) UpdateStrength(productID int, strength string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Strength = strength
		}
	}
	s.persistLocked()
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persistLocked()
}

// Subtotal is the sum of line totals.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, item := range s.items {
		total += item.Subtotal()
	}
	return total
}

func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.items)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode cart")
		return
	}
	if err := s.kv.Set(s.slot, string(raw)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to persist cart")
	}
}
