package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"SidraStore/internal/checkout"
	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

// Handlers holds the dependencies of every HTTP endpoint.
type Handlers struct {
	log      zerolog.Logger
	manager  *checkout.Manager
	products ports.ProductRepository
	orders   ports.OrderRepository
	bin      *BinLookupClient
}

// NewHandlers wires the endpoint dependencies.
func NewHandlers(
	manager *checkout.Manager,
	products ports.ProductRepository,
	orders ports.OrderRepository,
	bin *BinLookupClient,
	baseLogger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		log:      baseLogger.With().Str("component", "api_handlers").Logger(),
		manager:  manager,
		products: products,
		orders:   orders,
		bin:      bin,
	}
}

// --- Catalog ---

type productView struct {
	ID            int    `json:"id"`
	NameAr        string `json:"nameAr"`
	NameEn        string `json:"nameEn"`
	DescriptionAr string `json:"descriptionAr"`
	DescriptionEn string `json:"descriptionEn"`
	Price         string `json:"price"`
	Strength      string `json:"strength"`
	StrengthDots  int    `json:"strengthDots"`
	Flavor        string `json:"flavor"`
	Category      string `json:"category"`
	ImageURL      string `json:"imageUrl"`
	InStock       int    `json:"inStock"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:            p.ID,
		NameAr:        p.NameAr,
		NameEn:        p.NameEn,
		DescriptionAr: p.DescriptionAr,
		DescriptionEn: p.DescriptionEn,
		Price:         p.Price,
		Strength:      p.Strength,
		StrengthDots:  p.StrengthDots,
		Flavor:        p.Flavor,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		InStock:       p.InStock,
	}
}

func (h *Handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.GetAll(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	JSON(w, http.StatusOK, views)
}

func (h *Handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if p == nil {
		Error(w, http.StatusNotFound, "product not found")
		return
	}
	JSON(w, http.StatusOK, toProductView(*p))
}

// --- Orders ---

type orderItemRequest struct {
	ProductID       int    `json:"productId"`
	ProductName     string `json:"productName"`
	ProductStrength string `json:"productStrength"`
	Quantity        int    `json:"quantity"`
	PricePerUnit    string `json:"pricePerUnit"`
	TotalPrice      string `json:"totalPrice"`
}

type createOrderRequest struct {
	CustomerName    string             `json:"customerName"`
	CustomerPhone   *string            `json:"customerPhone"`
	CustomerEmail   *string            `json:"customerEmail"`
	ShippingAddress map[string]any     `json:"shippingAddress"`
	Subtotal        string             `json:"subtotal"`
	ShippingCost    string             `json:"shippingCost"`
	Total           string             `json:"total"`
	PaymentMethod   string             `json:"paymentMethod"`
	Items           []orderItemRequest `json:"items"`
}

func (h *Handlers) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerName == "" || len(req.Items) == 0 {
		Error(w, http.StatusBadRequest, "customerName and items are required")
		return
	}

	order := &domain.Order{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		Subtotal:        req.Subtotal,
		ShippingCost:    req.ShippingCost,
		Total:           req.Total,
		Status:          domain.OrderPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   "pending",
	}
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			ProductStrength: it.ProductStrength,
			Quantity:        it.Quantity,
			PricePerUnit:    it.PricePerUnit,
			TotalPrice:      it.TotalPrice,
		})
	}

	if err := h.orders.Create(r.Context(), order, items); err != nil {
		Error(w, http.StatusInternalServerError, "failed to create order")
		return
	}
	JSON(w, http.StatusCreated, map[string]any{"id": order.ID})
}

func (h *Handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid order id")
		return
	}
	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if order == nil {
		Error(w, http.StatusNotFound, "order not found")
		return
	}
	items, err := h.orders.GetItems(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load order items")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"order": order, "items": items})
}

// --- BIN lookup ---

func (h *Handlers) binLookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bin string `json:"bin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Bin) < 6 {
		Error(w, http.StatusBadRequest, "bin must be at least 6 digits")
		return
	}
	result, err := h.bin.Lookup(r.Context(), req.Bin[:6])
	if err != nil {
		Error(w, http.StatusBadGateway, "bin lookup failed")
		return
	}
	JSON(w, http.StatusOK, result)
}

// --- Checkout session ---

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	visitorID := chi.URLParam(r, "visitorID")
	if visitorID == "" {
		Error(w, http.StatusBadRequest, "visitor id is required")
		return nil, false
	}
	s, err := h.manager.GetOrCreate(r.Context(), visitorID)
	if err != nil {
		h.log.Error().Err(err).Str("visitor_id", visitorID).Msg("Failed to open session")
		Error(w, http.StatusInternalServerError, "failed to open checkout session")
		return nil, false
	}
	return s, true
}

func (h *Handlers) checkoutState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	visitorID := chi.URLParam(r, "visitorID")
	h.manager.Release(r.Context(), visitorID)
	JSON(w, http.StatusNoContent, nil)
}

func (h *Handlers) addToCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID int    `json:"productId"`
		Strength  string `json:"strength"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if product == nil {
		Error(w, http.StatusNotFound, "product not found")
		return
	}
	s.Cart().Add(*product, req.Strength, req.Quantity)
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) updateCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req struct {
		Quantity *int    `json:"quantity"`
		Strength *string `json:"strength"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity != nil {
		s.Cart().UpdateQuantity(productID, *req.Quantity)
	}
	if req.Strength != nil {
		s.Cart().UpdateStrength(productID, *req.Strength)
	}
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) removeFromCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	s.Cart().Remove(productID)
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) submitShipping(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var info domain.ShippingInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.SetShipping(info)
	if err := s.SubmitShipping(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Shipping submission failed")
	}
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) submitPayment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var info domain.PaymentInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.SetPayment(info)
	if err := s.SubmitPayment(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Payment submission failed")
	}
	JSON(w, http.StatusOK, s.State())
}

type codeRequest struct {
	Code string `json:"code"`
}

func (h *Handlers) submitCardOtp(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.SetCardOtp(req.Code)
	if err := s.SubmitCardOtp(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Card OTP submission failed")
	}
	JSON(w, http.StatusAccepted, s.State())
}

func (h *Handlers) submitCardPin(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.SetCardPin(req.Code)
	if err := s.SubmitCardPin(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Card PIN submission failed")
	}
	JSON(w, http.StatusAccepted, s.State())
}

func (h *Handlers) submitPhoneVerification(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Phone    string `json:"phone"`
		Operator string `json:"operator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.SetPhone2(req.Phone)
	s.SetOperator(req.Operator)
	if err := s.SubmitPhoneVerification(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Phone verification failed")
	}
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) submitPhoneOtp(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.SetPhoneOtp(req.Code)
	if err := s.SubmitPhoneOtp(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Phone OTP submission failed")
	}
	JSON(w, http.StatusAccepted, s.State())
}

func (h *Handlers) submitNafath(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		IdentityNumber string `json:"identityNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.SetNafathID(req.IdentityNumber)
	if err := s.SubmitNafath(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Identity submission failed")
	}
	JSON(w, http.StatusAccepted, s.State())
}

func (h *Handlers) resendOtp(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.ResendOtp(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("OTP resend failed")
	}
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Back(); err != nil {
		Error(w, http.StatusConflict, err.Error())
		return
	}
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) goToStep(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Step string `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Transition(domain.Step(req.Step)); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	JSON(w, http.StatusOK, s.State())
}

func (h *Handlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	orderID, err := s.PlaceOrder(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to place order")
		return
	}
	JSON(w, http.StatusCreated, map[string]any{"orderId": orderID, "state": s.State()})
}
