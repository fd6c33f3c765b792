package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
	"github.com/premiumrays/digital-goods-backend/internal/event"
	"github.com/premiumrays/digital-goods-backend/internal/logger"
	"github.com/premiumrays/digital-goods-backend/internal/metrics"
	"github.com/premiumrays/digital-goods-backend/internal/product"
	"github.com/premiumrays/digital-goods-backend/internal/settings"
	"github.com/premiumrays/digital-goods-backend/internal/validation"
)

// Catalog resolves the product a purchase refers to.
type Catalog interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

// Wallets resolves the store's receiving address for a crypto currency.
type Wallets interface {
	WalletAddress(ctx context.Context, symbol string) (string, error)
}

type Options struct {
	PayPalMeLink string
	Policies     Policies
}

type Service struct {
	repo    Repository
	catalog Catalog
	wallets Wallets
	events  event.Publisher
	opts    Options
	now     func() time.Time
}

func NewService(repo Repository, catalog Catalog, wallets Wallets, events event.Publisher, opts Options) *Service {
	if events == nil {
		events = event.Discard{}
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		wallets: wallets,
		events:  events,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// List returns the public view of every purchase matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Purchase, error) {
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = items[i].Public()
	}
	return items, nil
}

// PendingCrypto lists crypto purchases awaiting admin approval.
func (s *Service) PendingCrypto(ctx context.Context) ([]Purchase, error) {
	return s.List(ctx, Filter{Statuses: []Status{StatusPending}, Method: MethodCrypto})
}

func (s *Service) GetByID(ctx context.Context, id string) (Purchase, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	return p.Public(), nil
}

// Owned returns the full record, files included, when it belongs to userID.
func (s *Service) Owned(ctx context.Context, id, userID string) (Purchase, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	if userID == "" || p.UserID != userID {
		return Purchase{}, notFound(id)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Purchase, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.ProductName = strings.TrimSpace(in.ProductName)
	if in.PaymentMethod == "" {
		in.PaymentMethod = in.Method
	}
	in.PaymentMethod = Method(strings.ToLower(strings.TrimSpace(string(in.PaymentMethod))))
	if err := validation.Struct(in); err != nil {
		return Purchase{}, err
	}

	ts := s.now()
	p := Purchase{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		ProductID:     strings.TrimSpace(in.ProductID),
		ProductName:   in.ProductName,
		Amount:        product.RoundCents(in.Amount),
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		PaymentMethod: in.PaymentMethod,
		TxHash:        strings.TrimSpace(in.TxHash),
		Files:         in.Files,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if p.Amount <= 0 {
		return Purchase{}, apperr.Validation("amount must be greater than 0")
	}

	if p.ProductID != "" {
		item, err := s.catalog.GetByID(ctx, p.ProductID)
		if errors.Is(err, apperr.ErrNotFound) {
			return Purchase{}, apperr.Validation("unknown product %q", p.ProductID)
		}
		if err != nil {
			return Purchase{}, err
		}
		p.ProductName = item.Name
		p.Files = item.Files
	}
	if p.ProductName == "" {
		return Purchase{}, apperr.Validation("productName is required")
	}

	switch p.PaymentMethod {
	case MethodCrypto:
		if err := s.resolveWallet(ctx, &p, in); err != nil {
			return Purchase{}, err
		}
	case MethodPayPal:
		p.PaymentURL = s.payPalURL(p.Amount, p.Currency)
	}

	policy := s.opts.Policies.For(p.PaymentMethod)
	p.Status = policy.InitialStatus()
	if p.ProductID == "" && !policy.AcceptsClientFiles() {
		p.Files = nil
	}
	if p.Status == StatusCompleted {
		p.ApprovedAt = &ts
		p.ApprovedBy = string(policy)
		logger.FromContext(ctx).Warn("purchase granted without payment verification",
			zap.String("purchase_id", p.ID),
			zap.String("user_id", p.UserID),
			zap.String("policy", string(policy)),
			zap.Float64("amount", p.Amount),
			zap.String("currency", p.Currency),
		)
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Purchase{}, err
	}
	metrics.PurchaseTransitions.WithLabelValues(string(created.PaymentMethod), "new", string(created.Status)).Inc()
	s.events.Publish(ctx, event.Added(event.EntityPurchase, created.Public()))
	return created.Public(), nil
}

// resolveWallet fills the destination address. The store's configured wallet
// wins; the client's address is only used when none is configured.
func (s *Service) resolveWallet(ctx context.Context, p *Purchase, in CreateInput) error {
	symbol := settings.NormalizeSymbol(in.CryptoCurrency)
	if symbol == "" {
		return apperr.Validation("cryptoCurrency is required")
	}
	addr, err := s.wallets.WalletAddress(ctx, symbol)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = strings.TrimSpace(in.CryptoAddress)
	}
	if addr == "" {
		return apperr.Validation("no wallet address configured for %s", symbol)
	}
	p.CryptoCurrency = symbol
	p.CryptoAddress = addr
	return nil
}

func (s *Service) payPalURL(amount float64, currency string) string {
	link := strings.TrimRight(s.opts.PayPalMeLink, "/")
	return fmt.Sprintf("%s/%s%s", link, decimal.NewFromFloat(amount).StringFixed(2), currency)
}

// Approve completes a pending purchase. Approving a completed purchase is a
// no-op that returns it unchanged.
func (s *Service) Approve(ctx context.Context, id, by string) (Purchase, error) {
	return s.approve(ctx, id, by, false, "")
}

// ApproveCrypto is Approve restricted to crypto purchases.
func (s *Service) ApproveCrypto(ctx context.Context, id, by string) (Purchase, error) {
	return s.approve(ctx, id, by, true, "")
}

func (s *Service) approve(ctx context.Context, id, by string, cryptoOnly bool, hash string) (Purchase, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	if cryptoOnly && current.PaymentMethod != MethodCrypto {
		return Purchase{}, apperr.Validation("only crypto payments can be manually approved")
	}
	if err := checkTxHash(current, hash); err != nil {
		return Purchase{}, err
	}
	switch current.Status {
	case StatusCompleted:
		return current.Public(), nil
	case StatusRejected:
		return Purchase{}, invalidTransition(current.Status, StatusCompleted)
	}

	by = strings.TrimSpace(by)
	if by == "" {
		by = DefaultApprovedBy
	}
	ts := s.now()
	next := current
	next.Status = StatusCompleted
	next.ApprovedAt = &ts
	next.ApprovedBy = by
	next.UpdatedAt = ts
	if hash != "" {
		next.TxHash = hash
	}

	return s.transition(ctx, next, StatusPending)
}

// Reject moves a pending purchase to rejected. Rejecting a rejected purchase
// is a no-op; a completed purchase is never rejected.
func (s *Service) Reject(ctx context.Context, id string) (Purchase, error) {
	return s.reject(ctx, id, "")
}

func (s *Service) reject(ctx context.Context, id, hash string) (Purchase, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	if err := checkTxHash(current, hash); err != nil {
		return Purchase{}, err
	}
	switch current.Status {
	case StatusRejected:
		return current.Public(), nil
	case StatusCompleted:
		return Purchase{}, invalidTransition(current.Status, StatusRejected)
	}

	ts := s.now()
	next := current
	next.Status = StatusRejected
	next.RejectedAt = &ts
	next.UpdatedAt = ts
	if hash != "" {
		next.TxHash = hash
	}

	return s.transition(ctx, next, StatusPending)
}

// AttachTxHash records the transaction hash a buyer reports for a pending
// crypto purchase. The hash is not verified.
func (s *Service) AttachTxHash(ctx context.Context, id, hash string) (Purchase, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return Purchase{}, apperr.Validation("txHash is required")
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	if err := checkTxHash(current, hash); err != nil {
		return Purchase{}, err
	}

	next := current
	next.TxHash = hash
	next.UpdatedAt = s.now()
	return s.transition(ctx, next, StatusPending)
}

// checkTxHash allows a hash only on pending crypto purchases. An empty hash
// always passes.
func checkTxHash(current Purchase, hash string) error {
	if hash == "" {
		return nil
	}
	if current.PaymentMethod != MethodCrypto {
		return apperr.Validation("txHash only applies to crypto payments")
	}
	if current.Status != StatusPending {
		return apperr.Conflict("purchase %s is %s", current.ID, current.Status)
	}
	return nil
}

// Update applies a PATCH. A transaction hash sent together with a status
// change is stored by the same write.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Purchase, error) {
	if err := validation.Struct(in); err != nil {
		return Purchase{}, err
	}
	if in.TxHash == nil && in.Status == nil {
		return Purchase{}, apperr.Validation("nothing to update")
	}

	var hash string
	if in.TxHash != nil {
		if hash = strings.TrimSpace(*in.TxHash); hash == "" {
			return Purchase{}, apperr.Validation("txHash is required")
		}
	}
	if in.Status == nil {
		return s.AttachTxHash(ctx, id, hash)
	}

	switch *in.Status {
	case StatusCompleted:
		return s.approve(ctx, id, in.ApprovedBy, false, hash)
	case StatusRejected:
		return s.reject(ctx, id, hash)
	default:
		if hash != "" {
			return s.AttachTxHash(ctx, id, hash)
		}
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return Purchase{}, err
		}
		if current.Status != StatusPending {
			return Purchase{}, invalidTransition(current.Status, StatusPending)
		}
		return current.Public(), nil
	}
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(ctx, event.Deleted(event.EntityPurchase, id))
	return nil
}

// transition stores next if the purchase is still in from. A writer that
// loses the race gets the winner's record when it already reached the same
// status, and a conflict otherwise.
func (s *Service) transition(ctx context.Context, next Purchase, from Status) (Purchase, error) {
	stored, applied, err := s.repo.CompareAndSet(ctx, next, from)
	if err != nil {
		return Purchase{}, err
	}
	if !applied {
		if stored.Status == next.Status && next.Status != from {
			return stored.Public(), nil
		}
		return Purchase{}, invalidTransition(stored.Status, next.Status)
	}

	if stored.Status != from {
		metrics.PurchaseTransitions.WithLabelValues(string(stored.PaymentMethod), string(from), string(stored.Status)).Inc()
		logger.FromContext(ctx).Info("purchase status changed",
			zap.String("purchase_id", stored.ID),
			zap.String("from", string(from)),
			zap.String("to", string(stored.Status)),
			zap.String("payment_method", string(stored.PaymentMethod)),
		)
	}
	s.events.Publish(ctx, event.Updated(event.EntityPurchase, stored.Public()))
	return stored.Public(), nil
}

func invalidTransition(from, to Status) error {
	return apperr.Conflict("cannot move purchase from %s to %s", from, to)
}
