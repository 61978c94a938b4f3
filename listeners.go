package orderdebug

import (
	"context"
	"fmt"

	"github.com/Station-Manager/orderdebug/internal/metrics"
)

// handle is the single handler bound to every kind. It never lets a panic
// reach the publisher.
func (s *Service) handle(_ context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.ErrorWith().Str("kind", string(ev.Kind())).Interface("panic", r).Msg("Order debug listener panicked.")
		}
	}()
	if !s.Active() {
		return
	}

	switch e := ev.(type) {
	case NewOrder:
		s.OnNewOrder(e)
	case OrderProcessed:
		s.OnOrderProcessed(e)
	case PaymentComplete:
		s.OnPaymentComplete(e)
	case StatusChanged:
		s.OnStatusChanged(e)
	case AddToCart:
		s.OnAddToCart(e)
	case CheckoutValidated:
		s.OnCheckoutValidated(e)
	case EmailSent:
		s.OnEmailSent(e)
	case MetaUpdated:
		s.OnMetaUpdated(e)
	case HookFired:
		s.OnHookFired(e)
	default:
		s.Logger.WarnWith().Str("kind", string(ev.Kind())).Msg("No listener for event.")
	}
}

// OnNewOrder logs order creation. A repeated id is logged as a duplicate at
// error severity while the duplicates category is on.
func (s *Service) OnNewOrder(ev NewOrder) {
	duplicate := s.seen.ObserveAndCheck(ev.OrderID)
	payload := Payload{
		{"order_type", orderType(ev.Order)},
		{"payment_method", paymentMethod(ev.Order)},
		{"items", orderItems(ev.Order)},
	}
	if duplicate && s.enabled(CategoryDuplicates) {
		metrics.DuplicateOrders.Inc()
		s.write(fmt.Sprintf("DUPLICATE ORDER DETECTED: #%d", ev.OrderID), payload, SeverityError)
		return
	}
	s.write(fmt.Sprintf("New order created: #%d", ev.OrderID), payload, SeverityInfo)
}

// OnOrderProcessed has no category switch and is always logged.
func (s *Service) OnOrderProcessed(ev OrderProcessed) {
	posted := ev.PostedData
	if posted == nil {
		posted = map[string]any{}
	}
	s.write(fmt.Sprintf("Order processed: #%d", ev.OrderID), Payload{
		{"posted_data", posted},
		{"order_type", orderType(ev.Order)},
		{"payment_method", paymentMethod(ev.Order)},
		{"items", orderItems(ev.Order)},
	}, SeverityInfo)
}

func (s *Service) OnPaymentComplete(ev PaymentComplete) {
	if !s.enabled(CategoryPayment) {
		return
	}
	status := emptyString
	if ev.Order != nil {
		status = ev.Order.Status
	}
	s.write(fmt.Sprintf("Payment completed for order: #%d", ev.OrderID), Payload{
		{"order_status", status},
		{"payment_method", paymentMethod(ev.Order)},
	}, SeverityInfo)
}

func (s *Service) OnStatusChanged(ev StatusChanged) {
	if !s.enabled(CategoryStatusChanges) {
		return
	}
	s.write(fmt.Sprintf("Order status changed: #%d from %s to %s", ev.OrderID, ev.OldStatus, ev.NewStatus), Payload{
		{"order_type", orderType(ev.Order)},
		{"payment_method", paymentMethod(ev.Order)},
	}, SeverityInfo)
}

func (s *Service) OnCheckoutValidated(ev CheckoutValidated) {
	if !s.enabled(CategoryCheckout) {
		return
	}
	messages := append([]string{}, ev.Errors...)
	s.write("Checkout validation", Payload{
		{"cart_items", cartItems(ev.Cart)},
		{"has_errors", len(messages) > 0},
		{"error_messages", messages},
	}, SeverityInfo)
}

func (s *Service) OnAddToCart(ev AddToCart) {
	if !s.enabled(CategoryCart) {
		return
	}
	name := emptyString
	if ev.Product != nil {
		name = ev.Product.Name
	}
	data := ev.CartItemData
	if data == nil {
		data = map[string]any{}
	}
	s.write("Product added to cart", Payload{
		{"product_id", ev.ProductID},
		{"name", name},
		{"type", productType(ev.Product)},
		{"quantity", ev.Quantity},
		{"variation_id", ev.VariationID},
		{"cart_item_data", data},
	}, SeverityInfo)
}

func (s *Service) OnEmailSent(ev EmailSent) {
	if !s.enabled(CategoryEmails) {
		return
	}
	var order Order
	if ev.Order != nil {
		order = *ev.Order
	}
	attachments := append([]string{}, ev.Email.Attachments...)
	s.write(fmt.Sprintf("Email sent: %s for order #%d", ev.Email.ID, order.ID), Payload{
		{"email_type", ev.Email.ID},
		{"sent_to_admin", ev.SentToAdmin},
		{"recipient", ev.Email.Recipient},
		{"subject", ev.Email.Subject},
		{"headers", ev.Email.Headers},
		{"attachments", attachments},
		{"order_id", order.ID},
		{"order_status", order.Status},
		{"customer_email", order.BillingEmail},
		{"customer_name", order.BillingName},
	}, SeverityEmail)
}

// OnMetaUpdated logs meta changes on orders; other post types are ignored.
func (s *Service) OnMetaUpdated(ev MetaUpdated) {
	if !s.enabled(CategoryMetaChanges) {
		return
	}
	if ev.PostType != OrderPostType {
		return
	}
	s.write(fmt.Sprintf("Order meta updated: #%d", ev.PostID), Payload{
		{"meta_key", ev.MetaKey},
		{"meta_value", ev.MetaValue},
	}, SeverityInfo)
}

// OnHookFired logs host actions and filters named in the settings lists.
func (s *Service) OnHookFired(ev HookFired) {
	if !s.filter.LogsHook(ev.Hook, ev.Name) {
		return
	}
	message := fmt.Sprintf("Action fired: %s", ev.Name)
	if ev.Hook == HookFilter {
		message = fmt.Sprintf("Filter applied: %s", ev.Name)
	}
	args := ev.Args
	if args == nil {
		args = []any{}
	}
	s.write(message, Payload{
		{"hook", string(ev.Hook)},
		{"name", ev.Name},
		{"args", args},
	}, SeverityInfo)
}

func orderType(o *Order) string {
	if o == nil || o.Type == emptyString {
		return UnknownType
	}
	return o.Type
}

func paymentMethod(o *Order) string {
	if o == nil {
		return emptyString
	}
	return o.PaymentMethod
}

func productType(p *Product) string {
	if p == nil || p.Type == emptyString {
		return UnknownType
	}
	return p.Type
}

// orderItems lists {product_id, name, type, quantity} for each line item.
func orderItems(o *Order) []Payload {
	items := []Payload{}
	if o == nil {
		return items
	}
	for _, it := range o.Items {
		items = append(items, Payload{
			{"product_id", it.ProductID},
			{"name", it.Name},
			{"type", productType(it.Product)},
			{"quantity", it.Quantity},
		})
	}
	return items
}

func cartItems(cart []CartItem) []Payload {
	items := []Payload{}
	for _, ci := range cart {
		p := ci.Product
		items = append(items, Payload{
			{"product_id", p.ID},
			{"name", p.Name},
			{"type", productType(&p)},
			{"quantity", ci.Quantity},
		})
	}
	return items
}
