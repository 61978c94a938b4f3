package orderdebug

import (
	"bytes"
	"encoding/json"

	"github.com/Station-Manager/errors"
)

// EventKind names a host lifecycle event.
type EventKind string

const (
	KindNewOrder          EventKind = "new_order"
	KindOrderProcessed    EventKind = "order_processed"
	KindPaymentComplete   EventKind = "payment_complete"
	KindStatusChanged     EventKind = "status_changed"
	KindAddToCart         EventKind = "add_to_cart"
	KindCheckoutValidated EventKind = "checkout_validated"
	KindEmailSent         EventKind = "email_sent"
	KindMetaUpdated       EventKind = "meta_updated"
	KindHookFired         EventKind = "hook_fired"
)

var eventKinds = []EventKind{
	KindNewOrder,
	KindOrderProcessed,
	KindPaymentComplete,
	KindStatusChanged,
	KindAddToCart,
	KindCheckoutValidated,
	KindEmailSent,
	KindMetaUpdated,
	KindHookFired,
}

// EventKinds returns every kind a Service listens to.
func EventKinds() []EventKind {
	out := make([]EventKind, len(eventKinds))
	copy(out, eventKinds)
	return out
}

// Event is implemented by the closed set of event structs below.
type Event interface {
	Kind() EventKind
}

// Product as known to the host catalogue. A zero Type means the lookup failed.
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// LineItem of an order. Product is nil when the product no longer resolves.
type LineItem struct {
	ProductID int64    `json:"product_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

type Order struct {
	ID            int64      `json:"id"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method"`
	BillingEmail  string     `json:"billing_email"`
	BillingName   string     `json:"billing_name"`
	Items         []LineItem `json:"items"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Email describes an outgoing order email.
type Email struct {
	ID          string   `json:"id"`
	Recipient   string   `json:"recipient"`
	Subject     string   `json:"subject"`
	Headers     string   `json:"headers"`
	Attachments []string `json:"attachments"`
}

// NewOrder fires when an order is created. Order is nil when the host could
// not load it.
type NewOrder struct {
	OrderID int64  `json:"order_id"`
	Order   *Order `json:"order,omitempty"`
}

// OrderProcessed fires once checkout has produced an order.
type OrderProcessed struct {
	OrderID    int64          `json:"order_id"`
	PostedData map[string]any `json:"posted_data"`
	Order      *Order         `json:"order,omitempty"`
}

type PaymentComplete struct {
	OrderID int64  `json:"order_id"`
	Order   *Order `json:"order,omitempty"`
}

type StatusChanged struct {
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Order     *Order `json:"order,omitempty"`
}

type AddToCart struct {
	CartItemKey  string            `json:"cart_item_key"`
	ProductID    int64             `json:"product_id"`
	Quantity     int               `json:"quantity"`
	VariationID  int64             `json:"variation_id"`
	Variation    map[string]string `json:"variation"`
	CartItemData map[string]any    `json:"cart_item_data"`
	Product      *Product          `json:"product,omitempty"`
}

// CheckoutValidated carries the cart at validation time and the validation
// error messages, if any.
type CheckoutValidated struct {
	Cart   []CartItem `json:"cart"`
	Errors []string   `json:"errors"`
}

type EmailSent struct {
	Order       *Order `json:"order,omitempty"`
	SentToAdmin bool   `json:"sent_to_admin"`
	PlainText   bool   `json:"plain_text"`
	Email       Email  `json:"email"`
}

// MetaUpdated fires for any post; only posts of OrderPostType are logged.
type MetaUpdated struct {
	MetaID    int64  `json:"meta_id"`
	PostID    int64  `json:"post_id"`
	PostType  string `json:"post_type"`
	MetaKey   string `json:"meta_key"`
	MetaValue any    `json:"meta_value"`
}

type HookKind string

const (
	HookAction HookKind = "action"
	HookFilter HookKind = "filter"
)

// HookFired is any other host hook. It is logged when its name is listed in
// the settings' actions or filters.
type HookFired struct {
	Hook HookKind `json:"hook"`
	Name string   `json:"name"`
	Args []any    `json:"args"`
}

func (NewOrder) Kind() EventKind          { return KindNewOrder }
func (OrderProcessed) Kind() EventKind    { return KindOrderProcessed }
func (PaymentComplete) Kind() EventKind   { return KindPaymentComplete }
func (StatusChanged) Kind() EventKind     { return KindStatusChanged }
func (AddToCart) Kind() EventKind         { return KindAddToCart }
func (CheckoutValidated) Kind() EventKind { return KindCheckoutValidated }
func (EmailSent) Kind() EventKind         { return KindEmailSent }
func (MetaUpdated) Kind() EventKind       { return KindMetaUpdated }
func (HookFired) Kind() EventKind         { return KindHookFired }

// Envelope is the wire form of an event: {"type": "new_order", "payload": {...}}.
type Envelope struct {
	Type    EventKind       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEvent wraps ev in an Envelope.
func EncodeEvent(ev Event) ([]byte, error) {
	const op errors.Op = "orderdebug.EncodeEvent"
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgEventPayload)
	}
	data, err := json.Marshal(Envelope{Type: ev.Kind(), Payload: payload})
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgEventEnvelope)
	}
	return data, nil
}

// DecodeEvent parses an Envelope into one of the event structs.
func DecodeEvent(data []byte) (Event, error) {
	const op errors.Op = "orderdebug.DecodeEvent"

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgEventEnvelope)
	}
	payload := env.Payload
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage("{}")
	}

	var (
		ev  Event
		err error
	)
	switch env.Type {
	case KindNewOrder:
		ev, err = decodeAs[NewOrder](payload)
	case KindOrderProcessed:
		ev, err = decodeAs[OrderProcessed](payload)
	case KindPaymentComplete:
		ev, err = decodeAs[PaymentComplete](payload)
	case KindStatusChanged:
		ev, err = decodeAs[StatusChanged](payload)
	case KindAddToCart:
		ev, err = decodeAs[AddToCart](payload)
	case KindCheckoutValidated:
		ev, err = decodeAs[CheckoutValidated](payload)
	case KindEmailSent:
		ev, err = decodeAs[EmailSent](payload)
	case KindMetaUpdated:
		ev, err = decodeAs[MetaUpdated](payload)
	case KindHookFired:
		ev, err = decodeAs[HookFired](payload)
	default:
		return nil, errors.New(op).Msg(errMsgUnknownEvent + " " + string(env.Type))
	}
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgEventPayload)
	}
	return ev, nil
}

func decodeAs[T Event](payload json.RawMessage) (Event, error) {
	var ev T
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
