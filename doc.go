// Package orderdebug records the lifecycle of orders in an e-commerce pipeline
// to a flat, human-readable debug log.
//
// Host events (new order, payment, status change, cart and checkout activity,
// email dispatch, order meta updates) are delivered through a Bus. A Service
// registers one listener per event kind; each listener checks its category
// switch, assembles a Payload and hands it to the Formatter, whose text block is
// appended to the log file by a FileAppender.
//
// Typical usage
//
//	svc := &orderdebug.Service{LogFile: path, Store: st, Probe: probe, Logger: ops}
//	if err := svc.Initialize(ctx); err != nil { ... }
//	bus := orderdebug.NewBus()
//	svc.Register(bus)
//	bus.Publish(ctx, orderdebug.NewOrder{OrderID: 101, Order: order})
//
// Every block ends with a line of forty dashes:
//
//	[2026-01-02 15:04:05] [INFO] New order created: #101
//	Data:
//	  order_type: shop_order
//	  payment_method: cod
//	  items: []
//	----------------------------------------
package orderdebug
