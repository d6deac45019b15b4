/*
snapshot.go - Order book <-> snapshot records

Converts between live orders and the persisted order records defined in
the inventory package (the core owns one combined snapshot shape).
Restore rebuilds the book from records; malformed records surface as
*inventory.CorruptSnapshotError so the caller can distinguish a
data-integrity problem from business rejections.
*/
package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumen/inventory-engine/inventory"
)

// SnapshotOrders captures every order as a snapshot record, in stable
// key order.
func (b *Book) SnapshotOrders() []inventory.OrderRecord {
	orders := b.List()

	out := make([]inventory.OrderRecord, 0, len(orders))
	for _, o := range orders {
		rec := inventory.OrderRecord{
			TransID:           o.Key.TransID,
			SeqID:             o.Key.SeqID,
			ProductName:       o.ProductName,
			Quantity:          o.Quantity,
			UnitPrice:         o.UnitPrice.InexactFloat64(),
			CustID:            o.Customer.ID,
			CustName:          o.Customer.Name,
			Status:            string(o.Status),
			AllocatedQuantity: o.AllocatedQuantity,
			Date:              o.CreatedAt.Format(inventory.TimeFormat),
			Kind:              string(o.Kind),
			ProducedQuantity:  o.ProducedQuantity,
			UpdatedAt:         o.UpdatedAt.Format(inventory.TimeFormat),
		}
		if o.ShippedAt != nil {
			s := o.ShippedAt.Format(inventory.TimeFormat)
			rec.ShippedAt = &s
		}
		out = append(out, rec)
	}
	return out
}

// RestoreOrders rebuilds the book from snapshot records. Duplicate keys
// within the records follow Restore's overwrite-with-warning policy.
func (b *Book) RestoreOrders(records []inventory.OrderRecord) error {
	for _, rec := range records {
		o, err := orderFromRecord(rec)
		if err != nil {
			return err
		}
		b.Restore(o)
	}
	return nil
}

func orderFromRecord(rec inventory.OrderRecord) (Order, error) {
	status := Status(rec.Status)
	switch status {
	case StatusNew, StatusPartiallyAllocated, StatusAllocated,
		StatusInProduction, StatusAwaitingShipment, StatusShipped, StatusCancelled:
	default:
		return Order{}, &inventory.CorruptSnapshotError{Source: "orders",
			Err: fmt.Errorf("order %s-%s has unknown status %q", rec.TransID, rec.SeqID, rec.Status)}
	}

	// Records written before kinds existed default to sales.
	kind := Kind(rec.Kind)
	switch kind {
	case KindSales, KindProduction:
	case "":
		kind = KindSales
	default:
		return Order{}, &inventory.CorruptSnapshotError{Source: "orders",
			Err: fmt.Errorf("order %s-%s has unknown kind %q", rec.TransID, rec.SeqID, rec.Kind)}
	}

	if rec.Quantity <= 0 || rec.AllocatedQuantity < 0 || rec.AllocatedQuantity > rec.Quantity {
		return Order{}, &inventory.CorruptSnapshotError{Source: "orders",
			Err: fmt.Errorf("order %s-%s has inconsistent quantities", rec.TransID, rec.SeqID)}
	}

	createdAt, err := time.Parse(inventory.TimeFormat, rec.Date)
	if err != nil {
		return Order{}, &inventory.CorruptSnapshotError{Source: "orders", Err: err}
	}
	updatedAt := createdAt
	if rec.UpdatedAt != "" {
		updatedAt, err = time.Parse(inventory.TimeFormat, rec.UpdatedAt)
		if err != nil {
			return Order{}, &inventory.CorruptSnapshotError{Source: "orders", Err: err}
		}
	}

	o := Order{
		Key:               Key{TransID: rec.TransID, SeqID: rec.SeqID},
		Kind:              kind,
		ProductName:       rec.ProductName,
		Quantity:          rec.Quantity,
		UnitPrice:         decimal.NewFromFloat(rec.UnitPrice),
		Customer:          Customer{ID: rec.CustID, Name: rec.CustName},
		Status:            status,
		AllocatedQuantity: rec.AllocatedQuantity,
		ProducedQuantity:  rec.ProducedQuantity,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
	if rec.ShippedAt != nil {
		shippedAt, err := time.Parse(inventory.TimeFormat, *rec.ShippedAt)
		if err != nil {
			return Order{}, &inventory.CorruptSnapshotError{Source: "orders", Err: err}
		}
		o.ShippedAt = &shippedAt
	}
	return o, nil
}
