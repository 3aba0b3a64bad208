package database

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type Location struct {
	ID     uuid.UUID
	Code   string
	Name   string
	Kind   string
	City   pgtype.Text
	Active bool
}

type Carrier struct {
	ID   uuid.UUID
	Code string
	Name string
	Scac pgtype.Text
}

// Pool is an order line joined with its inventory record, if any.
// InventoryID is invalid until goods have been received for the line.
type Pool struct {
	LineID           uuid.UUID
	OrderID          uuid.UUID
	OrderNo          string
	DestinationCode  string
	Category         string
	EstimatedPallets int64
	RemainingPallets pgtype.Int8
	InventoryID      pgtype.UUID
	PhysicalPallets  int64
	UnbookedPallets  int64
}

type BookingRef struct {
	ID         uuid.UUID
	BookingRef string
}

type BookingLine struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	OrderLineID uuid.UUID
	Pallets     int64
	WeightKg    decimal.Decimal
	Hazardous   bool
	Accounting  string
	SourceRow   int32
}

const (
	AccountingStocked   = "stocked"
	AccountingUnstocked = "unstocked"
)

// Shipment statuses, in lifecycle order.
const (
	ShipmentPending   = "pending"
	ShipmentScheduled = "scheduled"
	ShipmentLoaded    = "loaded"
	ShipmentDeparted  = "departed"
	ShipmentArrived   = "arrived"
	ShipmentDelivered = "delivered"
)

// ShipmentStatuses lists every valid shipment status.
var ShipmentStatuses = []string{
	ShipmentPending, ShipmentScheduled, ShipmentLoaded,
	ShipmentDeparted, ShipmentArrived, ShipmentDelivered,
}
