package model

import "time"

// PaymentStatus is the payment state of an order.  The booking view only
// ever creates PENDING orders; later transitions belong to checkout.
type PaymentStatus string

const PaymentStatusPending PaymentStatus = "PENDING"

// OrderDraft is the pending order created once per booking session.
// Ticket, combo and menu line items reference it by ID later on.
//
// Fields:
//  ID            – orders.id
//  UserID        – operator/customer the order belongs to.
//  MovieID       – movie of the booking flow.
//  PaymentStatus – always PENDING when created here.
//  TotalPrice    – zero at creation.
//  CreatedAt     – creation timestamp, when reported.
type OrderDraft struct {
	ID            string
	UserID        string
	MovieID       string
	PaymentStatus PaymentStatus
	TotalPrice    int64
	CreatedAt     time.Time
}
