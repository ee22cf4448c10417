package model

// Booking is one live reservation of a (date, time) slot.  It mirrors a
// single row of the booking ledger.
//
// Fields:
//  BookingID   – opaque external identifier, generated once and never reused.
//  FirstName   – given name.
//  MiddleName  – optional middle name.
//  LastName    – family name.
//  PhoneNumber – contact phone number.
//  Email       – contact email; together with BookingID it gates mutations.
//  SlotDate    – ISO date of the slot (YYYY-MM-DD).
//  SlotTime    – display time of the slot (e.g. "2:00 PM").
//  Description – optional free text supplied by the customer.
//  Confirmed   – set by staff once the booking has been reviewed.
//  Completed   – set by staff once the event took place.
//  Row         – position in the backing store; 0 when the store is keyed.
type Booking struct {
	BookingID   string `json:"booking_id"`
	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name,omitempty"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	SlotDate    string `json:"slot_date"`
	SlotTime    string `json:"slot_time"`
	Description string `json:"description,omitempty"`
	Confirmed   bool   `json:"confirmed"`
	Completed   bool   `json:"completed"`
	Row         int    `json:"-"`
}

// BookingFields is the caller-editable part of a booking.  It is the
// payload of both a new booking request and an update.
type BookingFields struct {
	FirstName   string
	MiddleName  string
	LastName    string
	PhoneNumber string
	Email       string
	SlotDate    string
	SlotTime    string
	Description string
}

// Fields returns the editable part of b.
func (b Booking) Fields() BookingFields {
	return BookingFields{
		FirstName:   b.FirstName,
		MiddleName:  b.MiddleName,
		LastName:    b.LastName,
		PhoneNumber: b.PhoneNumber,
		Email:       b.Email,
		SlotDate:    b.SlotDate,
		SlotTime:    b.SlotTime,
		Description: b.Description,
	}
}

// Apply overwrites the editable part of b with f.  Workflow flags are
// reset: any edit invalidates a prior staff confirmation.  An empty
// Email in f keeps the current one.
func (b *Booking) Apply(f BookingFields) {
	email := f.Email
	if email == "" {
		email = b.Email
	}
	b.FirstName = f.FirstName
	b.MiddleName = f.MiddleName
	b.LastName = f.LastName
	b.PhoneNumber = f.PhoneNumber
	b.Email = email
	b.SlotDate = f.SlotDate
	b.SlotTime = f.SlotTime
	b.Description = f.Description
	b.Confirmed = false
	b.Completed = false
}

// NewBooking builds an unconfirmed booking from request fields.
func NewBooking(id string, f BookingFields) Booking {
	b := Booking{BookingID: id}
	b.Apply(f)
	return b
}
