package entities

// RoomTypeAvailability reports how a single requested room type fared in an
// availability check.
type RoomTypeAvailability struct {
	RoomTypeID       string   `json:"room_type_id"`
	Requested        int      `json:"requested"`
	Available        int      `json:"available"`
	CandidateRoomIDs []string `json:"candidate_room_ids,omitempty"`
}

// Shortfall returns how many rooms of this type are missing to satisfy the
// request.
func (a RoomTypeAvailability) Shortfall() int {
	if a.Available >= a.Requested {
		return 0
	}
	return a.Requested - a.Available
}

// AvailabilityResult is the outcome of an availability check: per room type,
// candidate free rooms (enough to cover the request) or a shortfall.
type AvailabilityResult struct {
	HotelID    string                 `json:"hotel_id"`
	Range      DateRange              `json:"range"`
	RoomTypes  []RoomTypeAvailability `json:"room_types"`
	CanFulfill bool                   `json:"can_fulfill"`
}

// BookingRequest describes a reservation attempt: how many rooms of each
// type over which range.
type BookingRequest struct {
	UserID         string         `json:"user_id"`
	HotelID        string         `json:"hotel_id"`
	RoomTypeCounts map[string]int `json:"room_type_counts"`
	Range          DateRange      `json:"range"`
}

// Quote is the priced result of a charge computation before any claim.
type Quote struct {
	HotelID     string      `json:"hotel_id"`
	Range       DateRange   `json:"range"`
	Nights      int         `json:"nights"`
	RoomCharges []RoomQuote `json:"room_charges"`
	TotalCharge int64       `json:"total_charge_cents"`
}

// RoomQuote is a single room's priced share of a quote.
type RoomQuote struct {
	RoomID     string `json:"room_id"`
	RoomTypeID string `json:"room_type_id"`
	Charge     int64  `json:"charge_cents"`
}
