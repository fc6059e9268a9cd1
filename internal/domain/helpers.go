package domain

// LowestAvailableSeat returns the first free seat index, or -1 when full.
func LowestAvailableSeat(seats *[NumSeats]string) Seat {
	for i := 0; i < NumSeats; i++ {
		if seats[i] == "" {
			return Seat(i)
		}
	}
	return -1
}

// SeatOf returns the seat a user occupies, or -1 if they are not seated.
func SeatOf(seats *[NumSeats]string, userID string) Seat {
	for i := 0; i < NumSeats; i++ {
		if seats[i] == userID {
			return Seat(i)
		}
	}
	return -1
}

// OccupiedSeats counts the non-empty seats.
func OccupiedSeats(seats *[NumSeats]string) int {
	count := 0
	for i := 0; i < NumSeats; i++ {
		if seats[i] != "" {
			count++
		}
	}
	return count
}
