package session

// Address is a two-line postal address.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// Profile is the patient profile as served by the backend.
type Profile struct {
	ID      string  `json:"_id,omitempty"`
	Name    string  `json:"name"`
	Image   string  `json:"image,omitempty"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
	Gender  string  `json:"gender,omitempty"`
	DOB     string  `json:"dob,omitempty"`
}
